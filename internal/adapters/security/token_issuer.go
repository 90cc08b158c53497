package security

import (
	"github.com/google/uuid"
)

// UUIDTokenIssuer mints verification and reset tokens as random UUIDs.
// UUIDv4 carries 122 bits of randomness, which is plenty for a short-lived,
// single-use token delivered out of band.
type UUIDTokenIssuer struct{}

func NewUUIDTokenIssuer() *UUIDTokenIssuer {
	return &UUIDTokenIssuer{}
}

func (UUIDTokenIssuer) NewToken() string {
	return uuid.NewString()
}
