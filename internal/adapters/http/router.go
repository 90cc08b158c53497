package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopmesh/user-service/internal/application"
)

// Handler is the HTTP adapter entrypoint for account use-cases.
// Keeping only application dependency here preserves clean adapter boundaries.
type Handler struct {
	service *application.Service
}

// NewHandler constructs an HTTP handler bound to application service.
func NewHandler(service *application.Service) *Handler {
	return &Handler{service: service}
}

// NewRouter registers HTTP routes and middleware stack.
// Centralizing routes here ensures consistent auth and error behavior across endpoints.
func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(recoverMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/healthz", handler.healthz)
	r.Get("/readyz", handler.readyz)

	r.Route("/users/v1", func(r chi.Router) {
		r.Post("/register", handler.register)
		r.Post("/login", handler.login)
		r.Post("/refresh", handler.refresh)
		r.Post("/email/verify", handler.verifyEmail)
		r.Post("/email/resend-verification", handler.resendVerification)
		r.Post("/password/forgot", handler.forgotPassword)
		r.Post("/password/reset", handler.resetPassword)

		r.Group(func(r chi.Router) {
			r.Use(handler.authMiddleware)
			r.Post("/logout", handler.logout)
			r.Get("/me", handler.getProfile)
			r.Put("/me", handler.updateProfile)
			r.Post("/me/password", handler.changePassword)
			r.Get("/me/login-history", handler.loginHistory)

			r.Route("/me/addresses", func(r chi.Router) {
				r.Get("/", handler.listAddresses)
				r.Post("/", handler.createAddress)
				r.Get("/{address_id}", handler.getAddress)
				r.Put("/{address_id}", handler.updateAddress)
				r.Delete("/{address_id}", handler.deleteAddress)
				r.Put("/{address_id}/default", handler.setDefaultAddress)
			})

			r.Route("/admin/users", func(r chi.Router) {
				r.Use(handler.requireAdmin)
				r.Get("/", handler.adminListUsers)
				r.Get("/{user_id}", handler.adminGetUser)
				r.Delete("/{user_id}", handler.adminDeleteUser)
				r.Post("/{user_id}/lock", handler.adminLockUser)
				r.Post("/{user_id}/unlock", handler.adminUnlockUser)
			})
		})
	})

	return r
}
