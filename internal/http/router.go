package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/checkout/internal/http/auth"
	checkoutHandler "github.com/MrJamesThe3rd/checkout/internal/http/checkout"
	"github.com/MrJamesThe3rd/checkout/internal/http/paymentmethod"
)

func New(
	jwtSecret []byte,
	transactionsV1 *checkoutHandler.Handler,
	paymentMethodsV1 *paymentmethod.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			r.Use(auth.Middleware(jwtSecret))

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRoles(auth.RoleAdmin, auth.RoleReseller, auth.RoleUser))
				transactionsV1.Routes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRoles(auth.RoleAdmin))
				transactionsV1.AdminRoutes(r)
			})
		})

		r.Route("/payment-methods", func(r chi.Router) {
			paymentMethodsV1.Routes(r)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AllowContentType("application/json"))
				r.Use(auth.Middleware(jwtSecret))
				r.Use(auth.RequireRoles(auth.RoleAdmin))
				paymentMethodsV1.AdminRoutes(r)
			})
		})
	})

	return router
}
