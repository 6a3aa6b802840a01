package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/promptform/promptform/app"
	"github.com/promptform/promptform/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Get("/", Index(app))
	root.Get("/health", Health(app))

	root.Get("/login", LoginPage(app))
	root.Post("/login", Login(app))
	root.Get("/signup", SignupPage(app))
	root.Post("/signup", Signup(app))
	root.Get("/logout", Logout(app))
	root.Post("/api/refresh", Refresh(app))

	root.Post("/generate", Generate(app))

	// public form pages, keyed by slug
	root.Get(`/form/{slug:^[A-Za-z0-9]+$}`, ViewForm(app))
	root.Post(`/form/{slug:^[A-Za-z0-9]+$}`, SubmitForm(app))

	root.Group(func(r chi.Router) {
		r.Use(middlewares.CookieAuth(app.BearerServer), middlewares.Authenticated(app.TokenSecret))

		r.Post("/finalize_form", FinalizeForm(app))
		r.Get("/dashboard", Dashboard(app))
		r.Get(`/form/{id:^\d+$}/responses`, ViewResponses(app))
	})

	root.Mount("/static", http.StripPrefix("/static", servePublicFiles()))

	return root
}

func servePublicFiles() http.Handler {
	return http.FileServer(http.Dir("public"))
}
