package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/ontriq-site/internal/config"
	"github.com/xavierca1/ontriq-site/internal/infra/http/handlers"
	"github.com/xavierca1/ontriq-site/internal/infra/http/middleware"
)

func (a *app) healthChecks() map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{
		"database": nil,
		"redis":    nil,
		"rabbitmq": nil,
	}
	if a.db != nil {
		checks["database"] = a.db
	}
	if a.redis != nil {
		checks["redis"] = handlers.PingFunc(a.redis.Ping)
	}
	if a.rabbit != nil {
		checks["rabbitmq"] = a.rabbit
	}
	return checks
}

func (a *app) router() http.Handler {
	inquiryHandler := handlers.NewInquiryHandler(a.createInq, a.logger)
	chatHandler := handlers.NewChatHandler(a.concierge, a.limiter, a.cfg.ChatRateLimit, a.logger)
	authHandler := handlers.NewAuthHandler(a.identity, a.sessions, a.boards, a.cfg.CookieSecure, a.logger)
	adminHandler := handlers.NewAdminHandler(a.boards, a.logger)
	healthHandler := handlers.NewHealthHandler(version, a.healthChecks())
	guard := middleware.NewAdminGuard(a.sessions, a.identity, a.logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   config.Split(a.cfg.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/inquiries", inquiryHandler.Create)
	r.Post("/api/chat", chatHandler.Handle)

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Group(func(r chi.Router) {
			r.Use(guard.API)
			adminHandler.Routes(r)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(guard.Pages)
		r.Get("/", adminHandler.Dashboard)
		r.Get("/login", authHandler.LoginPage)
		r.Get("/crm", adminHandler.GetBoard)
		r.Get("/inquiries", adminHandler.GetBoard)
	})

	return r
}
