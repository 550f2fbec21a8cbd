package api

import (
	"cbrrates/internal/rate/handler"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(rateHandler *handler.Handler, metrics http.Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	if metrics != nil {
		router.Method(http.MethodGet, "/metrics", metrics)
	}

	router.Get("/api/v1/currencies", rateHandler.GetSupportedCodes)
	router.Post("/api/v1/runs", rateHandler.ScheduleRun)
	router.Get("/api/v1/runs/{id}", rateHandler.GetRun)
	router.Get("/api/v1/rates/{date}", rateHandler.GetByDate)
	router.Get("/api/v1/rates/{date}/changes", rateHandler.GetChanges)
	router.Get("/api/v1/rates/{date}/{code:[A-Za-z]{3}}", rateHandler.GetByCode)
	router.Get("/api/v1/rates/{date}/{code:[A-Za-z]{3}}/convert", rateHandler.GetConversion)
	return router
}
