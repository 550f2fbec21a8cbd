package handler

import (
	"cbrrates/internal/domain"
	"cbrrates/internal/rate"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type RatesService interface {
	RecordsForDate(ctx context.Context, date string) ([]domain.CurrencyRecord, error)
	RecordsForCurrencies(ctx context.Context, date string, letterCodes []string) ([]domain.CurrencyRecord, error)
	RecordByCode(ctx context.Context, date, letterCode string) (domain.CurrencyRecord, error)
	ConvertToRubles(ctx context.Context, date, letterCode string, amount float64) (rate.Conversion, error)
	Changes(ctx context.Context, date string) ([]domain.RateChange, error)
}

type RunsService interface {
	Submit(req rate.RunRequest) (uuid.UUID, error)
	Get(id uuid.UUID) (rate.RunView, bool)
}

type CurrencyLister interface {
	Codes() []string
}

type Handler struct {
	rates      RatesService
	runs       RunsService
	currencies CurrencyLister
}

func NewRateHandler(rates RatesService, runs RunsService, currencies CurrencyLister) *Handler {
	return &Handler{rates: rates, runs: runs, currencies: currencies}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorMsg,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeServiceError maps pipeline errors to status codes. Unexpected errors are logged under msg.
func writeServiceError(w http.ResponseWriter, err error, msg string, fields logrus.Fields) {
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrRateNotFound):
		writeError(w, http.StatusNotFound, "rate not found")
	case errors.Is(err, domain.ErrTransport), errors.Is(err, domain.ErrNonSuccessStatus):
		logrus.WithError(err).WithFields(fields).Warn("Rates source unavailable")
		writeError(w, http.StatusBadGateway, "rates source unavailable, try again later")
	default:
		logrus.WithError(err).WithFields(fields).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
	}
}
