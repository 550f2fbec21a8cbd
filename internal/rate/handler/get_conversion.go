package handler

import (
	"net/http"
	"strings"

	"cbrrates/internal/rate"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func (h *Handler) GetConversion(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(chi.URLParam(r, "date"))
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))

	amountText := strings.TrimSpace(r.URL.Query().Get("amount"))
	if amountText == "" {
		writeError(w, http.StatusBadRequest, "amount is required")
		return
	}
	amount, err := rate.ParseLocaleDecimal(amountText)
	if err != nil || amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "amount must be a non-negative number")
		return
	}

	conversion, err := h.rates.ConvertToRubles(r.Context(), date, code, amount.InexactFloat64())
	if err != nil {
		writeServiceError(w, err, "ups, couldn't convert this amount",
			logrus.Fields{"handler": "GetConversion", "date": date, "code": code})
		return
	}
	writeJSON(w, http.StatusOK, conversion)
}
