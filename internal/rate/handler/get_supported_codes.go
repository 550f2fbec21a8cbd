package handler

import (
	"net/http"
)

type GetSupportedCodesResponse struct {
	Codes []string `json:"codes"`
	// All is true when no allow-list is configured and every published currency is collected.
	All bool `json:"all"`
}

func (h *Handler) GetSupportedCodes(w http.ResponseWriter, _ *http.Request) {
	codes := h.currencies.Codes()
	if codes == nil {
		codes = []string{}
	}
	writeJSON(w, http.StatusOK, GetSupportedCodesResponse{Codes: codes, All: len(codes) == 0})
}
