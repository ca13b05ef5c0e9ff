package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kr-equities/aegis-quant/internal/gateway"
)

// respondJSON writes data as the HTTP body with status. Every handler in
// this package funnels through it so the wire shape stays uniform.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondData writes the `{success: true, data: ...}` envelope.
func respondData(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

// respondMessage writes the `{success: true, message: ...}` envelope, for
// endpoints that trigger an action rather than return a resource.
func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]interface{}{
		"success": true,
		"message": message,
	})
}

// respondError writes the `{success: false, detail: ...}` envelope.
func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]interface{}{
		"success": false,
		"detail":  detail,
	})
}

// respondGatewayError maps a Gateway error to the HTTP status spec §7
// assigns it: ErrDataUnavailable/ErrNotImplemented are on-demand
// data-unavailable conditions (500, vendor message passed through);
// anything else is treated the same way rather than guessing at a
// finer-grained mapping the Gateway doesn't expose.
func respondGatewayError(w http.ResponseWriter, err error) {
	if errors.Is(err, gateway.ErrDataUnavailable) || errors.Is(err, gateway.ErrNotImplemented) {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

// parseDateParam parses a YYYY-MM-DD query parameter, defaulting to
// defaultDate when absent. A malformed date is the caller's
// responsibility to turn into a 400 — it returns the parse error
// unchanged so the handler can do so.
func parseDateParam(r *http.Request, name string, defaultDate time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultDate, nil
	}
	return time.Parse("2006-01-02", raw)
}
