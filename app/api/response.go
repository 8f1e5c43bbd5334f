package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/puestito/ventas-pos/models"
)

// OKResponse writes data as JSON with the given status code.
func OKResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// ErrorResponse writes {"error": message} with the given status code.
func ErrorResponse(w http.ResponseWriter, status int, message string) {
	OKResponse(w, status, map[string]string{"error": message})
}

// MessageResponse writes {"message": message} with status 200.
func MessageResponse(w http.ResponseWriter, message string) {
	OKResponse(w, http.StatusOK, map[string]string{"message": message})
}

// StoreError translates a store error into an HTTP response. Not-found and
// validation errors are user-facing; anything else is logged and answered
// with failMessage only.
func StoreError(w http.ResponseWriter, log *zap.Logger, err error, notFoundMessage, failMessage string) {
	var verr *models.ValidationError
	switch {
	case errors.Is(err, models.ErrNotFound):
		ErrorResponse(w, http.StatusNotFound, notFoundMessage)
	case errors.As(err, &verr):
		ErrorResponse(w, http.StatusBadRequest, verr.Error())
	default:
		log.Error(failMessage, zap.Error(err))
		ErrorResponse(w, http.StatusInternalServerError, failMessage)
	}
}

// LedgerPath is the route prefix of a ledger's sales, named after its sales table.
func LedgerPath(l models.Ledger) string {
	return "/api/" + l.SalesTable
}
