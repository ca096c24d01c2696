package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/goliatone/go-crud-admin/crud"
)

// Envelope wraps every response body.
type Envelope struct {
	Data    any    `json:"data"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Success bool   `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Envelope{
		Data:    data,
		Message: message,
		Status:  status,
		Success: status < http.StatusBadRequest,
	})
}

// writeError maps err to a status. Server-side failures are logged and
// reported without detail.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := crud.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		writeJSON(w, status, nil, http.StatusText(status))
		return
	}

	var data any
	var ve *crud.ValidationError
	if errors.As(err, &ve) && len(ve.Fields) > 0 {
		data = map[string]any{"fields": ve.Fields}
	}
	writeJSON(w, status, data, err.Error())
}
