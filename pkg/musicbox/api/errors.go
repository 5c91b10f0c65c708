package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/shahzod418/musicbox/pkg/musicbox"
)

var errTooLarge = errors.New("request too large")

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps a service error onto an HTTP status
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, errTooLarge):
		status, code = http.StatusRequestEntityTooLarge, "too_large"
	case errors.Is(err, musicbox.ErrValidation):
		status, code = http.StatusBadRequest, "validation"
	case errors.Is(err, musicbox.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, musicbox.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, musicbox.ErrStorageWrite), errors.Is(err, musicbox.ErrStorageRead):
		code = "storage"
	}

	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		slog.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeStatus(w, r, status, code, err.Error())
}

func writeStatus(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}
