// internal/api/handler/response.go
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/render"
	"go.uber.org/zap"

	"finledger/internal/util"
)

// DefaultTimeout bounds the handling of a single request.
const DefaultTimeout = 30 * time.Second

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	render.Status(r, code)
	render.JSON(w, r, payload)
}

// StatusFor maps an error kind to its HTTP status code.
func StatusFor(err error) int {
	switch util.KindOf(err) {
	case util.KindNotFound, util.KindUserNotFound, util.KindStatementNotFound:
		return http.StatusNotFound
	case util.KindInsufficientFunds, util.KindInvalidReceiver, util.KindInvalidInput:
		return http.StatusBadRequest
	case util.KindDuplicateEntry:
		return http.StatusConflict
	case util.KindIncorrectCredentials, util.KindInvalidToken:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondWithError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	code := StatusFor(err)
	message := "Internal server error"
	if code == http.StatusInternalServerError {
		logger.Error("Unhandled service error",
			zap.String("path", r.URL.Path),
			zap.Error(err))
	} else {
		message = util.KindOf(err).String()
		// Validation failures carry the offending detail.
		var e *util.Error
		if code == http.StatusBadRequest && errors.As(err, &e) && e.Err != nil {
			message = e.Err.Error()
		}
	}
	respondWithJSON(w, r, code, ErrorResponse{Message: message})
}
