package handlers

import (
	"net/http"

	apperrors "github.com/blocktrail/blocktrail-go/internal/errors"
)

var defaultHTTPErrorResponder = apperrors.RespondWithAPIError

var httpErrorResponder = defaultHTTPErrorResponder

// SetHTTPErrorResponder lets the server package install its error handler.
func SetHTTPErrorResponder(responder func(http.ResponseWriter, *http.Request, error)) {
	if responder == nil {
		httpErrorResponder = defaultHTTPErrorResponder
		return
	}
	httpErrorResponder = responder
}

// ResetHTTPErrorResponder restores the default responder.
func ResetHTTPErrorResponder() {
	httpErrorResponder = defaultHTTPErrorResponder
}

func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	httpErrorResponder(w, r, err)
}
