package server

import (
	"net/http"

	apperrors "github.com/blocktrail/blocktrail-go/internal/errors"
)

// HandleError writes every gateway error as an envelope.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithAPIError(w, r, err)
}
