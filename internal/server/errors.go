package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"agroproposals/internal/codec"
	"agroproposals/internal/pdf"
	"agroproposals/pkg/types"
)

// userMessage coalesces an internal error into the text shown to the user.
// The full error only ever goes to the log.
func userMessage(err error) (string, int) {
	var upstream *types.UpstreamError

	switch {
	case err == nil:
		return "", http.StatusOK
	case errors.Is(err, types.ErrNotAuthenticated):
		return "Not authenticated", http.StatusUnauthorized
	case errors.Is(err, types.ErrInvalidContent):
		return "Invalid PDF file", http.StatusBadRequest
	case errors.Is(err, types.ErrUnauthorized):
		return "Unauthorized", http.StatusForbidden
	case errors.Is(err, types.ErrInvalidReference):
		return "Invalid PDF URL", http.StatusBadRequest
	case errors.Is(err, types.ErrProposalNotFound):
		return "Proposal not found", http.StatusNotFound
	case errors.Is(err, pdf.ErrUnsupportedSignature), errors.Is(err, codec.ErrDecode):
		return "The signature could not be read, please clear it and sign again", http.StatusBadRequest
	case errors.As(err, &upstream):
		return "We could not save your proposal right now, please try again", http.StatusBadGateway
	default:
		return "An error occurred", http.StatusInternalServerError
	}
}

type apiResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Service) writeJSON(w http.ResponseWriter, status int, body apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("failed to write json response")
	}
}

func (s *Service) writeJSONError(w http.ResponseWriter, err error) {
	msg, status := userMessage(err)
	s.writeJSON(w, status, apiResponse{Success: false, Error: msg})
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
