package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"agroproposals/pkg/types"

	"github.com/sirupsen/logrus"
)

const maxPDFRequestBytes = 20 << 20

type uploadPDFRequest struct {
	PDF       string `json:"pdf"`
	FileName  string `json:"file_name"`
	OldPDFURL string `json:"old_pdf_url"`
}

type deletePDFRequest struct {
	PDFURL string `json:"pdf_url"`
}

// handlePostPDF uploads a base64 encoded PDF into the caller's namespace,
// replacing old_pdf_url when one is given.
func (s *Service) handlePostPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromContext(ctx)

	var req uploadPDFRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	var (
		url string
		err error
	)
	if req.OldPDFURL != "" {
		url, err = s.documents.ReplaceEncoded(ctx, identity.ID, req.FileName, req.PDF, req.OldPDFURL)
	} else {
		url, err = s.documents.PutEncoded(ctx, identity.ID, req.FileName, req.PDF)
	}
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":   identity.ID,
			"file_name": req.FileName,
		}).Warn("pdf upload rejected")
		s.writeJSONError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, apiResponse{Success: true, URL: url})
}

func (s *Service) handleDeletePDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromContext(ctx)

	var req deletePDFRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	err := s.documents.Remove(ctx, identity.ID, req.PDFURL)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", identity.ID).Warn("pdf removal rejected")
		s.writeJSONError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, apiResponse{Success: true})
}

// handleGetPDFURL resolves a storage key to its public URL. Reads are public
// so no identity is needed.
func (s *Service) handleGetPDFURL(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.URL.Query().Get("path"))
	if key == "" {
		s.writeJSONError(w, types.ErrInvalidReference)
		return
	}

	s.writeJSON(w, http.StatusOK, apiResponse{Success: true, URL: s.documents.ResolveURL(key)})
}

func (s *Service) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxPDFRequestBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.logger.WithError(err).Warn("failed to decode json request")
		s.writeJSON(w, http.StatusBadRequest, apiResponse{Success: false, Error: "Invalid request body"})
		return false
	}

	return true
}
