package server

import (
	"errors"
	"net/http"
	"strings"

	"agroproposals/internal/codec"
	"agroproposals/internal/proposal"
	"agroproposals/internal/validation"
	"agroproposals/pkg/types"

	"github.com/sirupsen/logrus"
)

// maxFormBytes bounds a proposal form post, the signature PNG dominates it.
const maxFormBytes = 5 << 20

func (s *Service) handleGetProposalForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromContext(ctx)

	data := &types.ProposalFormPageData{
		BasePageData: types.BasePageData{Title: "New Proposal"},
	}

	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		existing, err := s.proposals.Get(ctx, identity, id)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"user_id":     identity.ID,
				"proposal_id": id,
			}).Info("proposal requested for edit is not available")

			msg, _ := userMessage(err)
			s.redirectWithError(w, r, "/dashboard", msg)
			return
		}

		data.Title = "Edit Proposal"
		data.ProposalID = existing.ID
		data.Editing = true
		data.Fields = existing.Fields()
		if existing.PDFURL != nil {
			data.PDFURL = *existing.PDFURL
		}
	}

	if err := s.renderTemplate(w, r, "page.proposal.form", data); err != nil {
		s.logger.WithError(err).Error("failed to render proposal form")
		return
	}
}

func (s *Service) handlePostProposalForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromContext(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.logger.WithError(err).Warn("failed to parse proposal form")
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}

	var input types.ProposalForm
	if err := decoder.Decode(&input, r.PostForm); err != nil {
		s.logger.WithError(err).Warn("failed to decode proposal form")
		http.Error(w, "invalid form payload", http.StatusBadRequest)
		return
	}

	data := &types.ProposalFormPageData{
		BasePageData: types.BasePageData{Title: "New Proposal"},
		ProposalID:   input.ID,
		Editing:      input.ID != "",
		Fields:       input.Fields(),
	}
	if data.Editing {
		data.Title = "Edit Proposal"
	}

	sub := proposal.Submission{
		ProposalID: input.ID,
		Fields:     input.Fields(),
	}

	var err error
	if input.Signature != "" {
		sub.Signature, err = codec.Decode(input.Signature)
	}

	var result *proposal.Result
	if err == nil {
		result, err = s.proposals.Submit(ctx, identity, sub)
	}

	if err != nil {
		var fieldErrs validation.FieldErrors
		status := http.StatusUnprocessableEntity

		if errors.As(err, &fieldErrs) {
			data.FieldErrors = fieldErrs
			data.Error = "Please fix the highlighted fields."
		} else {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"user_id":     identity.ID,
				"proposal_id": input.ID,
			}).Error("failed to submit proposal")
			data.Error, status = userMessage(err)
		}

		if renderErr := s.renderStatus(w, r, status, "page.proposal.form", data); renderErr != nil {
			s.logger.WithError(renderErr).Error("failed to render proposal form with errors")
		}
		return
	}

	notice := "Proposal added successfully"
	if result.Mode == proposal.ModeEdit {
		notice = "Proposal updated successfully"
	}

	s.redirectWithNotice(w, r, "/dashboard", notice)
}

func (s *Service) handlePostDeleteProposal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity := identityFromContext(ctx)
	id := r.PathValue("id")

	err := s.proposals.Delete(ctx, identity, id)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":     identity.ID,
			"proposal_id": id,
		}).Error("failed to delete proposal")

		msg, _ := userMessage(err)
		s.redirectWithError(w, r, "/dashboard", "Failed to delete proposal: "+msg)
		return
	}

	s.redirectWithNotice(w, r, "/dashboard", "Proposal deleted")
}
