package proposal

import (
	"context"
	"errors"
	"strings"
	"time"

	"agroproposals/internal/codec"
	"agroproposals/internal/metrics"
	"agroproposals/internal/pdf"
	"agroproposals/internal/storage"
	"agroproposals/internal/utils"
	"agroproposals/internal/validation"
	"agroproposals/pkg/types"

	"github.com/sirupsen/logrus"
)

type Renderer interface {
	Render(doc pdf.Document) ([]byte, error)
}

// DocumentStore is the storage gateway as seen by the pipeline.
type DocumentStore interface {
	PutEncoded(ctx context.Context, ownerID, fileName, payload string) (string, error)
	ReplaceEncoded(ctx context.Context, ownerID, fileName, payload, oldURL string) (string, error)
	Remove(ctx context.Context, ownerID, url string) error
}

type Repository interface {
	Proposal(ctx context.Context, ownerID, proposalID string) (*types.Proposal, error)
	ProposalsByOwner(ctx context.Context, ownerID string) ([]*types.Proposal, error)
	CreateProposal(ctx context.Context, ownerID string, fields types.ProposalFields, pdfURL string) (*types.Proposal, error)
	UpdateProposal(ctx context.Context, ownerID, proposalID string, fields types.ProposalFields, pdfURL string) (*types.Proposal, error)
	DeleteProposal(ctx context.Context, ownerID, proposalID string) error
}

// Submission is one press of the form's submit button. ProposalID is set
// when an existing proposal is being edited.
type Submission struct {
	ProposalID string
	Fields     types.ProposalFields
	Signature  []byte
}

type Result struct {
	Proposal *types.Proposal
	Mode     Mode
	FileName string
	Stages   []Stage
}

type Service struct {
	renderer  Renderer
	documents DocumentStore
	proposals Repository
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(
	renderer Renderer,
	documents DocumentStore,
	proposals Repository,
	logger logrus.FieldLogger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		renderer:  renderer,
		documents: documents,
		proposals: proposals,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

// Submit runs the whole pipeline once. Nothing is retried and nothing is
// resumed, a failed submission leaves the caller free to submit again from
// scratch. The record is only written after the PDF upload returned a URL.
func (s *Service) Submit(ctx context.Context, identity *types.Identity, sub Submission) (*Result, error) {
	if !identity.Authenticated() {
		return nil, types.ErrNotAuthenticated
	}

	fields := normalize(sub.Fields)
	mode := ModeCreate
	if sub.ProposalID != "" {
		mode = ModeEdit
	}

	run := &run{
		service: s,
		mode:    mode,
		logger: s.logger.WithFields(logrus.Fields{
			"user_id":     identity.ID,
			"mode":        mode,
			"proposal_id": sub.ProposalID,
		}),
	}

	run.enter(StageValidating)
	if errs := validation.Proposal(fields); !errs.Valid() {
		return nil, run.fail(errs)
	}

	var existing *types.Proposal
	if mode == ModeEdit {
		var err error
		existing, err = s.proposals.Proposal(ctx, identity.ID, sub.ProposalID)
		if err != nil {
			return nil, run.fail(err)
		}
	}

	run.enter(StageRendering)
	rendered, err := s.renderer.Render(pdf.Document{
		Area:      fields.Area,
		Plant:     fields.Plant,
		Name:      fields.Name,
		Email:     fields.Email,
		Signature: sub.Signature,
	})
	if err != nil {
		return nil, run.fail(err)
	}

	run.enter(StageEncoding)
	fileName := pdf.FileName(fields.Name, s.now())
	payload := codec.EncodeDataURL(storage.PDFContentType, rendered)

	run.enter(StageUploading)
	var pdfURL string
	if mode == ModeEdit {
		pdfURL, err = s.documents.ReplaceEncoded(ctx, identity.ID, fileName, payload, utils.PtrString(existing.PDFURL))
	} else {
		pdfURL, err = s.documents.PutEncoded(ctx, identity.ID, fileName, payload)
	}
	if err != nil {
		return nil, run.fail(err)
	}

	run.enter(StagePersisting)
	var saved *types.Proposal
	if mode == ModeEdit {
		saved, err = s.proposals.UpdateProposal(ctx, identity.ID, existing.ID, fields, pdfURL)
	} else {
		saved, err = s.proposals.CreateProposal(ctx, identity.ID, fields, pdfURL)
	}
	if err != nil {
		// the uploaded pdf stays behind, no rollback
		run.logger.WithField("pdf_url", pdfURL).Warn("pdf uploaded but proposal record was not saved")
		return nil, run.fail(err)
	}

	run.enter(StageDone)
	run.logger.WithField("proposal_id", saved.ID).Info("proposal submitted")

	return &Result{
		Proposal: saved,
		Mode:     mode,
		FileName: fileName,
		Stages:   run.stages,
	}, nil
}

// Delete removes the record and then its PDF. The PDF removal is best
// effort so a storage hiccup never resurrects a deleted proposal.
func (s *Service) Delete(ctx context.Context, identity *types.Identity, proposalID string) error {
	if !identity.Authenticated() {
		return types.ErrNotAuthenticated
	}

	existing, err := s.proposals.Proposal(ctx, identity.ID, proposalID)
	if err != nil {
		return err
	}

	err = s.proposals.DeleteProposal(ctx, identity.ID, proposalID)
	if err != nil {
		return err
	}

	pdfURL := utils.PtrString(existing.PDFURL)
	if pdfURL == "" {
		return nil
	}

	err = s.documents.Remove(ctx, identity.ID, pdfURL)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id":     identity.ID,
			"proposal_id": proposalID,
			"pdf_url":     pdfURL,
		}).Warn("proposal deleted but its pdf could not be removed")
	}

	return nil
}

func (s *Service) List(ctx context.Context, identity *types.Identity) ([]*types.Proposal, error) {
	if !identity.Authenticated() {
		return nil, types.ErrNotAuthenticated
	}

	return s.proposals.ProposalsByOwner(ctx, identity.ID)
}

func (s *Service) Get(ctx context.Context, identity *types.Identity, proposalID string) (*types.Proposal, error) {
	if !identity.Authenticated() {
		return nil, types.ErrNotAuthenticated
	}

	return s.proposals.Proposal(ctx, identity.ID, proposalID)
}

func normalize(f types.ProposalFields) types.ProposalFields {
	return types.ProposalFields{
		Area:  strings.TrimSpace(f.Area),
		Plant: strings.TrimSpace(f.Plant),
		Name:  strings.TrimSpace(f.Name),
		Email: strings.TrimSpace(f.Email),
	}
}

// run tracks one pass through the pipeline.
type run struct {
	service *Service
	mode    Mode
	logger  logrus.FieldLogger
	stage   Stage
	entered time.Time
	stages  []Stage
}

func (r *run) enter(next Stage) {
	r.leave()

	r.stage = next
	r.entered = r.service.now()
	r.stages = append(r.stages, next)
	r.logger.WithField("stage", next).Debug("proposal submission stage")

	if next == StageDone {
		r.record(StageDone, "ok")
	}
}

func (r *run) fail(err error) error {
	failedIn := r.stage
	r.leave()
	r.stages = append(r.stages, StageFailed)

	var fieldErrs validation.FieldErrors
	if errors.As(err, &fieldErrs) {
		r.logger.WithField("field_errors", map[string]string(fieldErrs)).Info("proposal submission rejected by validation")
		r.record(failedIn, "invalid")
	} else {
		r.logger.WithError(err).WithField("stage", failedIn).Error("proposal submission failed")
		r.record(failedIn, "error")
	}

	r.stage = StageFailed

	return &StageError{Stage: failedIn, Err: err}
}

func (r *run) leave() {
	if r.stage == StageIdle || r.stage == StageDone || r.stage == StageFailed {
		return
	}

	if m := r.service.metrics; m != nil {
		m.StageDuration.WithLabelValues(r.stage.String()).Observe(r.service.now().Sub(r.entered).Seconds())
	}
}

func (r *run) record(stage Stage, result string) {
	if m := r.service.metrics; m != nil {
		m.Submissions.WithLabelValues(string(r.mode), stage.String(), result).Inc()
	}
}
