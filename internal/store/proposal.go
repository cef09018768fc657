package store

import (
	"agroproposals/internal/utils"
	"agroproposals/pkg/types"
	"context"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

const proposalTableName = "agro.proposals"

var proposalColumns = utils.StructTagValues(types.Proposal{})

// ProposalRepository reads and writes proposals. Every query is filtered by
// the owner, so a proposal owned by someone else looks exactly like one that
// does not exist.
type ProposalRepository struct {
	pool *pgxpool.Pool
}

func NewProposalRepository(pool *pgxpool.Pool) *ProposalRepository {
	return &ProposalRepository{pool: pool}
}

func (r *ProposalRepository) Proposal(ctx context.Context, ownerID, proposalID string) (*types.Proposal, error) {
	if ownerID == "" {
		return nil, types.ErrNotAuthenticated
	}

	query, args, err := psql().Select(proposalColumns...).From(proposalTableName).
		Where(sq.Eq{"id": proposalID, "user_id": ownerID}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate proposal query: %w", err)
	}

	var proposal = new(types.Proposal)
	err = pgxscan.Get(ctx, r.pool, proposal, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrProposalNotFound
		}
		return nil, &types.UpstreamError{Op: "fetch proposal", Err: err}
	}

	return proposal, nil
}

// ProposalsByOwner lists the owner's proposals, newest first.
func (r *ProposalRepository) ProposalsByOwner(ctx context.Context, ownerID string) ([]*types.Proposal, error) {
	if ownerID == "" {
		return nil, types.ErrNotAuthenticated
	}

	query, args, err := psql().Select(proposalColumns...).From(proposalTableName).
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("created_at desc", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate proposals by owner query: %w", err)
	}

	var proposals = make([]*types.Proposal, 0)
	err = pgxscan.Select(ctx, r.pool, &proposals, query, args...)
	if err != nil {
		return nil, &types.UpstreamError{Op: "list proposals", Err: err}
	}

	return proposals, nil
}

func (r *ProposalRepository) CreateProposal(ctx context.Context, ownerID string, fields types.ProposalFields, pdfURL string) (*types.Proposal, error) {
	if ownerID == "" {
		return nil, types.ErrNotAuthenticated
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	proposal := &types.Proposal{
		ID:        utils.NanoID(),
		UserID:    ownerID,
		Area:      fields.Area,
		Plant:     fields.Plant,
		Name:      fields.Name,
		Email:     fields.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pdfURL != "" {
		proposal.PDFURL = utils.StringPtr(pdfURL)
	}

	query, args, err := psql().Insert(proposalTableName).SetMap(utils.StructToMap(proposal)).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate insert proposal query: %w", err)
	}

	_, err = r.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, &types.UpstreamError{Op: "create proposal", Err: err}
	}

	return proposal, nil
}

// UpdateProposal overwrites the editable fields. An empty pdfURL keeps the
// stored reference. The owner column is never written.
func (r *ProposalRepository) UpdateProposal(ctx context.Context, ownerID, proposalID string, fields types.ProposalFields, pdfURL string) (*types.Proposal, error) {
	if ownerID == "" {
		return nil, types.ErrNotAuthenticated
	}

	setMap := utils.StructToMap(fields)
	setMap["updated_at"] = time.Now().UTC().Truncate(time.Microsecond)
	if pdfURL != "" {
		setMap["pdf_url"] = nullable(pdfURL)
	}

	query, args, err := psql().Update(proposalTableName).
		SetMap(setMap).
		Where(sq.Eq{"id": proposalID, "user_id": ownerID}).
		Suffix("RETURNING " + strings.Join(proposalColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to generate update proposal query for proposal %s: %w", proposalID, err)
	}

	var proposal = new(types.Proposal)
	err = pgxscan.Get(ctx, r.pool, proposal, query, args...)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, types.ErrProposalNotFound
		}
		return nil, &types.UpstreamError{Op: "update proposal", Err: err}
	}

	return proposal, nil
}

func (r *ProposalRepository) DeleteProposal(ctx context.Context, ownerID, proposalID string) error {
	if ownerID == "" {
		return types.ErrNotAuthenticated
	}

	query, args, err := psql().Delete(proposalTableName).
		Where(sq.Eq{"id": proposalID, "user_id": ownerID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to generate delete proposal query for proposal %s: %w", proposalID, err)
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return &types.UpstreamError{Op: "delete proposal", Err: err}
	}

	if tag.RowsAffected() == 0 {
		return types.ErrProposalNotFound
	}

	return nil
}
