// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/danielhkuo/hive-decide/db"
	"github.com/danielhkuo/hive-decide/models"
)

const proposalColumns = `id, session_id, proposal_set, source_cluster_index, statement_text, display_order, agree_percent, created_at`

func scanProposal(row interface{ Scan(...any) error }) (models.Proposal, error) {
	var p models.Proposal
	err := row.Scan(
		&p.ID, &p.SessionID, &p.ProposalSet, &p.SourceClusterIndex,
		&p.StatementText, &p.DisplayOrder, &p.AgreePercent, &p.CreatedAt,
	)
	return p, err
}

// InsertProposals writes proposals in order. Proposals are immutable once
// written.
func InsertProposals(ctx context.Context, q db.Querier, proposals []models.Proposal) error {
	for _, p := range proposals {
		_, err := q.ExecContext(ctx, `
			INSERT INTO proposal (`+proposalColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, p.ID, p.SessionID, p.ProposalSet, nullable(p.SourceClusterIndex), p.StatementText, p.DisplayOrder, nullable(p.AgreePercent), Timestamp(p.CreatedAt))
		if err != nil {
			return fmt.Errorf("insert proposal %d: %w", p.DisplayOrder, err)
		}
	}
	return nil
}

// GetProposal loads a proposal by id.
func GetProposal(ctx context.Context, q db.Querier, id string) (models.Proposal, error) {
	p, err := scanProposal(q.QueryRowContext(ctx, `
		SELECT `+proposalColumns+`
		FROM proposal
		WHERE id = $1
	`, id))
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if err != nil {
		return p, fmt.Errorf("query proposal: %w", err)
	}
	return p, nil
}

// ProposalsBySet returns one proposal set of a session in display order.
func ProposalsBySet(ctx context.Context, q db.Querier, sessionID string, set int) ([]models.Proposal, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+proposalColumns+`
		FROM proposal
		WHERE session_id = $1 AND proposal_set = $2
		ORDER BY display_order, id
	`, sessionID, set)
	if err != nil {
		return nil, fmt.Errorf("query proposals: %w", err)
	}
	defer rows.Close()

	proposals := []models.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

// MaxProposalSet returns the highest proposal set number of a session, or 0.
func MaxProposalSet(ctx context.Context, q db.Querier, sessionID string) (int, error) {
	var n sql.NullInt64
	err := q.QueryRowContext(ctx, `
		SELECT MAX(proposal_set) FROM proposal WHERE session_id = $1
	`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("query proposal sets: %w", err)
	}
	return int(n.Int64), nil
}
