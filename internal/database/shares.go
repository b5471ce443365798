package database

import (
	"context"
	"errors"
	"time"

	"magazyn-dokumentow/internal/models"

	"github.com/jackc/pgx/v5"
)

var ErrShareNodeNotFound = errors.New("node not found for share update")

// ApplyShareGrantParams describes one grant or revoke applied to a node's
// direct share list.
type ApplyShareGrantParams struct {
	NodeID string
	Grant  models.ShareGrant
	Revoke bool
}

// ApplyShareGrant mutates a node's direct shares: a grant merges the action
// set into the principal's entry, a revoke removes the listed actions and
// drops the entry once empty. A revoke with no actions drops the principal's
// entry entirely. Returns the resulting direct share list.
func (q *Queries) ApplyShareGrant(ctx context.Context, arg ApplyShareGrantParams) (models.ShareGrants, error) {
	var shares models.ShareGrants
	err := q.db.QueryRow(ctx, `SELECT shares FROM nodes WHERE id = $1 FOR UPDATE`, arg.NodeID).Scan(&shares)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShareNodeNotFound
		}
		return nil, err
	}

	if arg.Revoke {
		shares = revokeGrant(shares, arg.Grant)
	} else {
		shares = mergeGrant(shares, arg.Grant)
	}

	query := `
		UPDATE nodes
		SET shares = $1, modified_at = $2
		WHERE id = $3
	`
	if _, err := q.db.Exec(ctx, query, shares, time.Now(), arg.NodeID); err != nil {
		return nil, err
	}

	return shares, nil
}

func mergeGrant(shares models.ShareGrants, grant models.ShareGrant) models.ShareGrants {
	for i, existing := range shares {
		if existing.SamePrincipal(grant) {
			for _, action := range grant.Actions {
				if !existing.HasAction(action) {
					existing.Actions = append(existing.Actions, action)
				}
			}
			shares[i] = existing
			return shares
		}
	}
	return append(shares, grant)
}

func revokeGrant(shares models.ShareGrants, grant models.ShareGrant) models.ShareGrants {
	result := shares[:0]
	for _, existing := range shares {
		if !existing.SamePrincipal(grant) {
			result = append(result, existing)
			continue
		}

		// An empty action list revokes the principal entirely.
		if len(grant.Actions) == 0 {
			continue
		}

		var kept []string
		for _, action := range existing.Actions {
			if !grant.HasAction(action) {
				kept = append(kept, action)
			}
		}
		if len(kept) > 0 {
			existing.Actions = kept
			result = append(result, existing)
		}
	}

	if len(result) == 0 {
		return models.ShareGrants{}
	}
	return result
}

// InheritedShareUpdate is one per-node instruction produced by the share
// inheritance recomputation.
type InheritedShareUpdate struct {
	NodeID          string
	InheritedShares models.ShareGrants
}

// UpdateInheritedShares applies a recomputation batch in one round trip. Run
// it inside ExecTx so readers never observe a half-updated subtree.
func (q *Queries) UpdateInheritedShares(ctx context.Context, updates []InheritedShareUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	query := `
		UPDATE nodes
		SET inherited_shares = $1, modified_at = $2
		WHERE id = $3
	`

	now := time.Now()
	batch := &pgx.Batch{}
	for _, u := range updates {
		grants := u.InheritedShares
		if grants == nil {
			grants = models.ShareGrants{}
		}
		batch.Queue(query, grants, now, u.NodeID)
	}

	results := q.db.SendBatch(ctx, batch)
	defer results.Close()

	for range updates {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return results.Close()
}
