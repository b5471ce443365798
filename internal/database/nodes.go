package database

import (
	"context"
	"errors"
	"time"

	"magazyn-dokumentow/internal/models"

	"github.com/jackc/pgx/v5"
)

const nodeColumns = `id, node_type, parent_id, name, owner_id, owner_name, created_at, modified_at, deleted, shares, inherited_shares, blob_id, content_type, size_bytes, application`

func scanNode(row pgx.Row) (*models.Node, error) {
	var node models.Node
	err := row.Scan(
		&node.ID,
		&node.NodeType,
		&node.ParentID,
		&node.Name,
		&node.OwnerID,
		&node.OwnerName,
		&node.CreatedAt,
		&node.ModifiedAt,
		&node.Deleted,
		&node.Shares,
		&node.InheritedShares,
		&node.BlobID,
		&node.ContentType,
		&node.SizeBytes,
		&node.Application,
	)
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func collectNodes(rows pgx.Rows) ([]models.Node, error) {
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *node)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if nodes == nil {
		return []models.Node{}, nil
	}

	return nodes, nil
}

func (q *Queries) InsertNode(ctx context.Context, node *models.Node) (*models.Node, error) {
	query := `
		INSERT INTO nodes (` + nodeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING ` + nodeColumns

	row := q.db.QueryRow(ctx, query,
		node.ID,
		node.NodeType,
		node.ParentID,
		node.Name,
		node.OwnerID,
		node.OwnerName,
		node.CreatedAt,
		node.ModifiedAt,
		node.Deleted,
		node.Shares,
		node.InheritedShares,
		node.BlobID,
		node.ContentType,
		node.SizeBytes,
		node.Application,
	)

	return scanNode(row)
}

// InsertNodes saves a batch of nodes in one round trip. Parents must precede
// their children in the slice, the parent_id foreign key is checked per row.
func (q *Queries) InsertNodes(ctx context.Context, nodes []models.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	query := `
		INSERT INTO nodes (` + nodeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	batch := &pgx.Batch{}
	for _, node := range nodes {
		batch.Queue(query,
			node.ID,
			node.NodeType,
			node.ParentID,
			node.Name,
			node.OwnerID,
			node.OwnerName,
			node.CreatedAt,
			node.ModifiedAt,
			node.Deleted,
			node.Shares,
			node.InheritedShares,
			node.BlobID,
			node.ContentType,
			node.SizeBytes,
			node.Application,
		)
	}

	results := q.db.SendBatch(ctx, batch)
	defer results.Close()

	for range nodes {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}

	return results.Close()
}

// GetNodeByID fetches a node without any visibility filtering. Used where the
// caller has already been authorized, e.g. resolving a parent folder.
func (q *Queries) GetNodeByID(ctx context.Context, id string) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = $1`

	node, err := scanNode(q.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return node, nil
}

// GetVisibleNode fetches a node the caller owns or has a share grant on.
// Returns nil when the node does not exist or is not visible, the two cases
// are indistinguishable on purpose.
func (q *Queries) GetVisibleNode(ctx context.Context, id string, ident models.Identity, includeDeleted bool) (*models.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE id = $1
		  AND (owner_id = $2 OR EXISTS (
			SELECT 1 FROM jsonb_array_elements(shares || inherited_shares) AS g
			WHERE (g->>'user_id')::bigint = $2 OR g->>'group_id' = ANY($3)
		  ))
	`
	if !includeDeleted {
		query += ` AND NOT deleted`
	}

	node, err := scanNode(q.db.QueryRow(ctx, query, id, ident.UserID, ident.GroupIDs))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return node, nil
}

// GetVisibleNodes resolves a set of ids at once. Ids that do not resolve are
// simply absent from the result, the caller compares counts.
func (q *Queries) GetVisibleNodes(ctx context.Context, ids []string, ident models.Identity) ([]models.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE id = ANY($1) AND NOT deleted
		  AND (owner_id = $2 OR EXISTS (
			SELECT 1 FROM jsonb_array_elements(shares || inherited_shares) AS g
			WHERE (g->>'user_id')::bigint = $2 OR g->>'group_id' = ANY($3)
		  ))
		ORDER BY id
	`
	rows, err := q.db.Query(ctx, query, ids, ident.UserID, ident.GroupIDs)
	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}

// ListChildren lists the direct children of a folder (or the caller's root
// level when parentID is nil) visible to the caller, excluding trashed nodes.
func (q *Queries) ListChildren(ctx context.Context, parentID *string, ident models.Identity) ([]models.Node, error) {
	var rows pgx.Rows
	var err error

	if parentID == nil {
		query := `
			SELECT ` + nodeColumns + `
			FROM nodes
			WHERE parent_id IS NULL AND NOT deleted
			  AND (owner_id = $1 OR EXISTS (
				SELECT 1 FROM jsonb_array_elements(shares || inherited_shares) AS g
				WHERE (g->>'user_id')::bigint = $1 OR g->>'group_id' = ANY($2)
			  ))
			ORDER BY node_type DESC, name, id
		`
		rows, err = q.db.Query(ctx, query, ident.UserID, ident.GroupIDs)
	} else {
		query := `
			SELECT ` + nodeColumns + `
			FROM nodes
			WHERE parent_id = $1 AND NOT deleted
			  AND (owner_id = $2 OR EXISTS (
				SELECT 1 FROM jsonb_array_elements(shares || inherited_shares) AS g
				WHERE (g->>'user_id')::bigint = $2 OR g->>'group_id' = ANY($3)
			  ))
			ORDER BY node_type DESC, name, id
		`
		rows, err = q.db.Query(ctx, query, *parentID, ident.UserID, ident.GroupIDs)
	}

	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}

// ListChildrenAll lists every live direct child of a folder with no caller
// filtering. Only reachable after the subtree root has been resolved through
// a visibility-checked lookup.
func (q *Queries) ListChildrenAll(ctx context.Context, parentID string) ([]models.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE parent_id = $1 AND NOT deleted
		ORDER BY node_type DESC, name, id
	`
	rows, err := q.db.Query(ctx, query, parentID)
	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}

// ListSubtree returns every descendant of the given node (the root itself is
// not included), ordered by materialized path so the result is stable within
// a call.
func (q *Queries) ListSubtree(ctx context.Context, rootID string, includeDeleted bool) ([]models.Node, error) {
	deletedCond := "AND NOT n.deleted"
	if includeDeleted {
		deletedCond = ""
	}

	query := `
		WITH RECURSIVE subtree AS (
			SELECT ` + nodeColumns + `, name::text AS path
			FROM nodes n
			WHERE n.parent_id = $1 ` + deletedCond + `

			UNION ALL

			SELECT n.id, n.node_type, n.parent_id, n.name, n.owner_id, n.owner_name,
			       n.created_at, n.modified_at, n.deleted, n.shares, n.inherited_shares,
			       n.blob_id, n.content_type, n.size_bytes, n.application,
			       st.path || '/' || n.name
			FROM nodes n
			JOIN subtree st ON n.parent_id = st.id
			WHERE TRUE ` + deletedCond + `
		)
		SELECT ` + nodeColumns + ` FROM subtree ORDER BY path, id
	`

	rows, err := q.db.Query(ctx, query, rootID)
	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}

// ListVisible returns every live node the caller can see, anywhere in the
// forest. Inherited shares are materialized per node, so no tree walk is
// needed here.
func (q *Queries) ListVisible(ctx context.Context, ident models.Identity) ([]models.Node, error) {
	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE NOT deleted
		  AND (owner_id = $1 OR EXISTS (
			SELECT 1 FROM jsonb_array_elements(shares || inherited_shares) AS g
			WHERE (g->>'user_id')::bigint = $1 OR g->>'group_id' = ANY($2)
		  ))
		ORDER BY node_type DESC, name, id
	`
	rows, err := q.db.Query(ctx, query, ident.UserID, ident.GroupIDs)
	if err != nil {
		return nil, err
	}

	return collectNodes(rows)
}

func (q *Queries) NodeExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM nodes WHERE id = $1)`
	err := q.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (q *Queries) UpdateName(ctx context.Context, id string, newName string) (bool, error) {
	query := `
		UPDATE nodes
		SET name = $1, modified_at = $2
		WHERE id = $3
	`
	res, err := q.db.Exec(ctx, query, newName, time.Now(), id)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

func (q *Queries) UpdateParent(ctx context.Context, id string, newParentID *string) (bool, error) {
	query := `
		UPDATE nodes
		SET parent_id = $1, modified_at = $2
		WHERE id = $3
	`
	res, err := q.db.Exec(ctx, query, newParentID, time.Now(), id)
	if err != nil {
		return false, err
	}

	return res.RowsAffected() > 0, nil
}

// SetDeleted flips the soft-delete flag on a whole id set in one statement.
func (q *Queries) SetDeleted(ctx context.Context, ids []string, deleted bool) error {
	query := `
		UPDATE nodes
		SET deleted = $1, modified_at = $2
		WHERE id = ANY($3)
	`
	_, err := q.db.Exec(ctx, query, deleted, time.Now(), ids)
	return err
}

// DeleteNodes removes metadata rows permanently. Blob cleanup is the
// caller's problem.
func (q *Queries) DeleteNodes(ctx context.Context, ids []string) error {
	query := `DELETE FROM nodes WHERE id = ANY($1)`
	_, err := q.db.Exec(ctx, query, ids)
	return err
}

// IsDescendantOf reports whether potentialDescendantID lies in the subtree
// rooted at nodeID (a node counts as its own descendant). Used to refuse
// moving a folder under itself.
func (q *Queries) IsDescendantOf(ctx context.Context, nodeID string, potentialDescendantID string) (bool, error) {
	if nodeID == potentialDescendantID {
		return true, nil
	}

	query := `
		WITH RECURSIVE node_children AS (
			SELECT id FROM nodes WHERE id = $1

			UNION ALL

			SELECT n.id
			FROM nodes n
			JOIN node_children nc ON n.parent_id = nc.id
		)
		SELECT EXISTS (
			SELECT 1
			FROM node_children
			WHERE id = $2
		);
	`
	var isDescendant bool
	err := q.db.QueryRow(ctx, query, nodeID, potentialDescendantID).Scan(&isDescendant)
	return isDescendant, err
}
