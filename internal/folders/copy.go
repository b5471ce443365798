package folders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"magazyn-dokumentow/internal/models"

	"golang.org/x/sync/errgroup"
)

// blobCopyConcurrency caps parallel blob duplications for one copy request
// so a wide folder cannot saturate the blob backend.
const blobCopyConcurrency = 8

// copyBlobs duplicates the blob of every FILE in the batch and returns the
// old-to-new blob id mapping. The first failure cancels the rest; nothing is
// inserted into the metadata store until every duplication succeeded.
func (m *Manager) copyBlobs(ctx context.Context, originals []models.Node) (map[string]string, error) {
	mapping := make(map[string]string)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(blobCopyConcurrency)

	for _, node := range originals {
		if !node.IsFile() || node.BlobID == nil {
			continue
		}
		oldBlobID := *node.BlobID
		g.Go(func() error {
			newBlobID, err := m.blobs.Duplicate(gctx, oldBlobID)
			if err != nil {
				return fmt.Errorf("failed to duplicate blob %s: %w", oldBlobID, err)
			}
			mu.Lock()
			mapping[oldBlobID] = newBlobID
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return mapping, nil
}

// copyLevel copies one batch of siblings under a new parent. Blobs are
// duplicated first; the metadata insert runs only once all of them landed.
// It returns the inserted copies and a new-id to old-id plan the caller uses
// to recurse into folder copies.
func (m *Manager) copyLevel(ctx context.Context, originals []models.Node, newParentID *string, newParent *models.Node, ident models.Identity) ([]models.Node, map[string]string, error) {
	if len(originals) == 0 {
		return []models.Node{}, map[string]string{}, nil
	}

	blobMapping, err := m.copyBlobs(ctx, originals)
	if err != nil {
		return nil, nil, err
	}

	plan := make(map[string]string, len(originals))
	copies := make([]models.Node, 0, len(originals))
	now := time.Now()

	for _, original := range originals {
		id, err := m.newNodeID(ctx)
		if err != nil {
			return nil, nil, err
		}

		node := original
		node.ID = id
		node.ParentID = newParentID
		node.OwnerID = ident.UserID
		node.OwnerName = ident.DisplayName
		node.CreatedAt = now
		node.ModifiedAt = now
		node.Deleted = false
		node.InheritedShares = models.ShareGrants{}
		mergeShared(newParent, &node)

		if node.IsFile() && node.BlobID != nil {
			newBlobID := blobMapping[*node.BlobID]
			node.BlobID = &newBlobID
		}

		plan[node.ID] = original.ID
		copies = append(copies, node)
	}

	if err := m.store.InsertNodes(ctx, copies); err != nil {
		return nil, nil, fmt.Errorf("metadata store: %w", err)
	}

	return copies, plan, nil
}

// copyChildrenRecursively copies the children of sourceID under the already
// inserted destination folder, level by level. Sibling subtrees recurse
// concurrently; copies already inserted by other branches stay in place if a
// branch fails.
func (m *Manager) copyChildrenRecursively(ctx context.Context, sourceID string, dest *models.Node, ident models.Identity) ([]models.Node, error) {
	children, err := m.store.ListChildrenAll(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}

	copies, plan, err := m.copyLevel(ctx, children, &dest.ID, dest, ident)
	if err != nil {
		return nil, err
	}

	results := make([][]models.Node, len(copies))
	g, gctx := errgroup.WithContext(ctx)
	for i, node := range copies {
		if !node.IsFolder() {
			continue
		}
		g.Go(func() error {
			nested, err := m.copyChildrenRecursively(gctx, plan[node.ID], &node, ident)
			if err != nil {
				return err
			}
			results[i] = nested
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := copies
	for _, nested := range results {
		all = append(all, nested...)
	}

	return all, nil
}

// Copy duplicates a node into the destination folder (nil means root level).
// Files get a fresh blob; folders are copied with their entire live subtree,
// structure preserved. Inherited shares of every copy are recomputed against
// the destination chain. Returns the flat list of created copies.
func (m *Manager) Copy(ctx context.Context, id string, destFolderID *string, ident models.Identity) ([]models.Node, error) {
	node, err := m.Info(ctx, id, ident)
	if err != nil {
		return nil, err
	}

	if destFolderID != nil && *destFolderID == "" {
		destFolderID = nil
	}

	var dest *models.Node
	if destFolderID != nil {
		dest, err = m.resolveParent(ctx, *destFolderID)
		if err != nil {
			return nil, err
		}
	}

	switch node.NodeType {
	case models.NodeTypeFile:
		copies, _, err := m.copyLevel(ctx, []models.Node{*node}, destFolderID, dest, ident)
		return copies, err
	case models.NodeTypeFolder:
		roots, _, err := m.copyLevel(ctx, []models.Node{*node}, destFolderID, dest, ident)
		if err != nil {
			return nil, err
		}
		nested, err := m.copyChildrenRecursively(ctx, node.ID, &roots[0], ident)
		if err != nil {
			return nil, err
		}
		return append(roots, nested...), nil
	default:
		return nil, fmt.Errorf("%w: %q on node %s", ErrInvalidType, node.NodeType, node.ID)
	}
}
