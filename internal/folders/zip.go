package folders

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"sort"

	"magazyn-dokumentow/internal/models"
	"magazyn-dokumentow/internal/storage"
)

// archivePaths derives a relative path for every node from the parent links
// available WITHIN the set. A node whose parent is outside the set becomes a
// top level entry. Name collisions at the same level get a numeric suffix so
// no entry silently overwrites another.
func archivePaths(nodes []models.Node) map[string]string {
	byID := make(map[string]*models.Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	paths := make(map[string]string, len(nodes))
	var resolve func(n *models.Node) string
	resolve = func(n *models.Node) string {
		if p, ok := paths[n.ID]; ok {
			return p
		}
		path := n.Name
		if n.ParentID != nil {
			if parent, ok := byID[*n.ParentID]; ok {
				path = resolve(parent) + "/" + n.Name
			}
		}
		paths[n.ID] = path
		return path
	}
	for i := range nodes {
		resolve(&nodes[i])
	}

	seen := make(map[string]int, len(paths))
	for _, n := range nodes {
		path := paths[n.ID]
		if count := seen[path]; count > 0 {
			paths[n.ID] = fmt.Sprintf("%s (%d)", path, count)
		}
		seen[path]++
	}

	return paths
}

// buildArchive streams the node set as one zip. Folders become directory
// entries, files are fetched from the blob store and deflated one after
// another. The first blob failure aborts the whole archive; a truncated zip
// with no central directory is left behind on purpose so clients cannot
// mistake it for a complete one.
func buildArchive(ctx context.Context, nodes []models.Node, blobs storage.BlobStore, w io.Writer) error {
	paths := archivePaths(nodes)

	ordered := make([]models.Node, len(nodes))
	copy(ordered, nodes)
	sort.Slice(ordered, func(i, j int) bool {
		return paths[ordered[i].ID] < paths[ordered[j].ID]
	})

	zw := zip.NewWriter(w)

	for _, node := range ordered {
		if err := ctx.Err(); err != nil {
			return err
		}

		if node.IsFolder() {
			if _, err := zw.Create(paths[node.ID] + "/"); err != nil {
				return fmt.Errorf("failed to add directory entry %s: %w", paths[node.ID], err)
			}
			continue
		}

		if node.BlobID == nil {
			return fmt.Errorf("file node %s has no blob reference", node.ID)
		}

		header := &zip.FileHeader{
			Name:     paths[node.ID],
			Method:   zip.Deflate,
			Modified: node.ModifiedAt,
		}
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to add archive entry %s: %w", header.Name, err)
		}

		stream, err := blobs.Get(ctx, *node.BlobID)
		if err != nil {
			return fmt.Errorf("failed to fetch blob %s for %s: %w", *node.BlobID, header.Name, err)
		}
		if _, err := io.Copy(entry, stream); err != nil {
			stream.Close()
			return fmt.Errorf("failed to stream blob %s into archive: %w", *node.BlobID, err)
		}
		stream.Close()
	}

	return zw.Close()
}
