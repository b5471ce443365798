package folders

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"magazyn-dokumentow/internal/database"
	"magazyn-dokumentow/internal/models"
	"magazyn-dokumentow/internal/storage"

	"github.com/google/uuid"
	"github.com/jaevor/go-nanoid"
	"golang.org/x/sync/errgroup"
)

// workspaceApplication tags files produced by the store's own UI. Such files
// are always delivered as attachments, never inline.
const workspaceApplication = "workspace"

// Sink is the outbound side of a download. The transport layer implements it
// over its response object; the manager never buffers a whole payload.
type Sink interface {
	io.Writer
	BeginFile(name, contentType string, size int64, inline bool, etag string)
	BeginArchive(name string)
	NotModified(etag string)
}

// Manager is the operation surface over the folder tree. Every public method
// resolves its target through a visibility-filtered lookup before touching
// anything.
type Manager struct {
	store      *database.Store
	blobs      storage.BlobStore
	generateID func() string
}

func NewManager(store *database.Store, blobs storage.BlobStore) (*Manager, error) {
	generateID, err := nanoid.Standard(21)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize nanoid generator: %w", err)
	}

	return &Manager{
		store:      store,
		blobs:      blobs,
		generateID: generateID,
	}, nil
}

func (m *Manager) newNodeID(ctx context.Context) (string, error) {
	maxRetries := 10

	for i := 0; i < maxRetries; i++ {
		id := m.generateID()
		exists, err := m.store.NodeExists(ctx, id)
		if err != nil {
			return "", fmt.Errorf("metadata store: %w", err)
		}
		if !exists {
			return id, nil
		}
	}

	return "", fmt.Errorf("failed to generate a unique node id after %d attempts", maxRetries)
}

// resolveParent fetches an explicit parent id and checks it is a live
// folder. No visibility filter: knowing a folder's id is not enough to read
// it, but creating under it was already authorized by the API layer.
func (m *Manager) resolveParent(ctx context.Context, parentID string) (*models.Node, error) {
	parent, err := m.store.GetNodeByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}
	if parent == nil || parent.Deleted || !parent.IsFolder() {
		return nil, fmt.Errorf("%w: %s", ErrParentNotFound, parentID)
	}
	return parent, nil
}

func (m *Manager) CreateFolder(ctx context.Context, parentID *string, name string, ident models.Identity) (*models.Node, error) {
	id, err := m.newNodeID(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	node := &models.Node{
		ID:              id,
		NodeType:        models.NodeTypeFolder,
		ParentID:        parentID,
		Name:            name,
		OwnerID:         ident.UserID,
		OwnerName:       ident.DisplayName,
		CreatedAt:       now,
		ModifiedAt:      now,
		Shares:          models.ShareGrants{},
		InheritedShares: models.ShareGrants{},
	}

	// A folder is born already covered by its parent's grants.
	if parentID != nil {
		parent, err := m.resolveParent(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		mergeShared(parent, node)
	}

	created, err := m.store.InsertNode(ctx, node)
	if err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}

	return created, nil
}

// ImportFile stores the blob and creates the FILE node under the given
// parent, inheriting the parent's grants the same way a new folder does.
func (m *Manager) ImportFile(ctx context.Context, parentID *string, name, contentType string, size int64, application string, data io.Reader, ident models.Identity) (*models.Node, error) {
	id, err := m.newNodeID(ctx)
	if err != nil {
		return nil, err
	}

	var parent *models.Node
	if parentID != nil {
		parent, err = m.resolveParent(ctx, *parentID)
		if err != nil {
			return nil, err
		}
	}

	blobID := uuid.NewString()
	if err := m.blobs.Save(ctx, blobID, data); err != nil {
		return nil, fmt.Errorf("blob store: %w", err)
	}

	now := time.Now()
	node := &models.Node{
		ID:              id,
		NodeType:        models.NodeTypeFile,
		ParentID:        parentID,
		Name:            name,
		OwnerID:         ident.UserID,
		OwnerName:       ident.DisplayName,
		CreatedAt:       now,
		ModifiedAt:      now,
		Shares:          models.ShareGrants{},
		InheritedShares: models.ShareGrants{},
		BlobID:          &blobID,
		ContentType:     &contentType,
		SizeBytes:       &size,
		Application:     &application,
	}
	mergeShared(parent, node)
	if parent == nil {
		node.InheritedShares = models.ShareGrants{}
	}

	created, err := m.store.InsertNode(ctx, node)
	if err != nil {
		if delErr := m.blobs.Delete(ctx, blobID); delErr != nil {
			log.Printf("WARN: Failed to clean up blob %s after metadata insert failure: %v", blobID, delErr)
		}
		return nil, fmt.Errorf("metadata store: %w", err)
	}

	return created, nil
}

func (m *Manager) Info(ctx context.Context, id string, ident models.Identity) (*models.Node, error) {
	node, err := m.store.GetVisibleNode(ctx, id, ident, false)
	if err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return node, nil
}

func (m *Manager) List(ctx context.Context, parentID *string, ident models.Identity) ([]models.Node, error) {
	nodes, err := m.store.ListChildren(ctx, parentID, ident)
	if err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}
	return nodes, nil
}

// ListRecursively returns every live node the caller can see, anywhere in
// the forest.
func (m *Manager) ListRecursively(ctx context.Context, ident models.Identity) ([]models.Node, error) {
	nodes, err := m.store.ListVisible(ctx, ident)
	if err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}
	return nodes, nil
}

// ListRecursivelyFrom returns a folder and its full visible subtree, in a
// stable depth-path order.
func (m *Manager) ListRecursivelyFrom(ctx context.Context, folderID string, ident models.Identity) ([]models.Node, error) {
	root, err := m.Info(ctx, folderID, ident)
	if err != nil {
		return nil, err
	}

	result := []models.Node{*root}
	if root.IsFolder() {
		descendants, err := m.store.ListSubtree(ctx, root.ID, false)
		if err != nil {
			return nil, fmt.Errorf("metadata store: %w", err)
		}
		result = append(result, descendants...)
	}

	return result, nil
}

func (m *Manager) Rename(ctx context.Context, id string, newName string, ident models.Identity) error {
	if _, err := m.Info(ctx, id, ident); err != nil {
		return err
	}

	if _, err := m.store.UpdateName(ctx, id, newName); err != nil {
		return fmt.Errorf("metadata store: %w", err)
	}

	return nil
}

// Move re-parents a node. Inherited shares of the node and of its whole
// subtree are recomputed against the NEW ancestor chain before the parent
// pointer flips, all in one transaction. Returns the pre-move snapshot.
func (m *Manager) Move(ctx context.Context, id string, newParentID *string, ident models.Identity) (*models.Node, error) {
	node, err := m.Info(ctx, id, ident)
	if err != nil {
		return nil, err
	}
	previous := *node

	var newParent *models.Node
	if newParentID != nil {
		newParent, err = m.resolveParent(ctx, *newParentID)
		if err != nil {
			return nil, err
		}

		if node.IsFolder() {
			isDescendant, err := m.store.IsDescendantOf(ctx, node.ID, *newParentID)
			if err != nil {
				return nil, fmt.Errorf("metadata store: %w", err)
			}
			if isDescendant {
				return nil, ErrCycle
			}
		}
	}

	mergeShared(newParent, node)

	updates := []database.InheritedShareUpdate{{NodeID: node.ID, InheritedShares: node.InheritedShares}}
	if node.IsFolder() {
		descendants, err := m.store.ListSubtree(ctx, node.ID, false)
		if err != nil {
			return nil, fmt.Errorf("metadata store: %w", err)
		}
		updates = append(updates, computeSubtree(node, descendants)...)
	}

	txErr := m.store.ExecTx(ctx, func(q *database.Queries) error {
		if err := q.UpdateInheritedShares(ctx, updates); err != nil {
			return err
		}
		_, err := q.UpdateParent(ctx, node.ID, newParentID)
		return err
	})
	if txErr != nil {
		return nil, fmt.Errorf("metadata store: %w", txErr)
	}

	return &previous, nil
}

type ShareOpKind int

const (
	GroupShare ShareOpKind = iota
	GroupShareRemove
	UserShare
	UserShareRemove
)

// ShareOp is one grant or revoke request as handed over by the sharing
// authority's caller.
type ShareOp struct {
	Kind    ShareOpKind
	UserID  *int64
	GroupID *string
	Actions []string
}

func (op ShareOp) grant() models.ShareGrant {
	return models.ShareGrant{UserID: op.UserID, GroupID: op.GroupID, Actions: op.Actions}
}

func (op ShareOp) revoke() bool {
	return op.Kind == GroupShareRemove || op.Kind == UserShareRemove
}

// Share applies a grant or revoke on a node, then recomputes inherited
// shares across the node's subtree so every descendant reflects the change
// before the caller gets an answer. The whole sequence runs in one
// transaction.
func (m *Manager) Share(ctx context.Context, id string, op ShareOp, ident models.Identity) (*models.Node, error) {
	node, err := m.Info(ctx, id, ident)
	if err != nil {
		return nil, err
	}

	txErr := m.store.ExecTx(ctx, func(q *database.Queries) error {
		shares, err := q.ApplyShareGrant(ctx, database.ApplyShareGrantParams{
			NodeID: node.ID,
			Grant:  op.grant(),
			Revoke: op.revoke(),
		})
		if err != nil {
			return err
		}
		node.Shares = shares

		if !node.IsFolder() {
			return nil
		}

		descendants, err := q.ListSubtree(ctx, node.ID, false)
		if err != nil {
			return err
		}

		return q.UpdateInheritedShares(ctx, computeSubtree(node, descendants))
	})
	if txErr != nil {
		return nil, fmt.Errorf("metadata store: %w", txErr)
	}

	return m.Info(ctx, id, ident)
}

// Trash soft-deletes a node and, for a folder, its entire subtree in one
// batch. Re-trashing an already trashed subtree just flips the same flags
// again. Returns the affected ids.
func (m *Manager) Trash(ctx context.Context, id string, ident models.Identity) ([]string, error) {
	node, err := m.store.GetVisibleNode(ctx, id, ident, true)
	if err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	ids, err := m.subtreeIDs(ctx, node, true)
	if err != nil {
		return nil, err
	}

	if err := m.store.SetDeleted(ctx, ids, true); err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}

	return ids, nil
}

// Restore clears the soft-delete flag on a node and its subtree.
func (m *Manager) Restore(ctx context.Context, id string, ident models.Identity) ([]string, error) {
	node, err := m.store.GetVisibleNode(ctx, id, ident, true)
	if err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	ids, err := m.subtreeIDs(ctx, node, true)
	if err != nil {
		return nil, err
	}

	if err := m.store.SetDeleted(ctx, ids, false); err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}

	return ids, nil
}

func (m *Manager) subtreeIDs(ctx context.Context, node *models.Node, includeDeleted bool) ([]string, error) {
	ids := []string{node.ID}

	switch node.NodeType {
	case models.NodeTypeFile:
	case models.NodeTypeFolder:
		descendants, err := m.store.ListSubtree(ctx, node.ID, includeDeleted)
		if err != nil {
			return nil, fmt.Errorf("metadata store: %w", err)
		}
		for _, d := range descendants {
			ids = append(ids, d.ID)
		}
	default:
		return nil, fmt.Errorf("%w: %q on node %s", ErrInvalidType, node.NodeType, node.ID)
	}

	return ids, nil
}

// Delete permanently removes a node (trashed or not) and, for a folder, its
// whole subtree. Metadata rows go first; blob removal failures are logged
// and surfaced but never roll the metadata back, an orphaned blob beats a
// ghost row.
func (m *Manager) Delete(ctx context.Context, id string, ident models.Identity) ([]string, error) {
	node, err := m.store.GetVisibleNode(ctx, id, ident, true)
	if err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}
	if node == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	nodes := []models.Node{*node}
	if node.IsFolder() {
		descendants, err := m.store.ListSubtree(ctx, node.ID, true)
		if err != nil {
			return nil, fmt.Errorf("metadata store: %w", err)
		}
		nodes = append(nodes, descendants...)
	} else if !node.IsFile() {
		return nil, fmt.Errorf("%w: %q on node %s", ErrInvalidType, node.NodeType, node.ID)
	}

	var folderIDs, fileIDs, blobIDs []string
	for _, n := range nodes {
		if n.IsFile() {
			fileIDs = append(fileIDs, n.ID)
			if n.BlobID != nil {
				blobIDs = append(blobIDs, *n.BlobID)
			}
		} else {
			folderIDs = append(folderIDs, n.ID)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	if len(folderIDs) > 0 {
		g.Go(func() error { return m.store.DeleteNodes(gctx, folderIDs) })
	}
	if len(fileIDs) > 0 {
		g.Go(func() error { return m.store.DeleteNodes(gctx, fileIDs) })
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("metadata store: %w", err)
	}

	ids := append(folderIDs, fileIDs...)

	bg, bgctx := errgroup.WithContext(ctx)
	bg.SetLimit(8)
	for _, blobID := range blobIDs {
		bg.Go(func() error {
			if err := m.blobs.Delete(bgctx, blobID); err != nil {
				log.Printf("WARN: Failed to remove blob %s during hard delete: %v", blobID, err)
				return err
			}
			return nil
		})
	}
	if err := bg.Wait(); err != nil {
		// Metadata is already gone; the caller learns about the orphan.
		return ids, fmt.Errorf("blob store: %w", err)
	}

	return ids, nil
}

func inlineDocumentResponse(node *models.Node) bool {
	if node.ContentType == nil {
		return false
	}
	if node.Application != nil && *node.Application == workspaceApplication {
		return false
	}

	switch *node.ContentType {
	case "image/jpeg", "image/gif", "image/png", "image/tiff",
		"image/vnd.microsoft.icon", "image/svg+xml":
		return true
	case "application/octet-stream":
		// Ambiguous binaries are only trusted inline when a producer
		// identified itself.
		return node.Application != nil && *node.Application != ""
	}

	return false
}

func (m *Manager) sendFile(ctx context.Context, node *models.Node, clientETag string, sink Sink) error {
	if node.BlobID == nil {
		return fmt.Errorf("blob store: file node %s has no blob reference", node.ID)
	}

	inline := inlineDocumentResponse(node)
	if inline && clientETag != "" && clientETag == *node.BlobID {
		sink.NotModified(*node.BlobID)
		return nil
	}

	stream, err := m.blobs.Get(ctx, *node.BlobID)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}
	defer stream.Close()

	contentType := "application/octet-stream"
	if node.ContentType != nil && *node.ContentType != "" {
		contentType = *node.ContentType
	}
	var size int64 = -1
	if node.SizeBytes != nil {
		size = *node.SizeBytes
	}

	etag := ""
	if inline {
		etag = *node.BlobID
	}
	sink.BeginFile(node.Name, contentType, size, inline, etag)
	if _, err := io.Copy(sink, stream); err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	return nil
}

// DownloadFile streams one node to the sink: a file directly (honoring the
// client's validator token), a folder as a zip of its visible subtree.
func (m *Manager) DownloadFile(ctx context.Context, id string, ident models.Identity, clientETag string, sink Sink) error {
	node, err := m.Info(ctx, id, ident)
	if err != nil {
		return err
	}

	switch node.NodeType {
	case models.NodeTypeFile:
		return m.sendFile(ctx, node, clientETag, sink)
	case models.NodeTypeFolder:
		descendants, err := m.store.ListSubtree(ctx, node.ID, false)
		if err != nil {
			return fmt.Errorf("metadata store: %w", err)
		}
		sink.BeginArchive(node.Name + ".zip")
		return buildArchive(ctx, descendants, m.blobs, sink)
	default:
		return fmt.Errorf("%w: %q on node %s", ErrInvalidType, node.NodeType, node.ID)
	}
}

// DownloadFiles resolves a whole id set and streams it as one payload. Every
// requested id must resolve, otherwise the call fails before a single byte
// is written. A single resolved file is streamed directly; anything else
// becomes a combined archive with folders expanded to their live subtrees.
func (m *Manager) DownloadFiles(ctx context.Context, ids []string, ident models.Identity, clientETag string, sink Sink) error {
	unique := dedupe(ids)

	nodes, err := m.store.GetVisibleNodes(ctx, unique, ident)
	if err != nil {
		return fmt.Errorf("metadata store: %w", err)
	}
	if len(nodes) != len(unique) {
		return fmt.Errorf("%w: resolved %d of %d", ErrPartialNotFound, len(nodes), len(unique))
	}

	if len(nodes) == 1 && nodes[0].IsFile() {
		return m.sendFile(ctx, &nodes[0], clientETag, sink)
	}

	expanded := make([][]models.Node, len(nodes))
	g, gctx := errgroup.WithContext(ctx)
	for i, node := range nodes {
		switch node.NodeType {
		case models.NodeTypeFile:
			expanded[i] = []models.Node{node}
		case models.NodeTypeFolder:
			g.Go(func() error {
				descendants, err := m.store.ListSubtree(gctx, node.ID, false)
				if err != nil {
					return err
				}
				expanded[i] = append([]models.Node{node}, descendants...)
				return nil
			})
		default:
			return fmt.Errorf("%w: %q on node %s", ErrInvalidType, node.NodeType, node.ID)
		}
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("metadata store: %w", err)
	}

	var all []models.Node
	for _, batch := range expanded {
		all = append(all, batch...)
	}

	sink.BeginArchive(archiveName(nodes))
	return buildArchive(ctx, all, m.blobs, sink)
}

func archiveName(roots []models.Node) string {
	if len(roots) == 1 {
		return roots[0].Name + ".zip"
	}
	return fmt.Sprintf("archive-%d.zip", len(roots))
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var unique []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	return unique
}
