package database

import (
	"context"
	"log"
	"testing"
	"time"

	"magazyn-dokumentow/internal/models"

	"github.com/jaevor/go-nanoid"
	"github.com/stretchr/testify/require"
)

var newTestID = func() func() string {
	gen, err := nanoid.Standard(21)
	if err != nil {
		log.Fatalf("Could not create id generator: %s", err)
	}
	return gen
}()

func makeNode(nodeType string, parentID *string, name string, owner models.Identity) *models.Node {
	now := time.Now()
	node := &models.Node{
		ID:              newTestID(),
		NodeType:        nodeType,
		ParentID:        parentID,
		Name:            name,
		OwnerID:         owner.UserID,
		OwnerName:       owner.DisplayName,
		CreatedAt:       now,
		ModifiedAt:      now,
		Shares:          models.ShareGrants{},
		InheritedShares: models.ShareGrants{},
	}
	if nodeType == models.NodeTypeFile {
		blobID := "blob-" + node.ID
		ct := "text/plain"
		size := int64(42)
		node.BlobID = &blobID
		node.ContentType = &ct
		node.SizeBytes = &size
	}
	return node
}

func insertNode(t *testing.T, node *models.Node) *models.Node {
	t.Helper()
	created, err := testStore.InsertNode(context.Background(), node)
	require.NoError(t, err)
	return created
}

func TestInsertNode_Roundtrip(t *testing.T) {
	ctx := context.Background()

	node := insertNode(t, makeNode(models.NodeTypeFile, nil, "roundtrip.txt", testOwner))

	fetched, err := testStore.GetNodeByID(ctx, node.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Equal(t, node.ID, fetched.ID)
	require.Equal(t, models.NodeTypeFile, fetched.NodeType)
	require.NotNil(t, fetched.BlobID)
	require.NotNil(t, fetched.Shares)
	require.Empty(t, fetched.Shares)
}

func TestGetNodeByID_MissingReturnsNil(t *testing.T) {
	fetched, err := testStore.GetNodeByID(context.Background(), "no-such-node-00000000")
	require.NoError(t, err)
	require.Nil(t, fetched)
}

func TestGetVisibleNode_OwnerAndStranger(t *testing.T) {
	ctx := context.Background()

	node := insertNode(t, makeNode(models.NodeTypeFolder, nil, "Widocznosc", testOwner))

	seen, err := testStore.GetVisibleNode(ctx, node.ID, testOwner, false)
	require.NoError(t, err)
	require.NotNil(t, seen)

	hidden, err := testStore.GetVisibleNode(ctx, node.ID, testGuest, false)
	require.NoError(t, err)
	require.Nil(t, hidden)
}

func TestGetVisibleNode_GroupGrantInInheritedShares(t *testing.T) {
	ctx := context.Background()

	groupID := "klasa-1b"
	node := makeNode(models.NodeTypeFolder, nil, "Dla_Klasy", testOwner)
	node.InheritedShares = models.ShareGrants{{GroupID: &groupID, Actions: []string{"read"}}}
	insertNode(t, node)

	seen, err := testStore.GetVisibleNode(ctx, node.ID, testGuest, false)
	require.NoError(t, err)
	require.NotNil(t, seen)
	require.True(t, seen.InheritedShares.Covers(0, testGuest.GroupIDs))
}

func TestGetVisibleNode_DeletedFlagFilter(t *testing.T) {
	ctx := context.Background()

	node := insertNode(t, makeNode(models.NodeTypeFile, nil, "w_koszu.txt", testOwner))
	require.NoError(t, testStore.SetDeleted(ctx, []string{node.ID}, true))

	hidden, err := testStore.GetVisibleNode(ctx, node.ID, testOwner, false)
	require.NoError(t, err)
	require.Nil(t, hidden)

	seen, err := testStore.GetVisibleNode(ctx, node.ID, testOwner, true)
	require.NoError(t, err)
	require.NotNil(t, seen)
	require.True(t, seen.Deleted)
}

func TestListChildren_FoldersBeforeFiles(t *testing.T) {
	ctx := context.Background()

	parent := insertNode(t, makeNode(models.NodeTypeFolder, nil, "Sortowanie", testOwner))
	insertNode(t, makeNode(models.NodeTypeFile, &parent.ID, "aaa.txt", testOwner))
	insertNode(t, makeNode(models.NodeTypeFolder, &parent.ID, "zzz_folder", testOwner))

	children, err := testStore.ListChildren(ctx, &parent.ID, testOwner)
	require.NoError(t, err)
	require.Len(t, children, 2)
	require.Equal(t, "zzz_folder", children[0].Name)
	require.Equal(t, "aaa.txt", children[1].Name)
}

func TestListChildren_EmptyFolderReturnsEmptySlice(t *testing.T) {
	parent := insertNode(t, makeNode(models.NodeTypeFolder, nil, "Pusty", testOwner))

	children, err := testStore.ListChildren(context.Background(), &parent.ID, testOwner)
	require.NoError(t, err)
	require.NotNil(t, children)
	require.Empty(t, children)
}

func TestListSubtree_DepthAndDeletedFilter(t *testing.T) {
	ctx := context.Background()

	root := insertNode(t, makeNode(models.NodeTypeFolder, nil, "Poddrzewo", testOwner))
	mid := insertNode(t, makeNode(models.NodeTypeFolder, &root.ID, "Poziom1", testOwner))
	leaf := insertNode(t, makeNode(models.NodeTypeFile, &mid.ID, "poziom2.txt", testOwner))

	subtree, err := testStore.ListSubtree(ctx, root.ID, false)
	require.NoError(t, err)
	require.Len(t, subtree, 2)
	// Rodzic zawsze przed dzieckiem.
	require.Equal(t, mid.ID, subtree[0].ID)
	require.Equal(t, leaf.ID, subtree[1].ID)

	require.NoError(t, testStore.SetDeleted(ctx, []string{leaf.ID}, true))

	live, err := testStore.ListSubtree(ctx, root.ID, false)
	require.NoError(t, err)
	require.Len(t, live, 1)

	all, err := testStore.ListSubtree(ctx, root.ID, true)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestInsertNodes_BatchWithParentFirst(t *testing.T) {
	ctx := context.Background()

	parent := makeNode(models.NodeTypeFolder, nil, "Partia", testOwner)
	child := makeNode(models.NodeTypeFile, &parent.ID, "w_partii.txt", testOwner)

	require.NoError(t, testStore.InsertNodes(ctx, []models.Node{*parent, *child}))

	fetched, err := testStore.GetNodeByID(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Equal(t, parent.ID, *fetched.ParentID)
}

func TestUpdateNameAndParent(t *testing.T) {
	ctx := context.Background()

	folderA := insertNode(t, makeNode(models.NodeTypeFolder, nil, "A", testOwner))
	folderB := insertNode(t, makeNode(models.NodeTypeFolder, nil, "B", testOwner))
	node := insertNode(t, makeNode(models.NodeTypeFile, &folderA.ID, "wedrowiec.txt", testOwner))

	ok, err := testStore.UpdateName(ctx, node.ID, "po_zmianie.txt")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = testStore.UpdateParent(ctx, node.ID, &folderB.ID)
	require.NoError(t, err)
	require.True(t, ok)

	fetched, err := testStore.GetNodeByID(ctx, node.ID)
	require.NoError(t, err)
	require.Equal(t, "po_zmianie.txt", fetched.Name)
	require.Equal(t, folderB.ID, *fetched.ParentID)

	// Przeniesienie na poziom główny zeruje rodzica.
	ok, err = testStore.UpdateParent(ctx, node.ID, nil)
	require.NoError(t, err)
	require.True(t, ok)

	fetched, err = testStore.GetNodeByID(ctx, node.ID)
	require.NoError(t, err)
	require.Nil(t, fetched.ParentID)
}

func TestIsDescendantOf(t *testing.T) {
	ctx := context.Background()

	root := insertNode(t, makeNode(models.NodeTypeFolder, nil, "Przodek", testOwner))
	mid := insertNode(t, makeNode(models.NodeTypeFolder, &root.ID, "Potomek1", testOwner))
	leaf := insertNode(t, makeNode(models.NodeTypeFolder, &mid.ID, "Potomek2", testOwner))
	unrelated := insertNode(t, makeNode(models.NodeTypeFolder, nil, "Obcy", testOwner))

	isDesc, err := testStore.IsDescendantOf(ctx, root.ID, leaf.ID)
	require.NoError(t, err)
	require.True(t, isDesc)

	isDesc, err = testStore.IsDescendantOf(ctx, root.ID, root.ID)
	require.NoError(t, err)
	require.True(t, isDesc)

	isDesc, err = testStore.IsDescendantOf(ctx, root.ID, unrelated.ID)
	require.NoError(t, err)
	require.False(t, isDesc)
}

func TestDeleteNodes_RemovesRows(t *testing.T) {
	ctx := context.Background()

	node := insertNode(t, makeNode(models.NodeTypeFile, nil, "do_usuniecia.txt", testOwner))

	require.NoError(t, testStore.DeleteNodes(ctx, []string{node.ID}))

	exists, err := testStore.NodeExists(ctx, node.ID)
	require.NoError(t, err)
	require.False(t, exists)
}
