package folders

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"magazyn-dokumentow/internal/models"
	"magazyn-dokumentow/internal/storage"

	"github.com/stretchr/testify/require"
)

func fileNode(id string, parentID *string, name, blobID string) models.Node {
	ct := "text/plain"
	size := int64(0)
	return models.Node{
		ID:          id,
		NodeType:    models.NodeTypeFile,
		ParentID:    parentID,
		Name:        name,
		OwnerID:     1,
		ModifiedAt:  time.Now(),
		BlobID:      &blobID,
		ContentType: &ct,
		SizeBytes:   &size,
	}
}

func seedBlob(t *testing.T, blobs storage.BlobStore, id, content string) {
	t.Helper()
	require.NoError(t, blobs.Save(context.Background(), id, strings.NewReader(content)))
}

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		entries[f.Name] = string(content)
	}
	return entries
}

func TestBuildArchive_PreservesFolderStructure(t *testing.T) {
	blobs := storage.NewMemoryStorage()
	seedBlob(t, blobs, "blob-a", "zawartosc A")
	seedBlob(t, blobs, "blob-b", "zawartosc B")

	root := folderNode("root", nil, nil)
	root.Name = "Projekt"
	sub := folderNode("sub", &root.ID, nil)
	sub.Name = "Raporty"
	fileA := fileNode("file-a", &root.ID, "a.txt", "blob-a")
	fileB := fileNode("file-b", &sub.ID, "b.txt", "blob-b")

	var buf bytes.Buffer
	err := buildArchive(context.Background(), []models.Node{root, sub, fileA, fileB}, blobs, &buf)
	require.NoError(t, err)

	entries := readArchive(t, buf.Bytes())
	require.Equal(t, "zawartosc A", entries["Projekt/a.txt"])
	require.Equal(t, "zawartosc B", entries["Projekt/Raporty/b.txt"])
	require.Contains(t, entries, "Projekt/")
	require.Contains(t, entries, "Projekt/Raporty/")
}

func TestBuildArchive_NodesWithoutParentInSetAreTopLevel(t *testing.T) {
	blobs := storage.NewMemoryStorage()
	seedBlob(t, blobs, "blob-a", "A")

	outside := "some-folder-not-in-set"
	fileA := fileNode("file-a", &outside, "samotny.txt", "blob-a")

	var buf bytes.Buffer
	err := buildArchive(context.Background(), []models.Node{fileA}, blobs, &buf)
	require.NoError(t, err)

	entries := readArchive(t, buf.Bytes())
	require.Equal(t, "A", entries["samotny.txt"])
}

func TestBuildArchive_DuplicateNamesGetSuffixed(t *testing.T) {
	blobs := storage.NewMemoryStorage()
	seedBlob(t, blobs, "blob-1", "pierwszy")
	seedBlob(t, blobs, "blob-2", "drugi")

	fileA := fileNode("file-1", nil, "raport.txt", "blob-1")
	fileB := fileNode("file-2", nil, "raport.txt", "blob-2")

	var buf bytes.Buffer
	err := buildArchive(context.Background(), []models.Node{fileA, fileB}, blobs, &buf)
	require.NoError(t, err)

	entries := readArchive(t, buf.Bytes())
	require.Len(t, entries, 2)
	require.Contains(t, entries, "raport.txt")
	require.Contains(t, entries, "raport.txt (1)")
}

func TestBuildArchive_MissingBlobAborts(t *testing.T) {
	blobs := storage.NewMemoryStorage()

	fileA := fileNode("file-a", nil, "brak.txt", "no-such-blob")

	var buf bytes.Buffer
	err := buildArchive(context.Background(), []models.Node{fileA}, blobs, &buf)
	require.Error(t, err)
}
