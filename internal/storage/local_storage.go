package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, os.ModePerm); err != nil {
		return nil, err
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (ls *LocalStorage) getPathFromID(id string) string {
	// Rozrzucamy pliki po podkatalogach, żeby nie zabić systemu plików
	// jednym wielkim katalogiem.
	parts := strings.SplitN(id, "-", 2)
	if len(parts) == 2 && len(parts[0]) >= 2 {
		return filepath.Join(ls.basePath, parts[0][:2], id)
	}
	return filepath.Join(ls.basePath, id)
}

func (ls *LocalStorage) Save(ctx context.Context, id string, data io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	filePath := ls.getPathFromID(id)
	dir := filepath.Dir(filePath)

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	_, err = io.Copy(file, data)
	return err
}

func (ls *LocalStorage) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(ls.getPathFromID(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s: %w", id, ErrBlobNotFound)
		}
		return nil, err
	}

	return file, nil
}

func (ls *LocalStorage) Duplicate(ctx context.Context, id string) (string, error) {
	src, err := ls.Get(ctx, id)
	if err != nil {
		return "", err
	}
	defer src.Close()

	newID := uuid.NewString()
	if err := ls.Save(ctx, newID, src); err != nil {
		return "", err
	}

	return newID, nil
}

func (ls *LocalStorage) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(ls.getPathFromID(id))
	if os.IsNotExist(err) {
		return nil
	}

	return err
}
