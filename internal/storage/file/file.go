// Package file stores the document as a JSON file on the local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MrJamesThe3rd/oficina/internal/encoding"
	"github.com/MrJamesThe3rd/oficina/internal/storage"
)

const backupSuffix = ".bak"

type Store struct{}

func New() *Store {
	return &Store{}
}

// Load returns the document text at path, or "" when the file does not
// exist yet.
func (s *Store) Load(ctx context.Context, path string) (string, error) {
	if path == "" {
		return "", storage.Wrap("load", path, storage.ErrEmptyLocator)
	}

	if err := ctx.Err(); err != nil {
		return "", storage.Wrap("load", path, err)
	}

	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", storage.Wrap("load", path, err)
	}

	text, charset, err := encoding.Decode(b)
	if err != nil {
		return "", storage.Wrap("load", path, err)
	}

	if charset != encoding.CharsetUTF8 {
		slog.Warn("document is not UTF-8, converted on load", "path", path, "charset", charset)
	}

	return text, nil
}

// SaveAtomic replaces the file at path with content. The previous version
// is kept next to it with a .bak suffix and readers never observe a
// partially written file.
func (s *Store) SaveAtomic(ctx context.Context, path, content string) error {
	if path == "" {
		return storage.Wrap("save", path, storage.ErrEmptyLocator)
	}

	if err := ctx.Err(); err != nil {
		return storage.Wrap("save", path, err)
	}

	if err := backup(path); err != nil {
		return storage.Wrap("save", path, err)
	}

	return storage.Wrap("save", path, writeAtomic(path, []byte(content)))
}

// ExportReport writes a report as UTF-8 with BOM into folder.
func (s *Store) ExportReport(ctx context.Context, folder, filename, content string) (storage.ExportResult, error) {
	path := filepath.Join(folder, filepath.Base(filename))

	if err := ctx.Err(); err != nil {
		return storage.ExportResult{Message: "Exportação cancelada"}, storage.Wrap("export", path, err)
	}

	if folder == "" {
		return storage.ExportResult{Message: "Pasta de exportação não configurada"}, storage.Wrap("export", path, storage.ErrEmptyLocator)
	}

	if err := writeAtomic(path, encoding.WithBOM(content)); err != nil {
		return storage.ExportResult{Message: fmt.Sprintf("Erro ao exportar: %v", err)}, storage.Wrap("export", path, err)
	}

	return storage.ExportResult{
		Success: true,
		Message: fmt.Sprintf("Relatório salvo em %s", path),
		Path:    path,
	}, nil
}

func backup(path string) error {
	src, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("opening current file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path + backupSuffix)
	if err != nil {
		return fmt.Errorf("creating backup: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("copying backup: %w", err)
	}

	return dst.Close()
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)

		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}
