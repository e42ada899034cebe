package browser

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

// snapshot is a private read-only copy of a history database.
type snapshot struct {
	db  *sql.DB
	dir string
}

// openSnapshot copies the database at path into a temp directory and opens
// the copy read-only.
func openSnapshot(path string) (*snapshot, error) {
	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening history snapshot: %w", err)
	}
	defer src.Close()

	dir, err := os.MkdirTemp("", "almanac-history-*")
	if err != nil {
		return nil, fmt.Errorf("creating snapshot directory: %w", err)
	}

	copyPath := filepath.Join(dir, filepath.Base(path))
	if err := copyFile(src, copyPath); err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?mode=ro&_pragma=query_only(1)", copyPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("opening snapshot copy: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("opening snapshot copy: %w", err)
	}
	return &snapshot{db: db, dir: dir}, nil
}

func copyFile(src io.Reader, dst string) error {
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating snapshot copy: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying history snapshot: %w", err)
	}
	return out.Close()
}

// Close closes the copy and removes it.
func (s *snapshot) Close() error {
	err := s.db.Close()
	if rmErr := os.RemoveAll(s.dir); err == nil {
		err = rmErr
	}
	return err
}
