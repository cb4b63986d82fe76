package repomanager

import (
	"context"

	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/repositories/users"
)

// FileRepositoryManager serves the JSON file backend. It has no schema and
// nothing to close.
type FileRepositoryManager struct {
	repo *users.FileRepository
}

func NewFileRepositoryManager(path string, idWidth int, stamper users.Stamper, log logging.Logger) *FileRepositoryManager {
	opts := []users.FileOption{users.WithIDWidth(idWidth), users.WithLogger(log.With("module", "users"))}
	if stamper != nil {
		opts = append(opts, users.WithStamper(stamper))
	}
	return &FileRepositoryManager{repo: users.NewFileRepository(path, opts...)}
}

func (m *FileRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *FileRepositoryManager) Users() users.Repository { return m.repo }

func (m *FileRepositoryManager) Backend() string { return "file:" + m.repo.Path() }

func (m *FileRepositoryManager) Close() error { return nil }
