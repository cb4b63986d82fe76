// Package repomanager picks the storage backend from configuration and
// vends the user repository for it.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/config"
	"github.com/dmitrijs2005/userkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	// RunMigrations prepares the backend schema, if it has one.
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	// Backend names the storage in use, for logs.
	Backend() string
	Close() error
}

// New returns the Postgres manager when cfg.DatabaseDSN is set and the JSON
// file manager otherwise.
func New(ctx context.Context, cfg *config.Config, stamper users.Stamper, log logging.Logger) (RepositoryManager, error) {
	if cfg.DatabaseDSN == "" {
		return NewFileRepositoryManager(cfg.DataFile, cfg.IDWidth, stamper, log), nil
	}
	return NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN, cfg.IDWidth, stamper)
}
