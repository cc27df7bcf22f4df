package repository

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/segyhp/loan-tracker/internal/config"
	"github.com/segyhp/loan-tracker/internal/database"
)

// Open builds the loan store selected by STORE_DRIVER. Connections are
// opened lazily; the returned func releases whatever was opened.
func Open(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (LoanRepository, func() error, error) {
	var repo LoanRepository
	var closeFn func() error

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		handle := database.NewPostgresHandle(cfg.Database, log)
		repo, closeFn = NewLoanRepository(handle), handle.Close
	case config.StoreDriverMongo:
		handle := database.NewMongoHandle(cfg.Mongo, log)
		repo, closeFn = NewMongoLoanRepository(handle, cfg.Mongo.Database, cfg.Mongo.Collection), handle.Close
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	if ensurer, ok := repo.(IndexEnsurer); ok {
		if err := ensurer.EnsureIndexes(ctx); err != nil {
			// the store may come up later; queries still work without indexes
			log.WithError(err).Warn("could not ensure indexes")
		}
	}

	return repo, closeFn, nil
}
