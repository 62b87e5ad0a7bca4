package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tcgworld/tcg-engine/internal/config"
	"github.com/tcgworld/tcg-engine/internal/game/card"
)

// OpenCatalog loads the catalog from the configured source. A postgres source
// opens a short-lived pool that is closed once the definitions are read.
func OpenCatalog(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*card.Catalog, error) {
	switch cfg.Catalog.Source {
	case config.CatalogSourcePostgres:
		pool, err := NewDB(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		defer pool.Close()

		catalog, err := NewCatalogStore(pool, logger).LoadCatalog(ctx)
		if err != nil {
			return nil, err
		}
		logger.Info("catalog loaded", zap.String("source", "postgres"), zap.Int("cards", catalog.Len()))
		return catalog, nil

	case config.CatalogSourceFile, "":
		catalog, err := card.LoadCatalogFile(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("catalog loaded", zap.String("source", cfg.Catalog.Path), zap.Int("cards", catalog.Len()))
		return catalog, nil

	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}
