package app

import (
	"context"
	"log/slog"

	"github.com/ledgerdesk/api/internal/archive"
	"github.com/ledgerdesk/api/internal/config"
	"github.com/ledgerdesk/api/internal/txnimport"
)

// NewImporter builds the import pipeline from configuration, merging the alias
// override file when one is configured.
func NewImporter(cfg config.Config, logger *slog.Logger) (*txnimport.Importer, error) {
	aliases := txnimport.DefaultAliases()
	if cfg.ImportAliasesFile != "" {
		merged, err := txnimport.LoadAliasOverrides(cfg.ImportAliasesFile, aliases)
		if err != nil {
			return nil, err
		}
		aliases = merged
		logger.Info("import_aliases_loaded", "path", cfg.ImportAliasesFile)
	}
	return txnimport.NewImporter(aliases, cfg.ImportMaxRows, logger), nil
}

// NewArchiver returns a GCS archiver when IMPORT_ARCHIVE_BUCKET is set and a
// no-op otherwise. The returned close func is always safe to call.
func NewArchiver(ctx context.Context, cfg config.Config) (archive.Archiver, func() error, error) {
	if cfg.ImportArchiveBucket == "" {
		return archive.Nop{}, func() error { return nil }, nil
	}
	gcs, err := archive.NewGCSArchiver(ctx, cfg.ImportArchiveBucket)
	if err != nil {
		return nil, nil, err
	}
	return gcs, gcs.Close, nil
}
