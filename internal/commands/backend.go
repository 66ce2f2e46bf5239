package commands

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/dafibh/fintrack/fintrack-backend/internal/config"
	"github.com/dafibh/fintrack/fintrack-backend/internal/domain"
	"github.com/dafibh/fintrack/fintrack-backend/internal/report"
	"github.com/dafibh/fintrack/fintrack-backend/internal/repository/postgres"
	"github.com/dafibh/fintrack/fintrack-backend/internal/repository/storage"
	"github.com/dafibh/fintrack/fintrack-backend/internal/service"
)

func defaultBackend() Backend {
	return Backend{
		Migrate: func(ctx context.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			return postgres.RunMigrations(cfg.DatabaseURL)
		},
		Open: openServices,
	}
}

func openServices(ctx context.Context) (*Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	var archive domain.ImportArchive
	if cfg.S3.Enabled() {
		s3Archive, err := storage.NewS3ImportArchive(ctx, cfg.S3)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("initializing archive: %w", err)
		}
		archive = s3Archive
	}

	categoryRepo := postgres.NewCategoryRepository(pool)
	transactionRepo := postgres.NewTransactionRepository(pool)
	summaryService := service.NewSummaryService(transactionRepo)

	log.Debug().Msg("Connected to database")
	return &Services{
		Import: service.NewImportService(transactionRepo, service.NewCategoryResolver(categoryRepo), archive),
		Stats:  service.NewStatsService(transactionRepo),
		Report: service.NewReportService(transactionRepo, summaryService, func() (report.Document, error) {
			return report.NewPDFDocument(cfg.ReportFontPath)
		}),
		Close: pool.Close,
	}, nil
}
