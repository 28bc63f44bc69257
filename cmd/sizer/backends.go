package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"distribution-sizer/internal/pipeline"
	"distribution-sizer/internal/storage"
	chstore "distribution-sizer/internal/storage/clickhouse"
	"distribution-sizer/internal/storage/file"
	"distribution-sizer/internal/storage/memory"
	"distribution-sizer/internal/storage/migrations"
	"distribution-sizer/internal/storage/postgres"
	"distribution-sizer/internal/tables"
)

// backends are the storage collaborators of one command.
type backends struct {
	pool *postgres.Pool
	ch   *chstore.Conn

	reader  storage.CircuitReader
	writer  storage.ResultWriter
	archive storage.RunArchive
}

// Close releases every open connection.
func (b *backends) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.ch != nil {
		_ = b.ch.Close()
	}
}

// openPostgres connects to PostgreSQL, applying migrations when configured.
func (a *app) openPostgres(ctx context.Context) (*postgres.Pool, error) {
	if a.cfg.Postgres.DSN == "" {
		return nil, errors.New("postgres.dsn is not set")
	}
	pool, err := postgres.NewPool(ctx, a.cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if a.cfg.Postgres.Migrate {
		applied, err := migrations.RunPostgresMigrations(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
		a.logger.Info("postgres migrations applied", zap.Strings("files", applied))
	}
	return pool, nil
}

// openClickHouse connects to ClickHouse, applying migrations when configured.
func (a *app) openClickHouse(ctx context.Context) (*chstore.Conn, error) {
	if a.cfg.ClickHouse.DSN == "" {
		return nil, errors.New("clickhouse.dsn is not set")
	}
	if a.cfg.ClickHouse.Migrate {
		conn, err := migrations.RunClickhouseMigrations(ctx, a.cfg.ClickHouse.DSN)
		if err != nil {
			return nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		a.logger.Info("clickhouse migrations applied")
		return conn, nil
	}
	conn, err := chstore.NewConn(ctx, a.cfg.ClickHouse.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse: %w", err)
	}
	return conn, nil
}

// openBackends selects the reader, writer and archive of a run. Unconfigured
// databases fall back to in-memory stores; demo reads the built-in batch.
func (a *app) openBackends(ctx context.Context, demo bool) (*backends, error) {
	b := &backends{}
	var err error

	if a.cfg.Postgres.DSN != "" {
		if b.pool, err = a.openPostgres(ctx); err != nil {
			return nil, err
		}
		b.writer = postgres.NewRunStore(b.pool)
	} else {
		b.writer = memory.NewRunStore()
	}

	if a.cfg.ClickHouse.DSN != "" {
		if b.ch, err = a.openClickHouse(ctx); err != nil {
			b.Close()
			return nil, err
		}
		b.archive = chstore.NewRunArchive(b.ch)
	} else {
		b.archive = memory.NewRunArchive()
	}

	switch {
	case demo:
		store := memory.NewCircuitStore()
		if err := pipeline.LoadFixtures(ctx, store); err != nil {
			b.Close()
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		b.reader = store
	case a.cfg.Input != "":
		b.reader = file.NewReader(a.cfg.Input)
	case b.pool != nil:
		b.reader = postgres.NewCircuitStore(b.pool)
	default:
		b.Close()
		return nil, a.cfg.CheckSource()
	}

	a.logger.Debug("backends selected",
		zap.String("reader", fmt.Sprintf("%T", b.reader)),
		zap.String("writer", fmt.Sprintf("%T", b.writer)),
		zap.String("archive", fmt.Sprintf("%T", b.archive)))
	return b, nil
}

// newEngine loads the tables and builds the engine from the configuration.
func (a *app) newEngine() (*pipeline.Engine, *tables.Set, error) {
	set, err := a.cfg.LoadTables()
	if err != nil {
		return nil, nil, err
	}
	engine, err := pipeline.NewEngine(set, a.cfg.NewTaxonomy(), a.cfg.EngineOptions(), a.logger)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid engine configuration: %w", err)
	}
	return engine, set, nil
}
