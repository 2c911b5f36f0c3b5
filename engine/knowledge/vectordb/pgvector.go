package vectordb

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/pharens/pharens-ai/engine/knowledge"
)

// pgPool is the part of *pgxpool.Pool the store uses.
type pgPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

type pgStore struct {
	id         string
	pool       pgPool
	tableIdent string
	indexIdent string
	dimension  int
	ensureIdx  bool
	psql       sq.StatementBuilderType
}

func newPGStore(ctx context.Context, cfg *Config) (Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("vector_db %q: invalid postgres dsn: %w", cfg.ID, err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("vector_db %q: failed to connect to postgres: %w", cfg.ID, err)
	}
	store := newPGStoreWithPool(pool, cfg)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	trackVectorPool(cfg.ID, pool)
	return store, nil
}

func newPGStoreWithPool(pool pgPool, cfg *Config) *pgStore {
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	return &pgStore{
		id:         cfg.ID,
		pool:       pool,
		tableIdent: pgx.Identifier{table}.Sanitize(),
		indexIdent: pgx.Identifier{table + "_embedding_idx"}.Sanitize(),
		dimension:  cfg.Dimension,
		ensureIdx:  cfg.EnsureIndex,
		psql:       sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// EnsureSchema creates the extension, table and optional index if missing.
func (p *pgStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("pgvector: enable extension: %w", err)
	}
	createTable := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		category TEXT,
		embedding vector(%d) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`, p.tableIdent, p.dimension)
	if _, err := p.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("pgvector: create table: %w", err)
	}
	if p.ensureIdx {
		createIndex := fmt.Sprintf(
			"CREATE INDEX IF NOT EXISTS %s ON %s USING ivfflat (embedding vector_cosine_ops)",
			p.indexIdent, p.tableIdent,
		)
		if _, err := p.pool.Exec(ctx, createIndex); err != nil {
			return fmt.Errorf("pgvector: create index: %w", err)
		}
	}
	return nil
}

func (p *pgStore) Upsert(ctx context.Context, records []knowledge.Record) (err error) {
	if len(records) == 0 {
		return nil
	}
	for i := range records {
		if len(records[i].Embedding) != p.dimension {
			return fmt.Errorf("pgvector: record %q dimension mismatch (got %d want %d)",
				records[i].ID, len(records[i].Embedding), p.dimension)
		}
	}
	insert := p.psql.Insert(p.tableIdent).
		Columns("id", "title", "content", "category", "embedding", "created_at").
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			category = EXCLUDED.category,
			embedding = EXCLUDED.embedding`)
	for _, rec := range records {
		created := rec.CreatedAt
		if created.IsZero() {
			created = time.Now().UTC()
		}
		insert = insert.Values(rec.ID, rec.Title, rec.Content, rec.Category, pgvector.NewVector(rec.Embedding), created)
	}
	stmt, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("pgvector: build upsert: %w", err)
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		recordVectorError(ctx, "upsert", string(ProviderPGVector))
		return fmt.Errorf("pgvector: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = fmt.Errorf("pgvector: rollback failed: %w; original error: %v", rbErr, err)
			}
			return
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			err = fmt.Errorf("pgvector: commit: %w", commitErr)
		}
	}()
	if _, err = tx.Exec(ctx, stmt, args...); err != nil {
		recordVectorError(ctx, "upsert", string(ProviderPGVector))
		return fmt.Errorf("pgvector: upsert: %w", err)
	}
	return nil
}

func (p *pgStore) Search(ctx context.Context, query []float32, opts SearchOptions) ([]Match, error) {
	if len(query) != p.dimension {
		return nil, fmt.Errorf("pgvector: query dimension mismatch (got %d want %d)", len(query), p.dimension)
	}
	topK := opts.TopK
	if topK <= 0 {
		topK = defaultTopK
	}
	vec := pgvector.NewVector(query)
	sel := p.psql.Select("id", "title", "content", "COALESCE(category, '')").
		Column(sq.Expr("1 - (embedding <=> ?) AS similarity", vec)).
		From(p.tableIdent).
		Where(sq.Expr("1 - (embedding <=> ?) >= ?", vec, opts.MinScore)).
		OrderByClause("embedding <=> ?", vec).
		Limit(uint64(topK))
	stmt, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("pgvector: build search: %w", err)
	}
	start := time.Now()
	rows, err := p.pool.Query(ctx, stmt, args...)
	if err != nil {
		recordVectorError(ctx, "search", string(ProviderPGVector))
		return nil, fmt.Errorf("pgvector: search: %w", err)
	}
	defer rows.Close()
	matches := make([]Match, 0, topK)
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Title, &m.Content, &m.Category, &m.Score); err != nil {
			return nil, fmt.Errorf("pgvector: scan: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		recordVectorError(ctx, "search", string(ProviderPGVector))
		return nil, fmt.Errorf("pgvector: search rows: %w", err)
	}
	recordVectorSearch(ctx, string(ProviderPGVector), topK, time.Since(start), matches)
	return matches, nil
}

func (p *pgStore) Close(context.Context) error {
	untrackVectorPool(p.id)
	p.pool.Close()
	return nil
}
