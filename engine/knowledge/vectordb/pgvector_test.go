package vectordb

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharens/pharens-ai/engine/knowledge"
)

func newMockPGStore(t *testing.T, ensureIndex bool) (*pgStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	store := newPGStoreWithPool(mock, &Config{ID: "kb", Dimension: 2, EnsureIndex: ensureIndex})
	return store, mock
}

func TestPGStore_EnsureSchema(t *testing.T) {
	t.Run("Should create extension table and index", func(t *testing.T) {
		store, mock := newMockPGStore(t, true)
		mock.ExpectExec("CREATE EXTENSION IF NOT EXISTS vector").WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "knowledge_base"`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectExec(`CREATE INDEX IF NOT EXISTS "knowledge_base_embedding_idx"`).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
		require.NoError(t, store.EnsureSchema(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should surface extension errors", func(t *testing.T) {
		store, mock := newMockPGStore(t, false)
		mock.ExpectExec("CREATE EXTENSION").WillReturnError(errors.New("permission denied"))
		err := store.EnsureSchema(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "enable extension")
	})
}

func TestPGStore_Upsert(t *testing.T) {
	t.Run("Should insert records inside a transaction", func(t *testing.T) {
		store, mock := newMockPGStore(t, false)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO "knowledge_base" \(id,title,content,category,embedding,created_at\)`).
			WithArgs("1", "SEO", "local", "services", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()
		err := store.Upsert(context.Background(), []knowledge.Record{
			{ID: "1", Title: "SEO", Content: "local", Category: "services", Embedding: []float32{1, 0}},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should roll back when the insert fails", func(t *testing.T) {
		store, mock := newMockPGStore(t, false)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("duplicate"))
		mock.ExpectRollback()
		err := store.Upsert(context.Background(), []knowledge.Record{{ID: "1", Embedding: []float32{1, 0}}})
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should reject mismatched dimensions before touching the database", func(t *testing.T) {
		store, mock := newMockPGStore(t, false)
		err := store.Upsert(context.Background(), []knowledge.Record{{ID: "1", Embedding: []float32{1}}})
		require.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPGStore_Search(t *testing.T) {
	t.Run("Should map rows into matches", func(t *testing.T) {
		store, mock := newMockPGStore(t, false)
		rows := mock.NewRows([]string{"id", "title", "content", "category", "similarity"}).
			AddRow("1", "SEO", "local search", "services", 0.91).
			AddRow("2", "Social", "reels", "social", 0.75)
		mock.ExpectQuery(`SELECT id, title, content, COALESCE\(category, ''\), 1 - \(embedding <=> \$1\) AS similarity FROM "knowledge_base"`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), 0.7, pgxmock.AnyArg()).
			WillReturnRows(rows)
		matches, err := store.Search(context.Background(), []float32{1, 0}, SearchOptions{TopK: 5, MinScore: 0.7})
		require.NoError(t, err)
		require.Len(t, matches, 2)
		assert.Equal(t, "SEO", matches[0].Title)
		assert.InDelta(t, 0.91, matches[0].Score, 1e-9)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should surface query errors", func(t *testing.T) {
		store, mock := newMockPGStore(t, false)
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))
		_, err := store.Search(context.Background(), []float32{1, 0}, SearchOptions{})
		require.Error(t, err)
	})
}
