package leads

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	leadsTable      = "leads"
	newsletterTable = "newsletter_subscriptions"
	uniqueViolation = "23505"
)

// DB is the part of pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository persists leads and newsletter subscriptions.
type Repository interface {
	InsertLead(ctx context.Context, lead Record[Lead]) error
	InsertSubscription(ctx context.Context, sub Record[Subscription]) error
}

type PostgresRepository struct {
	db DB
}

func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) InsertLead(ctx context.Context, lead Record[Lead]) error {
	v := lead.Value
	query, args, err := sq.Insert(leadsTable).
		Columns("id", "name", "email", "phone", "business", "interest", "challenge", "created_at").
		Values(lead.ID, v.Name, v.Email, v.Phone, v.Business, v.Interest, v.Challenge, lead.CreatedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("build lead insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *PostgresRepository) InsertSubscription(ctx context.Context, sub Record[Subscription]) error {
	query, args, err := sq.Insert(newsletterTable).
		Columns("id", "email", "created_at").
		Values(sub.ID, sub.Value.Email, sub.CreatedAt).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("build subscription insert: %w", err)
	}
	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadySubscribed
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}
