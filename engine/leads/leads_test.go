package leads

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	leadInsert = "INSERT INTO leads (id,name,email,phone,business,interest,challenge,created_at) " +
		"VALUES ($1,$2,$3,$4,$5,$6,$7,$8)"
	subscriptionInsert = "INSERT INTO newsletter_subscriptions (id,email,created_at) VALUES ($1,$2,$3)"
)

var fixedNow = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func newMockService(t *testing.T) (*Service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	svc := NewService(NewPostgresRepository(mock))
	svc.now = func() time.Time { return fixedNow }
	return svc, mock
}

func TestService_CaptureLead(t *testing.T) {
	t.Run("Should insert a normalized lead", func(t *testing.T) {
		svc, mock := newMockService(t)
		mock.ExpectExec(regexp.QuoteMeta(leadInsert)).
			WithArgs(pgxmock.AnyArg(), "Naledi", "naledi@glow.co.za", "+27602785621", "Glow Spa", "SEO", "", fixedNow).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		id, err := svc.CaptureLead(t.Context(), Lead{
			Name:     "  Naledi ",
			Email:    "Naledi@Glow.co.za",
			Phone:    "060 278 5621",
			Business: "Glow Spa",
			Interest: "SEO",
		})
		require.NoError(t, err)
		assert.Len(t, id, 36)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should reject a missing name without touching the database", func(t *testing.T) {
		svc, mock := newMockService(t)
		_, err := svc.CaptureLead(t.Context(), Lead{Email: "a@b.co"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "name", verr.Field)
		assert.Equal(t, "name is required", verr.Message)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should reject a malformed email", func(t *testing.T) {
		svc, _ := newMockService(t)
		_, err := svc.CaptureLead(t.Context(), Lead{Name: "A", Email: "not-an-email"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "email", verr.Field)
	})

	t.Run("Should reject an invalid phone", func(t *testing.T) {
		svc, _ := newMockService(t)
		_, err := svc.CaptureLead(t.Context(), Lead{Name: "A", Email: "a@b.co", Phone: "+0"})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "phone", verr.Field)
		assert.Equal(t, "Please enter a valid phone number (e.g., 0602785621 or +27602785621)", verr.Message)
	})

	t.Run("Should wrap database failures", func(t *testing.T) {
		svc, mock := newMockService(t)
		cause := errors.New("connection reset")
		mock.ExpectExec(regexp.QuoteMeta(leadInsert)).
			WithArgs(pgxmock.AnyArg(), "A", "a@b.co", "", "", "", "", fixedNow).
			WillReturnError(cause)
		_, err := svc.CaptureLead(t.Context(), Lead{Name: "A", Email: "a@b.co"})
		require.ErrorIs(t, err, cause)
		require.ErrorContains(t, err, "insert lead")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should report not configured without a repository", func(t *testing.T) {
		_, err := NewService(nil).CaptureLead(t.Context(), Lead{Name: "A", Email: "a@b.co"})
		require.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestService_Subscribe(t *testing.T) {
	t.Run("Should insert the lower-cased email", func(t *testing.T) {
		svc, mock := newMockService(t)
		mock.ExpectExec(regexp.QuoteMeta(subscriptionInsert)).
			WithArgs(pgxmock.AnyArg(), "owner@salon.com", fixedNow).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		id, err := svc.Subscribe(t.Context(), " Owner@Salon.com ")
		require.NoError(t, err)
		assert.NotEmpty(t, id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should map unique violations to already subscribed", func(t *testing.T) {
		svc, mock := newMockService(t)
		mock.ExpectExec(regexp.QuoteMeta(subscriptionInsert)).
			WithArgs(pgxmock.AnyArg(), "owner@salon.com", fixedNow).
			WillReturnError(&pgconn.PgError{Code: uniqueViolation})
		_, err := svc.Subscribe(t.Context(), "owner@salon.com")
		require.ErrorIs(t, err, ErrAlreadySubscribed)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Should reject an empty email", func(t *testing.T) {
		svc, _ := newMockService(t)
		_, err := svc.Subscribe(t.Context(), "")
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "email is required", verr.Message)
	})
}

type recordingRepo struct {
	leads []Record[Lead]
}

func (r *recordingRepo) InsertLead(_ context.Context, l Record[Lead]) error {
	r.leads = append(r.leads, l)
	return nil
}

func (r *recordingRepo) InsertSubscription(context.Context, Record[Subscription]) error { return nil }

func TestService_RecordStamp(t *testing.T) {
	t.Run("Should stamp records with a UTC creation time", func(t *testing.T) {
		repo := &recordingRepo{}
		svc := NewService(repo)
		svc.now = func() time.Time { return fixedNow.In(time.FixedZone("SAST", 2*3600)) }
		_, err := svc.CaptureLead(t.Context(), Lead{Name: "A", Email: "a@b.co"})
		require.NoError(t, err)
		require.Len(t, repo.leads, 1)
		assert.Equal(t, time.UTC, repo.leads[0].CreatedAt.Location())
		assert.True(t, fixedNow.Equal(repo.leads[0].CreatedAt))
	})
}
