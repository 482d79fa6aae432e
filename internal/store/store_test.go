package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpulse/finpulse/internal/insight"
	"github.com/finpulse/finpulse/internal/signal"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres"), 5*time.Second), mock
}

func TestSaveFeed(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("INSERT INTO signal_feeds").
		WithArgs(sqlmock.AnyArg(), "biz-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := s.SaveFeed(context.Background(), "biz-1", []signal.Signal{
		{ID: "revenue-1", Type: signal.TypeRevenue, SeverityScore: 50},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestFeed(t *testing.T) {
	s, mock := newMockStore(t)

	signals := []signal.Signal{{ID: "profit-1", Type: signal.TypeProfit, SeverityScore: 80}}
	payload, err := json.Marshal(signals)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "business_id", "payload", "created_at"}).
		AddRow("run-1", "biz-1", payload, time.Now())
	mock.ExpectQuery("SELECT id, business_id, payload, created_at").
		WithArgs("biz-1").
		WillReturnRows(rows)

	got, err := s.LatestFeed(context.Background(), "biz-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "profit-1", got[0].ID)
}

func TestLatestFeed_NoRows(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT id, business_id, payload, created_at").
		WithArgs("biz-9").
		WillReturnError(sql.ErrNoRows)

	_, err := s.LatestFeed(context.Background(), "biz-9")
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSaveInsights(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO insights").
		WithArgs("biz-1", "2026-08", "profit_drop", sqlmock.AnyArg(), "open", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.SaveInsights(context.Background(), "biz-1", "2026-08", []insight.Insight{
		{ID: "profit_drop", Type: insight.TypeAlert, Status: insight.StatusOpen},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachAnswer(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE insights").
		WithArgs("we paused two campaigns", "answered", sqlmock.AnyArg(),
			"biz-1", "2026-08", "rev_drop_combined", "open").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.AttachAnswer(context.Background(), "biz-1", "2026-08", "rev_drop_combined", "we paused two campaigns")
	require.NoError(t, err)
}

func TestAttachAnswer_NotOpen(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec("UPDATE insights").
		WithArgs(sqlmock.AnyArg(), "answered", sqlmock.AnyArg(),
			"biz-1", "2026-08", "profit_drop", "open").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.AttachAnswer(context.Background(), "biz-1", "2026-08", "profit_drop", "answer")
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestOpenInsights(t *testing.T) {
	s, mock := newMockStore(t)

	ins := insight.Insight{ID: "sessions_drop", Type: insight.TypeAlert, Status: insight.StatusOpen}
	payload, err := json.Marshal(ins)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"payload"}).AddRow(payload)
	mock.ExpectQuery("SELECT payload FROM insights").
		WithArgs("biz-1", "2026-08", "open").
		WillReturnRows(rows)

	got, err := s.OpenInsights(context.Background(), "biz-1", "2026-08")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sessions_drop", got[0].ID)
}
