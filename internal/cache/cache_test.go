package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finpulse/finpulse/internal/fetch"
)

type countingFetchers struct {
	snap  fetch.Snapshot
	calls int
	err   error
}

func (f *countingFetchers) FetchSnapshot(ctx context.Context, businessID string) (*fetch.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	s := f.snap
	return &s, nil
}

func (f *countingFetchers) FetchGAData(ctx context.Context, businessID string) (*fetch.GAData, error) {
	f.calls++
	return &fetch.GAData{Sessions: 100}, nil
}

func (f *countingFetchers) FetchAudienceLab(ctx context.Context, businessID string) ([]fetch.AudienceSegment, error) {
	f.calls++
	return []fetch.AudienceSegment{{Segment: "new", DeltaPct: 5}}, nil
}

func TestFetchSnapshot_Hit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	want := fetch.Snapshot{Revenue: 5000, RevenuePrev: 4000}
	payload, err := json.Marshal(&want)
	require.NoError(t, err)

	mock.ExpectGet("finpulse:snapshot:biz-1").SetVal(string(payload))

	inner := &countingFetchers{}
	c := New(inner, rdb, time.Minute, zerolog.Nop())

	got, err := c.FetchSnapshot(context.Background(), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, want, *got)
	assert.Zero(t, inner.calls, "hit must not touch the upstream")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchSnapshot_MissPopulates(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &countingFetchers{snap: fetch.Snapshot{Revenue: 123}}
	c := New(inner, rdb, time.Minute, zerolog.Nop())

	payload, err := json.Marshal(&inner.snap)
	require.NoError(t, err)

	mock.ExpectGet("finpulse:snapshot:biz-1").RedisNil()
	mock.ExpectSet("finpulse:snapshot:biz-1", payload, time.Minute).SetVal("OK")

	got, err := c.FetchSnapshot(context.Background(), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, 123.0, got.Revenue)
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchSnapshot_RedisErrorFallsThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &countingFetchers{snap: fetch.Snapshot{Revenue: 9}}
	c := New(inner, rdb, time.Minute, zerolog.Nop())

	payload, err := json.Marshal(&inner.snap)
	require.NoError(t, err)

	mock.ExpectGet("finpulse:snapshot:biz-1").SetErr(errors.New("connection refused"))
	mock.ExpectSet("finpulse:snapshot:biz-1", payload, time.Minute).SetVal("OK")

	got, err := c.FetchSnapshot(context.Background(), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, 9.0, got.Revenue)
	assert.Equal(t, 1, inner.calls)
}

func TestFetchSnapshot_CorruptEntryFallsThrough(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &countingFetchers{snap: fetch.Snapshot{Revenue: 7}}
	c := New(inner, rdb, time.Minute, zerolog.Nop())

	payload, err := json.Marshal(&inner.snap)
	require.NoError(t, err)

	mock.ExpectGet("finpulse:snapshot:biz-1").SetVal("{not json")
	mock.ExpectSet("finpulse:snapshot:biz-1", payload, time.Minute).SetVal("OK")

	got, err := c.FetchSnapshot(context.Background(), "biz-1")
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.Revenue)
}

func TestFetchSnapshot_UpstreamErrorPropagates(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	wantErr := errors.New("upstream down")
	inner := &countingFetchers{err: wantErr}
	c := New(inner, rdb, time.Minute, zerolog.Nop())

	mock.ExpectGet("finpulse:snapshot:biz-1").RedisNil()

	_, err := c.FetchSnapshot(context.Background(), "biz-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}

func TestFetchGAData_MissPopulates(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	inner := &countingFetchers{}
	c := New(inner, rdb, time.Minute, zerolog.Nop())

	ga := fetch.GAData{Sessions: 100}
	payload, err := json.Marshal(&ga)
	require.NoError(t, err)

	mock.ExpectGet("finpulse:ga:biz-2").RedisNil()
	mock.ExpectSet("finpulse:ga:biz-2", payload, time.Minute).SetVal("OK")

	got, err := c.FetchGAData(context.Background(), "biz-2")
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Sessions)
}
