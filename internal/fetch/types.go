package fetch

import (
	"context"

	"github.com/finpulse/finpulse/internal/delta"
)

// Snapshot is the accounting view of a business for the current and
// previous period, plus persistence and runway context supplied by the
// upstream aggregator.
type Snapshot struct {
	Revenue           float64 `json:"revenue"`
	RevenuePrev       float64 `json:"revenuePrev"`
	Expenses          float64 `json:"expenses"`
	ExpensesPrev      float64 `json:"expensesPrev"`
	Profit            float64 `json:"profit"`
	ProfitPrev        float64 `json:"profitPrev"`
	AvgOrderValue     float64 `json:"avgOrderValue"`
	AvgOrderValuePrev float64 `json:"avgOrderValuePrev"`

	// Months each trend has held; zero means the upstream had no
	// persistence data for the metric.
	RevenuePersistence  float64 `json:"revenuePersistence"`
	ExpensesPersistence float64 `json:"expensesPersistence"`
	ProfitPersistence   float64 `json:"profitPersistence"`

	RunwayMonths float64 `json:"runwayMonths"`
}

// Sanitized returns a copy with every numeric field normalized through
// delta.SafeNumber. This is the sanitation boundary: signal generation
// only ever sees the sanitized copy.
func (s Snapshot) Sanitized() Snapshot {
	return Snapshot{
		Revenue:             delta.SafeNumber(s.Revenue),
		RevenuePrev:         delta.SafeNumber(s.RevenuePrev),
		Expenses:            delta.SafeNumber(s.Expenses),
		ExpensesPrev:        delta.SafeNumber(s.ExpensesPrev),
		Profit:              delta.SafeNumber(s.Profit),
		ProfitPrev:          delta.SafeNumber(s.ProfitPrev),
		AvgOrderValue:       delta.SafeNumber(s.AvgOrderValue),
		AvgOrderValuePrev:   delta.SafeNumber(s.AvgOrderValuePrev),
		RevenuePersistence:  delta.SafeNumber(s.RevenuePersistence),
		ExpensesPersistence: delta.SafeNumber(s.ExpensesPersistence),
		ProfitPersistence:   delta.SafeNumber(s.ProfitPersistence),
		RunwayMonths:        delta.SafeNumber(s.RunwayMonths),
	}
}

// GAData is the web-analytics view for the current and previous period.
type GAData struct {
	Sessions        float64 `json:"sessions"`
	SessionsPrev    float64 `json:"sessionsPrev"`
	Users           float64 `json:"users"`
	UsersPrev       float64 `json:"usersPrev"`
	Conversions     float64 `json:"conversions"`
	ConversionsPrev float64 `json:"conversionsPrev"`
	Revenue         float64 `json:"revenue"`
	RevenuePrev     float64 `json:"revenuePrev"`
}

// Sanitized returns a copy with every field normalized through
// delta.SafeNumber.
func (g GAData) Sanitized() GAData {
	return GAData{
		Sessions:        delta.SafeNumber(g.Sessions),
		SessionsPrev:    delta.SafeNumber(g.SessionsPrev),
		Users:           delta.SafeNumber(g.Users),
		UsersPrev:       delta.SafeNumber(g.UsersPrev),
		Conversions:     delta.SafeNumber(g.Conversions),
		ConversionsPrev: delta.SafeNumber(g.ConversionsPrev),
		Revenue:         delta.SafeNumber(g.Revenue),
		RevenuePrev:     delta.SafeNumber(g.RevenuePrev),
	}
}

// AudienceSegment is one audience-lab segment overlay.
type AudienceSegment struct {
	Segment        string  `json:"segment"`
	DeltaPct       float64 `json:"deltaPct"`
	AbsoluteChange float64 `json:"absoluteChange,omitempty"`
}

// SnapshotFetcher retrieves the accounting snapshot for a business.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, businessID string) (*Snapshot, error)
}

// AnalyticsFetcher retrieves web-analytics deltas for a business.
type AnalyticsFetcher interface {
	FetchGAData(ctx context.Context, businessID string) (*GAData, error)
}

// AudienceFetcher retrieves audience-lab segments for a business.
type AudienceFetcher interface {
	FetchAudienceLab(ctx context.Context, businessID string) ([]AudienceSegment, error)
}

// Fetchers bundles the three upstream collaborators the signal engine
// consumes.
type Fetchers interface {
	SnapshotFetcher
	AnalyticsFetcher
	AudienceFetcher
}
