// Package signal generates the severity-ranked signal feed from
// period-over-period accounting, analytics, and audience data.
package signal

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/finpulse/finpulse/internal/delta"
	"github.com/finpulse/finpulse/internal/fetch"
	"github.com/finpulse/finpulse/internal/severity"
)

// Engine orchestrates fetch, delta calculation, and severity scoring
// into a ranked signal feed. Each Generate call works on its own
// freshly fetched snapshot; the engine holds no mutable state, so
// concurrent calls for different businesses are independent.
type Engine struct {
	snapshots fetch.SnapshotFetcher
	analytics fetch.AnalyticsFetcher
	audiences fetch.AudienceFetcher
	log       zerolog.Logger
	now       func() time.Time
}

// NewEngine creates a signal engine over the three upstream fetchers.
func NewEngine(snapshots fetch.SnapshotFetcher, analytics fetch.AnalyticsFetcher, audiences fetch.AudienceFetcher, log zerolog.Logger) *Engine {
	return &Engine{
		snapshots: snapshots,
		analytics: analytics,
		audiences: audiences,
		log:       log,
		now:       time.Now,
	}
}

// Generate fetches current-vs-previous data for the business and emits
// revenue, expenses, and profit signals sorted descending by severity
// score. Ordering among equal scores is unspecified.
//
// The three fetches fan out in parallel and join before any signal is
// assembled; if any of them fails (or ctx is cancelled first), the
// whole run fails and no partial feed is returned. Callers must treat
// an error as "no signals this cycle", never as a zero-valued feed.
func (e *Engine) Generate(ctx context.Context, businessID string) ([]Signal, error) {
	var (
		snap     *fetch.Snapshot
		ga       *fetch.GAData
		audience []fetch.AudienceSegment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = e.snapshots.FetchSnapshot(gctx, businessID)
		return err
	})
	g.Go(func() error {
		var err error
		ga, err = e.analytics.FetchGAData(gctx, businessID)
		return err
	})
	g.Go(func() error {
		var err error
		audience, err = e.audiences.FetchAudienceLab(gctx, businessID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("generate signals for %s: %w", businessID, err)
	}

	s := snap.Sanitized()
	a := ga.Sanitized()
	now := e.now()

	signals := []Signal{
		e.revenueSignal(s, a, audience, now),
		e.expensesSignal(s, now),
		e.profitSignal(s, now),
	}

	// Primary API guarantee: descending severity. Stable sort keeps
	// generation order among ties, though the contract leaves tie
	// ordering unspecified.
	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].SeverityScore > signals[j].SeverityScore
	})

	e.log.Debug().
		Str("business_id", businessID).
		Int("signals", len(signals)).
		Float64("top_score", signals[0].SeverityScore).
		Msg("signal feed generated")

	return signals, nil
}

func (e *Engine) revenueSignal(s fetch.Snapshot, a fetch.GAData, audience []fetch.AudienceSegment, now time.Time) Signal {
	d := delta.Compute(s.Revenue, s.RevenuePrev)
	persistence := orDefault(s.RevenuePersistence, 1)

	drivers := []DriverNode{
		{
			Name:     "Traffic",
			Current:  a.Sessions,
			Previous: a.SessionsPrev,
			DeltaPct: delta.Compute(a.Sessions, a.SessionsPrev).Percent,
		},
		{
			Name:     "Conversion Rate",
			Current:  a.Conversions,
			Previous: a.ConversionsPrev,
			DeltaPct: delta.Compute(a.Conversions, a.ConversionsPrev).Percent,
		},
		{
			Name:     "AOV",
			Current:  s.AvgOrderValue,
			Previous: s.AvgOrderValuePrev,
			DeltaPct: delta.Compute(s.AvgOrderValue, s.AvgOrderValuePrev).Percent,
		},
	}

	score, level := severity.ForSignal(d.Percent, persistence, s.RunwayMonths)

	return Signal{
		ID:       "revenue-1",
		Type:     TypeRevenue,
		Headline: revenueHeadline(d.Percent, persistence),
		Summary: fmt.Sprintf("Traffic %.1f%%, Conversion %.1f%%, AOV %.1f%%",
			drivers[0].DeltaPct, drivers[1].DeltaPct, drivers[2].DeltaPct),
		Drivers:           drivers,
		SeverityLevel:     level,
		SeverityScore:     score,
		ValueCurrent:      s.Revenue,
		ValuePrevious:     s.RevenuePrev,
		DeltaPct:          d.Percent,
		ImpactEstimate:    &ImpactEstimate{RunwayImpactMonths: s.RunwayMonths},
		PersistenceMonths: persistence,
		AudienceOverlay:   audience,
		CreatedAt:         now,
	}
}

func (e *Engine) expensesSignal(s fetch.Snapshot, now time.Time) Signal {
	d := delta.Compute(s.Expenses, s.ExpensesPrev)
	persistence := orDefault(s.ExpensesPersistence, 1)
	score, level := severity.ForSignal(d.Percent, persistence, s.RunwayMonths)

	return Signal{
		ID:                "expenses-1",
		Type:              TypeExpenses,
		Headline:          fmt.Sprintf("Expenses %s %.2f%% MoM", direction(d.Percent), d.Percent),
		Summary:           fmt.Sprintf("Expenses moved from %.2f to %.2f", s.ExpensesPrev, s.Expenses),
		Drivers:           []DriverNode{},
		SeverityLevel:     level,
		SeverityScore:     score,
		ValueCurrent:      s.Expenses,
		ValuePrevious:     s.ExpensesPrev,
		DeltaPct:          d.Percent,
		ImpactEstimate:    &ImpactEstimate{RunwayImpactMonths: s.RunwayMonths},
		PersistenceMonths: persistence,
		CreatedAt:         now,
	}
}

func (e *Engine) profitSignal(s fetch.Snapshot, now time.Time) Signal {
	d := delta.Compute(s.Profit, s.ProfitPrev)
	persistence := orDefault(s.ProfitPersistence, 1)
	score, level := severity.ForSignal(d.Percent, persistence, s.RunwayMonths)

	return Signal{
		ID:                "profit-1",
		Type:              TypeProfit,
		Headline:          fmt.Sprintf("Profit %s %.2f%% MoM", direction(d.Percent), d.Percent),
		Summary:           fmt.Sprintf("Profit moved from %.2f to %.2f", s.ProfitPrev, s.Profit),
		Drivers:           []DriverNode{},
		SeverityLevel:     level,
		SeverityScore:     score,
		ValueCurrent:      s.Profit,
		ValuePrevious:     s.ProfitPrev,
		DeltaPct:          d.Percent,
		ImpactEstimate:    &ImpactEstimate{RunwayImpactMonths: s.RunwayMonths},
		PersistenceMonths: persistence,
		CreatedAt:         now,
	}
}

// revenueHeadline frames a persistent trend (3+ months) as structural;
// anything shorter is plain month-over-month. The 3-month cutoff is a
// behavioral contract, not copy.
func revenueHeadline(deltaPct, persistenceMonths float64) string {
	if persistenceMonths >= 3 {
		word := "growth"
		if deltaPct < 0 {
			word = "decline"
		}
		return fmt.Sprintf("Structural revenue %s %.2f%%", word, deltaPct)
	}
	return fmt.Sprintf("Revenue %s %.2f%% MoM", direction(deltaPct), deltaPct)
}

func direction(deltaPct float64) string {
	if deltaPct < 0 {
		return "down"
	}
	return "up"
}

// orDefault substitutes def when the upstream supplied no value. After
// JSON decoding an absent persistence and an explicit zero are the same
// float64, so both normalize to the one-month default, in the emitted
// record as well as in scoring. Scoring treats 0 and 1 identically, so
// only the reported PersistenceMonths is affected.
func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
