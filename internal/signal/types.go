package signal

import (
	"time"

	"github.com/finpulse/finpulse/internal/fetch"
	"github.com/finpulse/finpulse/internal/severity"
)

// Type classifies the metric a signal is about.
type Type string

const (
	TypeRevenue   Type = "revenue"
	TypeExpenses  Type = "expenses"
	TypeProfit    Type = "profit"
	TypeMarketing Type = "marketing"
	TypeCash      Type = "cash"
	TypeOther     Type = "other"
)

// DriverNode is one factor in a metric's decomposition tree. Trees are
// shallow in practice (one or two levels) but nesting is unbounded.
// A node belongs exclusively to the signal that carries it.
type DriverNode struct {
	Name                 string       `json:"name"`
	Current              float64      `json:"current"`
	Previous             float64      `json:"previous"`
	DeltaPct             float64      `json:"deltaPct"`
	ContributionToChange float64      `json:"contributionToChange,omitempty"`
	Children             []DriverNode `json:"children,omitempty"`
}

// ImpactEstimate captures how a change affects cash position.
type ImpactEstimate struct {
	CashImpact         float64 `json:"cashImpact,omitempty"`
	RunwayImpactMonths float64 `json:"runwayImpactMonths,omitempty"`
}

// Signal is one severity-ranked observation about a metric's
// period-over-period change. Signals are created fresh on every
// generation run; the feed is recomputed whole, never patched.
type Signal struct {
	ID                string                  `json:"id"`
	Type              Type                    `json:"type"`
	Headline          string                  `json:"headline"`
	Summary           string                  `json:"summary"`
	Drivers           []DriverNode            `json:"drivers"`
	SeverityLevel     severity.Level          `json:"severityLevel"`
	SeverityScore     float64                 `json:"severityScore"`
	ValueCurrent      float64                 `json:"valueCurrent"`
	ValuePrevious     float64                 `json:"valuePrevious"`
	DeltaPct          float64                 `json:"deltaPct"`
	ImpactEstimate    *ImpactEstimate         `json:"impactEstimate,omitempty"`
	PersistenceMonths float64                 `json:"persistenceMonths"`
	Contradiction     bool                    `json:"contradiction,omitempty"`
	AudienceOverlay   []fetch.AudienceSegment `json:"audienceOverlay,omitempty"`
	CreatedAt         time.Time               `json:"createdAt"`
}
