package insight

import "github.com/finpulse/finpulse/internal/severity"

// Type classifies an insight.
type Type string

const (
	TypeAlert    Type = "alert"
	TypePositive Type = "positive"
	TypeQuestion Type = "question"
)

// Status tracks the owner-response lifecycle. The rule engine only
// ever emits StatusOpen; transitions happen in the store when an
// owner answer is attached.
type Status string

const (
	StatusOpen     Status = "open"
	StatusAnswered Status = "answered"
	StatusResolved Status = "resolved"
)

// AdvisorFlag marks an insight for human-advisor triage.
type AdvisorFlag string

const (
	AdvisorNone              AdvisorFlag = "none"
	AdvisorReviewRecommended AdvisorFlag = "review_recommended"
	AdvisorUrgentReview      AdvisorFlag = "urgent_review"
)

// Insight is one rule-triggered message about the business.
type Insight struct {
	ID                      string        `json:"id"`
	Type                    Type          `json:"type"`
	Title                   string        `json:"title"`
	Message                 string        `json:"message"`
	RelatedMetrics          []string      `json:"relatedMetrics,omitempty"`
	Severity                severity.Tier `json:"severity,omitempty"`
	RequiresResponse        bool          `json:"requiresResponse"`
	UserAnswer              string        `json:"userAnswer,omitempty"`
	FollowUpQuestions       []string      `json:"followUpQuestions,omitempty"`
	SuggestedInvestigations []string      `json:"suggestedInvestigations,omitempty"`
	AdvisorFlag             AdvisorFlag   `json:"advisorFlag,omitempty"`
	Status                  Status        `json:"status,omitempty"`
}

// DigitsSnapshot carries accounting totals and their month-over-month
// percentage changes from the ledger provider.
type DigitsSnapshot struct {
	Revenue     float64 `json:"revenue"`
	RevenuePct  float64 `json:"revenuePct"`
	Expenses    float64 `json:"expenses"`
	ExpensesPct float64 `json:"expensesPct"`
	Profit      float64 `json:"profit"`
	ProfitPct   float64 `json:"profitPct"`
}

// GADelta carries web-analytics metrics and their changes.
type GADelta struct {
	Sessions       float64 `json:"sessions"`
	SessionsPct    float64 `json:"sessionsPct"`
	Users          float64 `json:"users"`
	UsersPct       float64 `json:"usersPct"`
	Conversions    float64 `json:"conversions"`
	ConversionsPct float64 `json:"conversionsPct"`
	Revenue        float64 `json:"revenue"`
	RevenuePct     float64 `json:"revenuePct"`
}

// AdsDelta carries paid-acquisition metrics and their changes.
type AdsDelta struct {
	Spend          float64 `json:"spend"`
	SpendPct       float64 `json:"spendPct"`
	Clicks         float64 `json:"clicks"`
	ClicksPct      float64 `json:"clicksPct"`
	Impressions    float64 `json:"impressions"`
	ImpressionsPct float64 `json:"impressionsPct"`
}

// Thresholds are the rule cutoffs, immutable per invocation. Callers
// inject their own set or start from DefaultThresholds; there is no
// shared mutable default.
type Thresholds struct {
	RevenueDropPct      float64 `json:"revenueDropPct" yaml:"revenue_drop_pct"`
	ProfitDropPct       float64 `json:"profitDropPct" yaml:"profit_drop_pct"`
	ExpensesIncreasePct float64 `json:"expensesIncreasePct" yaml:"expenses_increase_pct"`
	SessionsDropPct     float64 `json:"sessionsDropPct" yaml:"sessions_drop_pct"`
	UsersDropPct        float64 `json:"usersDropPct" yaml:"users_drop_pct"`
	ConversionsDropPct  float64 `json:"conversionsDropPct" yaml:"conversions_drop_pct"`
}

// DefaultThresholds returns the production rule cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RevenueDropPct:      -20,
		ProfitDropPct:       -10,
		ExpensesIncreasePct: 10,
		SessionsDropPct:     -20,
		UsersDropPct:        -20,
		ConversionsDropPct:  -10,
	}
}
