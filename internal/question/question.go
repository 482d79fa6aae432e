// Package question derives owner follow-up questions from a generated
// signal feed.
package question

import "github.com/finpulse/finpulse/internal/signal"

// Owner identifies who a question is addressed to.
type Owner string

const (
	OwnerBusiness Owner = "business_owner"
	OwnerAdvisor  Owner = "advisor"
)

// Question is one follow-up the narrative layer surfaces to its owner.
// Blocking questions gate the advisor summary until answered.
type Question struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Owner    Owner  `json:"owner"`
	Blocking bool   `json:"blocking"`
}

// Cutoff below which a drop is large enough to warrant a question.
const dropCutoffPct = -20

// FromSignals inspects the feed and emits questions for significant
// drops: a revenue decline asks about churn (blocking), and a traffic
// driver decline asks about campaigns (non-blocking).
func FromSignals(signals []signal.Signal) []Question {
	questions := []Question{}

	for _, s := range signals {
		if s.Type != signal.TypeRevenue {
			continue
		}
		if s.DeltaPct < dropCutoffPct {
			questions = append(questions, Question{
				ID:       "q_revenue_drop",
				Question: "Did any major customers churn or delay purchases this month?",
				Owner:    OwnerBusiness,
				Blocking: true,
			})
		}
		for _, d := range s.Drivers {
			if d.Name == "Traffic" && d.DeltaPct < dropCutoffPct {
				questions = append(questions, Question{
					ID:       "q_traffic_drop",
					Question: "Were any marketing campaigns paused or reduced?",
					Owner:    OwnerBusiness,
					Blocking: false,
				})
			}
		}
	}

	return questions
}
