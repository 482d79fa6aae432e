// Package insight evaluates a fixed battery of threshold rules against
// accounting, analytics, and ad-spend deltas and emits typed messages
// for the owner dashboard.
package insight

import (
	"fmt"
	"math"

	"github.com/finpulse/finpulse/internal/severity"
)

// Generate runs the rule battery in declaration order and returns the
// triggered insights. The output keeps rule order; it is deliberately
// NOT sorted by severity, unlike the signal feed. Every insight comes
// out with status open — prior owner answers are merged elsewhere.
//
// Pure function: no I/O, no retained state, safe for concurrent use.
func Generate(digits DigitsSnapshot, ga GADelta, ads *AdsDelta, th Thresholds) []Insight {
	insights := []Insight{}

	// Rule 1: revenue drop, with correlation clauses appended when
	// traffic or conversions also fell.
	if digits.RevenuePct <= th.RevenueDropPct {
		message := fmt.Sprintf("Revenue dropped %.2f%% this month.", math.Abs(digits.RevenuePct))

		investigations := []string{}
		if ga.SessionsPct < 0 {
			message += fmt.Sprintf(" Traffic also decreased %.2f%%, suggesting fewer visitors drove the decline.", math.Abs(ga.SessionsPct))
			investigations = append(investigations,
				"Review paid vs organic traffic changes",
				"Check if ad campaigns were paused or reduced",
				"Confirm site uptime or deployment issues",
			)
		}
		if ga.ConversionsPct < 0 {
			message += fmt.Sprintf(" Conversions dropped %.2f%%, consider checkout flow or promotion changes.", math.Abs(ga.ConversionsPct))
			investigations = append(investigations,
				"Check pricing or promotions",
				"Review checkout funnel",
				"Investigate campaign targeting",
			)
		}

		insights = append(insights, Insight{
			ID:             "rev_drop_combined",
			Type:           TypeAlert,
			Title:          "Revenue decline detected",
			Message:        message,
			RelatedMetrics: []string{"revenue", "sessions", "conversions"},
			Severity:       severity.ForInsight(digits.RevenuePct),
			FollowUpQuestions: []string{
				"Were any marketing campaigns paused or reduced?",
				"Any pricing changes this month?",
				"Any external events affecting traffic or sales?",
			},
			Status:                  StatusOpen,
			AdvisorFlag:             AdvisorReviewRecommended,
			SuggestedInvestigations: investigations,
		})
	}

	// Rule 2: profit drop. Requires an owner response and urgent
	// advisor review.
	if digits.ProfitPct <= th.ProfitDropPct {
		insights = append(insights, Insight{
			ID:               "profit_drop",
			Type:             TypeAlert,
			Title:            "Profit decreased",
			Message:          fmt.Sprintf("Profit decreased %.2f%% this month. Review revenue, expenses, and cost drivers.", math.Abs(digits.ProfitPct)),
			RelatedMetrics:   []string{"profit", "revenue", "expenses"},
			Severity:         severity.ForInsight(digits.ProfitPct),
			RequiresResponse: true,
			FollowUpQuestions: []string{
				"Which expenses contributed to the profit drop?",
				"Any revenue streams underperforming?",
				"Were there any operational issues affecting profit?",
			},
			Status:      StatusOpen,
			AdvisorFlag: AdvisorUrgentReview,
			SuggestedInvestigations: []string{
				"Review revenue per channel",
				"Audit major expense categories",
				"Investigate one-off costs or write-offs",
			},
		})
	}

	// Rule 3: expenses decreased. Always emits the positive note and
	// the confirmation question together, never one without the other.
	if digits.ExpensesPct < 0 {
		insights = append(insights, Insight{
			ID:                "expenses_positive",
			Type:              TypePositive,
			Title:             "Expenses decreased",
			Message:           fmt.Sprintf("Expenses decreased %.2f%%. Profit improved as a result.", math.Abs(digits.ExpensesPct)),
			RelatedMetrics:    []string{"expenses", "profit"},
			Severity:          severity.TierLow,
			FollowUpQuestions: []string{},
		})
		insights = append(insights, Insight{
			ID:               "expenses_question",
			Type:             TypeQuestion,
			Title:            "Expense reduction confirmation",
			Message:          "Verify if any expenses were intentionally paused or delayed this month.",
			RelatedMetrics:   []string{"expenses"},
			Severity:         severity.TierMedium,
			RequiresResponse: true,
			FollowUpQuestions: []string{
				"Which expenses were paused or reduced?",
				"Was the reduction temporary or permanent?",
			},
			Status:                  StatusOpen,
			AdvisorFlag:             AdvisorNone,
			SuggestedInvestigations: []string{"Check expense reports or approvals"},
		})
	}

	// Rule 4: conversions drop.
	if ga.ConversionsPct <= th.ConversionsDropPct {
		insights = append(insights, Insight{
			ID:             "conversions_drop",
			Type:           TypeAlert,
			Title:          "Conversions dropped",
			Message:        fmt.Sprintf("Conversions dropped %.2f%%. Investigate checkout flow, promotions, or campaign changes.", math.Abs(ga.ConversionsPct)),
			RelatedMetrics: []string{"conversions"},
			Severity:       severity.ForInsight(ga.ConversionsPct),
			FollowUpQuestions: []string{
				"Were there changes in checkout flow?",
				"Any promotions running this month?",
				"Check for website errors or outages affecting conversion",
			},
			Status:      StatusOpen,
			AdvisorFlag: AdvisorReviewRecommended,
			SuggestedInvestigations: []string{
				"Review marketing campaigns",
				"Audit website funnel",
				"Check checkout analytics",
			},
		})
	}

	// Rule 5: sessions and users drops, checked independently.
	if ga.SessionsPct <= th.SessionsDropPct {
		insights = append(insights, Insight{
			ID:                "sessions_drop",
			Type:              TypeAlert,
			Title:             "Traffic drop",
			Message:           fmt.Sprintf("Sessions dropped %.2f%% this month.", math.Abs(ga.SessionsPct)),
			RelatedMetrics:    []string{"sessions"},
			Severity:          severity.ForInsight(ga.SessionsPct),
			FollowUpQuestions: []string{"Investigate marketing channels", "Check seasonality"},
			Status:            StatusOpen,
			AdvisorFlag:       AdvisorReviewRecommended,
			SuggestedInvestigations: []string{
				"Review paid vs organic traffic",
				"Check ad campaigns",
				"Confirm website uptime",
			},
		})
	}

	if ga.UsersPct <= th.UsersDropPct {
		insights = append(insights, Insight{
			ID:                "users_drop",
			Type:              TypeAlert,
			Title:             "Unique users decrease",
			Message:           fmt.Sprintf("Unique users decreased %.2f%%.", math.Abs(ga.UsersPct)),
			RelatedMetrics:    []string{"users"},
			Severity:          severity.ForInsight(ga.UsersPct),
			FollowUpQuestions: []string{"Investigate audience reach and marketing channels"},
			Status:            StatusOpen,
			AdvisorFlag:       AdvisorReviewRecommended,
			SuggestedInvestigations: []string{
				"Review marketing campaigns",
				"Check acquisition channels",
				"Compare with previous periods",
			},
		})
	}

	// Rule 6: ads vs traffic correlation. Only evaluated when ads data
	// is present and traffic fell at all. The two sub-cases are
	// mutually exclusive; if neither holds, nothing is emitted even
	// though the outer guard passed.
	if ads != nil && ga.SessionsPct < 0 {
		if ads.SpendPct < 0 {
			insights = append(insights, Insight{
				ID:    "ads_drop_traffic",
				Type:  TypeAlert,
				Title: "Traffic vs Ad spend",
				Message: fmt.Sprintf("Website traffic declined %.2f%% while ad spend dropped %.2f%%. Reduced marketing likely contributed.",
					math.Abs(ga.SessionsPct), math.Abs(ads.SpendPct)),
				RelatedMetrics: []string{"sessions", "ads"},
				Severity:       severity.ForInsight(ga.SessionsPct),
				FollowUpQuestions: []string{
					"Which campaigns were paused?",
					"Was ad targeting modified?",
				},
				Status:      StatusOpen,
				AdvisorFlag: AdvisorReviewRecommended,
				SuggestedInvestigations: []string{
					"Check ad campaign schedule",
					"Review targeting or budget changes",
					"Compare ad spend ROI",
				},
			})
		} else if ads.SpendPct > 0 && ads.ClicksPct < 0 {
			insights = append(insights, Insight{
				ID:    "ads_spend_clicks_mismatch",
				Type:  TypeAlert,
				Title: "Ad performance anomaly",
				Message: fmt.Sprintf("Ad spend increased %.2f%% but clicks dropped %.2f%%.",
					ads.SpendPct, math.Abs(ads.ClicksPct)),
				RelatedMetrics: []string{"ads", "clicks"},
				Severity:       severity.ForInsight(ads.ClicksPct),
				FollowUpQuestions: []string{
					"Review campaign targeting",
					"Check ad creative fatigue",
				},
				Status:      StatusOpen,
				AdvisorFlag: AdvisorReviewRecommended,
				SuggestedInvestigations: []string{
					"Audit ad campaigns",
					"Compare impressions vs clicks",
					"Review creative performance",
				},
			})
		}
	}

	return insights
}
