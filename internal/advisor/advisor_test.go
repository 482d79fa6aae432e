package advisor

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	reply string
	err   error
	seen  string
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.seen = prompt
	return f.reply, f.err
}

const validReply = `{
  "executiveSummary": "Revenue fell on weaker traffic.",
  "keyRisks": ["Continued traffic decline"],
  "keyOpportunities": ["Recover paused campaigns"],
  "followUpQuestions": [
    {"insightId": "rev_drop_combined", "question": "Were campaigns paused?", "reason": "Traffic fell with revenue"}
  ],
  "advisorNotes": "Review ad budget."
}`

func TestRun_DecodesReport(t *testing.T) {
	gen := &fakeGenerator{reply: validReply}
	agent := NewAgent(gen, zerolog.Nop())

	report, err := agent.Run(context.Background(), "prompt body")
	require.NoError(t, err)

	assert.Equal(t, "Revenue fell on weaker traffic.", report.ExecutiveSummary)
	require.Len(t, report.FollowUps, 1)
	assert.Equal(t, "rev_drop_combined", report.FollowUps[0].InsightID)

	// The schema instruction rides along with the caller's prompt.
	assert.Contains(t, gen.seen, "prompt body")
	assert.Contains(t, gen.seen, "Respond ONLY in valid JSON")
}

func TestRun_StripsCodeFences(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n" + validReply + "\n```"}
	agent := NewAgent(gen, zerolog.Nop())

	report, err := agent.Run(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, []string{"Continued traffic decline"}, report.KeyRisks)
}

func TestRun_InvalidJSONIsError(t *testing.T) {
	gen := &fakeGenerator{reply: "I am not JSON"}
	agent := NewAgent(gen, zerolog.Nop())

	report, err := agent.Run(context.Background(), "p")
	require.Error(t, err)
	assert.Nil(t, report)
}

func TestRun_GeneratorErrorPropagates(t *testing.T) {
	wantErr := errors.New("quota exhausted")
	agent := NewAgent(&fakeGenerator{err: wantErr}, zerolog.Nop())

	_, err := agent.Run(context.Background(), "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}
