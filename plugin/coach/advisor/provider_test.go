package advisor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peakform/coach/plugin/coach/packet"
	"github.com/peakform/coach/plugin/coach/policy"
)

func TestStaticProposesOnSustainedAnomalies(t *testing.T) {
	s := NewStatic()
	pkt := &packet.ContextPacket{
		Anomalies: []string{"low_protein_streak=4", "workout_gap_days=5"},
	}

	proposal, err := s.Propose(context.Background(), pkt)
	require.NoError(t, err)
	require.NotNil(t, proposal)

	prompt, ok := proposal.Prompt.(*policy.PlanProposalPrompt)
	require.True(t, ok)
	assert.Len(t, prompt.Evidence, 2)
	assert.Equal(t, "medium", proposal.Confidence)
}

func TestStaticStaysQuiet(t *testing.T) {
	s := NewStatic()

	proposal, err := s.Propose(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, proposal)

	// Signals alone are not the static proposer's evidence.
	pkt := &packet.ContextPacket{Anomalies: []string{"pain=left knee pain"}}
	proposal, err = s.Propose(context.Background(), pkt)
	require.NoError(t, err)
	assert.Nil(t, proposal)
}

func TestParsePayload(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		payload, err := parsePayload(`{"propose": true, "summary": "deload", "confidence": 0.8}`)
		require.NoError(t, err)
		assert.True(t, payload.Propose)
		assert.Equal(t, "deload", payload.Summary)
	})

	t.Run("fenced json", func(t *testing.T) {
		payload, err := parsePayload("```json\n{\"propose\": false}\n```")
		require.NoError(t, err)
		assert.False(t, payload.Propose)
	})

	t.Run("proposal without summary rejected", func(t *testing.T) {
		_, err := parsePayload(`{"propose": true}`)
		assert.Error(t, err)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := parsePayload("not json")
		assert.Error(t, err)
	})
}

func TestConfidenceLabel(t *testing.T) {
	assert.Equal(t, "high", confidenceLabel(0.9))
	assert.Equal(t, "high", confidenceLabel(0.7))
	assert.Equal(t, "medium", confidenceLabel(0.5))
	assert.Equal(t, "low", confidenceLabel(0.2))
}
