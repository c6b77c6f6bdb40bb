package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestTargetAgent(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"no signals", "hello there, how are you", "", false},
		{"empty", "", "", false},
		{"code only", "refactor the auth module", "ralph", true},
		{"research only", "research the market", "scout", true},
		{"case insensitive", "REFACTOR everything", "ralph", true},
		{"more research signals", "research and summarize the bug", "scout", true},
		{"more code signals", "fix the bug and commit, then report", "ralph", true},
		{"tie goes to first worker", "fix the research", "ralph", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SuggestTargetAgent(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEveryPhraseRoutesToItsOwner(t *testing.T) {
	for _, w := range Workers() {
		for _, p := range w.Phrases {
			scores := Score(p)
			// A phrase may overlap another worker's list, but never outscore its owner.
			for agent, n := range scores {
				if agent != w.Agent {
					assert.LessOrEqual(t, n, scores[w.Agent], "%q", p)
				}
			}
			assert.GreaterOrEqual(t, scores[w.Agent], 1, "%q", p)
		}
	}
}

func TestScore(t *testing.T) {
	scores := Score("Investigate and compare the build scripts")
	assert.Equal(t, 2, scores["scout"])
	assert.Equal(t, 2, scores["ralph"])
}

func TestWorkersOrderIsFixed(t *testing.T) {
	w := Workers()
	assert.Equal(t, "ralph", w[0].Agent)
	assert.Equal(t, "scout", w[1].Agent)
}
