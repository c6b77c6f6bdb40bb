// Package routing suggests a worker for a free-text task description.
package routing

import "strings"

// Signals are the phrases characteristic of one worker's domain.
type Signals struct {
	Agent   string
	Phrases []string
}

// workers is scanned in order; on equal scores the earlier entry wins.
var workers = []Signals{
	{
		Agent: "ralph",
		Phrases: []string{
			"code", "refactor", "bug", "fix", "implement", "function",
			"unit test", "compile", "build", "module", "repository",
			"pull request", "commit", "debug", "endpoint", "script", "lint",
		},
	},
	{
		Agent: "scout",
		Phrases: []string{
			"research", "investigate", "find out", "summarize", "summary",
			"compare", "analyze", "analysis", "look up", "report", "market",
			"competitor", "article", "sources", "trends", "survey",
		},
	},
}

// Workers returns the routing table in its fixed iteration order.
func Workers() []Signals {
	out := make([]Signals, len(workers))
	for i, w := range workers {
		out[i] = Signals{Agent: w.Agent, Phrases: append([]string(nil), w.Phrases...)}
	}
	return out
}

// Score counts how many of each worker's phrases appear in text.
func Score(text string) map[string]int {
	lower := strings.ToLower(text)
	scores := make(map[string]int, len(workers))
	for _, w := range workers {
		scores[w.Agent] = hits(lower, w.Phrases)
	}
	return scores
}

// SuggestTargetAgent returns the worker with the strictly highest score.
// ok is false when no phrase matched at all.
func SuggestTargetAgent(text string) (agent string, ok bool) {
	lower := strings.ToLower(text)
	best := 0
	for _, w := range workers {
		if n := hits(lower, w.Phrases); n > best {
			best = n
			agent = w.Agent
		}
	}
	if best == 0 {
		return "", false
	}
	return agent, true
}

func hits(lower string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			n++
		}
	}
	return n
}
