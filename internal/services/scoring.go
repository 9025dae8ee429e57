package services

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Question types recognized by the scoring engine. Anything else is ignored.
const (
	QuestionSingle = "single"
	QuestionMulti  = "multi"
	QuestionScale  = "scale"
)

// ReservedDimensions are the three maturity-phase buckets every scoring run
// starts from. Their order doubles as the tie-break order for segment and gap
// selection: when two dimensions carry the same weight, the earlier one wins.
var ReservedDimensions = []string{"spark", "momentum", "mastery"}

// DefaultDimension is the segment/gap fallback for an empty dimension map.
const DefaultDimension = "spark"

// AnswerKind tags the shape of a respondent's answer to one question.
type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerSingle
	AnswerMulti
	AnswerScale
)

// Answer is one respondent answer: a single option token, a list of tokens
// for multi-selects, or a numeric scale position. The zero value means "no
// usable answer" and contributes nothing.
type Answer struct {
	Kind   AnswerKind
	Single string
	Multi  []string
	Scale  float64
}

// UnmarshalJSON decodes an answer from its wire shape: a JSON string becomes
// a single token, an array becomes a multi-select, a number becomes a scale
// value. Other shapes decode to AnswerNone rather than erroring.
func (a *Answer) UnmarshalJSON(data []byte) error {
	*a = Answer{}
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		a.Kind = AnswerSingle
		a.Single = s
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		tokens := make([]string, 0, len(raw))
		for _, r := range raw {
			var s string
			if err := json.Unmarshal(r, &s); err == nil {
				tokens = append(tokens, s)
				continue
			}
			var n float64
			if err := json.Unmarshal(r, &n); err == nil {
				tokens = append(tokens, formatNumber(n))
			}
		}
		a.Kind = AnswerMulti
		a.Multi = tokens
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return nil
		}
		a.Kind = AnswerScale
		a.Scale = n
	}
	return nil
}

// MarshalJSON writes the answer back in the same wire shape it arrived in,
// so persisted answer snapshots round-trip.
func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerSingle:
		return json.Marshal(a.Single)
	case AnswerMulti:
		return json.Marshal(a.Multi)
	case AnswerScale:
		return json.Marshal(a.Scale)
	default:
		return []byte("null"), nil
	}
}

// AnswerSet maps question keys to answers.
type AnswerSet map[string]Answer

// Option is one selectable choice on a question.
type Option struct {
	ID      string             `json:"id"`
	Label   string             `json:"label"`
	Value   string             `json:"value"`
	Score   int                `json:"score"`
	Weights map[string]float64 `json:"weights"`
}

// Question is one scored prompt in the bank.
type Question struct {
	ID      string    `json:"id"`
	Key     string    `json:"key"`
	Prompt  string    `json:"prompt"`
	Type    string    `json:"type"`
	Options []*Option `json:"options"`
}

// ScoringResult is the outcome of reducing one answer set against a question
// bank. It is ephemeral; the submission record stores a copy.
type ScoringResult struct {
	Total   int                `json:"total"`
	Dims    map[string]float64 `json:"dims"`
	Segment string             `json:"segment"`
	Gap     string             `json:"gap"`
}

// ComputeScore reduces answers against the question bank into a total score
// and per-dimension weights, then derives the segment (highest-weighted
// dimension) and gap (lowest-weighted). It is pure and deterministic:
// questions are walked in bank order, options in definition order, and ties
// between dimensions resolve to the earliest in the fixed dimension order.
// Missing answers, unknown question types and shape-mismatched answers (e.g.
// a single token for a multi question) contribute nothing.
func ComputeScore(answers AnswerSet, questions []*Question) ScoringResult {
	total := 0
	dims := make(map[string]float64, len(ReservedDimensions))
	for _, d := range ReservedDimensions {
		dims[d] = 0
	}

	for _, q := range questions {
		ans, ok := answers[q.Key]
		if !ok || ans.Kind == AnswerNone {
			continue
		}
		switch q.Type {
		case QuestionSingle, QuestionScale:
			if tok, ok := ans.token(); ok {
				accumulate(q, tok, &total, dims)
			}
		case QuestionMulti:
			if ans.Kind != AnswerMulti {
				continue
			}
			for _, tok := range ans.Multi {
				accumulate(q, tok, &total, dims)
			}
		}
	}

	segment, gap := resolveSegments(dims)
	return ScoringResult{Total: total, Dims: dims, Segment: segment, Gap: gap}
}

// token renders a single/scale answer as the string the option value is
// compared against. Multi answers have no single token.
func (a Answer) token() (string, bool) {
	switch a.Kind {
	case AnswerSingle:
		return a.Single, true
	case AnswerScale:
		return formatNumber(a.Scale), true
	default:
		return "", false
	}
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func accumulate(q *Question, token string, total *int, dims map[string]float64) {
	for _, opt := range q.Options {
		if opt.Value != token {
			continue
		}
		*total += opt.Score
		for k, w := range opt.Weights {
			dims[k] += w
		}
		return
	}
}

// resolveSegments picks the max- and min-weight dimensions using the fixed
// scan order, so repeated runs over the same map always agree.
func resolveSegments(dims map[string]float64) (segment, gap string) {
	order := dimensionOrder(dims)
	if len(order) == 0 {
		return DefaultDimension, DefaultDimension
	}
	segment, gap = order[0], order[0]
	for _, d := range order[1:] {
		if dims[d] > dims[segment] {
			segment = d
		}
		if dims[d] < dims[gap] {
			gap = d
		}
	}
	return segment, gap
}

// dimensionOrder returns the reserved dimensions first, then any extra
// dimensions the weight vectors introduced, sorted for stability.
func dimensionOrder(dims map[string]float64) []string {
	order := make([]string, 0, len(dims))
	seen := make(map[string]bool, len(dims))
	for _, d := range ReservedDimensions {
		if _, ok := dims[d]; ok {
			order = append(order, d)
			seen[d] = true
		}
	}
	extras := make([]string, 0, len(dims))
	for d := range dims {
		if !seen[d] {
			extras = append(extras, d)
		}
	}
	sort.Strings(extras)
	return append(order, extras...)
}
