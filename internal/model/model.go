package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Phase represents the stage of an in-progress test session.
type Phase string

const (
	// PhaseBaseInfo is the stage collecting background answers.
	PhaseBaseInfo Phase = "base_info"
	// PhaseQuestions is the stage collecting scored answers.
	PhaseQuestions Phase = "questions"
	// PhaseFinalized means the session has produced its report.
	PhaseFinalized Phase = "finalized"
)

// RiskTier is the ordered risk classification derived from the overall score.
// TierNoRisk exists as a display default only; the current thresholds never
// produce it (see scoring.ClassifyRisk).
type RiskTier int

const (
	TierNoRisk RiskTier = iota
	TierLow
	TierMedium
	TierHigh
	TierVeryHigh
)

var tierLabels = map[RiskTier]string{
	TierNoRisk:   "无风险",
	TierLow:      "低风险",
	TierMedium:   "中风险",
	TierHigh:     "高风险",
	TierVeryHigh: "极高风险",
}

// String returns the user-facing tier label.
func (t RiskTier) String() string {
	if label, ok := tierLabels[t]; ok {
		return label
	}
	return tierLabels[TierNoRisk]
}

// MarshalJSON encodes the tier as its label so stored reports keep the
// representation the product has always shown.
func (t RiskTier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a tier label back into its ordered value.
func (t *RiskTier) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return err
	}
	for tier, l := range tierLabels {
		if l == label {
			*t = tier
			return nil
		}
	}
	return fmt.Errorf("unknown risk tier %q", label)
}

// Option is one selectable answer for a scored question.
type Option struct {
	Label string `json:"label"`
	Score int    `json:"score"`
}

// Question is a single scored question. DimensionName is a back-reference to
// the owning dimension, not ownership.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	DimensionName string   `json:"dimension"`
	Options       []Option `json:"options"`
}

// MaxScore returns the highest option score declared for the question.
func (q Question) MaxScore() int {
	maxScore := 0
	for _, o := range q.Options {
		if o.Score > maxScore {
			maxScore = o.Score
		}
	}
	return maxScore
}

// AllowsScore reports whether score matches one of the declared options.
func (q Question) AllowsScore(score int) bool {
	for _, o := range q.Options {
		if o.Score == score {
			return true
		}
	}
	return false
}

// Dimension is a named, weighted category of questions.
type Dimension struct {
	Name      string     `json:"name"`
	Weight    float64    `json:"weight"`
	Questions []Question `json:"questions"`
}

// BaseInfoQuestion is a background question answered before the scored
// battery. The multi-select question collects a set of answers.
type BaseInfoQuestion struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Answers     []string `json:"answers"`
	MultiSelect bool     `json:"multi_select,omitempty"`
}

// BaseInfoAnswer holds the response to one base-info question: a single
// value, or a set of values for the multi-select question.
type BaseInfoAnswer struct {
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

// AnswerSet maps question id to the chosen option score. An unanswered
// question is simply absent and scores 0.
type AnswerSet map[string]int

// Clone returns an independent copy of the answer set.
func (a AnswerSet) Clone() AnswerSet {
	c := make(AnswerSet, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// BaseInfoAnswers maps base-info question id to its answer.
type BaseInfoAnswers map[string]BaseInfoAnswer

// Clone returns an independent copy of the base-info answers.
func (b BaseInfoAnswers) Clone() BaseInfoAnswers {
	c := make(BaseInfoAnswers, len(b))
	for k, v := range b {
		c[k] = v
	}
	return c
}

// TestSession is the single live in-progress test.
type TestSession struct {
	TestID    string          `json:"test_id"`
	Phase     Phase           `json:"phase"`
	BaseInfo  BaseInfoAnswers `json:"base_info"`
	Answers   AnswerSet       `json:"answers"`
	Cursor    int             `json:"cursor"`
	StartedAt time.Time       `json:"started_at"`
}

// DimensionScoreSet is the derived scoring result. It is never mutated after
// computation; recomputation always produces a fresh value.
type DimensionScoreSet struct {
	PerDimension map[string]int `json:"dimensions"`
	Overall      int            `json:"overall"`
	Tier         RiskTier       `json:"risk_tier"`
}

// AnalysisFindings groups the canned findings derived from the scores.
type AnalysisFindings struct {
	KeyRisks           []string `json:"key_risks"`
	BehaviorPatterns   []string `json:"behavior_patterns"`
	Suggestions        []string `json:"suggestions"`
	RelationshipAdvice []string `json:"relationship_advice"`
}

// SubjectInfo is the display summary of who the test was about.
type SubjectInfo struct {
	Nickname      string `json:"nickname,omitempty"`
	Relation      string `json:"relation"`
	KnownDuration string `json:"known_duration"`
	MeetMethod    string `json:"meet_method"`
}

// Report is an immutable snapshot of one completed test. The archive assigns
// a fresh id and CreatedAt when it stores a copy.
type Report struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	CreatedAt   time.Time         `json:"created_at"`
	SubjectInfo SubjectInfo       `json:"subject_info"`
	BaseInfo    BaseInfoAnswers   `json:"base_info"`
	Answers     AnswerSet         `json:"answers"`
	Scores      DimensionScoreSet `json:"scores"`
	Analysis    AnalysisFindings  `json:"analysis"`
}

// UsageCounter tracks tests started on one device inside a rolling window.
type UsageCounter struct {
	Count       int       `json:"count"`
	WindowStart time.Time `json:"window_start"`
	LastSeen    time.Time `json:"last_seen"`
}

// GateMode selects which access-code validator the server runs.
type GateMode string

const (
	// GateOpen accepts any code. This is the shipped behavior.
	GateOpen GateMode = "open"
	// GateStrict enforces the older length and character-class rules.
	GateStrict GateMode = "strict"
)

// Config holds runtime parameters set via CLI flags.
type Config struct {
	Addr      string
	DBPath    string
	Lang      string
	Gate      GateMode
	GateDelay time.Duration
	RateLimit bool
	BasePath  string // URL prefix for sub-path deployments
}
