// Package session owns the test lifecycle: the single live session moving
// through base-info collection, scored-answer collection, and finalization
// into an archived report. The manager keeps a cached copy of the archive
// and re-reads it after every mutating store call.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amourisk/amourisk/internal/analysis"
	"github.com/amourisk/amourisk/internal/bank"
	"github.com/amourisk/amourisk/internal/model"
	"github.com/amourisk/amourisk/internal/scoring"
	"github.com/amourisk/amourisk/internal/store"
)

var (
	// ErrNoSession is returned when an operation needs a live session.
	ErrNoSession = errors.New("no test in progress")
	// ErrWrongPhase is returned when an operation does not apply to the
	// session's current phase.
	ErrWrongPhase = errors.New("operation not valid in current phase")
	// ErrUnknownQuestion is returned for a question id the bank does not know.
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrInvalidScore is returned when a score matches none of the question's
	// declared options.
	ErrInvalidScore = errors.New("score not among question options")
	// ErrNoReport is returned when no current report is available.
	ErrNoReport = errors.New("no report available")
)

// Manager drives the test state machine and the report archive.
type Manager struct {
	store *store.Store

	sess       *model.TestSession
	current    *model.Report
	archive    []model.Report
	saveFailed bool

	now func() time.Time
}

// NewManager loads the archive and any snapshotted in-progress session from
// the store.
func NewManager(s *store.Store) (*Manager, error) {
	m := &Manager{store: s, now: time.Now}
	if err := m.refreshArchive(); err != nil {
		return nil, fmt.Errorf("load archive: %w", err)
	}
	sess, err := s.LoadSession()
	if err != nil {
		return nil, fmt.Errorf("load session snapshot: %w", err)
	}
	m.sess = sess
	return m, nil
}

// Start begins a fresh test, discarding any prior unfinished session.
func (m *Manager) Start() model.TestSession {
	m.sess = &model.TestSession{
		TestID:    "test_" + uuid.NewString(),
		Phase:     model.PhaseBaseInfo,
		BaseInfo:  model.BaseInfoAnswers{},
		Answers:   model.AnswerSet{},
		Cursor:    0,
		StartedAt: m.now(),
	}
	m.snapshot()
	return *m.sess
}

// Session returns a copy of the live session, or false when none exists.
func (m *Manager) Session() (model.TestSession, bool) {
	if m.sess == nil {
		return model.TestSession{}, false
	}
	sess := *m.sess
	sess.BaseInfo = m.sess.BaseInfo.Clone()
	sess.Answers = m.sess.Answers.Clone()
	return sess, true
}

// RecordBaseInfo stores the answer to a base-info question. Answering the
// last question of the battery moves the session to the scored-answer phase
// with the cursor reset to the first question.
func (m *Manager) RecordBaseInfo(id string, answer model.BaseInfoAnswer) error {
	if m.sess == nil {
		return ErrNoSession
	}
	if m.sess.Phase != model.PhaseBaseInfo {
		return ErrWrongPhase
	}
	if _, ok := bank.BaseInfoQuestionByID(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, id)
	}
	m.sess.BaseInfo[id] = answer

	battery := bank.BaseInfoQuestions()
	if id == battery[len(battery)-1].ID {
		m.sess.Phase = model.PhaseQuestions
		m.sess.Cursor = 0
	}
	m.snapshot()
	return nil
}

// RecordAnswer stores the chosen score for a scored question. Re-recording a
// previously answered question replaces the earlier choice.
func (m *Manager) RecordAnswer(questionID string, score int) error {
	if m.sess == nil {
		return ErrNoSession
	}
	if m.sess.Phase != model.PhaseQuestions {
		return ErrWrongPhase
	}
	question, ok := bank.QuestionByID(questionID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownQuestion, questionID)
	}
	if !question.AllowsScore(score) {
		return fmt.Errorf("%w: %d for %s", ErrInvalidScore, score, questionID)
	}
	m.sess.Answers[questionID] = score
	m.snapshot()
	return nil
}

// Next advances the cursor. In the scored-answer phase, advancing past the
// last question fires completion instead of moving the cursor; the returned
// report is non-nil exactly when that happened. The accompanying error then
// reports a persistence failure, which does not undo finalization.
func (m *Manager) Next() (*model.Report, error) {
	if m.sess == nil {
		return nil, ErrNoSession
	}
	switch m.sess.Phase {
	case model.PhaseBaseInfo:
		if m.sess.Cursor < len(bank.BaseInfoQuestions())-1 {
			m.sess.Cursor++
			m.snapshot()
		}
		return nil, nil
	case model.PhaseQuestions:
		if m.sess.Cursor < bank.TotalQuestions()-1 {
			m.sess.Cursor++
			m.snapshot()
			return nil, nil
		}
		return m.complete()
	default:
		return nil, ErrWrongPhase
	}
}

// Prev moves the cursor back one question, stopping at the first. Previously
// recorded answers stay in place so revisited questions pre-fill.
func (m *Manager) Prev() error {
	if m.sess == nil {
		return ErrNoSession
	}
	if m.sess.Phase == model.PhaseFinalized {
		return ErrWrongPhase
	}
	if m.sess.Cursor > 0 {
		m.sess.Cursor--
		m.snapshot()
	}
	return nil
}

// RecordedAnswer returns the score previously recorded for a question, for
// pre-filling on backward navigation.
func (m *Manager) RecordedAnswer(questionID string) (int, bool) {
	if m.sess == nil {
		return 0, false
	}
	score, ok := m.sess.Answers[questionID]
	return score, ok
}

// complete scores the session, generates the analysis, assembles the report,
// and hands it to the archive. A persistence failure still finalizes the
// session and keeps the report in memory as the current report; the caller
// is told so it can offer a retry.
func (m *Manager) complete() (*model.Report, error) {
	scores := scoring.Compute(m.sess.Answers)
	findings := analysis.Generate(scores.Overall, scores.PerDimension)
	now := m.now()

	report := model.Report{
		ID:        m.sess.TestID,
		Name:      "测试报告_" + now.Format("2006/1/2 15:04:05"),
		CreatedAt: now,
		SubjectInfo: model.SubjectInfo{
			Relation:      baseInfoValue(m.sess.BaseInfo, "base_relation"),
			KnownDuration: baseInfoValue(m.sess.BaseInfo, "base_duration"),
			MeetMethod:    baseInfoValue(m.sess.BaseInfo, "base_meet"),
		},
		BaseInfo: m.sess.BaseInfo.Clone(),
		Answers:  m.sess.Answers.Clone(),
		Scores:   scores,
		Analysis: findings,
	}

	m.sess.Phase = model.PhaseFinalized
	m.snapshot()

	stored, err := m.store.SaveReport(report)
	if err != nil {
		slog.Error("report save failed, keeping report in memory", "error", err)
		m.current = &report
		m.saveFailed = true
		return &report, fmt.Errorf("save report: %w", err)
	}
	m.current = &stored
	m.saveFailed = false
	if err := m.refreshArchive(); err != nil {
		return &stored, err
	}
	return &stored, nil
}

// RetrySave re-persists the current report after a failed save, without
// re-scoring.
func (m *Manager) RetrySave() error {
	if m.current == nil {
		return ErrNoReport
	}
	if !m.saveFailed {
		return nil
	}
	stored, err := m.store.SaveReport(*m.current)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	m.current = &stored
	m.saveFailed = false
	return m.refreshArchive()
}

// SaveFailed reports whether the current report is not durably archived.
func (m *Manager) SaveFailed() bool {
	return m.saveFailed
}

// CurrentReport returns the report on display, or false when there is none.
func (m *Manager) CurrentReport() (model.Report, bool) {
	if m.current == nil {
		return model.Report{}, false
	}
	return *m.current, true
}

// ViewReport makes an archived report the current one.
func (m *Manager) ViewReport(id string) (model.Report, error) {
	for _, r := range m.archive {
		if r.ID == id {
			report := r
			m.current = &report
			m.saveFailed = false
			return report, nil
		}
	}
	return model.Report{}, ErrNoReport
}

// Archive returns the cached archive copy, most recent first.
func (m *Manager) Archive() []model.Report {
	return m.archive
}

// DeleteReport removes a report from the archive. When the deleted report is
// the current one, the reference moves to the most recent remaining report,
// or clears when the archive empties; it never dangles on a deleted id.
func (m *Manager) DeleteReport(id string) error {
	if err := m.store.DeleteReport(id); err != nil {
		return err
	}
	if err := m.refreshArchive(); err != nil {
		return err
	}
	if m.current != nil && m.current.ID == id {
		if len(m.archive) > 0 {
			report := m.archive[0]
			m.current = &report
		} else {
			m.current = nil
		}
		m.saveFailed = false
	}
	return nil
}

// ClearAll wipes the archive, usage counters, gate validation state, and the
// session snapshot, and resets the in-memory state.
func (m *Manager) ClearAll() error {
	if err := m.store.ClearAll(); err != nil {
		return err
	}
	m.sess = nil
	m.current = nil
	m.archive = []model.Report{}
	m.saveFailed = false
	return nil
}

// refreshArchive re-reads the persisted archive so the cache never drifts
// from the store after a mutation.
func (m *Manager) refreshArchive() error {
	reports, err := m.store.ListReports()
	if err != nil {
		return err
	}
	m.archive = reports
	return nil
}

// snapshot persists the session so a restart can resume it. Snapshot
// failures are logged, never surfaced: losing resume is not worth blocking
// the test.
func (m *Manager) snapshot() {
	if m.sess == nil {
		return
	}
	if err := m.store.SaveSession(*m.sess); err != nil {
		slog.Warn("session snapshot failed", "error", err)
	}
}

func baseInfoValue(answers model.BaseInfoAnswers, id string) string {
	if a, ok := answers[id]; ok && a.Value != "" {
		return a.Value
	}
	return "未填写"
}
