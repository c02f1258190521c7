package store

import (
	"fmt"
	"testing"
	"time"

	"github.com/amourisk/amourisk/internal/model"
	"github.com/amourisk/amourisk/internal/secure"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:", secure.NewCodec(""))
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleReport(name string) model.Report {
	return model.Report{
		ID:   "test_abc",
		Name: name,
		SubjectInfo: model.SubjectInfo{
			Relation:      "已确立恋爱关系",
			KnownDuration: "1-6个月",
			MeetMethod:    "朋友介绍",
		},
		BaseInfo: model.BaseInfoAnswers{
			"base_relation": {Value: "已确立恋爱关系"},
			"base_economic": {Values: []string{"日常吃饭、娱乐等消费", "红包、转账（非特定节日）"}},
		},
		Answers: model.AnswerSet{"economic_1": 4, "economic_2": 3, "appearance_1": 0},
		Scores: model.DimensionScoreSet{
			PerDimension: map[string]int{
				"外在特征与社交展示": 0,
				"经济行为与心理策略": 100,
				"价值观与社交圈":   0,
				"关系推进与目的":   0,
			},
			Overall: 40,
			Tier:    model.TierMedium,
		},
		Analysis: model.AnalysisFindings{
			KeyRisks:           []string{"中等风险，存在一些值得关注的信号"},
			BehaviorPatterns:   []string{"经济索取行为明显，经常要求礼物或红包"},
			Suggestions:        []string{"建议保持观察，注意经济投入"},
			RelationshipAdvice: []string{"可以继续交往，但需保持理性"},
		},
	}
}

func TestEmptyArchive(t *testing.T) {
	s := newTestStore(t)

	reports, err := s.ListReports()
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("expected empty archive, got %d reports", len(reports))
	}
}

func TestSaveListRoundTrip(t *testing.T) {
	s := newTestStore(t)

	stored, err := s.SaveReport(sampleReport("报告一"))
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if stored.ID == "" || stored.ID == "test_abc" {
		t.Errorf("expected fresh archive id, got %q", stored.ID)
	}
	if stored.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be assigned")
	}

	reports, err := s.ListReports()
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}

	got := reports[0]
	want := sampleReport("报告一")
	if got.ID != stored.ID {
		t.Errorf("id = %q, want %q", got.ID, stored.ID)
	}
	if got.Name != want.Name {
		t.Errorf("name = %q, want %q", got.Name, want.Name)
	}
	if got.Scores.Overall != want.Scores.Overall || got.Scores.Tier != want.Scores.Tier {
		t.Errorf("scores = %+v, want %+v", got.Scores, want.Scores)
	}
	for name, score := range want.Scores.PerDimension {
		if got.Scores.PerDimension[name] != score {
			t.Errorf("dimension %s = %d, want %d", name, got.Scores.PerDimension[name], score)
		}
	}
	if len(got.Answers) != len(want.Answers) {
		t.Errorf("answers = %v, want %v", got.Answers, want.Answers)
	}
	if got.Analysis.KeyRisks[0] != want.Analysis.KeyRisks[0] {
		t.Errorf("key risk = %q, want %q", got.Analysis.KeyRisks[0], want.Analysis.KeyRisks[0])
	}
	if got.BaseInfo["base_economic"].Values[1] != "红包、转账（非特定节日）" {
		t.Errorf("multi-select base info lost: %+v", got.BaseInfo["base_economic"])
	}
	if got.SubjectInfo != want.SubjectInfo {
		t.Errorf("subject info = %+v, want %+v", got.SubjectInfo, want.SubjectInfo)
	}
}

func TestArchiveCapacity(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i <= MaxArchiveSize; i++ {
		if _, err := s.SaveReport(sampleReport(fmt.Sprintf("r%d", i))); err != nil {
			t.Fatalf("SaveReport %d: %v", i, err)
		}
	}

	reports, err := s.ListReports()
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(reports) != MaxArchiveSize {
		t.Fatalf("expected %d reports, got %d", MaxArchiveSize, len(reports))
	}

	// Most recent first; the oldest save was evicted.
	if reports[0].Name != fmt.Sprintf("r%d", MaxArchiveSize) {
		t.Errorf("head = %q, want r%d", reports[0].Name, MaxArchiveSize)
	}
	for _, r := range reports {
		if r.Name == "r0" {
			t.Error("oldest report should have been evicted")
		}
	}

	// Ids stay unique even for rapid saves.
	seen := map[string]bool{}
	for _, r := range reports {
		if seen[r.ID] {
			t.Errorf("duplicate archive id %q", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestDeleteReport(t *testing.T) {
	s := newTestStore(t)

	first, _ := s.SaveReport(sampleReport("first"))
	second, _ := s.SaveReport(sampleReport("second"))

	// Deleting an unknown id is a no-op.
	if err := s.DeleteReport("no-such-id"); err != nil {
		t.Fatalf("DeleteReport unknown: %v", err)
	}
	reports, _ := s.ListReports()
	if len(reports) != 2 {
		t.Fatalf("expected 2 reports after no-op delete, got %d", len(reports))
	}

	if err := s.DeleteReport(first.ID); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	reports, _ = s.ListReports()
	if len(reports) != 1 || reports[0].ID != second.ID {
		t.Fatalf("expected only %q left, got %+v", second.ID, reports)
	}
}

func TestCorruptArchiveDegradesToEmpty(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.SaveReport(sampleReport("will vanish")); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if err := s.setBlob(keyReports, []byte("not a sealed blob")); err != nil {
		t.Fatalf("setBlob: %v", err)
	}

	reports, err := s.ListReports()
	if err != nil {
		t.Fatalf("ListReports on corrupt blob: %v", err)
	}
	if len(reports) != 0 {
		t.Fatalf("expected empty archive, got %d", len(reports))
	}

	// Saving again replaces the corrupt blob.
	if _, err := s.SaveReport(sampleReport("recovered")); err != nil {
		t.Fatalf("SaveReport after corruption: %v", err)
	}
	reports, _ = s.ListReports()
	if len(reports) != 1 || reports[0].Name != "recovered" {
		t.Fatalf("expected recovered archive, got %+v", reports)
	}
}

func TestValidatedCode(t *testing.T) {
	s := newTestStore(t)

	code, err := s.ValidatedCode()
	if err != nil {
		t.Fatalf("ValidatedCode: %v", err)
	}
	if code != "" {
		t.Errorf("expected empty code, got %q", code)
	}

	if err := s.SetValidatedCode("Abcdef12"); err != nil {
		t.Fatalf("SetValidatedCode: %v", err)
	}
	code, _ = s.ValidatedCode()
	if code != "Abcdef12" {
		t.Errorf("code = %q, want Abcdef12", code)
	}

	if err := s.ClearValidatedCode(); err != nil {
		t.Fatalf("ClearValidatedCode: %v", err)
	}
	code, _ = s.ValidatedCode()
	if code != "" {
		t.Errorf("expected cleared code, got %q", code)
	}
}

func TestUsageCounter(t *testing.T) {
	s := newTestStore(t)

	counter, err := s.GetUsage("fp1")
	if err != nil {
		t.Fatalf("GetUsage: %v", err)
	}
	if counter != nil {
		t.Fatal("expected nil counter")
	}

	now := time.Now().Truncate(time.Second)
	in := model.UsageCounter{Count: 2, WindowStart: now.Add(-time.Hour), LastSeen: now}
	if err := s.SetUsage("fp1", in); err != nil {
		t.Fatalf("SetUsage: %v", err)
	}

	counter, err = s.GetUsage("fp1")
	if err != nil {
		t.Fatalf("GetUsage: %v", err)
	}
	if counter == nil || counter.Count != 2 {
		t.Fatalf("counter = %+v, want count 2", counter)
	}
	if !counter.LastSeen.Equal(in.LastSeen) {
		t.Errorf("last seen = %v, want %v", counter.LastSeen, in.LastSeen)
	}

	// Counters are per fingerprint.
	other, _ := s.GetUsage("fp2")
	if other != nil {
		t.Error("expected nil counter for other fingerprint")
	}
}

func TestSessionSnapshot(t *testing.T) {
	s := newTestStore(t)

	sess, err := s.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if sess != nil {
		t.Fatal("expected nil session")
	}

	in := model.TestSession{
		TestID:   "test_xyz",
		Phase:    model.PhaseQuestions,
		BaseInfo: model.BaseInfoAnswers{"base_age": {Value: "25-30岁"}},
		Answers:  model.AnswerSet{"economic_1": 4},
		Cursor:   7,
	}
	if err := s.SaveSession(in); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	sess, err = s.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if sess == nil || sess.TestID != "test_xyz" || sess.Cursor != 7 {
		t.Fatalf("session = %+v", sess)
	}
	if sess.Phase != model.PhaseQuestions {
		t.Errorf("phase = %q, want %q", sess.Phase, model.PhaseQuestions)
	}
	if sess.Answers["economic_1"] != 4 {
		t.Errorf("answers lost: %+v", sess.Answers)
	}

	// A corrupt snapshot is discarded, not fatal.
	if err := s.setBlob(keySession, []byte("{broken")); err != nil {
		t.Fatalf("setBlob: %v", err)
	}
	sess, err = s.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession corrupt: %v", err)
	}
	if sess != nil {
		t.Fatal("expected corrupt snapshot to be discarded")
	}

	if err := s.SaveSession(in); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := s.ClearSession(); err != nil {
		t.Fatalf("ClearSession: %v", err)
	}
	sess, _ = s.LoadSession()
	if sess != nil {
		t.Fatal("expected cleared session")
	}
}

func TestClearAll(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.SaveReport(sampleReport("r")); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if err := s.SetValidatedCode("any-code"); err != nil {
		t.Fatalf("SetValidatedCode: %v", err)
	}
	if err := s.SetUsage("fp1", model.UsageCounter{Count: 3}); err != nil {
		t.Fatalf("SetUsage: %v", err)
	}
	if err := s.SaveSession(model.TestSession{TestID: "t"}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	if err := s.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}

	reports, _ := s.ListReports()
	if len(reports) != 0 {
		t.Errorf("expected empty archive, got %d", len(reports))
	}
	code, _ := s.ValidatedCode()
	if code != "" {
		t.Errorf("expected cleared code, got %q", code)
	}
	counter, _ := s.GetUsage("fp1")
	if counter != nil {
		t.Error("expected cleared usage counter")
	}
	sess, _ := s.LoadSession()
	if sess != nil {
		t.Error("expected cleared session snapshot")
	}
}
