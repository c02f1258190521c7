// Package handler exposes the test lifecycle as a JSON API. The UI is an
// external collaborator and the sole driver: mutating calls are serialized
// behind one mutex, which is the concurrency model the core assumes.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/amourisk/amourisk/internal/analysis"
	"github.com/amourisk/amourisk/internal/bank"
	"github.com/amourisk/amourisk/internal/gate"
	"github.com/amourisk/amourisk/internal/i18n"
	"github.com/amourisk/amourisk/internal/model"
	"github.com/amourisk/amourisk/internal/session"
	"github.com/amourisk/amourisk/internal/store"
)

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	mu        sync.Mutex
	store     *store.Store
	manager   *session.Manager
	validator gate.Validator
	limiter   *gate.Limiter // nil when rate limiting is off
	config    model.Config
}

// New creates a new Handler.
func New(s *store.Store, m *session.Manager, v gate.Validator, l *gate.Limiter, cfg model.Config) *Handler {
	return &Handler{store: s, manager: m, validator: v, limiter: l, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/gate/validate", h.handleValidateCode)
	r.Get("/gate/status", h.handleGateStatus)

	r.Get("/questions", h.handleQuestions)
	r.Get("/questions/base-info", h.handleBaseInfoQuestions)

	r.Post("/test/start", h.handleStartTest)
	r.Get("/test/state", h.handleTestState)
	r.Post("/test/base-info", h.handleRecordBaseInfo)
	r.Post("/test/answer", h.handleRecordAnswer)
	r.Post("/test/next", h.handleNext)
	r.Post("/test/prev", h.handlePrev)

	r.Get("/report/current", h.handleCurrentReport)
	r.Post("/report/retry-save", h.handleRetrySave)

	r.Get("/reports", h.handleListReports)
	r.Get("/reports/{id}", h.handleViewReport)
	r.Delete("/reports/{id}", h.handleDeleteReport)

	r.Post("/clear-all", h.handleClearAll)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// reportView wraps a report with the display attributes of its tier.
type reportView struct {
	model.Report
	RiskLabel       string `json:"risk_label"`
	RiskColor       string `json:"risk_color"`
	RiskDescription string `json:"risk_description"`
}

func viewOf(r model.Report) reportView {
	return reportView{
		Report:          r,
		RiskLabel:       r.Scores.Tier.String(),
		RiskColor:       analysis.TierColor(r.Scores.Tier),
		RiskDescription: analysis.TierDescription(r.Scores.Tier),
	}
}

func (h *Handler) handleValidateCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Validate(r.Context(), req.Code); err != nil {
		if errors.Is(err, gate.ErrInvalidCode) {
			writeError(w, http.StatusUnprocessableEntity, i18n.T(r.Context(), "gate.invalid_code"))
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"validated": true,
		"message":   i18n.T(r.Context(), "gate.validated"),
	})
}

func (h *Handler) handleGateStatus(w http.ResponseWriter, r *http.Request) {
	code, err := h.store.ValidatedCode()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"validated": code != ""})
}

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"dimensions": bank.Dimensions(),
		"questions":  bank.AllQuestions(),
		"total":      bank.TotalQuestions(),
	})
}

func (h *Handler) handleBaseInfoQuestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, bank.BaseInfoQuestions())
}

func (h *Handler) handleStartTest(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	code, err := h.store.ValidatedCode()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if code == "" {
		writeError(w, http.StatusForbidden, i18n.T(r.Context(), "gate.required"))
		return
	}

	if h.limiter != nil {
		allowed, err := h.limiter.Allow()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if !allowed {
			writeError(w, http.StatusTooManyRequests, i18n.T(r.Context(), "test.limit_reached"))
			return
		}
	}

	sess := h.manager.Start()
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleTestState(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sess, ok := h.manager.Session()
	if !ok {
		writeError(w, http.StatusNotFound, i18n.T(r.Context(), "test.not_started"))
		return
	}

	state := map[string]any{
		"session":         sess,
		"total_questions": bank.TotalQuestions(),
	}
	if sess.Phase == model.PhaseQuestions {
		question := bank.AllQuestions()[sess.Cursor]
		state["question"] = question
		if score, answered := h.manager.RecordedAnswer(question.ID); answered {
			state["recorded_score"] = score
		}
	}
	if sess.Phase == model.PhaseBaseInfo {
		state["base_info_question"] = bank.BaseInfoQuestions()[sess.Cursor]
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) handleRecordBaseInfo(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var req struct {
		ID      string   `json:"id"`
		Answer  string   `json:"answer,omitempty"`
		Answers []string `json:"answers,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	answer := model.BaseInfoAnswer{Value: req.Answer, Values: req.Answers}
	if err := h.manager.RecordBaseInfo(req.ID, answer); err != nil {
		h.writeManagerError(w, r, err)
		return
	}
	sess, _ := h.manager.Session()
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleRecordAnswer(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var req struct {
		QuestionID string `json:"question_id"`
		Score      int    `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.manager.RecordAnswer(req.QuestionID, req.Score); err != nil {
		h.writeManagerError(w, r, err)
		return
	}
	sess, _ := h.manager.Session()
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleNext(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	report, err := h.manager.Next()
	if err != nil && report == nil {
		h.writeManagerError(w, r, err)
		return
	}

	if report == nil {
		sess, _ := h.manager.Session()
		writeJSON(w, http.StatusOK, map[string]any{"completed": false, "session": sess})
		return
	}

	// Completion. A failed save still finalizes; the client is told so it
	// can offer a retry.
	resp := map[string]any{
		"completed": true,
		"report":    viewOf(*report),
	}
	if err != nil {
		resp["saved"] = false
		resp["notice"] = i18n.T(r.Context(), "report.save_failed")
	} else {
		resp["saved"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePrev(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.manager.Prev(); err != nil {
		h.writeManagerError(w, r, err)
		return
	}
	sess, _ := h.manager.Session()
	writeJSON(w, http.StatusOK, sess)
}

func (h *Handler) handleCurrentReport(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	report, ok := h.manager.CurrentReport()
	if !ok {
		// Navigation error, not a fault: warn and point back to start.
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error":    i18n.T(r.Context(), "report.missing"),
			"redirect": h.config.BasePath + "/",
		})
		return
	}
	resp := map[string]any{"report": viewOf(report)}
	if h.manager.SaveFailed() {
		resp["saved"] = false
		resp["notice"] = i18n.T(r.Context(), "report.save_failed")
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRetrySave(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.manager.RetrySave(); err != nil {
		if errors.Is(err, session.ErrNoReport) {
			writeError(w, http.StatusNotFound, i18n.T(r.Context(), "report.missing"))
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"saved":  false,
			"notice": i18n.T(r.Context(), "report.save_failed"),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": true})
}

func (h *Handler) handleListReports(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	reports := h.manager.Archive()
	views := make([]reportView, 0, len(reports))
	for _, report := range reports {
		views = append(views, viewOf(report))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) handleViewReport(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	report, err := h.manager.ViewReport(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, i18n.T(r.Context(), "report.missing"))
		return
	}
	writeJSON(w, http.StatusOK, viewOf(report))
}

func (h *Handler) handleDeleteReport(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.manager.DeleteReport(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": i18n.T(r.Context(), "report.deleted"),
	})
}

func (h *Handler) handleClearAll(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.manager.ClearAll(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": i18n.T(r.Context(), "archive.cleared"),
	})
}

func (h *Handler) writeManagerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNoSession):
		writeError(w, http.StatusConflict, i18n.T(r.Context(), "test.not_started"))
	case errors.Is(err, session.ErrWrongPhase),
		errors.Is(err, session.ErrUnknownQuestion),
		errors.Is(err, session.ErrInvalidScore):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
