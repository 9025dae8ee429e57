package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/smbevo/evolve/internal/services"
)

func newTestRouter(t *testing.T) (*Router, *http.ServeMux) {
	t.Helper()
	rt := NewRouter(NewMemoryStore(), services.TrustVerifierFunc(func(string) (bool, error) {
		return true, nil
	}))
	rt.minFillTime = 0
	mux := http.NewServeMux()
	rt.Register(mux)
	return rt, mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestSeedConfigSubmitResultJourney(t *testing.T) {
	_, mux := newTestRouter(t)

	if w := doJSON(t, mux, http.MethodPost, "/api/seed", nil); w.Code != http.StatusCreated {
		t.Fatalf("seed status = %d, want 201: %s", w.Code, w.Body.String())
	}
	// Seeding twice is a no-op.
	if w := doJSON(t, mux, http.MethodPost, "/api/seed", nil); w.Code != http.StatusOK {
		t.Fatalf("re-seed status = %d, want 200", w.Code)
	}

	w := doJSON(t, mux, http.MethodGet, "/api/assessments/ai-readiness", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("config status = %d: %s", w.Code, w.Body.String())
	}
	var cfgResp struct {
		Assessment services.AssessmentConfig `json:"assessment"`
		FormToken  string                    `json:"form_token"`
	}
	decodeBody(t, w, &cfgResp)
	if cfgResp.FormToken == "" {
		t.Fatal("config response carries no form token")
	}
	if got := len(cfgResp.Assessment.Sections); got != 2 {
		t.Fatalf("seeded sections = %d, want 2", got)
	}
	if got := len(cfgResp.Assessment.Results); got != 3 {
		t.Fatalf("seeded result bands = %d, want 3", got)
	}

	w = doJSON(t, mux, http.MethodPost, "/api/submissions", map[string]any{
		"assessment_id": cfgResp.Assessment.ID,
		"form_token":    cfgResp.FormToken,
		"trust_token":   "tok",
		"consent":       true,
		"contact": map[string]any{
			"first_name": "Dana",
			"email":      "dana@example.com",
		},
		"answers": map[string]any{
			"process_maturity": "documented",
			"tools_in_use":     []string{"reporting", "ai_daily"},
			"growth_urgency":   5,
		},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit status = %d: %s", w.Code, w.Body.String())
	}
	var receipt services.SubmitResult
	decodeBody(t, w, &receipt)
	if receipt.SubmissionID == "" {
		t.Fatal("submit returned no submission id")
	}
	// 5 + (3+4) + 5 = 17 lands in the top band.
	if receipt.ResultSlug != "mastery-track" {
		t.Fatalf("result slug = %q, want mastery-track", receipt.ResultSlug)
	}

	w = doJSON(t, mux, http.MethodGet, "/api/submissions/"+receipt.SubmissionID+"/result?slug="+receipt.ResultSlug, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("result status = %d: %s", w.Code, w.Body.String())
	}
	var resultResp struct {
		Submission services.Submission  `json:"submission"`
		Result     *services.ResultBand `json:"result"`
	}
	decodeBody(t, w, &resultResp)
	if resultResp.Submission.Score != 17 {
		t.Fatalf("persisted score = %d, want 17", resultResp.Submission.Score)
	}
	if resultResp.Submission.Segment != "mastery" {
		t.Fatalf("segment = %q, want mastery", resultResp.Submission.Segment)
	}
	if resultResp.Result == nil || resultResp.Result.Slug != "mastery-track" {
		t.Fatalf("result band = %+v, want mastery-track", resultResp.Result)
	}

	if w := doJSON(t, mux, http.MethodPost, "/api/submissions/"+receipt.SubmissionID+"/sync",
		map[string]any{"crm_contact_id": "crm-42"}); w.Code != http.StatusNoContent {
		t.Fatalf("sync status = %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, mux, http.MethodGet, "/api/export?assessment_id="+cfgResp.Assessment.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d: %s", w.Code, w.Body.String())
	}
	if csv := w.Body.String(); !strings.Contains(csv, "dana@example.com") {
		t.Fatalf("export CSV missing lead row:\n%s", csv)
	}
}

func TestSubmitRejectsHoneypotAndBadTokens(t *testing.T) {
	_, mux := newTestRouter(t)
	doJSON(t, mux, http.MethodPost, "/api/seed", nil)

	w := doJSON(t, mux, http.MethodGet, "/api/assessments/ai-readiness", nil)
	var cfgResp struct {
		Assessment services.AssessmentConfig `json:"assessment"`
		FormToken  string                    `json:"form_token"`
	}
	decodeBody(t, w, &cfgResp)

	base := func() map[string]any {
		return map[string]any{
			"assessment_id": cfgResp.Assessment.ID,
			"form_token":    cfgResp.FormToken,
			"trust_token":   "tok",
			"consent":       true,
			"contact":       map[string]any{"first_name": "Dana", "email": "dana@example.com"},
			"answers":       map[string]any{"process_maturity": "documented"},
		}
	}

	trip := base()
	trip["contact"] = map[string]any{"first_name": "Dana", "email": "dana@example.com", "website": "http://spam"}
	w = doJSON(t, mux, http.MethodPost, "/api/submissions", trip)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("honeypot status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), msgGenericFailure) {
		t.Fatalf("honeypot response reveals too much: %s", w.Body.String())
	}

	forged := base()
	forged["form_token"] = "not-a-token"
	if w = doJSON(t, mux, http.MethodPost, "/api/submissions", forged); w.Code != http.StatusBadRequest {
		t.Fatalf("forged token status = %d, want 400", w.Code)
	}

	missing := base()
	delete(missing, "form_token")
	if w = doJSON(t, mux, http.MethodPost, "/api/submissions", missing); w.Code != http.StatusBadRequest {
		t.Fatalf("missing token status = %d, want 400", w.Code)
	}
}

func TestSubmitValidationAndVerification(t *testing.T) {
	store := NewMemoryStore()
	rt := NewRouter(store, services.TrustVerifierFunc(func(string) (bool, error) {
		return false, nil
	}))
	rt.minFillTime = 0
	mux := http.NewServeMux()
	rt.Register(mux)
	doJSON(t, mux, http.MethodPost, "/api/seed", nil)

	w := doJSON(t, mux, http.MethodGet, "/api/assessments/ai-readiness", nil)
	var cfgResp struct {
		Assessment services.AssessmentConfig `json:"assessment"`
		FormToken  string                    `json:"form_token"`
	}
	decodeBody(t, w, &cfgResp)

	// Missing email fails validation before the verifier runs.
	w = doJSON(t, mux, http.MethodPost, "/api/submissions", map[string]any{
		"assessment_id": cfgResp.Assessment.ID,
		"form_token":    cfgResp.FormToken,
		"consent":       true,
		"contact":       map[string]any{"first_name": "Dana"},
		"answers":       map[string]any{},
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("validation status = %d, want 400", w.Code)
	}
	var verrResp struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	decodeBody(t, w, &verrResp)
	if verrResp.Error != "validation_failed" || verrResp.Fields["email"] == "" {
		t.Fatalf("validation response = %+v", verrResp)
	}

	// Low trust score comes back 403 with the generic copy.
	w = doJSON(t, mux, http.MethodPost, "/api/submissions", map[string]any{
		"assessment_id": cfgResp.Assessment.ID,
		"form_token":    cfgResp.FormToken,
		"trust_token":   "tok",
		"consent":       true,
		"contact":       map[string]any{"first_name": "Dana", "email": "dana@example.com"},
		"answers":       map[string]any{"process_maturity": "documented"},
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("verification status = %d, want 403: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), msgVerificationFailed) {
		t.Fatalf("verification response = %s", w.Body.String())
	}
}

func TestCreateAssessmentValidatesPayload(t *testing.T) {
	_, mux := newTestRouter(t)

	payload := map[string]any{
		"slug":  "pulse-check",
		"title": "Pulse Check",
		"sections": []map[string]any{{
			"title": "One",
			"questions": []map[string]any{{
				"key": "q1", "prompt": "Pick one", "type": "single",
				"options": []map[string]any{
					{"label": "A", "value": "a", "score": 1},
					{"label": "B", "value": "b", "score": 2},
				},
			}},
		}},
		"results": []map[string]any{
			{"slug": "low", "title": "Low", "score_min": 0, "score_max": 10},
		},
	}
	w := doJSON(t, mux, http.MethodPost, "/api/assessments", payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}

	// Same slug conflicts.
	if w = doJSON(t, mux, http.MethodPost, "/api/assessments", payload); w.Code != http.StatusConflict {
		t.Fatalf("duplicate slug status = %d, want 409", w.Code)
	}

	bad := map[string]any{
		"slug":  "broken",
		"title": "Broken",
		"sections": []map[string]any{{
			"title": "One",
			"questions": []map[string]any{{
				"key": "q1", "prompt": "?", "type": "ranked",
			}},
		}},
	}
	if w = doJSON(t, mux, http.MethodPost, "/api/assessments", bad); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid type status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestContentAndPhasesEndpoints(t *testing.T) {
	_, mux := newTestRouter(t)
	doJSON(t, mux, http.MethodPost, "/api/seed", nil)

	w := doJSON(t, mux, http.MethodGet, "/api/phases", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("phases status = %d", w.Code)
	}
	var phasesResp struct {
		Phases []*services.Phase `json:"phases"`
	}
	decodeBody(t, w, &phasesResp)
	if len(phasesResp.Phases) != 3 || phasesResp.Phases[0].Key != "spark" {
		t.Fatalf("phases = %+v", phasesResp.Phases)
	}

	// Without the phase middleware the handler serves the all-phases view.
	w = doJSON(t, mux, http.MethodGet, "/api/content?kind=resource", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("content status = %d: %s", w.Code, w.Body.String())
	}
	var contentResp struct {
		Phase string                   `json:"phase"`
		Items []*services.ContentEntry `json:"items"`
	}
	decodeBody(t, w, &contentResp)
	if contentResp.Phase != services.PhaseAll {
		t.Fatalf("phase = %q, want %q", contentResp.Phase, services.PhaseAll)
	}
	if len(contentResp.Items) != 3 {
		t.Fatalf("resource entries = %d, want 3", len(contentResp.Items))
	}

	if w = doJSON(t, mux, http.MethodGet, "/api/content?kind=bogus", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind status = %d, want 400", w.Code)
	}
}

func TestEventsEndpoint(t *testing.T) {
	_, mux := newTestRouter(t)

	w := doJSON(t, mux, http.MethodPost, "/api/events", map[string]any{
		"event": "quiz_started",
		"meta":  map[string]string{"page": "/assess"},
	})
	if w.Code != http.StatusAccepted {
		t.Fatalf("event status = %d, want 202", w.Code)
	}

	if w = doJSON(t, mux, http.MethodPost, "/api/events", map[string]any{"event": "  "}); w.Code != http.StatusBadRequest {
		t.Fatalf("blank event status = %d, want 400", w.Code)
	}
}
