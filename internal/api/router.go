package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/smbevo/evolve/internal/middleware"
	"github.com/smbevo/evolve/internal/services"
)

// User-facing failure copy stays generic on purpose: bot detection and
// verification internals are never revealed to the caller.
const (
	msgGenericFailure     = "Submission failed. Please try again."
	msgVerificationFailed = "Verification failed. Please try again."
)

type Router struct {
	store       Store
	assessments *services.AssessmentService
	submissions *services.SubmissionService
	results     *services.ResultService
	content     *services.ContentService

	now          func() time.Time
	formTokenTTL time.Duration
	minFillTime  time.Duration
}

// NewRouter wires the services against one store and one trust verifier.
func NewRouter(store Store, verifier services.TrustVerifier) *Router {
	return &Router{
		store:        store,
		assessments:  services.NewAssessmentService(newAssessmentStoreAdapter(store)),
		submissions:  services.NewSubmissionService(newSubmissionStoreAdapter(store), verifier),
		results:      services.NewResultService(newResultStoreAdapter(store)),
		content:      services.NewContentService(newContentStoreAdapter(store)),
		now:          func() time.Time { return time.Now().UTC() },
		formTokenTTL: middleware.DefaultFormTokenTTL,
		minFillTime:  middleware.DefaultMinFillTime,
	}
}

func (rt *Router) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/seed", rt.handleSeed)                    // POST
	mux.HandleFunc("/api/assessments", rt.handleCreateAssessment) // POST
	mux.HandleFunc("/api/assessments/", rt.handleAssessmentScoped) // GET /api/assessments/{slug}
	mux.HandleFunc("/api/submissions", rt.handleSubmit)            // POST
	mux.HandleFunc("/api/submissions/", rt.handleSubmissionScoped) // GET {id}/result, POST {id}/sync
	mux.HandleFunc("/api/content", rt.handleContent)               // GET
	mux.HandleFunc("/api/phases", rt.handlePhases)                 // GET
	mux.HandleFunc("/api/events", rt.handleEvents)                 // POST
	mux.HandleFunc("/api/export", rt.handleExport)                 // GET
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/assessments/{slug} — the wizard config plus a signed form token
// the submit endpoint will demand back.
func (rt *Router) handleAssessmentScoped(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	slug := strings.TrimPrefix(r.URL.Path, "/api/assessments/")
	if slug == "" || strings.Contains(slug, "/") {
		http.NotFound(w, r)
		return
	}
	cfg, err := rt.assessments.GetConfig(slug)
	if err != nil {
		if errors.Is(err, services.ErrAssessmentNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "assessment not found"})
			return
		}
		log.Printf("assessment config %q: %v", slug, err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "assessment unavailable"})
		return
	}
	token, err := middleware.SignFormToken(cfg.ID, rt.now(), rt.formTokenTTL)
	if err != nil {
		log.Printf("sign form token: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "assessment unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assessment": cfg, "form_token": token})
}

type submitPayload struct {
	AssessmentID string             `json:"assessment_id"`
	FormToken    string             `json:"form_token"`
	TrustToken   string             `json:"trust_token"`
	Contact      services.Contact   `json:"contact"`
	Answers      services.AnswerSet `json:"answers"`
	Consent      bool               `json:"consent"`
	UTM          services.UTM       `json:"utm"`
}

// POST /api/submissions — the submit pipeline behind the wizard's final step.
func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req submitPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": msgGenericFailure})
		return
	}
	if req.FormToken == "" {
		req.FormToken = r.Header.Get("X-Form-Token")
	}
	if err := middleware.VerifyFormToken(req.FormToken, req.AssessmentID, rt.now(), rt.minFillTime); err != nil {
		log.Printf("form token rejected for assessment %s: %v", req.AssessmentID, err)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": msgGenericFailure})
		return
	}

	res, err := rt.submissions.Submit(services.SubmitRequest{
		AssessmentID: req.AssessmentID,
		Contact:      req.Contact,
		Answers:      req.Answers,
		Consent:      req.Consent,
		UTM:          req.UTM,
		TrustToken:   req.TrustToken,
	})
	if err != nil {
		var verr *services.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validation_failed", "fields": verr.Fields})
		case errors.Is(err, services.ErrBotDetected):
			log.Printf("honeypot tripped for assessment %s", req.AssessmentID)
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": msgGenericFailure})
		case errors.Is(err, services.ErrVerificationFailed):
			writeJSON(w, http.StatusForbidden, map[string]any{"error": msgVerificationFailed})
		case errors.Is(err, services.ErrAssessmentNotFound):
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "assessment not found"})
		default:
			log.Printf("submit assessment %s: %v", req.AssessmentID, err)
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": msgGenericFailure})
		}
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// GET /api/submissions/{id}/result?slug=…  |  POST /api/submissions/{id}/sync
func (rt *Router) handleSubmissionScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/submissions/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]
	switch parts[1] {
	case "result":
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		sub, band, err := rt.results.GetSubmissionResult(id, r.URL.Query().Get("slug"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not_found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"submission": sub, "result": band})
	case "sync":
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			CRMContactID string `json:"crm_contact_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.CRMContactID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "crm_contact_id required"})
			return
		}
		if !rt.store.MarkSubmissionSynced(id, body.CRMContactID) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "not_found"})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

// GET /api/content?kind=resource — phase comes from the request context
// (query param beats cookie beats default).
func (rt *Router) handleContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	kind := r.URL.Query().Get("kind")
	phase := middleware.PhaseFromContext(r.Context())
	entries, err := rt.content.ListForPhase(kind, phase)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"phase": phase, "items": entries})
}

// GET /api/phases
func (rt *Router) handlePhases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"phases": rt.content.Phases()})
}

// POST /api/events — fire-and-forget funnel telemetry from the SPA.
func (rt *Router) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		SubmissionID string            `json:"submission_id"`
		Event        string            `json:"event"`
		Meta         map[string]string `json:"meta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Event) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "event required"})
		return
	}
	rt.results.RecordEvent(body.SubmissionID, body.Event, body.Meta)
	w.WriteHeader(http.StatusAccepted)
}

// GET /api/export?assessment_id=… — lead CSV for the marketing handoff.
func (rt *Router) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	assessmentID := r.URL.Query().Get("assessment_id")
	if assessmentID == "" {
		http.Error(w, "assessment_id required", http.StatusBadRequest)
		return
	}
	rows := rt.store.ListSubmissions(assessmentID)
	subs := make([]*services.Submission, 0, len(rows))
	for _, row := range rows {
		subs = append(subs, toServiceSubmission(row))
	}
	b, err := services.ExportSubmissionsCSV(subs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=submissions.csv")
	_, _ = w.Write(b)
}
