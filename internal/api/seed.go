package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/smbevo/evolve/internal/services"
)

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

type createOptionPayload struct {
	Label   string             `json:"label"`
	Value   string             `json:"value"`
	Score   int                `json:"score"`
	Weights map[string]float64 `json:"weights"`
}

type createQuestionPayload struct {
	Key     string                `json:"key"`
	Prompt  string                `json:"prompt"`
	Type    string                `json:"type"`
	Options []createOptionPayload `json:"options"`
}

type createSectionPayload struct {
	Title     string                  `json:"title"`
	Questions []createQuestionPayload `json:"questions"`
}

type createResultPayload struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Hero     string `json:"hero"`
	BodyMD   string `json:"body_md"`
	CTALabel string `json:"cta_label"`
	CTAURL   string `json:"cta_url"`
	ScoreMin int    `json:"score_min"`
	ScoreMax int    `json:"score_max"`
}

type createAssessmentPayload struct {
	Slug        string                 `json:"slug"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Sections    []createSectionPayload `json:"sections"`
	Results     []createResultPayload  `json:"results"`
}

// POST /api/assessments — persist a full questionnaire in one call. The
// nested payload is validated as an aggregate before any row is written.
func (rt *Router) handleCreateAssessment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createAssessmentPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	if req.Slug == "" || req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "slug and title required"})
		return
	}
	if rt.store.GetAssessmentBySlug(req.Slug) != nil {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "slug already exists"})
		return
	}
	if err := services.ValidateConfig(toValidationConfig(&req)); err != nil {
		if errors.Is(err, services.ErrInvalidConfig) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		log.Printf("validate assessment %q: %v", req.Slug, err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "could not create assessment"})
		return
	}

	id := rt.persistAssessment(&req)
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "slug": req.Slug})
}

// toValidationConfig lifts the inbound payload into the aggregate the
// validator understands, without touching the store.
func toValidationConfig(req *createAssessmentPayload) *services.AssessmentConfig {
	cfg := &services.AssessmentConfig{Slug: req.Slug, Title: req.Title}
	for _, sec := range req.Sections {
		section := &services.ConfigSection{Title: sec.Title}
		for _, q := range sec.Questions {
			qq := &services.Question{Key: q.Key, Prompt: q.Prompt, Type: q.Type}
			for _, o := range q.Options {
				qq.Options = append(qq.Options, &services.Option{
					Label: o.Label, Value: o.Value, Score: o.Score, Weights: o.Weights,
				})
			}
			section.Questions = append(section.Questions, qq)
		}
		cfg.Sections = append(cfg.Sections, section)
	}
	return cfg
}

func (rt *Router) persistAssessment(req *createAssessmentPayload) string {
	a := &Assessment{
		ID:          shortID(),
		Slug:        req.Slug,
		Title:       req.Title,
		Description: req.Description,
		CreatedAt:   rt.now(),
	}
	rt.store.AddAssessment(a)
	for si, sec := range req.Sections {
		section := &Section{ID: shortID(), AssessmentID: a.ID, Title: sec.Title, Ordinal: si}
		rt.store.AddSection(section)
		for qi, q := range sec.Questions {
			question := &Question{
				ID: shortID(), SectionID: section.ID,
				Key: q.Key, Prompt: q.Prompt, Type: q.Type, Ordinal: qi,
			}
			rt.store.AddQuestion(question)
			for oi, o := range q.Options {
				rt.store.AddOption(&Option{
					ID: shortID(), QuestionID: question.ID,
					Label: o.Label, Value: o.Value, Score: o.Score,
					Weights: o.Weights, Ordinal: oi,
				})
			}
		}
	}
	for _, res := range req.Results {
		rt.store.AddResult(&ResultBand{
			ID: shortID(), AssessmentID: a.ID,
			Slug: res.Slug, Title: res.Title, Hero: res.Hero, BodyMD: res.BodyMD,
			CTALabel: res.CTALabel, CTAURL: res.CTAURL,
			ScoreMin: res.ScoreMin, ScoreMax: res.ScoreMax,
		})
	}
	return a.ID
}

// POST /api/seed — install the ai-readiness questionnaire, the maturity
// phases and a handful of published content entries.
func (rt *Router) handleSeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if rt.store.GetAssessmentBySlug("ai-readiness") != nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "slug": "ai-readiness", "seeded": false})
		return
	}

	id := rt.persistAssessment(seedAssessment())
	seedPhases(rt.store)
	seedContent(rt.store)
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": id, "slug": "ai-readiness", "seeded": true})
}

func seedAssessment() *createAssessmentPayload {
	return &createAssessmentPayload{
		Slug:        "ai-readiness",
		Title:       "AI Readiness Assessment",
		Description: "Find out which phase your business is in and what to focus on next.",
		Sections: []createSectionPayload{
			{
				Title: "Current Operations",
				Questions: []createQuestionPayload{
					{
						Key: "process_maturity", Prompt: "How documented are your core business processes?", Type: services.QuestionSingle,
						Options: []createOptionPayload{
							{Label: "Mostly in people's heads", Value: "tribal", Score: 1, Weights: map[string]float64{"spark": 2}},
							{Label: "Partially written down", Value: "partial", Score: 3, Weights: map[string]float64{"momentum": 2}},
							{Label: "Documented and reviewed", Value: "documented", Score: 5, Weights: map[string]float64{"mastery": 2}},
						},
					},
					{
						Key: "tools_in_use", Prompt: "Which of these does your team already use?", Type: services.QuestionMulti,
						Options: []createOptionPayload{
							{Label: "Shared task tracker", Value: "tasks", Score: 2, Weights: map[string]float64{"momentum": 1}},
							{Label: "CRM", Value: "crm", Score: 2, Weights: map[string]float64{"momentum": 1}},
							{Label: "Automated reporting", Value: "reporting", Score: 3, Weights: map[string]float64{"mastery": 2}},
							{Label: "AI assistants in daily work", Value: "ai_daily", Score: 4, Weights: map[string]float64{"mastery": 3}},
						},
					},
				},
			},
			{
				Title: "Ambition",
				Questions: []createQuestionPayload{
					{
						Key: "growth_urgency", Prompt: "How urgent is scaling for you this year?", Type: services.QuestionScale,
						Options: []createOptionPayload{
							{Label: "Not urgent", Value: "1", Score: 1, Weights: map[string]float64{"spark": 1}},
							{Label: "Somewhat", Value: "3", Score: 3, Weights: map[string]float64{"momentum": 1}},
							{Label: "Critical", Value: "5", Score: 5, Weights: map[string]float64{"momentum": 2}},
						},
					},
				},
			},
		},
		Results: []createResultPayload{
			{
				Slug: "spark-foundations", Title: "You're in the Spark phase",
				Hero:     "High potential, missing systems.",
				BodyMD:   "Focus on quick wins: document one core process and pick one tool.",
				CTALabel: "Access Spark Playbook", CTAURL: "/playbooks/spark",
				ScoreMin: 0, ScoreMax: 7,
			},
			{
				Slug: "momentum-builder", Title: "You're building Momentum",
				Hero:     "You have traction. Now integrate your workflows.",
				BodyMD:   "Connect your tools and start measuring throughput.",
				CTALabel: "Access Momentum Playbook", CTAURL: "/playbooks/momentum",
				ScoreMin: 8, ScoreMax: 15,
			},
			{
				Slug: "mastery-track", Title: "You're on the Mastery track",
				Hero:     "You're operating like an AI-native org.",
				BodyMD:   "Push toward autonomy: delegate whole workflows, not tasks.",
				CTALabel: "Access Mastery Playbook", CTAURL: "/playbooks/mastery",
				ScoreMin: 16, ScoreMax: 100,
			},
		},
	}
}

func seedPhases(store Store) {
	phases := []*Phase{
		{ID: shortID(), Key: "spark", Name: "Spark", Tagline: "Build your foundation", Ordinal: 1},
		{ID: shortID(), Key: "momentum", Name: "Momentum", Tagline: "Scale what works", Ordinal: 2},
		{ID: shortID(), Key: "mastery", Name: "Mastery", Tagline: "Lead your market", Ordinal: 3},
	}
	for _, p := range phases {
		store.AddPhase(p)
	}
}

func seedContent(store Store) {
	entries := []*ContentEntry{
		{ID: shortID(), Kind: services.KindResource, Slug: "spark-playbook", Title: "Spark Playbook", Phases: []string{"spark"}, Featured: true, Published: true, SortOrder: 1},
		{ID: shortID(), Kind: services.KindResource, Slug: "momentum-playbook", Title: "Momentum Playbook", Phases: []string{"momentum"}, Featured: true, Published: true, SortOrder: 2},
		{ID: shortID(), Kind: services.KindResource, Slug: "mastery-playbook", Title: "Mastery Playbook", Phases: []string{"mastery"}, Featured: true, Published: true, SortOrder: 3},
		{ID: shortID(), Kind: services.KindSolution, Slug: "process-mapping", Title: "Process Mapping Sprint", Phases: []string{"spark"}, Published: true, SortOrder: 1},
		{ID: shortID(), Kind: services.KindApp, Slug: "workflow-copilot", Title: "Workflow Copilot", Phases: []string{"momentum", "mastery"}, Published: true, SortOrder: 1},
		{ID: shortID(), Kind: services.KindNewsletter, Slug: "evolve-weekly-1", Title: "Evolve Weekly #1", Published: true, SortOrder: 1},
	}
	for _, e := range entries {
		store.AddContentEntry(e)
	}
}
