//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func baseURL() string {
	if v := os.Getenv("EVOLVE_TEST_BASE_URL"); strings.TrimSpace(v) != "" {
		return strings.TrimRight(v, "/")
	}
	return "http://127.0.0.1:18080"
}

// Exercises the full visitor journey against a running server: seed the
// questionnaire, fetch the wizard config, submit a lead and read the result
// back. The server must run without EVOLVE_RECAPTCHA_SECRET so trust
// verification is in dev mode.
func TestLeadJourneyIntegration(t *testing.T) {
	client := &http.Client{Timeout: 5 * time.Second}
	base := baseURL()

	var seedResp struct {
		OK   bool   `json:"ok"`
		Slug string `json:"slug"`
	}
	doPost(t, client, base+"/api/seed", map[string]any{}, &seedResp)
	if !seedResp.OK || seedResp.Slug == "" {
		t.Fatalf("unexpected seed response: %+v", seedResp)
	}

	var cfgResp struct {
		Assessment struct {
			ID       string `json:"id"`
			Slug     string `json:"slug"`
			Sections []struct {
				Questions []struct {
					Key  string `json:"key"`
					Type string `json:"type"`
				} `json:"questions"`
			} `json:"sections"`
		} `json:"assessment"`
		FormToken string `json:"form_token"`
	}
	doGet(t, client, base+"/api/assessments/"+seedResp.Slug, &cfgResp)
	if cfgResp.Assessment.ID == "" || cfgResp.FormToken == "" {
		t.Fatalf("config missing id or form token: %+v", cfgResp)
	}
	if len(cfgResp.Assessment.Sections) == 0 {
		t.Fatalf("config has no sections")
	}

	// Submissions younger than the minimum fill time are rejected, so wait
	// out the window like a human would.
	time.Sleep(11 * time.Second)

	leadEmail := fmt.Sprintf("integration_%d@example.com", time.Now().UnixNano())
	var receipt struct {
		SubmissionID string `json:"submission_id"`
		ResultSlug   string `json:"result_slug"`
	}
	doPost(t, client, base+"/api/submissions", map[string]any{
		"assessment_id": cfgResp.Assessment.ID,
		"form_token":    cfgResp.FormToken,
		"trust_token":   "integration",
		"consent":       true,
		"contact": map[string]any{
			"first_name": "Integration",
			"email":      leadEmail,
		},
		"answers": map[string]any{
			"process_maturity": "documented",
			"tools_in_use":     []string{"reporting", "ai_daily"},
			"growth_urgency":   5,
		},
	}, &receipt)
	if receipt.SubmissionID == "" || receipt.ResultSlug == "" {
		t.Fatalf("unexpected submit receipt: %+v", receipt)
	}

	var resultResp struct {
		Submission struct {
			Email   string `json:"email"`
			Score   int    `json:"score"`
			Segment string `json:"segment"`
		} `json:"submission"`
		Result struct {
			Slug  string `json:"slug"`
			Title string `json:"title"`
		} `json:"result"`
	}
	doGet(t, client, fmt.Sprintf("%s/api/submissions/%s/result?slug=%s", base, receipt.SubmissionID, receipt.ResultSlug), &resultResp)
	if resultResp.Submission.Email != leadEmail {
		t.Fatalf("result belongs to %q, want %q", resultResp.Submission.Email, leadEmail)
	}
	if resultResp.Result.Slug != receipt.ResultSlug {
		t.Fatalf("result slug %q, want %q", resultResp.Result.Slug, receipt.ResultSlug)
	}

	doPost(t, client, base+"/api/events", map[string]any{
		"submission_id": receipt.SubmissionID,
		"event":         "cta_clicked",
		"meta":          map[string]string{"source": "integration"},
	}, nil)
}

func doGet(t *testing.T, client *http.Client, url string, out any) {
	t.Helper()
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("http get %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, url, string(body))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}

func doPost(t *testing.T, client *http.Client, url string, body any, out any) {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("http post %s failed: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected status %d for %s: %s", resp.StatusCode, url, string(bodyBytes))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode response from %s: %v", url, err)
		}
	}
}
