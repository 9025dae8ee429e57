package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// TrustVerifier checks an opaque client challenge token against the external
// verification service. ok is true only when the service reports success and
// the trust score clears the configured threshold.
type TrustVerifier interface {
	Verify(token string) (ok bool, err error)
}

// TrustVerifierFunc adapts a plain function to the TrustVerifier interface.
type TrustVerifierFunc func(token string) (bool, error)

func (f TrustVerifierFunc) Verify(token string) (bool, error) { return f(token) }

const (
	defaultSiteverifyURL = "https://www.google.com/recaptcha/api/siteverify"
	// DefaultMinTrustScore is the rejection threshold for reCAPTCHA v3
	// scores (0.0 likely bot, 1.0 likely human).
	DefaultMinTrustScore = 0.5
	// DefaultVerifyTimeout bounds the wait on the verification service.
	DefaultVerifyTimeout = 5 * time.Second
)

// RecaptchaVerifier verifies reCAPTCHA v3 tokens against the siteverify
// endpoint. Network errors and timeouts surface as errors so callers can
// fail closed.
type RecaptchaVerifier struct {
	Endpoint string
	Secret   string
	MinScore float64
	Client   *http.Client
}

// NewRecaptchaVerifier builds a verifier with the default endpoint,
// threshold and bounded-timeout client.
func NewRecaptchaVerifier(secret string) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		Endpoint: defaultSiteverifyURL,
		Secret:   secret,
		MinScore: DefaultMinTrustScore,
		Client:   &http.Client{Timeout: DefaultVerifyTimeout},
	}
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Score      float64  `json:"score"`
	Action     string   `json:"action"`
	ErrorCodes []string `json:"error-codes"`
}

// Verify posts the token to the verification service and applies the score
// threshold. Missing configuration or an empty token rejects without a
// network call.
func (v *RecaptchaVerifier) Verify(token string) (bool, error) {
	if v.Secret == "" {
		return false, errors.New("verifier secret not configured")
	}
	if token == "" {
		return false, nil
	}
	form := url.Values{}
	form.Set("secret", v.Secret)
	form.Set("response", token)

	client := v.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultVerifyTimeout}
	}
	resp, err := client.PostForm(v.Endpoint, form)
	if err != nil {
		return false, fmt.Errorf("verify trust token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode siteverify response: %w", err)
	}
	if !body.Success {
		return false, nil
	}
	return body.Score >= v.MinScore, nil
}
