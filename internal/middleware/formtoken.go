package middleware

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/smbevo/evolve/internal/utils"
)

// Form tokens bind a wizard session to one assessment: the config fetch
// issues one, the submit endpoint requires it back. Tokens that are missing,
// forged, expired or younger than the minimum fill time are rejected, which
// stops replayed and headless instant-submit traffic before the verifier is
// even consulted.

const (
	// DefaultFormTokenTTL bounds how long a fetched wizard stays submittable.
	DefaultFormTokenTTL = 2 * time.Hour
	// DefaultMinFillTime is the shortest plausible human completion time.
	DefaultMinFillTime = 10 * time.Second
)

// ErrFormTokenInvalid covers every form-token rejection. Callers surface it
// generically, same as the honeypot.
var ErrFormTokenInvalid = errors.New("invalid form token")

type formClaims struct {
	AssessmentID string `json:"aid"`
	jwt.RegisteredClaims
}

func formSecret() []byte {
	return []byte(utils.SafeEnv("EVOLVE_FORM_SECRET", "evolve-dev-secret"))
}

// SignFormToken issues an HS256 form token for one assessment.
func SignFormToken(assessmentID string, now time.Time, ttl time.Duration) (string, error) {
	claims := formClaims{
		AssessmentID: assessmentID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(formSecret())
}

// VerifyFormToken checks signature, expiry, assessment binding and minimum
// fill time against now.
func VerifyFormToken(token, assessmentID string, now time.Time, minFill time.Duration) error {
	if token == "" {
		return ErrFormTokenInvalid
	}
	t, err := jwt.ParseWithClaims(token, &formClaims{}, func(token *jwt.Token) (interface{}, error) {
		return formSecret(), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil || !t.Valid {
		return ErrFormTokenInvalid
	}
	c, ok := t.Claims.(*formClaims)
	if !ok || c.AssessmentID != assessmentID {
		return ErrFormTokenInvalid
	}
	if c.IssuedAt == nil || now.Sub(c.IssuedAt.Time) < minFill {
		return ErrFormTokenInvalid
	}
	return nil
}
