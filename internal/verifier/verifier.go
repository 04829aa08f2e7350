// Package verifier abstracts the external email classification API behind a
// narrow capability interface so the orchestrator never depends on transport
// details.
package verifier

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/mailprobe/mailprobe/internal/domain"
)

// Result carries the classifier verdict plus the raw provider payload.
type Result struct {
	Status  domain.ValidationStatus
	Payload json.RawMessage
}

// Verifier classifies a single email address.
type Verifier interface {
	Verify(ctx context.Context, email string) (Result, error)
}

// Simulated is an in-process classifier standing in for the remote API. Each
// call sleeps for a fixed delay to mimic network latency.
type Simulated struct {
	Delay time.Duration
}

// NewSimulated creates a simulated verifier with the given per-call delay.
func NewSimulated(delay time.Duration) *Simulated {
	return &Simulated{Delay: delay}
}

type simulatedPayload struct {
	Email     string `json:"email"`
	Status    string `json:"status"`
	Reason    string `json:"reason"`
	CheckedAt string `json:"checked_at"`
}

// Verify applies the stand-in classification policy: no @ is invalid,
// "disposable"/"temp" substrings are disposable, "catch_all" is catch_all,
// everything else is ok.
func (s *Simulated) Verify(ctx context.Context, email string) (Result, error) {
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return Result{}, ctx.Err()
		}
	}

	status, reason := classify(email)
	payload, err := json.Marshal(simulatedPayload{
		Email:     email,
		Status:    string(status),
		Reason:    reason,
		CheckedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Result{}, err
	}

	return Result{Status: status, Payload: payload}, nil
}

func classify(email string) (domain.ValidationStatus, string) {
	switch {
	case !strings.Contains(email, "@"):
		return domain.ValidationStatusInvalid, "missing @ symbol"
	case strings.Contains(email, "disposable"), strings.Contains(email, "temp"):
		return domain.ValidationStatusDisposable, "disposable address pattern"
	case strings.Contains(email, "catch_all"):
		return domain.ValidationStatusCatchAll, "catch-all domain pattern"
	default:
		return domain.ValidationStatusOK, "deliverable"
	}
}
