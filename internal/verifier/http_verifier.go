package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mailprobe/mailprobe/internal/domain"
)

// HTTPVerifier calls a real verification API over HTTP. It satisfies the
// same contract as Simulated so the orchestrator can swap it in via config.
type HTTPVerifier struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPVerifier creates a verifier that POSTs each address to endpoint.
func NewHTTPVerifier(endpoint, apiKey string, timeout time.Duration) *HTTPVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPVerifier{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: timeout},
	}
}

type verifyRequest struct {
	Email string `json:"email"`
}

type verifyResponse struct {
	Status string `json:"status"`
}

// Verify submits the email and maps the provider status onto the domain
// verdicts. Unrecognized provider statuses map to unknown.
func (v *HTTPVerifier) Verify(ctx context.Context, email string) (Result, error) {
	body, err := json.Marshal(verifyRequest{Email: email})
	if err != nil {
		return Result{}, fmt.Errorf("marshal verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if v.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+v.apiKey)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call verification api: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read verification response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("verification api returned status %d", resp.StatusCode)
	}

	var decoded verifyResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return Result{}, fmt.Errorf("decode verification response: %w", err)
	}

	return Result{Status: mapProviderStatus(decoded.Status), Payload: payload}, nil
}

func mapProviderStatus(status string) domain.ValidationStatus {
	switch domain.ValidationStatus(status) {
	case domain.ValidationStatusOK,
		domain.ValidationStatusCatchAll,
		domain.ValidationStatusUnknown,
		domain.ValidationStatusError,
		domain.ValidationStatusDisposable,
		domain.ValidationStatusInvalid,
		domain.ValidationStatusDuplicate:
		return domain.ValidationStatus(status)
	default:
		return domain.ValidationStatusUnknown
	}
}
