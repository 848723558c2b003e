package garmin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// APIError carries the vendor's raw rejection for server-side diagnostics.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("garmin training api rejected request: status %d", e.StatusCode)
}

// PushWorkout uploads a validated workout document to the Training API.
// Callers are expected to run Validate first; the vendor rejects anything
// the matrix forbids.
func (c *OAuthClient) PushWorkout(ctx context.Context, accessToken string, workout *Workout) error {
	payload, err := json.Marshal(workout)
	if err != nil {
		return fmt.Errorf("marshal workout: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.APIBaseURL+"/training-api/rest/v2/workouts", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create workout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("workout request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return nil
}
