// Package predictor is the client for the external wage-prediction HTTP
// service. One call per completed profile, no retries: a failed call is
// reported immediately and the caller decides what to do.
package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// ServiceError describes a failed prediction call. Status and Body are kept
// for operator logs only and must never reach user-facing messages.
type ServiceError struct {
	Status int    // HTTP status, 0 on transport failure
	Body   string // response body, truncated
	Err    error  // underlying transport error, if any
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("prediction service unreachable: %v", e.Err)
	}
	return fmt.Sprintf("prediction service returned HTTP %d", e.Status)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// Request is the JSON body for POST /predict. All values are the bucketed
// strings produced by the standardizer.
type Request struct {
	Age             string `json:"age"`
	YearsExperience string `json:"years_experience"`
	Education       string `json:"education"`
	Gender          string `json:"gender"`
	Country         string `json:"country"`
	Industry        string `json:"industry"`
}

// Client issues prediction requests.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the given prediction service base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type predictResponse struct {
	PredictedWage json.RawMessage `json:"predictedWage"`
}

// Predict sends the profile to the service and returns the predicted wage.
// Any transport failure or non-2xx status yields a *ServiceError.
func (c *Client) Predict(ctx context.Context, req Request) (float64, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("marshalling predict request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("creating predict request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return 0, &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, &ServiceError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, &ServiceError{Status: resp.StatusCode, Body: fmt.Sprintf("undecodable body: %v", err)}
	}

	wage, err := normalizeWage(pr.PredictedWage)
	if err != nil {
		return 0, &ServiceError{Status: resp.StatusCode, Body: err.Error()}
	}
	return wage, nil
}

// normalizeWage accepts predictedWage as a bare number or a one-element
// array of numbers and returns the scalar.
func normalizeWage(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, fmt.Errorf("response has no predictedWage")
	}

	var scalar float64
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return scalar, nil
	}

	var arr []float64
	if err := json.Unmarshal(raw, &arr); err == nil {
		if len(arr) == 0 {
			return 0, fmt.Errorf("predictedWage array is empty")
		}
		return arr[0], nil
	}

	return 0, fmt.Errorf("predictedWage is neither a number nor a number array: %s", raw)
}
