package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/storage"
)

// HTTPClient implements DataSource by calling the LiftLog REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// data lives on the remote server (accessed over Tailscale). The server
// resolves the user from the connection, so userID arguments are ignored.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// bucketToAgg maps MCP bucket values to REST API agg parameter values.
func bucketToAgg(bucket string) string {
	if bucket == "1 week" {
		return "weekly"
	}
	return "monthly"
}

func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func timeParams(start, end time.Time) url.Values {
	v := url.Values{}
	v.Set("start", start.Format(time.RFC3339))
	v.Set("end", end.Format(time.RFC3339))
	return v
}

func (c *HTTPClient) ListExercises(ctx context.Context, _ int) ([]models.Exercise, error) {
	var out []models.Exercise
	err := c.get(ctx, "/api/v1/exercises", nil, &out)
	return out, err
}

func (c *HTTPClient) CurrentRecords(ctx context.Context, _ int) ([]models.PersonalRecord, error) {
	var out []models.PersonalRecord
	err := c.get(ctx, "/api/v1/records", nil, &out)
	return out, err
}

func (c *HTTPClient) RecordHistory(ctx context.Context, _ int, exerciseID uuid.UUID) ([]models.PersonalRecord, error) {
	var out []models.PersonalRecord
	err := c.get(ctx, "/api/v1/records/"+exerciseID.String(), nil, &out)
	return out, err
}

func (c *HTTPClient) GetSessionSnapshot(ctx context.Context, _ int, sessionID uuid.UUID) (*models.SessionSnapshot, error) {
	var out models.SessionSnapshot
	if err := c.get(ctx, "/api/v1/sessions/"+sessionID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context, _ int, start, end time.Time) ([]models.SessionSummary, error) {
	var out []models.SessionSummary
	err := c.get(ctx, "/api/v1/sessions", timeParams(start, end), &out)
	return out, err
}

func (c *HTTPClient) ExerciseProgress(ctx context.Context, _ int, exerciseID uuid.UUID, start, end time.Time) ([]models.ProgressPoint, error) {
	var out []models.ProgressPoint
	err := c.get(ctx, "/api/v1/progress/"+exerciseID.String(), timeParams(start, end), &out)
	return out, err
}

func (c *HTTPClient) GetTrainingVolume(ctx context.Context, _ int, start, end time.Time, bucket string) ([]storage.VolumePeriod, error) {
	params := timeParams(start, end)
	params.Set("agg", bucketToAgg(bucket))
	var out []storage.VolumePeriod
	err := c.get(ctx, "/api/v1/volume", params, &out)
	return out, err
}
