package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client calls the proxy functions over HTTP.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a client for functions mounted under baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{},
	}
}

// AnalyzeAttendance requests an analysis of one attendance session.
func (c *Client) AnalyzeAttendance(ctx context.Context, in AnalysisInput) (string, error) {
	var out analysisResponse
	if err := c.post(ctx, attendanceFunction, attendanceRequest{Action: ActionAnalyzeAttendance, Data: in}, &out); err != nil {
		return "", err
	}
	return out.Analysis, nil
}

// SuggestImprovements requests improvement suggestions from an attendance history.
func (c *Client) SuggestImprovements(ctx context.Context, in ImprovementsInput) (string, error) {
	var out analysisResponse
	if err := c.post(ctx, attendanceFunction, attendanceRequest{Action: ActionSuggestImprovements, Data: in}, &out); err != nil {
		return "", err
	}
	return out.Analysis, nil
}

// SmartReminders requests three reminders for an educator.
func (c *Client) SmartReminders(ctx context.Context, in RemindersInput) (string, error) {
	var out remindersResponse
	if err := c.post(ctx, remindersFunction, in, &out); err != nil {
		return "", err
	}
	return out.Reminders, nil
}

func (c *Client) post(ctx context.Context, function string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/"+function, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", function, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		var e errorResponse
		if json.Unmarshal(bodyBytes, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s error %s: %s", function, resp.Status, e.Error)
		}
		return fmt.Errorf("%s error %s: %s", function, resp.Status, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", function, err)
	}
	return nil
}
