// Package client talks to the timesheet service over HTTP on behalf of the
// capture console.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"time"

	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/pkg/config"
	"github.com/medflow/timesheet/pkg/errors"
	"github.com/medflow/timesheet/pkg/logger"
)

const apiPrefix = "/api/v1/timesheets"

// TimesheetClient is the persistence gateway used by the navigator
type TimesheetClient struct {
	baseURL    string
	locale     string
	userID     string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewTimesheetClient creates a new timesheet service client
func NewTimesheetClient(cfg config.GatewayConfig, log *logger.Logger) *TimesheetClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TimesheetClient{
		baseURL:    cfg.BaseURL,
		locale:     cfg.Locale,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.WithComponent("timesheet-client"),
	}
}

// WithUser returns a copy of the client that identifies requests as userID
func (c *TimesheetClient) WithUser(userID string) *TimesheetClient {
	cp := *c
	cp.userID = userID
	return &cp
}

// errorResponse mirrors the service's error envelope
type errorResponse struct {
	Success bool `json:"success"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

// FetchDay loads one stored day. An absent day is reported as errors.ErrNotFound.
func (c *TimesheetClient) FetchDay(ctx context.Context, employeeID string, date domain.Date) (*domain.DayRecord, error) {
	path := fmt.Sprintf("%s/employees/%s/days/%s", apiPrefix, url.PathEscape(employeeID), date)

	var rec domain.DayRecord
	if err := c.do(ctx, http.MethodGet, path, nil, &rec); err != nil {
		return nil, err
	}
	rec.ExistsOnServer = true
	return &rec, nil
}

// SaveDay stores a day
func (c *TimesheetClient) SaveDay(ctx context.Context, payload *domain.SavePayload) error {
	path := fmt.Sprintf("%s/employees/%s/days/%s", apiPrefix, url.PathEscape(payload.EmployeeID), payload.Date)

	c.logger.Debug().
		Str("employee_id", payload.EmployeeID).
		Str("date", payload.Date.String()).
		Msg("saving timesheet day")

	return c.do(ctx, http.MethodPut, path, payload, nil)
}

// FetchJobCatalog lists the active jobs
func (c *TimesheetClient) FetchJobCatalog(ctx context.Context) ([]domain.Job, error) {
	var jobs []domain.Job
	if err := c.do(ctx, http.MethodGet, apiPrefix+"/jobs", nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// ListDays returns the stored days of rng
func (c *TimesheetClient) ListDays(ctx context.Context, employeeID string, rng domain.DateRange) ([]domain.DayRecord, error) {
	path := fmt.Sprintf("%s/employees/%s/days?%s", apiPrefix, url.PathEscape(employeeID), rangeQuery(rng))

	var days []domain.DayRecord
	if err := c.do(ctx, http.MethodGet, path, nil, &days); err != nil {
		return nil, err
	}
	for i := range days {
		days[i].ExistsOnServer = true
	}
	return days, nil
}

// Report is a downloaded spreadsheet
type Report struct {
	FileName string
	Data     []byte
}

// Export downloads the spreadsheet report of rng
func (c *TimesheetClient) Export(ctx context.Context, employeeID string, rng domain.DateRange) (*Report, error) {
	path := fmt.Sprintf("%s/employees/%s/export?%s", apiPrefix, url.PathEscape(employeeID), rangeQuery(rng))

	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.decodeError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Unavailable("failed to read report", err)
	}

	report := &Report{Data: data}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		report.FileName = params["filename"]
	}
	return report, nil
}

func (c *TimesheetClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.decodeError(resp)
	}
	if out == nil {
		return nil
	}

	// the service wraps responses in {"success": true, "data": ...}
	response := struct {
		Success bool        `json:"success"`
		Data    interface{} `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return errors.Unavailable("failed to decode timesheet service response", err)
	}
	return nil
}

func (c *TimesheetClient) send(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.locale != "" {
		httpReq.Header.Set("Accept-Language", c.locale)
	}
	if c.userID != "" {
		httpReq.Header.Set("X-User-ID", c.userID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error().Err(err).Str("method", method).Str("path", path).Msg("failed to call timesheet service")
		return nil, errors.Unavailable("timesheet service unreachable", err)
	}
	return resp, nil
}

// decodeError maps a failed response onto the error kinds the navigator understands
func (c *TimesheetClient) decodeError(resp *http.Response) error {
	var errResp errorResponse
	json.NewDecoder(resp.Body).Decode(&errResp)

	c.logger.Warn().
		Int("status", resp.StatusCode).
		Interface("error", errResp.Error).
		Msg("timesheet service request failed")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.NotFound("timesheet_day")
	case resp.StatusCode == http.StatusBadRequest && errResp.Error != nil && len(errResp.Error.Details) > 0:
		return errors.Validation(errResp.Error.Details)
	case resp.StatusCode == http.StatusBadRequest && errResp.Error != nil:
		return errors.BadRequest(errResp.Error.Message)
	default:
		return errors.Unavailable(fmt.Sprintf("timesheet service returned status %d", resp.StatusCode), nil)
	}
}

func rangeQuery(rng domain.DateRange) string {
	q := url.Values{}
	q.Set("from", rng.Start.String())
	q.Set("to", rng.End.String())
	return q.Encode()
}
