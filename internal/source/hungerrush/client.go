// Package hungerrush pulls order exports from the HungerRush back-office
// portal. It drives the portal's report endpoints directly: authenticate,
// queue an export run, poll until the artifact is ready, download and
// decode it. The overall wait is bounded by the caller's context; within
// that ceiling the client retries transient failures on its own.
package hungerrush

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eocp2024/hungerrush-report/internal/core"
	"github.com/eocp2024/hungerrush-report/internal/source"
	"github.com/eocp2024/hungerrush-report/internal/status"
)

const (
	defaultPollInterval = 2 * time.Second
	loginAttempts       = 3
)

type Config struct {
	BaseURL      string
	Username     string
	Password     string
	PollInterval time.Duration
	// OnStatus receives advisory stage updates; may be nil.
	OnStatus source.StatusFunc
}

type Client struct {
	http         *http.Client
	baseURL      string
	username     string
	password     string
	pollInterval time.Duration
	onStatus     source.StatusFunc
}

var _ source.OrderFetcher = (*Client)(nil)

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("hungerrush: missing base URL")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("hungerrush: missing credentials")
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &Client{
		http:         &http.Client{Timeout: 30 * time.Second},
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		username:     cfg.Username,
		password:     cfg.Password,
		pollInterval: poll,
		onStatus:     cfg.OnStatus,
	}, nil
}

// FetchOrders runs the full export round-trip. The ctx deadline is the
// hard ceiling for the whole trip; a portal that never produces an
// artifact resolves to ErrExportFailed, not a hang.
func (c *Client) FetchOrders(ctx context.Context, req source.ReportRequest) ([]core.OrderRecord, error) {
	c.report(status.StageNavigating, "contacting portal")

	token, err := c.login(ctx)
	if err != nil {
		return nil, err
	}

	c.report(status.StageRequestingReport, "queueing order export")
	runID, err := c.requestExport(ctx, token, req)
	if err != nil {
		return nil, err
	}

	c.report(status.StageWaitingExport, "waiting for export "+runID)
	downloadURL, err := c.waitForArtifact(ctx, token, runID)
	if err != nil {
		return nil, err
	}

	c.report(status.StageDownloading, "downloading artifact")
	artifact, contentType, err := c.download(ctx, token, downloadURL)
	if err != nil {
		return nil, err
	}

	c.report(status.StageParsing, "decoding order rows")
	records, err := decodeArtifact(artifact, contentType, downloadURL)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Fetched order export",
		"run_id", runID, "rows", len(records), "store", req.StoreID)
	return records, nil
}

type (
	loginResponse struct {
		Token string `json:"token"`
	}

	exportRequest struct {
		StoreID   string `json:"storeId"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
		Report    string `json:"report"`
	}

	exportResponse struct {
		RunID string `json:"runId"`
	}

	runStatusResponse struct {
		Status      string `json:"status"` // pending | processing | ready | failed
		DownloadURL string `json:"downloadUrl"`
		Error       string `json:"error"`
	}
)

func (c *Client) login(ctx context.Context) (string, error) {
	c.report(status.StageLoggingIn, "authenticating")

	body, _ := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})

	var lastErr error
	for attempt := 1; attempt <= loginAttempts; attempt++ {
		var resp loginResponse
		code, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/session", "", bytes.NewReader(body), &resp)
		switch {
		case err != nil:
			lastErr = err
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			// Bad credentials will not get better with retries.
			return "", fmt.Errorf("%w: login rejected (status %d)", source.ErrSourceUnavailable, code)
		case code != http.StatusOK:
			lastErr = fmt.Errorf("login status %d", code)
		case resp.Token == "":
			lastErr = errors.New("login response missing token")
		default:
			return resp.Token, nil
		}

		slog.WarnContext(ctx, "Portal login attempt failed",
			"attempt", attempt, "error", lastErr)
		if attempt == loginAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", source.ErrSourceUnavailable, ctx.Err())
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return "", fmt.Errorf("%w: %v", source.ErrSourceUnavailable, lastErr)
}

func (c *Client) requestExport(ctx context.Context, token string, req source.ReportRequest) (string, error) {
	payload, _ := json.Marshal(exportRequest{
		StoreID:   req.StoreID,
		StartDate: req.Start.Format("2006-01-02"),
		EndDate:   req.End.Format("2006-01-02"),
		Report:    "order-details",
	})

	var resp exportResponse
	code, err := c.doJSON(ctx, http.MethodPost, c.baseURL+"/api/reports/orders", token, bytes.NewReader(payload), &resp)
	if err != nil {
		return "", fmt.Errorf("%w: request export: %v", source.ErrSourceUnavailable, err)
	}
	if code != http.StatusOK && code != http.StatusAccepted {
		return "", fmt.Errorf("%w: export request status %d", source.ErrExportFailed, code)
	}
	if resp.RunID == "" {
		return "", fmt.Errorf("%w: export response missing run id", source.ErrExportFailed)
	}
	return resp.RunID, nil
}

func (c *Client) waitForArtifact(ctx context.Context, token, runID string) (string, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		var resp runStatusResponse
		code, err := c.doJSON(ctx, http.MethodGet, c.baseURL+"/api/reports/orders/"+runID, token, nil, &resp)
		if err == nil && code == http.StatusOK {
			switch resp.Status {
			case "ready":
				if resp.DownloadURL == "" {
					return "", fmt.Errorf("%w: run %s ready without download url", source.ErrExportFailed, runID)
				}
				return resp.DownloadURL, nil
			case "failed":
				return "", fmt.Errorf("%w: run %s: %s", source.ErrExportFailed, runID, resp.Error)
			}
			// pending/processing: keep polling
		} else if err != nil {
			slog.WarnContext(ctx, "Export poll failed", "run_id", runID, "error", err)
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("%w: no artifact within deadline for run %s", source.ErrExportFailed, runID)
		case <-ticker.C:
		}
	}
}

func (c *Client) download(ctx context.Context, token, url string) ([]byte, string, error) {
	if !strings.HasPrefix(url, "http") {
		url = c.baseURL + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", source.ErrExportFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: download: %v", source.ErrExportFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: download status %d", source.ErrExportFailed, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: read artifact: %v", source.ErrExportFailed, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func decodeArtifact(data []byte, contentType, url string) ([]core.OrderRecord, error) {
	isXLSX := strings.Contains(contentType, "spreadsheetml") ||
		strings.Contains(contentType, "ms-excel") ||
		strings.HasSuffix(strings.ToLower(url), ".xlsx")
	if isXLSX {
		return source.DecodeXLSX(bytes.NewReader(data))
	}
	return source.DecodeCSV(bytes.NewReader(data))
}

// doJSON performs a request and decodes a JSON body into out when the
// response has one. Returns the HTTP status code.
func (c *Client) doJSON(ctx context.Context, method, url, token string, body io.Reader, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) report(stage, message string) {
	if c.onStatus != nil {
		c.onStatus(stage, message)
	}
}
