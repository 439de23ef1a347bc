// Package sheets reads the record and site tables from a published Google
// spreadsheet through the Visualization (gviz) query endpoint.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/site-cluster-map/internal/config"
	"github.com/couchcryptid/site-cluster-map/internal/domain"
)

// ErrMalformedResponse is returned when the body is not a gviz JSONP payload.
var ErrMalformedResponse = errors.New("malformed gviz response")

// Client fetches sheets of one spreadsheet. It implements both
// pipeline.RecordSource and pipeline.SiteSource.
type Client struct {
	baseURL       string
	spreadsheetID string
	recordsSheet  string
	sitesSheet    string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewClient creates a gviz client for the configured spreadsheet.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(cfg.SheetsBaseURL, "/"),
		spreadsheetID: cfg.SheetsSpreadsheetID,
		recordsSheet:  cfg.SheetsRecordsSheet,
		sitesSheet:    cfg.SheetsSitesSheet,
		httpClient: &http.Client{
			Timeout: cfg.SheetsTimeout,
		},
		logger: logger,
	}
}

// FetchRecords reads the record sheet. The first row is the header and is
// dropped; Record.Row is the row's position in the sheet.
func (c *Client) FetchRecords(ctx context.Context) ([]domain.Record, error) {
	table, err := c.query(ctx, c.recordsSheet)
	if err != nil {
		return nil, fmt.Errorf("records sheet: %w", err)
	}
	if len(table.Rows) == 0 {
		return nil, nil
	}

	records := make([]domain.Record, 0, len(table.Rows)-1)
	for i, row := range table.Rows[1:] {
		cells := make([]string, len(row.C))
		for j, cell := range row.C {
			cells[j] = cell.text()
		}
		records = append(records, domain.Record{Row: i + 1, Cells: cells})
	}
	c.logger.Debug("records sheet fetched", "rows", len(records))
	return records, nil
}

// FetchSites reads the site sheet as (name, lat, lon) rows. Empty or
// non-numeric coordinates are left nil.
func (c *Client) FetchSites(ctx context.Context) ([]domain.SiteRow, error) {
	table, err := c.query(ctx, c.sitesSheet)
	if err != nil {
		return nil, fmt.Errorf("sites sheet: %w", err)
	}

	rows := make([]domain.SiteRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		if len(row.C) == 0 {
			continue
		}
		name := strings.TrimSpace(row.C[0].text())
		if name == "" {
			continue
		}
		site := domain.SiteRow{Name: name}
		if len(row.C) > 2 {
			site.Lat = row.C[1].number()
			site.Lon = row.C[2].number()
		}
		rows = append(rows, site)
	}
	c.logger.Debug("sites sheet fetched", "rows", len(rows))
	return rows, nil
}

func (c *Client) query(ctx context.Context, sheet string) (*table, error) {
	params := url.Values{"tqx": {"out:json"}}
	if sheet != "" {
		params.Set("sheet", sheet)
	}
	u := fmt.Sprintf("%s/%s/gviz/tq?%s", c.baseURL, url.PathEscape(c.spreadsheetID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gviz request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("gviz API error: status %d: %s", resp.StatusCode, body)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return parseResponse(body)
}

// parseResponse strips the setResponse(...) wrapper and decodes the table.
func parseResponse(body []byte) (*table, error) {
	start := bytes.IndexByte(body, '(')
	end := bytes.LastIndexByte(body, ')')
	if start < 0 || end <= start {
		return nil, ErrMalformedResponse
	}

	var r response
	if err := json.Unmarshal(body[start+1:end], &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if r.Status == "error" {
		msgs := make([]string, 0, len(r.Errors))
		for _, e := range r.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("gviz query failed: %s", strings.Join(msgs, "; "))
	}
	return &r.Table, nil
}

// gviz response types.

type response struct {
	Status string `json:"status"`
	Errors []struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	} `json:"errors"`
	Table table `json:"table"`
}

type table struct {
	Rows []row `json:"rows"`
}

type row struct {
	C []*cell `json:"c"`
}

// cell is nil for an empty spreadsheet cell.
type cell struct {
	V any `json:"v"`
}

func (c *cell) text() string {
	if c == nil {
		return ""
	}
	switch v := c.V.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

func (c *cell) number() *float64 {
	if c == nil {
		return nil
	}
	var f float64
	switch v := c.V.(type) {
	case float64:
		f = v
	case string:
		var err error
		if f, err = strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return nil
		}
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
