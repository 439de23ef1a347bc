// Package csvfile reads the record and site tables from local CSV files.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/site-cluster-map/internal/domain"
)

// Source reads a records file with a header row and a headerless sites file
// of (name, lat, lon). Files are re-read on every fetch so reloads pick up
// edits.
type Source struct {
	recordsPath string
	sitesPath   string
}

// NewSource creates a CSV source for the two files.
func NewSource(recordsPath, sitesPath string) *Source {
	return &Source{recordsPath: recordsPath, sitesPath: sitesPath}
}

// FetchRecords implements pipeline.RecordSource.
func (s *Source) FetchRecords(ctx context.Context) ([]domain.Record, error) {
	rows, err := readAll(ctx, s.recordsPath)
	if err != nil {
		return nil, fmt.Errorf("read records %s: %w", s.recordsPath, err)
	}
	return ParseRecords(rows), nil
}

// FetchSites implements pipeline.SiteSource.
func (s *Source) FetchSites(ctx context.Context) ([]domain.SiteRow, error) {
	rows, err := readAll(ctx, s.sitesPath)
	if err != nil {
		return nil, fmt.Errorf("read sites %s: %w", s.sitesPath, err)
	}
	return ParseSites(rows), nil
}

// ParseRecords drops the header row and keeps the rest in order.
func ParseRecords(rows [][]string) []domain.Record {
	if len(rows) <= 1 {
		return nil
	}
	records := make([]domain.Record, 0, len(rows)-1)
	for i, cells := range rows[1:] {
		records = append(records, domain.Record{Row: i + 1, Cells: cells})
	}
	return records
}

// ParseSites converts (name, lat, lon) rows. Blank, unparsable, or non-finite
// coordinates leave the row unresolved; rows without a name are dropped.
func ParseSites(rows [][]string) []domain.SiteRow {
	sites := make([]domain.SiteRow, 0, len(rows))
	for _, cells := range rows {
		if len(cells) == 0 || strings.TrimSpace(cells[0]) == "" {
			continue
		}
		site := domain.SiteRow{Name: strings.TrimSpace(cells[0])}
		if len(cells) > 2 {
			site.Lat = parseCoord(cells[1])
			site.Lon = parseCoord(cells[2])
		}
		sites = append(sites, site)
	}
	return sites
}

func parseCoord(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

func readAll(ctx context.Context, path string) ([][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, rec)
	}
}
