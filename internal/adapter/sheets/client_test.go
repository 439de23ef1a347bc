package sheets

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/site-cluster-map/internal/config"
	"github.com/couchcryptid/site-cluster-map/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recordsPayload = `/*O_o*/
google.visualization.Query.setResponse({"version":"0.6","reqId":"0","status":"ok","table":{"cols":[],"rows":[
{"c":[{"v":"ID"},{"v":"Site"},{"v":"Category"},{"v":"Subcategory"}]},
{"c":[{"v":1.0,"f":"1"},{"v":"Kiruna"},{"v":"Fire"},{"v":"Brush"}]},
{"c":[{"v":2.0,"f":"2"},{"v":"Various"},{"v":"Flood"},null]}
]}});`

const sitesPayload = `/*O_o*/
google.visualization.Query.setResponse({"version":"0.6","status":"ok","table":{"rows":[
{"c":[{"v":"Kiruna"},{"v":67.8558},{"v":20.2251}]},
{"c":[{"v":"Lund"},{"v":"55.70"},{"v":"13.19"}]},
{"c":[{"v":"Abisko"},null,null]},
{"c":[null,{"v":1},{"v":2}]}
]}});`

func ptr(f float64) *float64 { return &f }

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sheet-id/gviz/tq", r.URL.Path)
		assert.Equal(t, "out:json", r.URL.Query().Get("tqx"))
		switch r.URL.Query().Get("sheet") {
		case "":
			_, _ = w.Write([]byte(recordsPayload))
		case "Sheet2":
			_, _ = w.Write([]byte(sitesPayload))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func testClient(baseURL string) *Client {
	return NewClient(&config.Config{
		SheetsBaseURL:       baseURL + "/",
		SheetsSpreadsheetID: "sheet-id",
		SheetsSitesSheet:    "Sheet2",
		SheetsTimeout:       5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_FetchRecords(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	records, err := testClient(srv.URL).FetchRecords(context.Background())
	require.NoError(t, err)

	want := []domain.Record{
		{Row: 1, Cells: []string{"1", "Kiruna", "Fire", "Brush"}},
		{Row: 2, Cells: []string{"2", "Various", "Flood", ""}},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_FetchSites(t *testing.T) {
	srv := testServer(t)
	defer srv.Close()

	sites, err := testClient(srv.URL).FetchSites(context.Background())
	require.NoError(t, err)

	want := []domain.SiteRow{
		{Name: "Kiruna", Lat: ptr(67.8558), Lon: ptr(20.2251)},
		{Name: "Lund", Lat: ptr(55.70), Lon: ptr(13.19)},
		{Name: "Abisko"},
	}
	if diff := cmp.Diff(want, sites); diff != "" {
		t.Fatalf("sites mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("private sheet"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchRecords(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "records sheet")
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		rows    int
		wantErr error
	}{
		{name: "wrapped", body: `x({"status":"ok","table":{"rows":[{"c":[]}]}});`, rows: 1},
		{name: "no wrapper", body: `{"status":"ok"}`, wantErr: ErrMalformedResponse},
		{name: "bad json", body: `x({"status":);`, wantErr: ErrMalformedResponse},
		{name: "query error", body: `x({"status":"error","errors":[{"reason":"invalid_query","message":"bad sheet"}]});`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := parseResponse([]byte(tt.body))
			switch {
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			case tt.rows == 0:
				require.Error(t, err)
				assert.Contains(t, err.Error(), "bad sheet")
			default:
				require.NoError(t, err)
				assert.Len(t, tbl.Rows, tt.rows)
			}
		})
	}
}

func TestCellText(t *testing.T) {
	assert.Empty(t, (*cell)(nil).text())
	assert.Equal(t, "3", (&cell{V: 3.0}).text())
	assert.Equal(t, "2.5", (&cell{V: 2.5}).text())
	assert.Equal(t, "true", (&cell{V: true}).text())
	assert.Nil(t, (&cell{V: "north"}).number())
}

func TestCellNumber_RejectsNonFinite(t *testing.T) {
	assert.Equal(t, ptr(55.7), (&cell{V: " 55.7 "}).number())
	assert.Nil(t, (&cell{V: "NaN"}).number())
	assert.Nil(t, (&cell{V: "+Inf"}).number())
	assert.Nil(t, (&cell{V: math.Inf(-1)}).number())
	assert.Nil(t, (*cell)(nil).number())
}
