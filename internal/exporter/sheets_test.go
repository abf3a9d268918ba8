package exporter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"ridership/internal/config"
	"ridership/pkg/contracts/domain"
)

type fakeSheets struct {
	mu       sync.Mutex
	tabs     []string
	added    []string
	updates  map[string][][]interface{}
	failPuts bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet:
		type props struct {
			Title string `json:"title"`
		}
		type sheet struct {
			Properties props `json:"properties"`
		}
		var body struct {
			Sheets []sheet `json:"sheets"`
		}
		for _, t := range f.tabs {
			body.Sheets = append(body.Sheets, sheet{Properties: props{Title: t}})
		}
		_ = json.NewEncoder(w).Encode(body)

	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":batchUpdate"):
		var req struct {
			Requests []struct {
				AddSheet struct {
					Properties struct {
						Title string `json:"title"`
					} `json:"properties"`
				} `json:"addSheet"`
			} `json:"requests"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			f.tabs = append(f.tabs, rq.AddSheet.Properties.Title)
			f.added = append(f.added, rq.AddSheet.Properties.Title)
		}
		_, _ = io.WriteString(w, "{}")

	case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/values/"):
		if f.failPuts {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"error":{"code":403,"message":"forbidden"}}`)
			return
		}
		var vr struct {
			Values [][]interface{} `json:"values"`
		}
		_ = json.NewDecoder(r.Body).Decode(&vr)
		rng := r.URL.Path[strings.Index(r.URL.Path, "/values/")+len("/values/"):]
		f.updates[rng] = vr.Values
		_, _ = io.WriteString(w, "{}")

	default:
		http.NotFound(w, r)
	}
}

func newTestPublisher(t *testing.T, fake *fakeSheets) *SheetsPublisher {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	p, err := NewSheetsPublisher(context.Background(),
		config.SheetsConfig{Enabled: true, SpreadsheetID: "sheet-id"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	return p
}

func testResult() domain.StationResult {
	return domain.StationResult{
		Station:      "addison",
		FitIntercept: true,
		Intercept:    1500,
		Coefficients: []domain.Coefficient{
			{Feature: "temperature", Weight: 10},
			{Feature: "cubs_sat", Weight: 0.01},
		},
	}
}

func TestPublishCoefficientsCreatesTab(t *testing.T) {
	fake := &fakeSheets{tabs: []string{"Sheet1"}, updates: map[string][][]interface{}{}}
	p := newTestPublisher(t, fake)

	require.NoError(t, p.PublishCoefficients(context.Background(), testResult()))

	assert.Equal(t, []string{"addison"}, fake.added)
	require.Len(t, fake.updates, 1)
	for rng, values := range fake.updates {
		assert.Contains(t, rng, "addison")
		require.Len(t, values, 4)
		assert.Equal(t, []interface{}{"Feature", "Coefficient"}, values[0])
		assert.Equal(t, []interface{}{"intercept", float64(1500)}, values[1])
		assert.Equal(t, "cubs_sat", values[3][0])
	}
}

func TestPublishCoefficientsReusesTab(t *testing.T) {
	fake := &fakeSheets{tabs: []string{"addison"}, updates: map[string][][]interface{}{}}
	p := newTestPublisher(t, fake)

	require.NoError(t, p.PublishCoefficients(context.Background(), testResult()))
	assert.Empty(t, fake.added)
	assert.Len(t, fake.updates, 1)
}

func TestPublishCoefficientsUpdateError(t *testing.T) {
	fake := &fakeSheets{tabs: []string{"addison"}, updates: map[string][][]interface{}{}, failPuts: true}
	p := newTestPublisher(t, fake)

	err := p.PublishCoefficients(context.Background(), testResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update")
}

func TestNewSheetsPublisherRequiresSpreadsheet(t *testing.T) {
	_, err := NewSheetsPublisher(context.Background(), config.SheetsConfig{}, nil)
	assert.Error(t, err)
}

func TestSheetRange(t *testing.T) {
	assert.Equal(t, "'addison'!A1", sheetRange("addison", "A1"))
	assert.Equal(t, "'o''hare'!A1", sheetRange("o'hare", "A1"))
}
