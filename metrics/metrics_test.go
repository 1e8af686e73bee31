package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveLookup_CountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(lookups.WithLabelValues(OutcomeNotFound))

	ObserveLookup(OutcomeNotFound, 3*time.Millisecond)
	ObserveLookup(OutcomeNotFound, 5*time.Millisecond)

	if got := testutil.ToFloat64(lookups.WithLabelValues(OutcomeNotFound)) - before; got != 2 {
		t.Fatalf("expected 2 not_found lookups recorded, got %v", got)
	}
}

func TestInstrumentHandler_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler)
	r.Get("/api/applications/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	counter := httpRequests.WithLabelValues(http.MethodGet, "/api/applications/{id}", "404")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodGet, "/api/applications/RCT-000-000-0000", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Fatalf("expected one request counted under the route pattern, got %v", got)
	}
}

func TestHandler_ExposesLookupMetrics(t *testing.T) {
	ObserveLookup(OutcomeFound, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, `statuslookup_lookup_total{outcome="found"}`) {
		t.Fatalf("expected lookup counter in exposition, got:\n%s", body)
	}
}
