package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rafaelduarte/charges/internal/infrastructure/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordsRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics("test", reg)

	r := chi.NewRouter()
	r.Use(Metrics(metrics))
	r.Get("/api/v1/charges/{id}", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	req := httptest.NewRequest("GET", "/api/v1/charges/abc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	var foundRequestsTotal, foundDuration bool
	for _, mf := range metricFamilies {
		switch *mf.Name {
		case "test_http_requests_total":
			foundRequestsTotal = true
			require.NotEmpty(t, mf.Metric)
			// The label must be the route pattern, not the raw path.
			for _, label := range mf.Metric[0].Label {
				if *label.Name == "path" {
					assert.Equal(t, "/api/v1/charges/{id}", *label.Value)
				}
			}
		case "test_http_request_duration_seconds":
			foundDuration = true
		}
	}

	assert.True(t, foundRequestsTotal, "http_requests_total should be recorded")
	assert.True(t, foundDuration, "http_request_duration should be recorded")
}

func TestMetrics_RecordsStatusCodes(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusCreated, http.StatusNotFound, http.StatusInternalServerError} {
		t.Run(strconv.Itoa(status), func(t *testing.T) {
			reg := prometheus.NewRegistry()
			metrics := observability.NewMetrics("test", reg)

			r := chi.NewRouter()
			r.Use(Metrics(metrics))
			r.Get("/test", func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(status)
			})

			req := httptest.NewRequest("GET", "/test", nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			metricFamilies, err := reg.Gather()
			require.NoError(t, err)

			var found bool
			for _, mf := range metricFamilies {
				if *mf.Name != "test_http_requests_total" {
					continue
				}
				for _, m := range mf.Metric {
					for _, label := range m.Label {
						if *label.Name == "status" && *label.Value == strconv.Itoa(status) {
							found = true
						}
					}
				}
			}
			assert.True(t, found, "status %d should be labeled", status)
		})
	}
}
