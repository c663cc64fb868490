package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(webhookCallsTotal.WithLabelValues("ad"))
	IncWebhookCalls("ad")
	if got := testutil.ToFloat64(webhookCallsTotal.WithLabelValues("ad")); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}

	errsBefore := testutil.ToFloat64(appErrorsTotal)
	ObserveHTTP(http.MethodGet, "/api/v1/health", http.StatusOK)
	ObserveHTTP(http.MethodGet, "/api/v1/health", http.StatusInternalServerError)
	if got := testutil.ToFloat64(appErrorsTotal); got != errsBefore+1 {
		t.Fatalf("expected one app error, got %v", got-errsBefore)
	}
}

func TestHandlerRendersRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)
	IncUploads()

	r := gin.New()
	r.GET("/metrics", Handler())
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "upload_requests_total") {
		t.Fatalf("expected upload_requests_total in output")
	}
}
