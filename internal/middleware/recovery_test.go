package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/2beens/coachai/internal/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPanicRecovery(t *testing.T) {
	testCases := []struct {
		name           string
		panics         bool
		expectedStatus int
		expectedBody   string
		expectedPanics float64
	}{
		{
			name:           "NoPanic",
			expectedStatus: http.StatusOK,
			expectedBody:   "fine",
		},
		{
			name:           "Panic",
			panics:         true,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"internal error"}`,
			expectedPanics: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			metricsManager := metrics.NewTestManager()
			next := &panicRecTestHandler{panic: tc.panics}

			rr := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/profile", nil)
			PanicRecovery(metricsManager)(next).ServeHTTP(rr, req)

			assert.True(t, next.called)
			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, tc.expectedBody, rr.Body.String())
			assert.Equal(t, tc.expectedPanics, testutil.ToFloat64(metricsManager.CounterHandleRequestPanic))
		})
	}
}

func TestPanicRecovery_AbortHandlerPropagates(t *testing.T) {
	handler := PanicRecovery(metrics.NewTestManager())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/report", nil))
	})
}

type panicRecTestHandler struct {
	panic  bool
	called bool
}

func (p *panicRecTestHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	p.called = true
	if p.panic {
		panic("streak overflow")
	}
	_, _ = w.Write([]byte("fine"))
}
