package service

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthEndpoint(t *testing.T) {
	s := NewServer(1, 100, 100, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEvaluateEndpointReturnsChosenInterval(t *testing.T) {
	s := NewServer(1, 100, 100, nil)
	body := evaluateRequest{
		StrategyID: "alpha-mr-1",
		Returns:    []float64{0.01, -0.02, 0.015, 0.003, -0.005, 0.02, 0.008, -0.01, 0.012, 0.004, 0.006, -0.003, 0.018, 0.009, -0.007, 0.011, 0.002, -0.004, 0.013, 0.007},
		Statistic:  "mean",
		CL:         0.9,
		BOuter:     600,
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/confidence-interval", bytes.NewReader(raw))
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	var resp evaluateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ChosenMethod)
	assert.Less(t, resp.Lower, resp.Upper)
}

func TestEvaluateEndpointRejectsTooFewObservations(t *testing.T) {
	s := NewServer(1, 100, 100, nil)
	body := evaluateRequest{Returns: []float64{0.01}}
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/v1/confidence-interval", bytes.NewReader(raw))
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluateEndpointAnnualizesWhenRequested(t *testing.T) {
	s := NewServer(1, 100, 100, nil)
	body := evaluateRequest{
		StrategyID: "alpha-mr-1",
		Returns:    []float64{0.01, -0.02, 0.015, 0.003, -0.005, 0.02, 0.008, -0.01, 0.012, 0.004, 0.006, -0.003, 0.018, 0.009, -0.007, 0.011, 0.002, -0.004, 0.013, 0.007},
		Statistic:  "mean",
		CL:         0.9,
		BOuter:     600,
		Annualize:  true,
		Timeframe:  "monthly",
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/confidence-interval", bytes.NewReader(raw))
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp evaluateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Annualized)
	assert.Less(t, resp.Annualized.Lower, resp.Annualized.Upper)
}

func TestEvaluateEndpointFlagsHeavyTailedSmallSample(t *testing.T) {
	s := NewServer(1, 100, 100, nil)
	body := evaluateRequest{
		StrategyID: "alpha-mr-2",
		Returns:    []float64{0.001, 0.002, -0.001, 0.0005, 0.0015, 0.001, -0.0005, 0.002, 0.001, 0.25},
		Statistic:  "mean",
		CL:         0.9,
		BOuter:     600,
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/confidence-interval", bytes.NewReader(raw))
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp evaluateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.HeavyTailed)
	assert.Less(t, resp.Lower, resp.Upper)
}

func TestEvaluateEndpointRejectsUnknownTimeframe(t *testing.T) {
	s := NewServer(1, 100, 100, nil)
	body := evaluateRequest{
		StrategyID: "alpha-mr-1",
		Returns:    []float64{0.01, -0.02, 0.015, 0.003, -0.005, 0.02, 0.008, -0.01, 0.012, 0.004, 0.006, -0.003, 0.018, 0.009, -0.007, 0.011, 0.002, -0.004, 0.013, 0.007},
		BOuter:     600,
		Annualize:  true,
		Timeframe:  "fortnightly",
	}
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, "/v1/confidence-interval", bytes.NewReader(raw))
	req.RemoteAddr = "127.0.0.1:1234"
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitExceeded(t *testing.T) {
	s := NewServer(1, 1, 1, nil)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:9999"
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		if i == 1 {
			assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		}
	}
}
