package httpretry

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetriesOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rc := NewRetryClient(srv.Client(), 3).WithDelays(time.Millisecond, 5*time.Millisecond)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := rc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestDoesNotRetryClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	rc := NewRetryClient(srv.Client(), 3).WithDelays(time.Millisecond, 5*time.Millisecond)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := rc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestReturnsFinalResponseAfterExhaustion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rc := NewRetryClient(srv.Client(), 2).WithDelays(time.Millisecond, 5*time.Millisecond)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := rc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestParseRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	assert.Equal(t, time.Duration(0), parseRetryAfter(resp))

	resp.Header.Set("Retry-After", "2")
	assert.Equal(t, 2*time.Second, parseRetryAfter(resp))

	resp.Header.Set("Retry-After", "900")
	assert.Equal(t, time.Minute, parseRetryAfter(resp))

	resp.Header.Set("Retry-After", "soon")
	assert.Equal(t, time.Duration(0), parseRetryAfter(resp))
}
