package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"reconflow/internal/platform/errors"
	"reconflow/internal/testutil"
)

func newClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := New(cfg, nil)
	testutil.AssertNoError(t, err, "New")
	return c
}

func TestNew_Defaults(t *testing.T) {
	c := newClient(t, Config{})
	testutil.AssertEqual(t, c.config.Timeout, 10*time.Second, "default timeout")
	testutil.AssertEqual(t, c.config.MaxRetries, 0, "no retries by default")
	testutil.AssertContains(t, c.config.UserAgent, "reconflow", "user agent")

	_, err := New(Config{ProxyURL: "::bad"}, nil)
	testutil.AssertErrorIs(t, err, errors.ErrInvalidInput, "bad proxy")
}

func TestClient_GetWithParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.URL.Query().Get("q"), "example.com", "query param")
		testutil.AssertContains(t, r.UserAgent(), "reconflow", "user agent header")
		w.Header().Set("X-Test", "1")
		io.WriteString(w, "hello")
	}))
	defer server.Close()

	resp, err := newClient(t, Config{}).Get(context.Background(), server.URL+"/getData.php", map[string]string{"q": "example.com"})
	testutil.AssertNoError(t, err, "Get")
	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK, "status")
	testutil.AssertEqual(t, resp.Text(), "hello", "body")
	testutil.AssertEqual(t, resp.Header.Get("X-Test"), "1", "header")
	testutil.AssertNoError(t, CheckStatus(resp), "2xx ok")
}

func TestClient_Post(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		testutil.AssertEqual(t, r.Method, http.MethodPost, "method")
		testutil.AssertEqual(t, string(body), "a=1", "body")
		testutil.AssertEqual(t, r.Header.Get("Content-Type"), "application/x-www-form-urlencoded", "content type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	resp, err := newClient(t, Config{}).Post(context.Background(), server.URL, "a=1",
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"})
	testutil.AssertNoError(t, err, "Post")
	testutil.AssertEqual(t, resp.StatusCode, http.StatusCreated, "status")
}

func TestClient_Retry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer server.Close()

	resp, err := newClient(t, Config{MaxRetries: 3, RetryBackoff: time.Millisecond}).Get(context.Background(), server.URL, nil)
	testutil.AssertNoError(t, err, "eventually succeeds")
	testutil.AssertEqual(t, resp.Text(), "ok", "body")
	testutil.AssertEqual(t, calls.Load(), int32(3), "three attempts")
}

func TestClient_NoRetryReturnsStatus(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	resp, err := newClient(t, Config{}).Get(context.Background(), server.URL, nil)
	testutil.AssertNoError(t, err, "status is not a transport error")
	testutil.AssertEqual(t, calls.Load(), int32(1), "single attempt")
	testutil.AssertErrorIs(t, CheckStatus(resp), errors.ErrRateLimit, "429 mapped")
}

func TestClient_ConnectionFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	_, err := newClient(t, Config{}).Get(context.Background(), addr, nil)
	testutil.AssertErrorIs(t, err, errors.ErrConnectionFailed, "closed server")
}

func TestClient_NoRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/next", http.StatusFound)
			return
		}
		io.WriteString(w, "next")
	}))
	defer server.Close()

	resp, err := newClient(t, Config{NoRedirects: true}).Get(context.Background(), server.URL+"/", nil)
	testutil.AssertNoError(t, err, "Get")
	testutil.AssertEqual(t, resp.StatusCode, http.StatusFound, "redirect not followed")

	resp, err = newClient(t, Config{}).Get(context.Background(), server.URL+"/", nil)
	testutil.AssertNoError(t, err, "Get")
	testutil.AssertEqual(t, resp.Text(), "next", "redirect followed")
}

func TestClient_InvalidURL(t *testing.T) {
	_, err := newClient(t, Config{}).Get(context.Background(), "not a url", nil)
	testutil.AssertErrorIs(t, err, errors.ErrInvalidInput, "invalid url")
}
