package httpc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientGetSendsHeadersAndParams(t *testing.T) {
	var gotQuery, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotHeader = r.Header.Get("X-Test")
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c, err := New(WithClientHeader("X-Test", "present"))
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.Get(context.Background(), srv.URL, WithQuery("q", "1"))
	require.NoError(t, err)
	assert.Equal(t, "q=1", gotQuery)
	assert.Equal(t, "present", gotHeader)
	assert.Equal(t, "ok", string(resp.Body))
}

func TestClientRequestHeaderOverridesClientDefault(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Test")
	}))
	defer srv.Close()

	c, err := New(WithClientHeader("X-Test", "client"))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(context.Background(), srv.URL, WithHeader("X-Test", "request"))
	require.NoError(t, err)
	assert.Equal(t, "request", got)
}

func TestClientJSONBodyRoundTrip(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c, err := New()
	require.NoError(t, err)
	defer c.Close()

	resp, err := c.Post(context.Background(), srv.URL, WithJSONBody(map[string]any{"a": 1}))
	require.NoError(t, err)
	assert.Equal(t, "application/json", got)

	v, err := resp.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, v)
}

func TestClientAssignsRequestIDWhenMissing(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-Id")
	}))
	defer srv.Close()

	c, err := New()
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestOneShotGetReturnsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("one-shot"))
	}))
	defer srv.Close()

	resp, err := Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "one-shot", string(resp.Body))
}

func TestClientHeadersMutationAffectsNextRequest(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-New")
	}))
	defer srv.Close()

	c, err := New()
	require.NoError(t, err)
	defer c.Close()

	h := c.Headers()
	h.Set("X-New", "v")

	_, err = c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestRefererSentOnRedirect(t *testing.T) {
	var gotReferer string
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New()
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/start", gotReferer)
}

func TestRefererOmittedWhenDisabled(t *testing.T) {
	var gotReferer string
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		gotReferer = r.Header.Get("Referer")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c, err := New(WithReferer(false))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(context.Background(), srv.URL+"/start")
	require.NoError(t, err)
	assert.Empty(t, gotReferer)
}

func TestConstructionCookiesReachAnyHostViaJar(t *testing.T) {
	var gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
	}))
	defer srv.Close()

	c, err := New(WithCookies(map[string]string{"session": "abc123"}))
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Contains(t, gotCookie, "session=abc123")
}

func TestAsyncClientGetAwait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("async"))
	}))
	defer srv.Close()

	a, err := NewAsync()
	require.NoError(t, err)
	defer a.Close()

	fut := a.Get(context.Background(), srv.URL)
	resp, err := fut.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "async", string(resp.Body))
}
