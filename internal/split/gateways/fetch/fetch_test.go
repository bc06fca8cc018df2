package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	logpkg "github.com/velden/splitgen/internal/split/common/log"
)

func TestFetchSuccess(t *testing.T) {
	var gotUA atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("example.com\n"))
	}))
	defer srv.Close()

	c := New(Options{UserAgent: "splitgen/1.0"}, logpkg.NewNoopLogger())
	body, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != "example.com\n" {
		t.Errorf("body = %q", body)
	}
	if ua := gotUA.Load(); ua != "splitgen/1.0" {
		t.Errorf("User-Agent = %v, want splitgen/1.0", ua)
	}
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := New(Options{Retries: 3}, logpkg.NewNoopLogger())
	body, err := c.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("body = %q, want ok", body)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("server calls = %d, want 3", n)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(Options{}, logpkg.NewNoopLogger())
	_, err := c.Fetch(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
	var fe *Error
	if !errors.As(err, &fe) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if fe.URL != srv.URL {
		t.Errorf("Error.URL = %q, want %q", fe.URL, srv.URL)
	}
}

func TestFetchContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := New(Options{Retries: 2}, logpkg.NewNoopLogger())
	if _, err := c.Fetch(ctx, srv.URL); err == nil {
		t.Fatal("expected error after context deadline")
	}
}
