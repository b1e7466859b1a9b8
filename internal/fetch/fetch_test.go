package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestDownloadRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("<catalog/>"))
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "docs", "catalog.xml")
	client := NewClient(5*time.Second, 100)
	if err := client.Download(context.Background(), srv.URL, out); err != nil {
		t.Fatalf("download: %v", err)
	}

	body, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != "<catalog/>" {
		t.Fatalf("body: %q", body)
	}
	if calls.Load() != 2 {
		t.Fatalf("calls: %d", calls.Load())
	}
}

func TestDownloadGivesUpOnClientError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(5*time.Second, 100)
	err := client.Download(context.Background(), srv.URL, filepath.Join(t.TempDir(), "x.xml"))
	if err == nil {
		t.Fatalf("expected error")
	}
}
