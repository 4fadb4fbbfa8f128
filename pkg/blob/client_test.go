package blob

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/northbay-wholesale/storefront/pkg/config"
)

func newTestClient(t *testing.T, account, sas string) *Client {
	t.Helper()
	client, err := NewClient(config.BlobConfig{
		AccountURL:     account,
		ReadSASToken:   sas,
		RequestTimeout: 2 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestGetJSONSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/products.json" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.URL.RawQuery != "sv=2024&sig=abc" {
			t.Errorf("expected SAS query, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"p1"},{"id":"p2"}]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, "sv=2024&sig=abc")

	var out []map[string]string
	if err := client.GetJSON(context.Background(), "data", "products.json", &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if len(out) != 2 || out[0]["id"] != "p1" {
		t.Fatalf("unexpected payload %v", out)
	}
}

func TestGetJSONNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, "")

	var out []map[string]string
	err := client.GetJSON(context.Background(), "data", "products.json", &out)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetJSONServerErrorIsTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, "")

	var out []map[string]string
	err := client.GetJSON(context.Background(), "data", "products.json", &out)

	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if transport.StatusCode() != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", transport.StatusCode())
	}
}

func TestPutJSONSendsBearerAndBlobHeaders(t *testing.T) {
	t.Parallel()

	var gotAuth, gotType, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("unexpected method %s", r.Method)
		}
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("x-ms-blob-type")
		gotVersion = r.Header.Get("x-ms-version")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, "")

	err := client.PutJSON(context.Background(), "data", "products.json", []string{"x"}, "tok-123")
	if err != nil {
		t.Fatalf("PutJSON: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotType != "BlockBlob" || gotVersion == "" {
		t.Fatalf("blob headers missing: type=%q version=%q", gotType, gotVersion)
	}
}

func TestPutJSONUnauthorizedSurfacesStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no role", http.StatusForbidden)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, "")

	err := client.PutJSON(context.Background(), "data", "products.json", []string{"x"}, "")
	var transport *TransportError
	if !errors.As(err, &transport) || transport.StatusCode() != http.StatusForbidden {
		t.Fatalf("expected 403 transport error, got %v", err)
	}
}

func TestDeleteToleratesNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, "")

	if err := client.Delete(context.Background(), "images", "gone.png", "tok"); err != nil {
		t.Fatalf("expected 404 delete to succeed, got %v", err)
	}
}

func TestReadURL(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "https://acct.blob.example.net", "sv=2024&sig=abc")

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{name: "empty", ref: "", want: ""},
		{name: "external URL untouched", ref: "https://upload.wikimedia.org/logo.png", want: "https://upload.wikimedia.org/logo.png"},
		{name: "account URL gets SAS", ref: "https://acct.blob.example.net/images/a.png", want: "https://acct.blob.example.net/images/a.png?sv=2024&sig=abc"},
		{name: "account URL with query appends", ref: "https://acct.blob.example.net/images/a.png?x=1", want: "https://acct.blob.example.net/images/a.png?x=1&sv=2024&sig=abc"},
		{name: "relative path resolved", ref: "images/a.png", want: "https://acct.blob.example.net/images/a.png?sv=2024&sig=abc"},
	}

	for _, tt := range tests {
		if got := client.ReadURL(tt.ref); got != tt.want {
			t.Fatalf("%s: got %q want %q", tt.name, got, tt.want)
		}
	}
}

func TestReadURLWithoutSAS(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "https://acct.blob.example.net", "")
	if got := client.ReadURL("images/a.png"); strings.Contains(got, "?") {
		t.Fatalf("no SAS configured, got %q", got)
	}
}
