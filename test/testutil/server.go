package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"sync"
	"testing"
)

// Repo is a package repository served over HTTP from a temporary directory.
type Repo struct {
	Dir    string
	URL    string
	server *httptest.Server

	mu       sync.Mutex
	requests map[string]int
}

// NewRepo starts a repository server that is shut down when the test ends.
func NewRepo(t *testing.T) *Repo {
	t.Helper()

	r := &Repo{
		Dir:      t.TempDir(),
		requests: make(map[string]int),
	}
	files := http.FileServer(http.Dir(r.Dir))
	r.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.requests[path.Base(req.URL.Path)]++
		r.mu.Unlock()
		files.ServeHTTP(w, req)
	}))
	r.URL = r.server.URL + "/"
	t.Cleanup(r.server.Close)
	return r
}

// Publish writes the archive of p into the repository.
func (r *Repo) Publish(t *testing.T, p Package) {
	t.Helper()
	WriteTarGz(t, filepath.Join(r.Dir, p.Name+".tar.gz"), p.Entries())
}

// PublishFile writes an arbitrary file into the repository.
func (r *Repo) PublishFile(t *testing.T, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(r.Dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("publish %s: %v", name, err)
	}
}

// Requests returns how often name was requested.
func (r *Repo) Requests(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[name]
}
