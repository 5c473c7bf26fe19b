package publish

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "deploy_config.json")
	if err := os.WriteFile(path, []byte(`{"github_token":"ghp_test","repo":"user/site"}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Token != "ghp_test" || cfg.Repo != "user/site" {
		t.Errorf("config = %+v", cfg)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatal("expected error for absent credential file")
	}
}

func TestLoadConfigIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy_config.json")
	os.WriteFile(path, []byte(`{"github_token":"ghp_test"}`), 0o600)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for config without repo")
	}
}

type fakeGitHub struct {
	existing map[string]string // name -> sha
	uploads  map[string][]byte
	deletes  []string
}

func (g *fakeGitHub) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		base := "/repos/user/site/contents"
		switch {
		case r.Method == http.MethodGet && r.URL.Path == base:
			var entries []map[string]string
			for name, sha := range g.existing {
				entries = append(entries, map[string]string{"name": name, "sha": sha})
			}
			json.NewEncoder(w).Encode(entries)

		case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, base+"/"):
			name := strings.TrimPrefix(r.URL.Path, base+"/")
			var body struct {
				Content string `json:"content"`
				SHA     string `json:"sha"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if prior, ok := g.existing[name]; ok && body.SHA != prior {
				t.Errorf("update of %s without prior sha (got %q)", name, body.SHA)
			}
			data, err := base64.StdEncoding.DecodeString(body.Content)
			if err != nil {
				t.Errorf("upload of %s not base64: %v", name, err)
			}
			g.uploads[name] = data
			status := http.StatusCreated
			if _, ok := g.existing[name]; ok {
				status = http.StatusOK
			}
			w.WriteHeader(status)
			fmt.Fprint(w, "{}")

		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, base+"/"):
			g.deletes = append(g.deletes, strings.TrimPrefix(r.URL.Path, base+"/"))
			fmt.Fprint(w, "{}")

		default:
			http.NotFound(w, r)
		}
	})
}

func TestSync(t *testing.T) {
	gh := &fakeGitHub{
		existing: map[string]string{
			"index.html":                 "sha-index",
			"scatter_東京11R_古い重賞.html": "sha-old",
			"README.md":                  "sha-readme",
		},
		uploads: map[string][]byte{},
	}
	srv := httptest.NewServer(gh.handler(t))
	defer srv.Close()

	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>index</html>"), 0o644)
	os.WriteFile(filepath.Join(dir, "scatter_東京11R_東京新聞杯.html"), []byte("<html>race</html>"), 0o644)
	os.WriteFile(filepath.Join(dir, "scatter_東京11R_東京新聞杯_og.png"), []byte{0x89, 0x50}, 0o644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an artifact"), 0o644)

	p := New(Config{Token: "ghp_test", Repo: "user/site"})
	p.client.SetBaseURL(srv.URL)
	p.delay = 0

	if err := p.Sync(context.Background(), dir, "02/15"); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	if len(gh.uploads) != 3 {
		t.Errorf("uploaded %d files, want 3: %v", len(gh.uploads), gh.uploads)
	}
	if string(gh.uploads["index.html"]) != "<html>index</html>" {
		t.Errorf("index content round trip failed")
	}
	if _, ok := gh.uploads["notes.txt"]; ok {
		t.Error("non-artifact file uploaded")
	}

	if len(gh.deletes) != 1 || gh.deletes[0] != "scatter_東京11R_古い重賞.html" {
		t.Errorf("deletes = %v, want only the stale artifact", gh.deletes)
	}
}

func TestPagesURL(t *testing.T) {
	p := New(Config{Token: "t", Repo: "user/site"})
	if got := p.PagesURL(); got != "https://user.github.io/site/" {
		t.Errorf("PagesURL = %q", got)
	}
}
