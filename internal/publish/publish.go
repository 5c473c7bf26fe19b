// Package publish syncs a generated output directory to a GitHub Pages
// repository through the contents API. No git involved: files are uploaded
// one by one, and remote artifacts missing locally are deleted.
package publish

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jm3hiromu30-bit/keiba-scatter/internal/metrics"
)

// Config is the deploy credential file. Its absence means publishing is
// skipped; generation output stands on its own.
type Config struct {
	Token string `json:"github_token"`
	Repo  string `json:"repo"`
}

// LoadConfig reads and validates the credential file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read deploy config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse deploy config: %w", err)
	}
	if cfg.Token == "" || cfg.Repo == "" {
		return Config{}, fmt.Errorf("deploy config missing github_token or repo")
	}
	return cfg, nil
}

type Publisher struct {
	client *resty.Client
	repo   string
	// One API operation per delay interval, per GitHub's secondary limits.
	delay time.Duration
}

func New(cfg Config) *Publisher {
	client := resty.New().
		SetBaseURL("https://api.github.com").
		SetTimeout(60 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		SetHeader("Authorization", "token "+cfg.Token).
		SetHeader("Accept", "application/vnd.github.v3+json")

	return &Publisher{
		client: client,
		repo:   cfg.Repo,
		delay:  1 * time.Second,
	}
}

type contentEntry struct {
	Name string `json:"name"`
	SHA  string `json:"sha"`
}

// listRemote maps existing artifact names to their content SHAs; updates
// and deletes both need the prior SHA.
func (p *Publisher) listRemote(ctx context.Context) (map[string]string, error) {
	var entries []contentEntry
	resp, err := p.client.R().
		SetContext(ctx).
		SetResult(&entries).
		ForceContentType("application/json").
		Get("/repos/" + p.repo + "/contents")
	if err != nil {
		return nil, fmt.Errorf("list remote contents: %w", err)
	}
	existing := map[string]string{}
	if resp.StatusCode() == 200 {
		for _, e := range entries {
			existing[e.Name] = e.SHA
		}
	}
	return existing, nil
}

// isArtifact reports whether name is something this pipeline produces and
// therefore owns on the remote side.
func isArtifact(name string) bool {
	return strings.HasSuffix(name, ".html") || strings.HasSuffix(name, ".png")
}

// Sync uploads every artifact in dir (sorted, for stable ordering) and
// removes remote artifacts that no longer exist locally. Individual upload
// failures are logged and skipped so one bad file cannot strand the rest.
func (p *Publisher) Sync(ctx context.Context, dir, dateLabel string) error {
	existing, err := p.listRemote(ctx)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read output dir: %w", err)
	}
	var local []string
	for _, e := range entries {
		if !e.IsDir() && isArtifact(e.Name()) {
			local = append(local, e.Name())
		}
	}
	sort.Strings(local)

	localSet := map[string]bool{}
	for _, name := range local {
		localSet[name] = true
	}

	for _, name := range local {
		if err := p.upload(ctx, filepath.Join(dir, name), name, existing[name], dateLabel); err != nil {
			log.Printf("  ✗ %s: %v", name, err)
			metrics.PublishOperations.WithLabelValues("upload", "error").Inc()
		} else {
			log.Printf("  ✓ %s", name)
			metrics.PublishOperations.WithLabelValues("upload", "ok").Inc()
		}
		if err := sleep(ctx, p.delay); err != nil {
			return err
		}
	}

	for _, name := range sortedKeys(existing) {
		if !isArtifact(name) || localSet[name] {
			continue
		}
		if err := p.remove(ctx, name, existing[name]); err != nil {
			log.Printf("  ✗ delete %s: %v", name, err)
			metrics.PublishOperations.WithLabelValues("delete", "error").Inc()
		} else {
			log.Printf("  🗑 %s", name)
			metrics.PublishOperations.WithLabelValues("delete", "ok").Inc()
		}
		if err := sleep(ctx, p.delay); err != nil {
			return err
		}
	}

	return nil
}

// PagesURL returns where the published site is served.
func (p *Publisher) PagesURL() string {
	parts := strings.SplitN(p.repo, "/", 2)
	if len(parts) != 2 {
		return ""
	}
	return fmt.Sprintf("https://%s.github.io/%s/", parts[0], parts[1])
}

func (p *Publisher) upload(ctx context.Context, path, name, priorSHA, dateLabel string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	body := map[string]string{
		"message": fmt.Sprintf("Update %s (%s)", name, dateLabel),
		"content": base64.StdEncoding.EncodeToString(data),
	}
	if priorSHA != "" {
		body["sha"] = priorSHA
	}

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(body).
		Put("/repos/" + p.repo + "/contents/" + url.PathEscape(name))
	if err != nil {
		return err
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return fmt.Errorf("status %d: %s", resp.StatusCode(), truncate(resp.String(), 100))
	}
	return nil
}

func (p *Publisher) remove(ctx context.Context, name, sha string) error {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"message": fmt.Sprintf("Remove old file %s", name),
			"sha":     sha,
		}).
		Delete("/repos/" + p.repo + "/contents/" + url.PathEscape(name))
	if err != nil {
		return err
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("status %d", resp.StatusCode())
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
