package source

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/rallypc/pccalc/internal/config"
)

const defaultFetchTimeout = 15 * time.Second

// GitHub reads CSV files from a repository directory via the contents API.
type GitHub struct {
	cfg    config.GitHubConfig
	client *http.Client
}

// NewGitHub builds a GitHub source. The token, if any, is resolved once here.
func NewGitHub(cfg config.GitHubConfig) *GitHub {
	if cfg.BaseURL == "" {
		cfg.BaseURL = config.DefaultGitHubBaseURL
	}
	if cfg.Branch == "" {
		cfg.Branch = config.DefaultBranch
	}
	return &GitHub{
		cfg: cfg,
		client: &http.Client{
			Transport: &tokenRoundTripper{base: http.DefaultTransport, token: cfg.Token()},
			Timeout:   defaultFetchTimeout,
		},
	}
}

// tokenRoundTripper adds the GitHub API headers to every outgoing request.
type tokenRoundTripper struct {
	base  http.RoundTripper
	token string
}

func (t *tokenRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if t.token != "" {
		req.Header.Set("Authorization", "token "+t.token)
	}
	return t.base.RoundTrip(req)
}

// contentEntry is the subset of the contents API response we use, for both
// directory listings and single files.
type contentEntry struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Size     int64  `json:"size"`
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// errNotFound marks a 404 from the contents API.
var errNotFound = errors.New("github: not found")

// List returns the *.csv files in the configured directory.
// A missing directory (404) yields an empty list.
func (g *GitHub) List(ctx context.Context) ([]File, error) {
	var entries []contentEntry
	err := g.get(ctx, g.contentsURL(""), &entries)
	if errors.Is(err, errNotFound) {
		return []File{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]File, 0, len(entries))
	for _, e := range entries {
		if e.Type != "file" || !isCSV(e.Name) {
			continue
		}
		out = append(out, File{Name: e.Name, Size: e.Size})
	}
	return out, nil
}

// Fetch downloads and decodes one file.
func (g *GitHub) Fetch(ctx context.Context, name string) (string, error) {
	var entry contentEntry
	if err := g.get(ctx, g.contentsURL(name), &entry); err != nil {
		return "", err
	}
	if entry.Encoding != "" && entry.Encoding != "base64" {
		return "", fmt.Errorf("github: %s: unsupported encoding %q", name, entry.Encoding)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(entry.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("github: %s: decode content: %w", name, err)
	}
	return string(raw), nil
}

func (g *GitHub) contentsURL(name string) string {
	p := path.Join("repos", g.cfg.Owner, g.cfg.Repo, "contents", g.cfg.Dir)
	if name != "" {
		p = path.Join(p, url.PathEscape(name))
	}
	return strings.TrimSuffix(g.cfg.BaseURL, "/") + "/" + p + "?ref=" + url.QueryEscape(g.cfg.Branch)
}

func (g *GitHub) get(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("github: build request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("github: get: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return errNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("github: unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("github: decode response: %w", err)
	}
	return nil
}
