package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// GistOptions parameterise the GitHub Gist backend.
type GistOptions struct {
	Token    string
	GistID   string
	FileName string
	APIBase  string
	Timeout  time.Duration
}

// GistStore holds the snapshot as one file inside a GitHub Gist.
type GistStore struct {
	opts    GistOptions
	client  *http.Client
	baseURL string
	logger  zerolog.Logger
}

// NewGistStore constructs a Gist-backed remote store.
func NewGistStore(opts GistOptions, logger zerolog.Logger) *GistStore {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(opts.APIBase, "/")
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}

	if opts.FileName == "" {
		opts.FileName = "gold_last.txt"
	}

	return &GistStore{
		opts:    opts,
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		logger:  logger.With().Str("component", "gist_store").Logger(),
	}
}

type gistResponse struct {
	Files map[string]struct {
		Content   string `json:"content"`
		Truncated bool   `json:"truncated"`
	} `json:"files"`
}

// Fetch reads the snapshot file out of the gist. A 404, or a gist that does
// not contain the file yet, yields ErrNotFound.
func (g *GistStore) Fetch(ctx context.Context) (string, error) {
	req, err := g.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return "", err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return "", apiError("fetch gist", resp)
	}

	var parsed gistResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode gist response: %w", err)
	}

	file, ok := parsed.Files[g.opts.FileName]
	if !ok {
		return "", ErrNotFound
	}
	if file.Truncated {
		return "", fmt.Errorf("gist file %s is truncated", g.opts.FileName)
	}
	return file.Content, nil
}

// Put overwrites the snapshot file inside the gist.
func (g *GistStore) Put(ctx context.Context, text string) error {
	payload := map[string]any{
		"files": map[string]any{
			g.opts.FileName: map[string]string{"content": text},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal gist payload: %w", err)
	}

	req, err := g.newRequest(ctx, http.MethodPatch, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("update gist: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiError("update gist", resp)
	}

	g.logger.Debug().Str("gist_id", g.opts.GistID).Msg("snapshot written to gist")
	return nil
}

func (g *GistStore) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	url := fmt.Sprintf("%s/gists/%s", g.baseURL, g.opts.GistID)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create gist request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.opts.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	return req, nil
}

func apiError(op string, resp *http.Response) error {
	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("%s: github api error (%d): %s", op, resp.StatusCode, apiErr.Message)
	}
	if len(payload) > 0 {
		return fmt.Errorf("%s: github api error (%d): %s", op, resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("%s: github api error (%d)", op, resp.StatusCode)
}

var _ Remote = (*GistStore)(nil)
