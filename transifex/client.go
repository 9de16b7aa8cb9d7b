// Package transifex implements a minimal client for the Transifex v3
// REST API: resource lookup, per-language completion stats, and
// translation file download.
//
// Only the calls the pull pipeline needs are covered. Authentication is
// an opaque bearer token; the client performs no retries — a failed
// request surfaces as a *RequestError and the caller decides.
package transifex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the production Transifex REST endpoint.
const DefaultBaseURL = "https://rest.api.transifex.com"

const contentTypeJSONAPI = "application/vnd.api+json"

// Config carries the client configuration. It is built once at process
// start and passed into NewClient; nothing else in the program sees the
// token.
type Config struct {
	Token   string
	BaseURL string        // defaults to DefaultBaseURL
	Timeout time.Duration // per-request timeout, defaults to 60s
}

// RequestError is a non-success response from the API.
type RequestError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.URL)
}

// ---------------------------------------------------------------------------
// Resource URL decomposition
// ---------------------------------------------------------------------------

// ParseResourceURL decomposes a dashboard resource URL of the form
//
//	https://www.transifex.com/<organization>/<project>/<resource>/
//
// into the API identifiers ("o:org", "o:org:p:proj", "o:org:p:proj:r:res").
func ParseResourceURL(resourceURL string) (org, proj, res string, err error) {
	parts := strings.Split(strings.TrimRight(resourceURL, "/"), "/")
	if len(parts) < 3 {
		return "", "", "", fmt.Errorf("malformed resource URL %q", resourceURL)
	}
	o, p, r := parts[len(parts)-3], parts[len(parts)-2], parts[len(parts)-1]
	if o == "" || p == "" || r == "" {
		return "", "", "", fmt.Errorf("malformed resource URL %q", resourceURL)
	}
	org = "o:" + o
	proj = org + ":p:" + p
	res = proj + ":r:" + r
	return org, proj, res, nil
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Resource is a remote resource handle.
type Resource struct {
	ID   string
	Name string
}

// Client talks to the Transifex API. It is not safe for concurrent use;
// the pull pipeline is sequential.
type Client struct {
	cfg  Config
	http *http.Client

	// resources memoizes handle lookups by full resource ID so repeated
	// pulls of the same resource hit the API once.
	resources map[string]*Resource
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		resources: make(map[string]*Resource),
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", contentTypeJSONAPI)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &RequestError{StatusCode: resp.StatusCode, URL: u, Body: string(body)}
	}
	return body, nil
}

// ResourceByID fetches (and memoizes) the handle for a full resource ID.
func (c *Client) ResourceByID(ctx context.Context, resID string) (*Resource, error) {
	if r, ok := c.resources[resID]; ok {
		return r, nil
	}

	body, err := c.get(ctx, "/resources/"+url.PathEscape(resID), nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data struct {
			ID         string `json:"id"`
			Attributes struct {
				Name string `json:"name"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding resource %s: %w", resID, err)
	}

	r := &Resource{ID: payload.Data.ID, Name: payload.Data.Attributes.Name}
	c.resources[resID] = r
	return r, nil
}

// ---------------------------------------------------------------------------
// Language stats
// ---------------------------------------------------------------------------

// LangStats is one language's completion numbers for a resource.
type LangStats struct {
	Translated   int
	Untranslated int
	Total        int
	Reviewed     int
	Proofread    int
}

// Completion returns the translated fraction in [0, 1].
func (s LangStats) Completion() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Translated) / float64(s.Total)
}

// ResourceStats returns per-language stats for a resource, keyed by bare
// language code (without the "l:" prefix).
func (c *Client) ResourceStats(ctx context.Context, projID, resID string) (map[string]LangStats, error) {
	query := url.Values{}
	query.Set("filter[project]", projID)
	query.Set("filter[resource]", resID)

	body, err := c.get(ctx, "/resource_language_stats", query)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Data []struct {
			Attributes struct {
				Translated   int `json:"translated_strings"`
				Untranslated int `json:"untranslated_strings"`
				Total        int `json:"total_strings"`
				Reviewed     int `json:"reviewed_strings"`
				Proofread    int `json:"proofread_strings"`
			} `json:"attributes"`
			Relationships struct {
				Language struct {
					Data struct {
						ID string `json:"id"`
					} `json:"data"`
				} `json:"language"`
			} `json:"relationships"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding stats for %s: %w", resID, err)
	}

	stats := make(map[string]LangStats, len(payload.Data))
	for _, d := range payload.Data {
		lang := strings.TrimPrefix(d.Relationships.Language.Data.ID, "l:")
		stats[lang] = LangStats{
			Translated:   d.Attributes.Translated,
			Untranslated: d.Attributes.Untranslated,
			Total:        d.Attributes.Total,
			Reviewed:     d.Attributes.Reviewed,
			Proofread:    d.Attributes.Proofread,
		}
	}
	return stats, nil
}

// ---------------------------------------------------------------------------
// Translation download
// ---------------------------------------------------------------------------

// downloadPollInterval is the wait between polls of an async download.
var downloadPollInterval = 500 * time.Millisecond

// DownloadTranslation downloads the translation file for one language of
// a resource. The v3 API makes this a small dance: create an async
// download job, then poll it until the API redirects to the file body.
func (c *Client) DownloadTranslation(ctx context.Context, resID, lang string) (string, error) {
	jobURL, err := c.createDownload(ctx, resID, lang)
	if err != nil {
		return "", err
	}

	for {
		content, done, err := c.pollDownload(ctx, jobURL)
		if err != nil {
			return "", err
		}
		if done {
			return content, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(downloadPollInterval):
		}
	}
}

func (c *Client) createDownload(ctx context.Context, resID, lang string) (string, error) {
	reqBody := map[string]any{
		"data": map[string]any{
			"type": "resource_translations_async_downloads",
			"relationships": map[string]any{
				"language": map[string]any{
					"data": map[string]string{"type": "languages", "id": "l:" + lang},
				},
				"resource": map[string]any{
					"data": map[string]string{"type": "resources", "id": resID},
				},
			},
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("encoding download request: %w", err)
	}

	u := c.cfg.BaseURL + "/resource_translations_async_downloads"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", contentTypeJSONAPI)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", &RequestError{StatusCode: resp.StatusCode, URL: u, Body: string(respBody)}
	}

	var payload struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return "", fmt.Errorf("decoding download job: %w", err)
	}
	if payload.Data.ID == "" {
		return "", fmt.Errorf("download job for %s %s has no id", resID, lang)
	}
	return u + "/" + url.PathEscape(payload.Data.ID), nil
}

// pollDownload checks one async download job. When the job is finished
// the API serves the file body (via redirect, which the HTTP client
// follows); until then it serves a JSON:API status document.
func (c *Client) pollDownload(ctx context.Context, jobURL string) (content string, done bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jobURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", false, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, &RequestError{StatusCode: resp.StatusCode, URL: jobURL, Body: string(body)}
	}

	if !strings.Contains(resp.Header.Get("Content-Type"), "json") {
		// Redirect target reached: this is the translation file itself.
		return string(body), true, nil
	}

	var payload struct {
		Data struct {
			Attributes struct {
				Status string `json:"status"`
				Errors []struct {
					Code   string `json:"code"`
					Detail string `json:"detail"`
				} `json:"errors"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false, fmt.Errorf("decoding download status: %w", err)
	}
	if payload.Data.Attributes.Status == "failed" {
		detail := ""
		if errs := payload.Data.Attributes.Errors; len(errs) > 0 {
			detail = ": " + errs[0].Detail
		}
		return "", false, fmt.Errorf("download failed%s", detail)
	}
	return "", false, nil
}
