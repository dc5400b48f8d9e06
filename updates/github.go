package updates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lepinkainen/muxpack/version"
)

// DefaultAPIURL is the GitHub REST API root
const DefaultAPIURL = "https://api.github.com"

// ErrNoRelease is returned when the repository has no usable release
var ErrNoRelease = errors.New("no published release found")

// Release is the part of a GitHub release the update check needs
type Release struct {
	TagName string  `json:"tag_name"`
	HTMLURL string  `json:"html_url"`
	Assets  []Asset `json:"assets"`
}

// Asset is a downloadable file attached to a release
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Version is the tag without its leading v
func (r Release) Version() string {
	return strings.TrimPrefix(r.TagName, "v")
}

// DownloadURL returns the first asset with a download URL
func (r Release) DownloadURL() string {
	for _, a := range r.Assets {
		if a.BrowserDownloadURL != "" {
			return a.BrowserDownloadURL
		}
	}
	return ""
}

// Client talks to the GitHub releases API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Token      string // optional, raises the API rate limit
}

// NewClient returns a client for api.github.com with a request timeout
func NewClient(token string) *Client {
	return &Client{
		BaseURL:    DefaultAPIURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Token:      token,
	}
}

// LatestRelease fetches the latest published release of owner/name
func (c *Client) LatestRelease(ctx context.Context, repo string) (*Release, error) {
	if strings.Count(repo, "/") != 1 || strings.HasPrefix(repo, "/") || strings.HasSuffix(repo, "/") {
		return nil, fmt.Errorf("repository must be owner/name, got %q", repo)
	}

	url := strings.TrimSuffix(c.BaseURL, "/") + "/repos/" + repo + "/releases/latest"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w for %s", ErrNoRelease, repo)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("failed to fetch latest release: %s", resp.Status)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}
	if rel.TagName == "" {
		return nil, fmt.Errorf("%w for %s: release has no tag", ErrNoRelease, repo)
	}
	return &rel, nil
}

// Check is the outcome of comparing a local version with the latest release
type Check struct {
	Current         string
	Latest          string
	DownloadURL     string
	UpdateAvailable bool
}

// CheckForUpdate compares current with the latest release of repo
func (c *Client) CheckForUpdate(ctx context.Context, repo, current string) (*Check, error) {
	rel, err := c.LatestRelease(ctx, repo)
	if err != nil {
		return nil, err
	}

	return &Check{
		Current:         current,
		Latest:          rel.Version(),
		DownloadURL:     rel.DownloadURL(),
		UpdateAvailable: version.IsNewer(current, rel.Version()),
	}, nil
}
