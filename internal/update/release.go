package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/mod/semver"
)

// DevVersion marks a build without a release version. Any valid release is
// newer than it.
const DevVersion = "dev"

// Asset is a downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// Release is the subset of a GitHub release the updater reads.
type Release struct {
	TagName string  `json:"tag_name"`
	Name    string  `json:"name"`
	Assets  []Asset `json:"assets"`
}

// Find returns the asset called name, or nil.
func (r *Release) Find(name string) *Asset {
	for i := range r.Assets {
		if r.Assets[i].Name == name {
			return &r.Assets[i]
		}
	}
	return nil
}

// AssetName returns the release asset built for goos/goarch.
func AssetName(goos, goarch string) (string, error) {
	switch goos {
	case "linux", "darwin":
		switch goarch {
		case "amd64", "arm64":
			return fmt.Sprintf("yaydl-%s-%s", goos, goarch), nil
		}
	case "windows":
		switch goarch {
		case "amd64", "arm64":
			return fmt.Sprintf("yaydl-%s-%s.exe", goos, goarch), nil
		}
	}
	return "", fmt.Errorf("no release asset for %s/%s", goos, goarch)
}

func normalize(v string) string {
	if !strings.HasPrefix(v, "v") && semver.IsValid("v"+v) {
		return "v" + v
	}
	return v
}

// IsNewer reports whether tag is a newer version than current. A development
// or unparseable current version is always older; an unparseable tag is an
// error.
func IsNewer(current, tag string) (bool, error) {
	latest := normalize(tag)
	if !semver.IsValid(latest) {
		return false, fmt.Errorf("release tag %q is not a semantic version", tag)
	}
	cur := normalize(current)
	if current == DevVersion || !semver.IsValid(cur) {
		return true, nil
	}
	return semver.Compare(latest, cur) > 0, nil
}

func (s *Supervisor) latest(ctx context.Context) (*Release, error) {
	apiURL := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimRight(s.apiBase, "/"), s.repo)
	s.logger.Debug("fetching latest release", "url", apiURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API request failed with status %s", resp.Status)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release JSON: %w", err)
	}
	return &release, nil
}
