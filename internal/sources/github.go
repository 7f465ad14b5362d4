package sources

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"docprompt/internal/contextutil"
	"docprompt/internal/storage"
)

const maxArchiveBytes = 200 << 20

// GitHubResolver downloads a repository archive and exposes its text files.
// Source config: "url" (https://github.com/owner/repo or owner/repo), optional "branch".
type GitHubResolver struct {
	APIBaseURL string
	Token      string
	client     *http.Client
}

// NewGitHubResolver creates a resolver using the public GitHub API.
func NewGitHubResolver(token string) *GitHubResolver {
	return &GitHubResolver{
		APIBaseURL: "https://api.github.com",
		Token:      token,
		client:     &http.Client{Timeout: 5 * time.Minute},
	}
}

// ParseRepo extracts owner and repository from a GitHub URL or "owner/repo".
func ParseRepo(raw string) (string, string, error) {
	raw = strings.TrimSpace(raw)
	p := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", fmt.Errorf("invalid repository url %q: %w", raw, err)
		}
		p = u.Path
	}

	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repository %q: want owner/repo", raw)
	}
	return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
}

// Items downloads the repository zipball and lists its text files.
func (r *GitHubResolver) Items(ctx context.Context, src storage.SourceRecord) (*ItemSet, error) {
	logger := contextutil.LoggerFromContext(ctx)

	owner, repo, err := ParseRepo(configString(src.Config, "url"))
	if err != nil {
		return nil, err
	}
	branch := configString(src.Config, "branch")

	archiveURL := fmt.Sprintf("%s/repos/%s/%s/zipball", strings.TrimRight(r.APIBaseURL, "/"), owner, repo)
	if branch != "" {
		archiveURL += "/" + url.PathEscape(branch)
	}

	data, err := r.download(ctx, archiveURL)
	if err != nil {
		return nil, err
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open repository archive: %w", err)
	}

	var files []*zip.File
	var paths []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		p := stripArchiveRoot(f.Name)
		if p == "" || !IsTextFile(p) {
			continue
		}
		files = append(files, f)
		paths = append(paths, p)
	}

	logger.InfoContext(ctx, "listed repository files", "repo", owner+"/"+repo, "branch", branch, "files", len(files))

	meta := map[string]any{"repo": owner + "/" + repo}
	if branch != "" {
		meta["branch"] = branch
	}

	return &ItemSet{
		Count:  len(files),
		PathOf: func(i int) string { return paths[i] },
		Resolve: func(ctx context.Context, i int) (*Content, error) {
			rc, err := files[i].Open()
			if err != nil {
				return nil, fmt.Errorf("failed to open %s: %w", paths[i], err)
			}
			defer func() {
				_ = rc.Close()
			}()

			body, err := io.ReadAll(rc)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", paths[i], err)
			}

			return &Content{
				Name:     path.Base(paths[i]),
				Content:  toText(paths[i], body),
				Metadata: meta,
			}, nil
		},
	}, nil
}

func (r *GitHubResolver) download(ctx context.Context, archiveURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, archiveURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download repository archive: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download repository archive: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read repository archive: %w", err)
	}
	if len(data) > maxArchiveBytes {
		return nil, fmt.Errorf("repository archive larger than %d bytes", maxArchiveBytes)
	}
	return data, nil
}

// stripArchiveRoot removes the "owner-repo-sha/" directory GitHub puts around archive entries.
func stripArchiveRoot(name string) string {
	_, rest, found := strings.Cut(name, "/")
	if !found {
		return ""
	}
	return rest
}
