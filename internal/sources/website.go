package sources

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"docprompt/internal/crawler"
	"docprompt/internal/storage"
)

// PageFetcher discovers and fetches website pages.
type PageFetcher interface {
	Discover(ctx context.Context, baseURL string) ([]string, error)
	FetchPage(ctx context.Context, pageURL string) (*crawler.Page, error)
}

// WebsiteResolver exposes the discovered pages of a website. Source config: "url".
// Discovery only collects URLs; pages are fetched when an item is resolved.
type WebsiteResolver struct {
	fetcher PageFetcher
}

// NewWebsiteResolver creates a WebsiteResolver.
func NewWebsiteResolver(fetcher PageFetcher) *WebsiteResolver {
	return &WebsiteResolver{fetcher: fetcher}
}

// Items discovers the website's pages.
func (r *WebsiteResolver) Items(ctx context.Context, src storage.SourceRecord) (*ItemSet, error) {
	baseURL := configString(src.Config, "url")
	if baseURL == "" {
		return nil, fmt.Errorf("website source %s has no url", src.Name)
	}

	urls, err := r.fetcher.Discover(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to discover %s: %w", baseURL, err)
	}

	return &ItemSet{
		Count:  len(urls),
		PathOf: func(i int) string { return urls[i] },
		Resolve: func(ctx context.Context, i int) (*Content, error) {
			page, err := r.fetcher.FetchPage(ctx, urls[i])
			if err != nil {
				return nil, err
			}

			text := string(page.Body)
			if page.ContentType == "text/html" || page.ContentType == "" {
				text = crawler.HTMLToText(page.Body)
			}
			if strings.TrimSpace(text) == "" {
				return nil, nil
			}

			return &Content{
				Name:     pageName(page),
				Content:  text,
				Metadata: map[string]any{"url": urls[i], "title": page.Title},
			}, nil
		},
	}, nil
}

// pageName is the page title, falling back to the last URL path segment, then the host.
func pageName(page *crawler.Page) string {
	if page.Title != "" {
		return page.Title
	}
	u, err := url.Parse(page.URL)
	if err != nil {
		return page.URL
	}
	if base := path.Base(strings.TrimRight(u.Path, "/")); base != "." && base != "/" && base != "" {
		return base
	}
	return u.Host
}
