// Package crawler discovers the pages of a website, either from its sitemap or by
// breadth-first traversal of same-origin links, and fetches them on demand.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"docprompt/internal/contextutil"
)

const (
	// DefaultSitemapLimit caps the URLs taken from a sitemap.
	DefaultSitemapLimit = 10
	// DefaultMaxPages caps a breadth-first discovery.
	DefaultMaxPages = 500

	maxBodyBytes = 10 << 20
)

// ErrNotHTML is returned by FetchPage for responses that are not HTML or text.
var ErrNotHTML = errors.New("not an html page")

// Page is a fetched web page.
type Page struct {
	URL   string
	Title string
	Body  []byte
	// ContentType is the media type of the response, without parameters.
	ContentType string
}

// Config configures a Crawler.
type Config struct {
	// RateLimit is the sustained request rate in requests per second. Zero means 5.
	RateLimit float64
	// RateBurst is the limiter burst size. Zero means 5.
	RateBurst    int
	SitemapLimit int
	MaxPages     int
	UserAgent    string
	Timeout      time.Duration
}

// Crawler discovers and fetches website pages through a shared rate limiter.
type Crawler struct {
	httpClient   *http.Client
	limiter      *rate.Limiter
	sitemapLimit int
	maxPages     int
	userAgent    string
}

// New creates a Crawler. Zero config fields take defaults.
func New(cfg Config) *Crawler {
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 5
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 5
	}
	if cfg.SitemapLimit == 0 {
		cfg.SitemapLimit = DefaultSitemapLimit
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = DefaultMaxPages
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "docprompt-crawler/1.0"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Crawler{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		limiter:      rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		sitemapLimit: cfg.SitemapLimit,
		maxPages:     cfg.MaxPages,
		userAgent:    cfg.UserAgent,
	}
}

// Discover returns the URLs of baseURL to treat as content items, in discovery order.
// A root whose body is a sitemap yields at most the configured sitemap limit of URLs,
// following the child sitemaps of a sitemap index. Any other page starts a
// breadth-first traversal of same-origin links that visits no URL twice. A round in which
// every fetch fails ends the traversal; URLs found in earlier rounds are kept.
func (c *Crawler) Discover(ctx context.Context, baseURL string) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	root, err := NormalizeURL(baseURL)
	if err != nil {
		return nil, err
	}

	processed := map[string]bool{root: true}
	var discovered []string
	frontier := []string{root}

	for round := 0; len(frontier) > 0; round++ {
		var next []string
		fetched := 0

		for _, u := range frontier {
			if err := ctx.Err(); err != nil {
				return discovered, err
			}
			if len(discovered) >= c.maxPages {
				logger.WarnContext(ctx, "crawl page cap reached", "url", root, "max_pages", c.maxPages)
				return discovered, nil
			}

			page, err := c.FetchPage(ctx, u)
			if err != nil {
				logger.WarnContext(ctx, "failed to fetch page", "url", u, "error", err)
				continue
			}
			fetched++

			// A root that is a sitemap document ends discovery.
			if round == 0 && isSitemapDocument(page.Body) {
				urls, err := c.sitemapURLs(ctx, page.Body)
				if err != nil {
					return nil, err
				}
				logger.InfoContext(ctx, "discovered urls from sitemap", "url", u, "count", len(urls))
				return urls, nil
			}

			discovered = append(discovered, u)

			pageURL, err := url.Parse(u)
			if err != nil {
				continue
			}
			for _, link := range ExtractLinks(pageURL, page.Body) {
				if processed[link] {
					continue
				}
				processed[link] = true
				next = append(next, link)
			}
		}

		if fetched == 0 {
			if round == 0 {
				return nil, fmt.Errorf("failed to fetch %s", root)
			}
			logger.WarnContext(ctx, "every fetch of crawl round failed, stopping", "round", round, "frontier", len(frontier))
			break
		}

		frontier = next
	}

	logger.InfoContext(ctx, "discovered urls by crawling", "url", root, "count", len(discovered))
	return discovered, nil
}

// FetchPage downloads one page through the rate limiter.
func (c *Crawler) FetchPage(ctx context.Context, pageURL string) (*Page, error) {
	body, contentType, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page := &Page{URL: pageURL, Body: body, ContentType: contentType}
	if contentType == "text/html" || contentType == "" {
		page.Title = Title(body)
	}
	return page, nil
}

func (c *Crawler) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch %s: status %d", rawURL, resp.StatusCode)
	}

	contentType := mediaType(resp.Header.Get("Content-Type"))
	if contentType != "" && !strings.HasPrefix(contentType, "text/") && !strings.Contains(contentType, "xml") {
		return nil, "", fmt.Errorf("%w: %s is %s", ErrNotHTML, rawURL, contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	return body, contentType, nil
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// NormalizeURL strips the query string, the fragment and any trailing slash.
func NormalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid url %q: missing host", raw)
	}

	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.Host = strings.ToLower(u.Host)
	u.Scheme = strings.ToLower(u.Scheme)

	return u.String(), nil
}
