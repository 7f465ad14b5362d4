package crawler

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"strings"

	"docprompt/internal/contextutil"
)

type sitemapDocument struct {
	XMLName xml.Name
	URLs    []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// isSitemapDocument reports whether body is a <urlset> or <sitemapindex> document.
func isSitemapDocument(body []byte) bool {
	head := body
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("<urlset")) || bytes.Contains(head, []byte("<sitemapindex"))
}

// sitemapURLs returns the first sitemap-limit page URLs of a sitemap. Entries of a
// sitemap index are child sitemaps; they are fetched in order, one level deep, until
// the limit is reached. A child that fails to load is skipped.
func (c *Crawler) sitemapURLs(ctx context.Context, body []byte) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	urls, children, err := parseSitemap(body)
	if err != nil {
		return nil, err
	}
	urls = capURLs(urls, c.sitemapLimit)

	for _, child := range children {
		if len(urls) >= c.sitemapLimit {
			break
		}
		if err := ctx.Err(); err != nil {
			return urls, err
		}

		childBody, _, err := c.get(ctx, child)
		if err != nil {
			logger.WarnContext(ctx, "failed to fetch child sitemap", "url", child, "error", err)
			continue
		}
		childURLs, _, err := parseSitemap(childBody)
		if err != nil {
			logger.WarnContext(ctx, "failed to parse child sitemap", "url", child, "error", err)
			continue
		}
		urls = capURLs(append(urls, childURLs...), c.sitemapLimit)
	}
	return urls, nil
}

func capURLs(urls []string, limit int) []string {
	if len(urls) > limit {
		return urls[:limit]
	}
	return urls
}

// parseSitemap returns the page URLs of a urlset and the child sitemaps of an index.
func parseSitemap(body []byte) (urls, children []string, err error) {
	var doc sitemapDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse sitemap: %w", err)
	}

	for _, u := range doc.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	for _, sm := range doc.Sitemaps {
		if loc := strings.TrimSpace(sm.Loc); loc != "" {
			children = append(children, loc)
		}
	}
	return urls, children, nil
}
