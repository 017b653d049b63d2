// Package httpdriver walks listing and detail pages over plain HTTP
// using colly. It serves deployments where running Chrome is not an
// option; the result list is addressed by URL query instead of the
// portal's search UI.
package httpdriver

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
)

const nextPageLabel = "次の20件"

// Config controls collector behavior.
type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Driver implements page walking with a colly collector. It keeps the
// parsed listing document between calls so link extraction and
// pagination checks do not refetch the page.
type Driver struct {
	cfg           Config
	baseCollector *colly.Collector

	listURL *url.URL
	listDoc *goquery.Document
}

// New builds a Driver.
func New(cfg Config) (*Driver, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url must be set")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
	)
	c.IgnoreRobotsTxt = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.Timeout)

	return &Driver{cfg: cfg, baseCollector: c}, nil
}

// Close releases driver resources. The collector holds none.
func (d *Driver) Close() {}

// OpenResultList fetches the first result page for the region. The
// region rides on the search-area query parameter.
func (d *Driver) OpenResultList(ctx context.Context, region string) error {
	base, err := url.Parse(d.cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("parse base url: %w", err)
	}
	q := base.Query()
	q.Set("sa", region)
	base.RawQuery = q.Encode()

	doc, err := d.fetchDocument(ctx, base.String())
	if err != nil {
		return fmt.Errorf("open result list for %s: %w", region, err)
	}
	d.listURL = base
	d.listDoc = doc
	return nil
}

// ListItemLinks returns the restaurant detail URLs on the current
// result page, resolved to absolute form.
func (d *Driver) ListItemLinks(_ context.Context) ([]string, error) {
	if d.listDoc == nil {
		return nil, fmt.Errorf("result list not opened")
	}
	var links []string
	d.listDoc.Find(".list-rst__rst-name-target").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		links = append(links, d.resolve(href))
	})
	return links, nil
}

// FetchDetail fetches one restaurant page and returns its parsed DOM.
func (d *Driver) FetchDetail(ctx context.Context, pageURL string) (*goquery.Document, error) {
	doc, err := d.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch detail %s: %w", pageURL, err)
	}
	return doc, nil
}

// HasNextPage reports whether the current result page links a further page.
func (d *Driver) HasNextPage(_ context.Context) (bool, error) {
	if d.listDoc == nil {
		return false, fmt.Errorf("result list not opened")
	}
	return d.nextPageHref() != "", nil
}

// NextPage fetches the next result page and makes it current.
func (d *Driver) NextPage(ctx context.Context) error {
	if d.listDoc == nil {
		return fmt.Errorf("result list not opened")
	}
	href := d.nextPageHref()
	if href == "" {
		return fmt.Errorf("no next page link")
	}

	next := d.resolve(href)
	doc, err := d.fetchDocument(ctx, next)
	if err != nil {
		return fmt.Errorf("advance to next page: %w", err)
	}
	nextURL, err := url.Parse(next)
	if err != nil {
		return fmt.Errorf("parse next page url: %w", err)
	}
	d.listURL = nextURL
	d.listDoc = doc
	return nil
}

func (d *Driver) nextPageHref() string {
	var href string
	d.listDoc.Find("a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if !strings.Contains(sel.Text(), nextPageLabel) {
			return true
		}
		if h, ok := sel.Attr("href"); ok && h != "" {
			href = h
			return false
		}
		return true
	})
	return href
}

func (d *Driver) resolve(href string) string {
	ref, err := url.Parse(href)
	if err != nil || d.listURL == nil {
		return href
	}
	return d.listURL.ResolveReference(ref).String()
}

func (d *Driver) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	collector := d.baseCollector.Clone()
	collector.IgnoreRobotsTxt = d.baseCollector.IgnoreRobotsTxt
	if d.cfg.UserAgent != "" {
		collector.UserAgent = d.cfg.UserAgent
	}
	collector.SetRequestTimeout(d.cfg.Timeout)

	var (
		body     []byte
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(pageURL)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("visit failed: %w", err)
		}
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("response failed: %w", fetchErr)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}
	return doc, nil
}
