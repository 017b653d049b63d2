// Package browser drives a headless Chrome session via chromedp.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Config controls the behavior of the browser driver.
type Config struct {
	BaseURL           string
	UserAgent         string
	Headless          bool
	NavigationTimeout time.Duration
}

// Driver walks listing result pages and restaurant detail pages with a
// real browser. A single Chrome tab is reused for the whole run; listing
// operations re-navigate to the remembered result URL because detail
// fetches move the tab away from it.
type Driver struct {
	cfg         Config
	allocator   context.Context
	allocCancel context.CancelFunc
	tab         context.Context
	tabCancel   context.CancelFunc
	listURL     string
}

// New creates a Driver and its Chrome allocator. The browser process is
// launched lazily on the first navigation.
func New(cfg Config) (*Driver, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url must be set")
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 60 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
		chromedp.NoSandbox,
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Driver{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close tears down the tab and the Chrome allocator.
func (d *Driver) Close() {
	if d.tabCancel != nil {
		d.tabCancel()
	}
	d.allocCancel()
}

// OpenResultList navigates the search entry flow for the given region:
// open the portal, pick the region from the area popup, drop the online
// reservation filter, enable the parking filter, and apply.
func (d *Driver) OpenResultList(ctx context.Context, region string) error {
	d.tab, d.tabCancel = chromedp.NewContext(d.allocator)

	runCtx, cancel := d.opContext(ctx)
	defer cancel()

	actions := []chromedp.Action{
		d.sessionSetupAction(),
		chromedp.Navigate(d.cfg.BaseURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Click(`//a[contains(text(), "全国")]`, chromedp.BySearch),
		chromedp.WaitVisible(".poplayer", chromedp.ByQuery),
		chromedp.Click(prefectureXPath(region), chromedp.BySearch),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Evaluate(uncheckNetReservationJS, nil),
		chromedp.Click(`//label[contains(text(), "駐車場")]`, chromedp.BySearch),
		chromedp.Click(`//button[contains(text(), "絞り込む")]`, chromedp.BySearch),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.Location(&d.listURL),
	}
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return fmt.Errorf("open result list for %s: %w", region, err)
	}
	return nil
}

// ListItemLinks returns the restaurant detail URLs on the current result page.
func (d *Driver) ListItemLinks(ctx context.Context) ([]string, error) {
	runCtx, cancel := d.opContext(ctx)
	defer cancel()

	var links []string
	actions := []chromedp.Action{
		d.returnToListAction(),
		chromedp.Evaluate(listItemLinksJS, &links),
	}
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return nil, fmt.Errorf("list item links: %w", err)
	}
	return links, nil
}

// FetchDetail navigates to one restaurant page and returns its parsed DOM.
func (d *Driver) FetchDetail(ctx context.Context, url string) (*goquery.Document, error) {
	runCtx, cancel := d.opContext(ctx)
	defer cancel()

	var html string
	actions := []chromedp.Action{
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return nil, fmt.Errorf("fetch detail %s: %w", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse detail %s: %w", url, err)
	}
	return doc, nil
}

// HasNextPage reports whether the result list offers a further page.
func (d *Driver) HasNextPage(ctx context.Context) (bool, error) {
	runCtx, cancel := d.opContext(ctx)
	defer cancel()

	var hasNext bool
	actions := []chromedp.Action{
		d.returnToListAction(),
		chromedp.Evaluate(hasNextPageJS, &hasNext),
	}
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return false, fmt.Errorf("check next page: %w", err)
	}
	return hasNext, nil
}

// NextPage advances to the next result page and remembers its URL.
func (d *Driver) NextPage(ctx context.Context) error {
	runCtx, cancel := d.opContext(ctx)
	defer cancel()

	actions := []chromedp.Action{
		d.returnToListAction(),
		chromedp.Click(`//a[contains(text(), "次の20件")]`, chromedp.BySearch),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.Location(&d.listURL),
	}
	if err := chromedp.Run(runCtx, actions...); err != nil {
		return fmt.Errorf("advance to next page: %w", err)
	}
	return nil
}

func (d *Driver) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx := d.tab
	if runCtx == nil {
		runCtx = ctx
	}
	return context.WithTimeout(runCtx, d.cfg.NavigationTimeout)
}

// returnToListAction re-navigates to the remembered result list URL when
// the tab has moved away from it.
func (d *Driver) returnToListAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if d.listURL == "" {
			return fmt.Errorf("result list not opened")
		}
		var current string
		if err := chromedp.Location(&current).Do(ctx); err != nil {
			return fmt.Errorf("read location: %w", err)
		}
		if current == d.listURL {
			return nil
		}
		return chromedp.Run(ctx,
			chromedp.Navigate(d.listURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
		)
	})
}

func (d *Driver) sessionSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if d.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(d.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

// prefectureXPath locates the region link inside the area popup.
func prefectureXPath(region string) string {
	return fmt.Sprintf(`//*[contains(@class, "poplayer")]//a[contains(text(), %q)]`, region)
}

const listItemLinksJS = `Array.from(document.querySelectorAll(".list-rst__rst-name-target")).map((a) => a.href)`

const hasNextPageJS = `Array.from(document.querySelectorAll("a")).some((a) => a.textContent.includes("次の20件"))`

// The portal pre-checks the online reservation filter; clear it so the
// results are not narrowed to reservable restaurants.
const uncheckNetReservationJS = `(() => {
	const el = document.querySelector('input[type="checkbox"][id*="net"]');
	if (el && el.checked) {
		el.click();
	}
})()`
