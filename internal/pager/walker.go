// Package pager implements pagination policy over a page driver.
package pager

import (
	"context"
	"fmt"

	"github.com/Hiromu1612/tabelog-scraper/internal/scraper"
)

// Walker caps and sequences result-set pagination. The driver reports what
// the source actually shows; the walker applies run policy on top of it.
type Walker struct {
	driver   scraper.Driver
	maxItems int
}

// New builds a Walker. maxItems bounds the links taken per page.
func New(driver scraper.Driver, maxItems int) *Walker {
	if maxItems <= 0 {
		maxItems = scraper.DefaultMaxItemsPerPage
	}
	return &Walker{driver: driver, maxItems: maxItems}
}

// ListItemLinks returns the current page's detail links in display order,
// capped at maxItems. Short or empty pages are returned as-is.
func (w *Walker) ListItemLinks(ctx context.Context) ([]string, error) {
	links, err := w.driver.ListItemLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list item links: %w", err)
	}
	if len(links) > w.maxItems {
		links = links[:w.maxItems]
	}
	return links, nil
}

// HasNextPage is true only when the source shows a next-page affordance AND
// the page cap has not been reached. The source's own page-count estimate is
// a display hint, never a termination signal.
func (w *Walker) HasNextPage(ctx context.Context, currentPage, maxPages int) (bool, error) {
	if currentPage >= maxPages {
		return false, nil
	}
	has, err := w.driver.HasNextPage(ctx)
	if err != nil {
		return false, fmt.Errorf("check next page: %w", err)
	}
	return has, nil
}

// NextPage advances the driver to the following result page.
func (w *Walker) NextPage(ctx context.Context) error {
	if err := w.driver.NextPage(ctx); err != nil {
		return fmt.Errorf("advance page: %w", err)
	}
	return nil
}
