package scraper

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Driver abstracts page automation against the listing site. Implementations
// own navigation state: OpenResultList leaves the driver positioned on the
// first result page, and NextPage advances it. FetchDetail may navigate away
// from the result list; pagination calls must recover from that.
type Driver interface {
	// OpenResultList navigates to the directory, applies the region and
	// parking filters, and lands on page one of the results.
	OpenResultList(ctx context.Context, region string) error
	// ListItemLinks returns the detail-page URLs of the current result page
	// in display order.
	ListItemLinks(ctx context.Context) ([]string, error)
	// HasNextPage reports whether a next-page affordance is present.
	HasNextPage(ctx context.Context) (bool, error)
	// NextPage advances to the following result page.
	NextPage(ctx context.Context) error
	// FetchDetail loads one detail page and returns its parsed document.
	FetchDetail(ctx context.Context, url string) (*goquery.Document, error)
	// Close releases browser or transport resources.
	Close()
}

// SheetWriter upserts a named sheet with the final record set.
type SheetWriter interface {
	Write(ctx context.Context, region string, records []Record) (int, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
