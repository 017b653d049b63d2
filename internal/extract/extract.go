// Package extract parses a restaurant detail page into a scraper.Record.
package extract

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Hiromu1612/tabelog-scraper/internal/scraper"
)

// ErrNoDetailContainer signals that the page holds no recognisable detail
// layout (wrong page type or render failure). Item-level; the job continues.
var ErrNoDetailContainer = errors.New("detail page container not found")

// Selectors on the detail page. Field values are looked up by row-header
// text, never by row position, so a missing row cannot shift other fields.
const (
	selName         = ".display-name"
	selTableRow     = ".rstinfo-table__table-row"
	selRowHeader    = ".rstinfo-table__table-title"
	selRowContent   = ".rstinfo-table__table-content"
	selSNSLink      = ".rstinfo-sns__link"
	selParkingTable = "table"
)

// fieldSetters maps row-header substrings onto record fields. Parking is
// deliberately absent here: its cell renders in an irregular layout and is
// resolved by the secondary lookup below.
var fieldSetters = []struct {
	label string
	set   func(*scraper.Record, string)
}{
	{"住所", func(r *scraper.Record, v string) { r.Address = v }},
	{"予約・お問い合わせ", func(r *scraper.Record, v string) { r.Phone = v }},
	{"営業時間", func(r *scraper.Record, v string) { r.BusinessHours = v }},
	{"営業日", func(r *scraper.Record, v string) { r.BusinessDays = v }},
	{"定休日", func(r *scraper.Record, v string) { r.BusinessDays = v }},
	{"ホームページ", func(r *scraper.Record, v string) { r.Homepage = v }},
}

// Extract parses doc into a Record. Every unresolved field keeps the Unknown
// sentinel; business hours are stored raw (display trimming is a consumer
// concern). Returns ErrNoDetailContainer when the page carries neither a
// name element nor an info table.
func Extract(doc *goquery.Document, sourceURL string) (scraper.Record, error) {
	rec := scraper.NewRecord(sourceURL)

	name := strings.TrimSpace(doc.Find(selName).First().Text())
	rows := doc.Find(selTableRow)
	if name == "" && rows.Length() == 0 {
		return scraper.Record{}, scraper.NewExtractionError(sourceURL, ErrNoDetailContainer)
	}
	if name != "" {
		rec.Name = name
	}

	rows.Each(func(_ int, row *goquery.Selection) {
		header := strings.TrimSpace(row.Find(selRowHeader).First().Text())
		if header == "" {
			return
		}
		content := strings.TrimSpace(row.Find(selRowContent).First().Text())
		for _, fs := range fieldSetters {
			if !strings.Contains(header, fs.label) {
				continue
			}
			if fs.label == "ホームページ" {
				if href, ok := row.Find(selRowContent + " a").First().Attr("href"); ok {
					fs.set(&rec, strings.TrimSpace(href))
				}
				return
			}
			if content != "" {
				fs.set(&rec, content)
			}
			return
		}
		if strings.Contains(header, "駐車場") {
			if v := parkingLookup(doc); v != "" {
				rec.Parking = v
			}
		}
	})

	rec.SocialAccounts = classifySNS(doc)
	return rec, nil
}

// parkingLookup is the site-specific fallback for the parking cell: the
// second info table, sixth row. The generic header/content pair is empty for
// parking on the live site.
func parkingLookup(doc *goquery.Document) string {
	cell := doc.Find(selParkingTable).Eq(1).Find("tr").Eq(5).Find("td").First()
	return strings.TrimSpace(cell.Text())
}

// classifySNS buckets outbound SNS links by host substring. First match per
// category wins; anything unmatched is ignored.
func classifySNS(doc *goquery.Document) scraper.SocialAccounts {
	var accounts scraper.SocialAccounts
	doc.Find(selSNSLink).Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok || href == "" {
			return
		}
		switch {
		case strings.Contains(href, "twitter.com"), strings.Contains(href, "x.com"):
			if accounts.Twitter == nil {
				accounts.Twitter = &href
			}
		case strings.Contains(href, "instagram.com"):
			if accounts.Instagram == nil {
				accounts.Instagram = &href
			}
		case strings.Contains(href, "facebook.com"):
			if accounts.Facebook == nil {
				accounts.Facebook = &href
			}
		}
	})
	return accounts
}
