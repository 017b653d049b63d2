// Package table defines the tabular layout shared by all exports.
package table

import (
	"strconv"

	"github.com/Hiromu1612/tabelog-scraper/internal/scraper"
)

// Header returns the export column headers in output order.
func Header() []string {
	return []string{
		"No.",
		"店舗名",
		"住所",
		"電話番号",
		"営業日",
		"営業時間",
		"駐車場",
		"HP",
		"食べログ",
		"Twitter",
		"Instagram",
		"Facebook",
	}
}

// Row renders one record as a row. no is the 1-based position of the
// record in the export.
func Row(no int, r scraper.Record) []string {
	return []string{
		strconv.Itoa(no),
		r.Name,
		r.Address,
		r.Phone,
		r.BusinessDays,
		scraper.FormatBusinessHours(r.BusinessHours),
		r.Parking,
		r.Homepage,
		r.SourceURL,
		derefOrEmpty(r.SocialAccounts.Twitter),
		derefOrEmpty(r.SocialAccounts.Instagram),
		derefOrEmpty(r.SocialAccounts.Facebook),
	}
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
