// Package csvfile renders collected records as a downloadable CSV.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/Hiromu1612/tabelog-scraper/internal/export/table"
	"github.com/Hiromu1612/tabelog-scraper/internal/scraper"
)

// utf8BOM lets spreadsheet applications detect the encoding of the
// Japanese column headers.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Filename returns the download name for a region's export on the given day.
func Filename(region string, now time.Time) string {
	return fmt.Sprintf("%s_飲食店リスト_%s.csv", region, now.Format("2006-01-02"))
}

// Write streams the records as BOM-prefixed CSV.
func Write(w io.Writer, records []scraper.Record) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(table.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(table.Row(i+1, rec)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
