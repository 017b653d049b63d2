package sheets

import (
	"context"
	"errors"
	"testing"

	"github.com/Hiromu1612/tabelog-scraper/internal/scraper"
)

type fakeAPI struct {
	titles   []string
	added    []string
	cleared  []string
	appendTo string
	values   [][]any

	titlesErr error
	appendErr error
}

func (f *fakeAPI) SheetTitles(_ context.Context, _ string) ([]string, error) {
	if f.titlesErr != nil {
		return nil, f.titlesErr
	}
	return f.titles, nil
}

func (f *fakeAPI) AddSheet(_ context.Context, _, title string) error {
	f.added = append(f.added, title)
	f.titles = append(f.titles, title)
	return nil
}

func (f *fakeAPI) Clear(_ context.Context, _, rangeA1 string) error {
	f.cleared = append(f.cleared, rangeA1)
	return nil
}

func (f *fakeAPI) Append(_ context.Context, _, rangeA1 string, values [][]any) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appendTo = rangeA1
	f.values = values
	return nil
}

func sampleRecords() []scraper.Record {
	a := scraper.NewRecord("https://tabelog.com/tokyo/1/")
	a.Name = "店A"
	b := scraper.NewRecord("https://tabelog.com/tokyo/2/")
	b.Name = "店B"
	return []scraper.Record{a, b}
}

func TestWriteCreatesMissingSheet(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{titles: []string{"北海道"}}
	w, err := NewWriter(api, "sheet-1", nil)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	n, err := w.Write(context.Background(), "東京都", sampleRecords())
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("Write() count = %d, want 2", n)
	}
	if len(api.added) != 1 || api.added[0] != "東京都" {
		t.Fatalf("added sheets = %v, want [東京都]", api.added)
	}
	if len(api.cleared) != 1 || api.cleared[0] != "東京都!A1:Z1000" {
		t.Fatalf("cleared ranges = %v", api.cleared)
	}
	if api.appendTo != "東京都!A1" {
		t.Fatalf("append range = %q", api.appendTo)
	}
	if len(api.values) != 3 {
		t.Fatalf("appended %d rows, want header + 2 records", len(api.values))
	}
	if api.values[0][1] != "店舗名" {
		t.Fatalf("header row wrong: %v", api.values[0])
	}
	if api.values[1][0] != "1" || api.values[2][0] != "2" {
		t.Fatalf("record numbering wrong: %v / %v", api.values[1][0], api.values[2][0])
	}
}

func TestWriteReusesExistingSheet(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{titles: []string{"東京都"}}
	w, err := NewWriter(api, "sheet-1", nil)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	if _, err := w.Write(context.Background(), "東京都", sampleRecords()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if len(api.added) != 0 {
		t.Fatalf("sheet recreated: %v", api.added)
	}
}

func TestWriteSurfacesAPIFailures(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{titles: []string{"東京都"}, appendErr: errors.New("quota exceeded")}
	w, err := NewWriter(api, "sheet-1", nil)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	if _, err := w.Write(context.Background(), "東京都", sampleRecords()); err == nil {
		t.Fatal("expected append failure to surface")
	}
}

func TestNewWriterRequiresSpreadsheetID(t *testing.T) {
	t.Parallel()

	if _, err := NewWriter(&fakeAPI{}, "", nil); err == nil {
		t.Fatal("expected error for empty spreadsheet id")
	}
}
