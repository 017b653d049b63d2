package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/Hiromu1612/tabelog-scraper/internal/scraper"
)

const detailPage = `
<html><body>
<h2 class="display-name"> らーめん太郎 </h2>
<table class="rstinfo-table__table">
  <tr class="rstinfo-table__table-row">
    <th class="rstinfo-table__table-title">住所</th>
    <td class="rstinfo-table__table-content">東京都新宿区1-2-3</td>
  </tr>
  <tr class="rstinfo-table__table-row">
    <th class="rstinfo-table__table-title">予約・お問い合わせ</th>
    <td class="rstinfo-table__table-content">03-1234-5678</td>
  </tr>
  <tr class="rstinfo-table__table-row">
    <th class="rstinfo-table__table-title">営業時間</th>
    <td class="rstinfo-table__table-content">11:00-15:00(L.O.14:30)/17:00-22:00(L.O.21:30)</td>
  </tr>
  <tr class="rstinfo-table__table-row">
    <th class="rstinfo-table__table-title">定休日</th>
    <td class="rstinfo-table__table-content">月曜日</td>
  </tr>
  <tr class="rstinfo-table__table-row">
    <th class="rstinfo-table__table-title">ホームページ</th>
    <td class="rstinfo-table__table-content"><a href="https://taro-ramen.example.jp">公式</a></td>
  </tr>
  <tr class="rstinfo-table__table-row">
    <th class="rstinfo-table__table-title">駐車場</th>
    <td class="rstinfo-table__table-content"></td>
  </tr>
</table>
<table>
  <tr><td>x</td></tr><tr><td>x</td></tr><tr><td>x</td></tr>
  <tr><td>x</td></tr><tr><td>x</td></tr>
  <tr><td>専用駐車場10台あり</td></tr>
</table>
<a class="rstinfo-sns__link" href="https://twitter.com/taro_ramen">Twitter</a>
<a class="rstinfo-sns__link" href="https://instagram.com/taro_ramen">Instagram</a>
<a class="rstinfo-sns__link" href="https://example.com/x">Other</a>
</body></html>`

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func TestExtractFullDetailPage(t *testing.T) {
	t.Parallel()

	rec, err := Extract(mustDoc(t, detailPage), "https://tabelog.com/tokyo/1/")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if rec.Name != "らーめん太郎" {
		t.Fatalf("name = %q", rec.Name)
	}
	if rec.Address != "東京都新宿区1-2-3" {
		t.Fatalf("address = %q", rec.Address)
	}
	if rec.Phone != "03-1234-5678" {
		t.Fatalf("phone = %q", rec.Phone)
	}
	if rec.BusinessHours != "11:00-15:00(L.O.14:30)/17:00-22:00(L.O.21:30)" {
		t.Fatalf("hours must stay raw, got %q", rec.BusinessHours)
	}
	if rec.BusinessDays != "月曜日" {
		t.Fatalf("days = %q", rec.BusinessDays)
	}
	if rec.Homepage != "https://taro-ramen.example.jp" {
		t.Fatalf("homepage = %q", rec.Homepage)
	}
	if rec.Parking != "専用駐車場10台あり" {
		t.Fatalf("parking = %q", rec.Parking)
	}
	if rec.SourceURL != "https://tabelog.com/tokyo/1/" {
		t.Fatalf("source url = %q", rec.SourceURL)
	}
}

func TestExtractClassifiesSNSLinks(t *testing.T) {
	t.Parallel()

	rec, err := Extract(mustDoc(t, detailPage), "u")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if rec.SocialAccounts.Twitter == nil || *rec.SocialAccounts.Twitter != "https://twitter.com/taro_ramen" {
		t.Fatalf("twitter = %v", rec.SocialAccounts.Twitter)
	}
	if rec.SocialAccounts.Instagram == nil || *rec.SocialAccounts.Instagram != "https://instagram.com/taro_ramen" {
		t.Fatalf("instagram = %v", rec.SocialAccounts.Instagram)
	}
	if rec.SocialAccounts.Facebook != nil {
		t.Fatalf("facebook should be nil, got %v", *rec.SocialAccounts.Facebook)
	}
	// The unmatched link is ignored, never treated as homepage.
	if strings.Contains(rec.Homepage, "example.com") {
		t.Fatalf("unmatched SNS link leaked into homepage: %q", rec.Homepage)
	}
}

func TestExtractMissingParkingRowYieldsSentinel(t *testing.T) {
	t.Parallel()

	const page = `
<html><body>
<h2 class="display-name">店</h2>
<table class="rstinfo-table__table">
  <tr class="rstinfo-table__table-row">
    <th class="rstinfo-table__table-title">住所</th>
    <td class="rstinfo-table__table-content">どこか</td>
  </tr>
</table>
</body></html>`

	rec, err := Extract(mustDoc(t, page), "u")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if rec.Parking != scraper.Unknown {
		t.Fatalf("parking = %q, want sentinel", rec.Parking)
	}
	if rec.Phone != scraper.Unknown || rec.BusinessHours != scraper.Unknown {
		t.Fatal("missing rows must resolve to sentinel without shifting other fields")
	}
}

func TestExtractEmptyPageFails(t *testing.T) {
	t.Parallel()

	_, err := Extract(mustDoc(t, "<html><body><p>not a detail page</p></body></html>"), "u")
	if err == nil {
		t.Fatal("expected extraction error for missing container")
	}
	if !errors.Is(err, ErrNoDetailContainer) {
		t.Fatalf("error = %v, want ErrNoDetailContainer", err)
	}
	var extractionErr *scraper.ExtractionError
	if !errors.As(err, &extractionErr) {
		t.Fatalf("error %v is not classified as item-level", err)
	}
}
