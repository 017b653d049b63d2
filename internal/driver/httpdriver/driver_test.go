package httpdriver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/rstLst/", func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("pg")
		switch page {
		case "", "1":
			fmt.Fprint(w, `<html><body>
				<a class="list-rst__rst-name-target" href="/rst/1/">店A</a>
				<a class="list-rst__rst-name-target" href="/rst/2/">店B</a>
				<a href="/rstLst/?pg=2">次の20件</a>
			</body></html>`)
		case "2":
			fmt.Fprint(w, `<html><body>
				<a class="list-rst__rst-name-target" href="/rst/3/">店C</a>
			</body></html>`)
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/rst/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body><h2 class="display-name">テスト店</h2></body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestDriver(t *testing.T, baseURL string) *Driver {
	t.Helper()
	d, err := New(Config{BaseURL: baseURL + "/rstLst/"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return d
}

func TestNewValidation(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestWalkResultPages(t *testing.T) {
	srv := newFixtureServer(t)
	d := newTestDriver(t, srv.URL)
	ctx := context.Background()

	if err := d.OpenResultList(ctx, "東京都"); err != nil {
		t.Fatalf("OpenResultList() error = %v", err)
	}

	links, err := d.ListItemLinks(ctx)
	if err != nil {
		t.Fatalf("ListItemLinks() error = %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}
	if links[0] != srv.URL+"/rst/1/" {
		t.Fatalf("link not resolved to absolute: %q", links[0])
	}

	hasNext, err := d.HasNextPage(ctx)
	if err != nil {
		t.Fatalf("HasNextPage() error = %v", err)
	}
	if !hasNext {
		t.Fatal("expected a next page on page 1")
	}

	if err := d.NextPage(ctx); err != nil {
		t.Fatalf("NextPage() error = %v", err)
	}

	links, err = d.ListItemLinks(ctx)
	if err != nil {
		t.Fatalf("ListItemLinks() error = %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("got %d links on page 2, want 1", len(links))
	}

	hasNext, err = d.HasNextPage(ctx)
	if err != nil {
		t.Fatalf("HasNextPage() error = %v", err)
	}
	if hasNext {
		t.Fatal("expected no next page on page 2")
	}
}

func TestFetchDetail(t *testing.T) {
	srv := newFixtureServer(t)
	d := newTestDriver(t, srv.URL)

	doc, err := d.FetchDetail(context.Background(), srv.URL+"/rst/1/")
	if err != nil {
		t.Fatalf("FetchDetail() error = %v", err)
	}
	if got := doc.Find(".display-name").Text(); got != "テスト店" {
		t.Fatalf("detail name = %q", got)
	}
}

func TestOperationsBeforeOpen(t *testing.T) {
	t.Parallel()

	d, err := New(Config{BaseURL: "https://tabelog.example/rstLst/"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := d.ListItemLinks(context.Background()); err == nil {
		t.Fatal("expected error before OpenResultList")
	}
	if _, err := d.HasNextPage(context.Background()); err == nil {
		t.Fatal("expected error before OpenResultList")
	}
	if err := d.NextPage(context.Background()); err == nil {
		t.Fatal("expected error before OpenResultList")
	}
}
