package scraper

import "testing"

func TestFormatBusinessHours(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "strips closing order per slot",
			in:   "11:00-15:00(L.O.14:30)/17:00-22:00(L.O.21:30)",
			want: "11:00-15:00 / 17:00-22:00",
		},
		{
			name: "no marker",
			in:   "10:00-20:00",
			want: "10:00-20:00",
		},
		{
			name: "case insensitive marker",
			in:   "11:30-14:00（l.o.13:30）",
			want: "11:30-14:00",
		},
		{
			name: "single slot with marker",
			in:   "17:00-23:00 (L.O.22:00)",
			want: "17:00-23:00",
		},
		{
			name: "empty input is unknown",
			in:   "",
			want: Unknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FormatBusinessHours(tt.in); got != tt.want {
				t.Fatalf("FormatBusinessHours(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParkingCapacity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"10台", 10},
		{"3台", 3},
		{"専用駐車場20台あり", 20},
		{"なし", -1},
		{"", -1},
		{Unknown, -1},
	}
	for _, tt := range tests {
		if got := ParkingCapacity(tt.in); got != tt.want {
			t.Fatalf("ParkingCapacity(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestSortByParking(t *testing.T) {
	t.Parallel()

	records := []Record{
		{Name: "ten", Parking: "10台"},
		{Name: "none", Parking: "なし"},
		{Name: "three", Parking: "3台"},
	}

	desc := SortByParking(records, SortDesc)
	if desc[0].Name != "ten" || desc[1].Name != "three" || desc[2].Name != "none" {
		t.Fatalf("descending order wrong: %v %v %v", desc[0].Name, desc[1].Name, desc[2].Name)
	}

	asc := SortByParking(records, SortAsc)
	if asc[0].Name != "three" || asc[1].Name != "ten" || asc[2].Name != "none" {
		t.Fatalf("ascending order wrong: %v %v %v", asc[0].Name, asc[1].Name, asc[2].Name)
	}

	// Input slice must not be reordered.
	if records[0].Name != "ten" {
		t.Fatal("SortByParking mutated its input")
	}
}

func TestSNSUsername(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://twitter.com/foo", "@foo"},
		{"https://x.com/foo/status/1", "@foo"},
		{"https://instagram.com/bar/", "@bar"},
		{"https://facebook.com/baz", "baz"},
		{"https://example.com/x", "example.com"},
		{"", ""},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		if got := SNSUsername(tt.in); got != tt.want {
			t.Fatalf("SNSUsername(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
