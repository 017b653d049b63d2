package scraper

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var parkingCapacityRe = regexp.MustCompile(`(\d+)台`)

// SortDirection orders parking-capacity sorts.
type SortDirection string

// Supported sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// FormatBusinessHours strips closing-order suffixes from a raw hours string.
// Each slot (separated by "/") is cut at the first "L.O." marker, then the
// slots are rejoined with " / ". Display-only; the raw value stays on the
// record.
func FormatBusinessHours(hours string) string {
	if hours == "" {
		return Unknown
	}
	slots := strings.Split(hours, "/")
	formatted := make([]string, len(slots))
	for i, slot := range slots {
		if idx := strings.Index(strings.ToLower(slot), "l.o."); idx != -1 {
			// Drop the bracket that usually wraps the marker.
			slot = strings.TrimRight(slot[:idx], "（( ")
		}
		formatted[i] = strings.TrimSpace(slot)
	}
	return strings.Join(formatted, " / ")
}

// ParkingCapacity extracts the trailing "<n>台" count from a parking string.
// Returns -1 when no count is present.
func ParkingCapacity(parking string) int {
	m := parkingCapacityRe.FindStringSubmatch(parking)
	if m == nil {
		return -1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return n
}

// SortByParking returns a copy of records ordered by parking capacity.
// Entries without a capacity count sort last in both directions.
func SortByParking(records []Record, dir SortDirection) []Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a := ParkingCapacity(sorted[i].Parking)
		b := ParkingCapacity(sorted[j].Parking)
		if a == -1 || b == -1 {
			return b == -1 && a != -1
		}
		if dir == SortAsc {
			return a < b
		}
		return a > b
	})
	return sorted
}

// SNSUsername derives a display handle from an SNS profile URL: "@name" for
// twitter/x/instagram, the bare path head for facebook, the hostname for
// anything else. Unparsable input is returned unchanged.
func SNSUsername(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	head := pathHead(u.Path)
	host := u.Hostname()
	switch {
	case strings.Contains(host, "twitter.com"), strings.Contains(host, "x.com"),
		strings.Contains(host, "instagram.com"):
		if head == "" {
			return ""
		}
		return fmt.Sprintf("@%s", head)
	case strings.Contains(host, "facebook.com"):
		return head
	default:
		return host
	}
}

func pathHead(path string) string {
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			return part
		}
	}
	return ""
}
