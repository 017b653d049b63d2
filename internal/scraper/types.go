// Package scraper defines core types shared across subsystems.
package scraper

import "time"

// Unknown is the sentinel stored for any listing field whose value could not
// be resolved on the source page.
const Unknown = "不明"

// JobStatus represents the lifecycle state of a scrape job.
type JobStatus string

// Job status values exposed through the status API.
const (
	JobStatusIdle      JobStatus = "idle"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusError     JobStatus = "error"
)

// SocialAccounts holds classified outbound SNS links for one listing. Entries
// are nil when no matching link was found, never empty strings.
type SocialAccounts struct {
	Twitter   *string `json:"twitter"`
	Instagram *string `json:"instagram"`
	Facebook  *string `json:"facebook"`
}

// Record is one collected restaurant listing. Fields default to Unknown
// rather than being absent; records are immutable once appended to a
// snapshot.
type Record struct {
	Name           string         `json:"name"`
	Address        string         `json:"address"`
	Phone          string         `json:"phone"`
	BusinessDays   string         `json:"businessDays"`
	BusinessHours  string         `json:"businessHours"`
	Parking        string         `json:"parking"`
	Homepage       string         `json:"homepage,omitempty"`
	SourceURL      string         `json:"sourceUrl"`
	SocialAccounts SocialAccounts `json:"socialAccounts"`
}

// NewRecord returns a Record with every listing field set to the sentinel.
func NewRecord(sourceURL string) Record {
	return Record{
		Name:          Unknown,
		Address:       Unknown,
		Phone:         Unknown,
		BusinessDays:  Unknown,
		BusinessHours: Unknown,
		Parking:       Unknown,
		SourceURL:     sourceURL,
	}
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	cp := r
	cp.SocialAccounts = SocialAccounts{
		Twitter:   cloneStringPtr(r.SocialAccounts.Twitter),
		Instagram: cloneStringPtr(r.SocialAccounts.Instagram),
		Facebook:  cloneStringPtr(r.SocialAccounts.Facebook),
	}
	return cp
}

// JobSnapshot is the complete, atomically readable state of the current job.
// Exactly one snapshot exists per process; a new running transition fully
// resets records and counters.
type JobSnapshot struct {
	Status            JobStatus `json:"status"`
	Progress          int       `json:"progress"`
	CurrentPage       int       `json:"currentPage"`
	TotalPages        int       `json:"totalPages"`
	CurrentRestaurant string    `json:"currentRestaurant"`
	Restaurants       []Record  `json:"restaurants"`
	Message           string    `json:"message"`
}

// NewIdleSnapshot returns the snapshot held before any job has run.
func NewIdleSnapshot() JobSnapshot {
	return JobSnapshot{
		Status:      JobStatusIdle,
		TotalPages:  1,
		CurrentPage: 0,
		Restaurants: []Record{},
	}
}

// Clone returns a deep copy so a reader can never observe a torn or mutating
// snapshot.
func (s JobSnapshot) Clone() JobSnapshot {
	cp := s
	cp.Restaurants = make([]Record, len(s.Restaurants))
	for i, r := range s.Restaurants {
		cp.Restaurants[i] = r.Clone()
	}
	return cp
}

// JobParameters captures the inputs to one scrape run. Immutable for the
// duration of the run.
type JobParameters struct {
	Region          string
	Headless        bool
	MaxPages        int
	MaxItemsPerPage int
	ItemDelay       time.Duration
}

// Run defaults applied when a parameter is left zero.
const (
	DefaultMaxPages        = 5
	DefaultMaxItemsPerPage = 20
	DefaultItemDelay       = time.Second
)

// WithDefaults fills zero-valued policy knobs with their defaults.
func (p JobParameters) WithDefaults() JobParameters {
	if p.MaxPages <= 0 {
		p.MaxPages = DefaultMaxPages
	}
	if p.MaxItemsPerPage <= 0 {
		p.MaxItemsPerPage = DefaultMaxItemsPerPage
	}
	if p.ItemDelay == 0 {
		p.ItemDelay = DefaultItemDelay
	}
	return p
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
