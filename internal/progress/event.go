// Package progress defines the run events emitted by the scrape controller.
package progress

import (
	"errors"
	"fmt"
	"time"
)

// Stage denotes the type of milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageJobStart  Stage = "JOB_START"
	StageItemDone  Stage = "ITEM_DONE"
	StageItemError Stage = "ITEM_ERROR"
	StagePageDone  Stage = "PAGE_DONE"
	StageJobDone   Stage = "JOB_DONE"
	StageJobError  Stage = "JOB_ERROR"
	StageJobStop   Stage = "JOB_STOP"
)

// Event captures a single milestone of a scrape run.
type Event struct {
	// RunID uniquely identifies one scrape run.
	RunID string
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Region is the run's geographic scope.
	Region string
	// Page is the 1-based result page the event belongs to, when relevant.
	Page int
	// URL is the item detail URL for item events.
	URL string
	// Name is the extracted listing name for item events.
	Name string
	// Items counts collected records at job completion events.
	Items int
	// Dur captures item extraction latency or total job wall time.
	Dur time.Duration
	// Note carries low-volume debug context such as error text.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageJobStart, StageJobDone, StageJobError, StageJobStop, StagePageDone:
	case StageItemDone, StageItemError:
		if e.URL == "" {
			return errors.New("item events require a url")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
