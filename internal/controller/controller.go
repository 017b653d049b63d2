// Package controller drives the scrape job lifecycle: one background run at
// a time, walking the paged result set and publishing snapshots as it goes.
package controller

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Hiromu1612/tabelog-scraper/internal/extract"
	"github.com/Hiromu1612/tabelog-scraper/internal/pager"
	"github.com/Hiromu1612/tabelog-scraper/internal/progress"
	"github.com/Hiromu1612/tabelog-scraper/internal/scraper"
	"github.com/Hiromu1612/tabelog-scraper/internal/store"
)

// DriverFactory opens a fresh page driver for one run. The headless flag is
// forwarded from the job parameters.
type DriverFactory func(headless bool) (scraper.Driver, error)

// Controller owns the single-active-job invariant. Start rejects while a run
// is active; RequestStop is advisory and observed only between items and
// pages, so an in-flight extraction always finishes.
type Controller struct {
	newDriver DriverFactory
	store     *store.StatusStore
	emitter   progress.Emitter
	clock     scraper.Clock
	idGen     scraper.IDGenerator
	logger    *zap.Logger

	mu      sync.Mutex
	running bool
	stop    atomic.Bool
}

// New constructs a Controller.
func New(
	newDriver DriverFactory,
	statusStore *store.StatusStore,
	emitter progress.Emitter,
	clock scraper.Clock,
	idGen scraper.IDGenerator,
	logger *zap.Logger,
) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		newDriver: newDriver,
		store:     statusStore,
		emitter:   emitter,
		clock:     clock,
		idGen:     idGen,
		logger:    logger,
	}
}

// Start resets the status store to a fresh running snapshot and begins the
// run asynchronously. Returns scraper.ErrAlreadyRunning while a job is
// active, without touching the existing snapshot.
func (c *Controller) Start(params scraper.JobParameters) error {
	if params.Region == "" {
		return scraper.ErrMissingRegion
	}
	params = params.WithDefaults()

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return scraper.ErrAlreadyRunning
	}
	c.running = true
	c.stop.Store(false)
	c.mu.Unlock()

	snap := scraper.JobSnapshot{
		Status:      scraper.JobStatusRunning,
		Progress:    0,
		CurrentPage: 1,
		TotalPages:  params.MaxPages,
		Restaurants: []scraper.Record{},
		Message:     fmt.Sprintf("%sの飲食店情報の収集を開始しました", params.Region),
	}
	c.store.Publish(snap)

	go c.run(params, snap)
	return nil
}

// RequestStop asks the active run to stop at the next loop boundary. The run
// still reaches a terminal snapshot with whatever records were collected.
func (c *Controller) RequestStop() {
	c.stop.Store(true)
}

// Running reports whether a job is currently active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Controller) run(params scraper.JobParameters, snap scraper.JobSnapshot) {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	runID := c.newRunID()
	started := c.clock.Now()
	logger := c.logger.With(zap.String("run_id", runID), zap.String("region", params.Region))

	driver, err := c.newDriver(params.Headless)
	if err != nil {
		c.fail(runID, params, snap, started, "open driver", err)
		return
	}
	defer driver.Close()

	c.emit(progress.Event{
		RunID:  runID,
		TS:     started,
		Stage:  progress.StageJobStart,
		Region: params.Region,
	})

	ctx := context.Background()
	if err := driver.OpenResultList(ctx, params.Region); err != nil {
		c.fail(runID, params, snap, started, "open result list", err)
		return
	}

	walker := pager.New(driver, params.MaxItemsPerPage)
	totalExpected := params.MaxPages * params.MaxItemsPerPage
	stopped := false

pages:
	for page := 1; page <= params.MaxPages; page++ {
		if c.stop.Load() {
			stopped = true
			break
		}
		snap.CurrentPage = page
		c.store.Publish(snap)
		logger.Info("walking result page", zap.Int("page", page))

		links, err := walker.ListItemLinks(ctx)
		if err != nil {
			c.fail(runID, params, snap, started, "list item links", err)
			return
		}

		for _, link := range links {
			if c.stop.Load() {
				stopped = true
				break pages
			}
			rec := c.extractItem(ctx, runID, driver, page, link)
			snap.Restaurants = append(snap.Restaurants, rec)
			snap.CurrentRestaurant = rec.Name
			snap.Progress = progressPercent(len(snap.Restaurants), totalExpected)
			c.store.Publish(snap)
			time.Sleep(params.ItemDelay)
		}

		c.emit(progress.Event{
			RunID: runID,
			TS:    c.clock.Now(),
			Stage: progress.StagePageDone,
			Page:  page,
			Items: len(snap.Restaurants),
		})

		hasNext, err := walker.HasNextPage(ctx, page, params.MaxPages)
		if err != nil {
			c.fail(runID, params, snap, started, "resolve next page", err)
			return
		}
		if !hasNext {
			break
		}
		if err := walker.NextPage(ctx); err != nil {
			c.fail(runID, params, snap, started, "advance page", err)
			return
		}
	}

	c.complete(runID, params, snap, started, stopped)
}

// extractItem never fails the run: any driver or parse error yields a
// sentinel record so one bad detail page cannot abort the job.
func (c *Controller) extractItem(
	ctx context.Context,
	runID string,
	driver scraper.Driver,
	page int,
	link string,
) scraper.Record {
	itemStart := c.clock.Now()
	doc, err := driver.FetchDetail(ctx, link)
	if err == nil {
		var rec scraper.Record
		rec, err = extract.Extract(doc, link)
		if err == nil {
			c.emit(progress.Event{
				RunID: runID,
				TS:    c.clock.Now(),
				Stage: progress.StageItemDone,
				Page:  page,
				URL:   link,
				Name:  rec.Name,
				Dur:   c.clock.Now().Sub(itemStart),
			})
			return rec
		}
	}
	c.logger.Warn("item extraction failed", zap.String("url", link), zap.Error(err))
	c.emit(progress.Event{
		RunID: runID,
		TS:    c.clock.Now(),
		Stage: progress.StageItemError,
		Page:  page,
		URL:   link,
		Note:  err.Error(),
	})
	return scraper.NewRecord(link)
}

func (c *Controller) complete(
	runID string,
	params scraper.JobParameters,
	snap scraper.JobSnapshot,
	started time.Time,
	stopped bool,
) {
	snap.Status = scraper.JobStatusCompleted
	snap.Progress = 100
	if stopped {
		snap.Message = fmt.Sprintf(
			"停止リクエストにより終了しました（%d件収集）", len(snap.Restaurants))
	} else {
		snap.Message = fmt.Sprintf(
			"%sの飲食店情報の収集が完了しました（%d件）", params.Region, len(snap.Restaurants))
	}
	c.store.Publish(snap)

	stage := progress.StageJobDone
	if stopped {
		stage = progress.StageJobStop
	}
	c.emit(progress.Event{
		RunID:  runID,
		TS:     c.clock.Now(),
		Stage:  stage,
		Region: params.Region,
		Items:  len(snap.Restaurants),
		Dur:    c.clock.Now().Sub(started),
	})
}

// fail publishes the terminal error snapshot. Errors not already classified
// as job-level are wrapped with the failing operation here, so drivers that
// surface a classified error keep their original op label.
func (c *Controller) fail(
	runID string,
	params scraper.JobParameters,
	snap scraper.JobSnapshot,
	started time.Time,
	op string,
	err error,
) {
	if !scraper.IsEntryError(err) {
		err = scraper.NewEntryError(op, err)
	}
	c.logger.Error("scrape job failed", zap.String("run_id", runID), zap.Error(err))
	snap.Status = scraper.JobStatusError
	snap.Message = fmt.Sprintf("スクレイピング処理中にエラーが発生しました: %v", err)
	c.store.Publish(snap)
	c.emit(progress.Event{
		RunID:  runID,
		TS:     c.clock.Now(),
		Stage:  progress.StageJobError,
		Region: params.Region,
		Items:  len(snap.Restaurants),
		Dur:    c.clock.Now().Sub(started),
		Note:   err.Error(),
	})
}

func (c *Controller) emit(evt progress.Event) {
	if c.emitter == nil {
		return
	}
	c.emitter.Emit(evt)
}

func (c *Controller) newRunID() string {
	if c.idGen == nil {
		return "run"
	}
	id, err := c.idGen.NewID()
	if err != nil {
		c.logger.Warn("run id generation failed", zap.Error(err))
		return "run"
	}
	return id
}

// progressPercent holds at 99 until the terminal snapshot; the estimate in
// totalExpected is a display hint, not a termination signal.
func progressPercent(done, totalExpected int) int {
	if totalExpected <= 0 {
		return 0
	}
	pct := done * 100 / totalExpected
	if pct > 99 {
		pct = 99
	}
	return pct
}
