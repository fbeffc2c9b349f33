package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/lox/airguard/internal/metrics"
	"github.com/lox/airguard/internal/models"
	"github.com/lox/airguard/internal/openaq"
)

const DefaultPollSpec = "@every 30m"

// DefaultRetentionDays is how long archived payloads are kept.
const DefaultRetentionDays = 30

type Fetcher interface {
	FetchLatestWithRetry(ctx context.Context, lat, lon float64) (*openaq.Response, error)
}

type PayloadStore interface {
	ActiveLocations(ctx context.Context) ([]models.Location, error)
	StoreRawPayload(ctx context.Context, p models.RawPayload) (bool, error)
	CleanupOldRawPayloads(ctx context.Context, retentionDays int) (int64, error)
}

// PollResult summarises one pass over the active locations.
type PollResult struct {
	RunID      string
	Locations  int
	Archived   int
	Duplicates int
	Failed     int
}

type Poller struct {
	store         PayloadStore
	fetcher       Fetcher
	logger        *slog.Logger
	spec          string
	RetentionDays int
}

func NewPoller(st PayloadStore, fetcher Fetcher, spec string, logger *slog.Logger) *Poller {
	if spec == "" {
		spec = DefaultPollSpec
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		store:         st,
		fetcher:       fetcher,
		logger:        logger.With("component", "poller"),
		spec:          spec,
		RetentionDays: DefaultRetentionDays,
	}
}

// Run polls once immediately, then on the cron schedule until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(p.spec, func() { p.poll(ctx) }); err != nil {
		return fmt.Errorf("schedule poll %q: %w", p.spec, err)
	}

	p.poll(ctx)
	c.Start()
	p.logger.Info("poller started", "schedule", p.spec)

	<-ctx.Done()
	stopped := c.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(30 * time.Second):
		p.logger.Warn("poller: timed out waiting for running poll")
	}
	p.logger.Info("poller: shutting down")
	return nil
}

func (p *Poller) poll(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := p.PollOnce(ctx); err != nil {
		p.logger.Error("poll failed", "error", err)
	}
}

// PollOnce fetches the latest measurements for every active location and
// archives each response. Per-location failures are logged and counted; only
// a failure to list locations is returned.
func (p *Poller) PollOnce(ctx context.Context) (PollResult, error) {
	result := PollResult{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", result.RunID)

	locs, err := p.store.ActiveLocations(ctx)
	if err != nil {
		return result, fmt.Errorf("list locations: %w", err)
	}
	result.Locations = len(locs)

	for _, loc := range locs {
		resp, err := p.fetcher.FetchLatestWithRetry(ctx, loc.Latitude, loc.Longitude)
		if err != nil {
			logger.Warn("fetch latest failed", "location", loc.LocationID, "error", err)
			metrics.PayloadsArchived.WithLabelValues(loc.LocationID, "error").Inc()
			result.Failed++
			continue
		}

		inserted, err := p.store.StoreRawPayload(ctx, models.RawPayload{
			LocationID:  loc.LocationID,
			RunID:       result.RunID,
			FetchedAt:   time.Now().UTC(),
			HTTPStatus:  resp.StatusCode,
			ContentType: resp.ContentType,
			Body:        resp.Body,
		})
		if err != nil {
			logger.Error("store raw payload", "location", loc.LocationID, "error", err)
			metrics.PayloadsArchived.WithLabelValues(loc.LocationID, "error").Inc()
			result.Failed++
			continue
		}
		if inserted {
			metrics.PayloadsArchived.WithLabelValues(loc.LocationID, "archived").Inc()
			result.Archived++
		} else {
			metrics.PayloadsArchived.WithLabelValues(loc.LocationID, "duplicate").Inc()
			result.Duplicates++
		}
	}

	if p.RetentionDays > 0 {
		if n, err := p.store.CleanupOldRawPayloads(ctx, p.RetentionDays); err != nil {
			logger.Warn("cleanup raw payloads", "error", err)
		} else if n > 0 {
			logger.Info("cleaned up raw payloads", "deleted", n)
		}
	}

	logger.Info("poll complete",
		"locations", result.Locations,
		"archived", result.Archived,
		"duplicates", result.Duplicates,
		"failed", result.Failed)
	return result, nil
}
