package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/airguard/internal/advice"
	"github.com/lox/airguard/internal/airquality"
	"github.com/lox/airguard/internal/api"
	"github.com/lox/airguard/internal/ingest"
	"github.com/lox/airguard/internal/report"
)

type ServeCmd struct {
	Addr          string  `help:"HTTP listen address." default:":8080" env:"AIRGUARD_ADDR"`
	Poll          string  `help:"Cron schedule for upstream polling." default:"@every 30m" env:"AIRGUARD_POLL"`
	NoPoll        bool    `help:"Disable upstream polling (server only, for local dev)."`
	Seed          string  `help:"JSON file of readings to import at startup." type:"existingfile"`
	ProxyRate     float64 `help:"Requests per second allowed through the /air proxy." default:"5"`
	ProxyBurst    int     `help:"Burst size for the /air proxy." default:"10"`
	OpenAIKey     string  `name:"openai-key" help:"OpenAI API key for drafted recommendations." env:"OPENAI_API_KEY"`
	StrictCountry bool    `help:"Reject readings whose country disagrees with earlier readings of the same city."`
}

func (c *ServeCmd) Run(g *Globals) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, closeDB, err := g.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	if err := g.seedLocations(ctx, st); err != nil {
		return err
	}

	if c.Seed != "" {
		f, err := os.Open(c.Seed)
		if err != nil {
			return fmt.Errorf("open seed: %w", err)
		}
		_, err = ingest.ImportReadings(ctx, st, f, "seed", g.logger)
		f.Close()
		if err != nil {
			return fmt.Errorf("import seed: %w", err)
		}
	}

	var drafter api.Drafter
	if c.OpenAIKey != "" {
		advisor, err := advice.NewAdvisor(c.OpenAIKey, g.logger)
		if err != nil {
			return err
		}
		drafter = advisor
	} else {
		g.logger.Info("recommendation drafting disabled (no OpenAI key)")
	}

	upstream := g.openAQ()
	if !upstream.Configured() {
		g.logger.Warn("OpenAQ API key not set; /air proxy and polling disabled")
	}

	server := api.NewServer(st, api.Options{
		Addr:       c.Addr,
		Engine:     engineFor(c.StrictCountry),
		Upstream:   upstream,
		Drafter:    drafter,
		ProxyRate:  c.ProxyRate,
		ProxyBurst: c.ProxyBurst,
		Logger:     g.logger,
	})

	group, ctx := errgroup.WithContext(ctx)
	if !c.NoPoll && upstream.Configured() {
		poller := ingest.NewPoller(st, upstream, c.Poll, g.logger)
		group.Go(func() error { return poller.Run(ctx) })
	} else {
		g.logger.Info("polling disabled")
	}
	group.Go(func() error { return server.Run(ctx) })

	return group.Wait()
}

type ImportCmd struct {
	File    string `arg:"" help:"JSON file of readings." type:"existingfile"`
	Replace bool   `help:"Replace the stored dataset instead of appending to it."`
}

func (c *ImportCmd) Run(g *Globals) error {
	st, closeDB, err := g.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx := context.Background()
	if c.Replace {
		n, err := ingest.ReplaceReadings(ctx, st, f, "cli", g.logger)
		if err != nil {
			return err
		}
		fmt.Printf("replaced dataset with %d readings\n", n)
		return nil
	}

	n, err := ingest.ImportReadings(ctx, st, f, "cli", g.logger)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d readings\n", n)
	return nil
}

type AggregateCmd struct {
	File          string `arg:"" help:"JSON file of readings." type:"existingfile"`
	Field         string `help:"Field to rank by (pm2_5, pm10, co, o3, no2, total, quality, contamination)." default:"pm2_5"`
	Desc          bool   `help:"Rank in descending order."`
	StrictCountry bool   `help:"Reject readings whose country disagrees with earlier readings of the same city."`
}

func (c *AggregateCmd) Run(g *Globals) error {
	field, err := airquality.ParseField(c.Field)
	if err != nil {
		return err
	}

	f, err := os.Open(c.File)
	if err != nil {
		return err
	}
	defer f.Close()

	readings, err := airquality.DecodeReadings(f)
	if err != nil {
		return err
	}
	aggs, err := engineFor(c.StrictCountry).AggregateByCity(readings)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(airquality.RankByPollutant(aggs, field, !c.Desc))
}

type ReportCmd struct {
	Out string `arg:"" help:"Output .xlsx path."`
}

func (c *ReportCmd) Run(g *Globals) error {
	st, closeDB, err := g.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	readings, err := st.ListReadings(context.Background())
	if err != nil {
		return err
	}
	summary, err := airquality.Summarize(readings)
	if err != nil {
		return err
	}
	out, err := report.Build(summary, time.Now())
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.Out, out, 0644); err != nil {
		return err
	}
	g.logger.Info("report written", "path", c.Out, "cities", summary.CityCount)
	return nil
}

type PollCmd struct{}

func (c *PollCmd) Run(g *Globals) error {
	upstream := g.openAQ()
	if !upstream.Configured() {
		return errors.New("OPENAQ_API_KEY is required to poll")
	}

	st, closeDB, err := g.openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	ctx := context.Background()
	if err := g.seedLocations(ctx, st); err != nil {
		return err
	}

	result, err := ingest.NewPoller(st, upstream, "", g.logger).PollOnce(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("run %s: %d archived, %d unchanged, %d failed\n", result.RunID, result.Archived, result.Duplicates, result.Failed)
	return nil
}
