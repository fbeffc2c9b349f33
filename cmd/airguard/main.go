package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"github.com/lox/airguard/internal/airquality"
	"github.com/lox/airguard/internal/logging"
	"github.com/lox/airguard/internal/models"
	"github.com/lox/airguard/internal/openaq"
	"github.com/lox/airguard/internal/store"
)

var version = "dev"

var defaultLocations = []models.Location{
	{LocationID: "quito", Name: "Quito", Country: "Ecuador", Latitude: -0.1807, Longitude: -78.4678, Active: true},
	{LocationID: "guayaquil", Name: "Guayaquil", Country: "Ecuador", Latitude: -2.1709, Longitude: -79.9224, Active: true},
	{LocationID: "cuenca", Name: "Cuenca", Country: "Ecuador", Latitude: -2.9001, Longitude: -79.0059, Active: true},
}

type Globals struct {
	DB        string `help:"Path to SQLite database." default:"data/airguard.db" env:"AIRGUARD_DB"`
	Env       string `help:"Runtime environment." enum:"dev,prod" default:"dev" env:"APP_ENV"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info" env:"LOG_LEVEL"`
	OpenAQKey string `name:"openaq-key" help:"OpenAQ API key." env:"OPENAQ_API_KEY"`
	OpenAQURL string `name:"openaq-url" help:"OpenAQ API base URL." default:"https://api.openaq.org" env:"OPENAQ_URL"`

	logger *slog.Logger
}

type CLI struct {
	Globals

	Serve     ServeCmd     `cmd:"" default:"1" help:"Run the HTTP server and poller."`
	Import    ImportCmd    `cmd:"" help:"Import a JSON array of readings into the database."`
	Aggregate AggregateCmd `cmd:"" help:"Aggregate a JSON file of readings and print the result."`
	Report    ReportCmd    `cmd:"" help:"Write an Excel report of the stored readings."`
	Poll      PollCmd      `cmd:"" help:"Poll every active location once."`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("airguard"),
		kong.Description("Urban air quality aggregation service."),
		kong.UsageOnError(),
	)

	level, err := logging.ParseLevel(cli.LogLevel)
	ctx.FatalIfErrorf(err)
	cli.logger = logging.New(os.Stderr, cli.Env, level, version)
	slog.SetDefault(cli.logger)

	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}

// openStore opens and migrates the database.
func (g *Globals) openStore() (*store.Store, func(), error) {
	if dir := filepath.Dir(g.DB); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", g.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL")
	db.Exec("PRAGMA busy_timeout=5000")

	st := store.New(db, g.logger)
	if err := st.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return st, func() { db.Close() }, nil
}

func (g *Globals) seedLocations(ctx context.Context, st *store.Store) error {
	for _, loc := range defaultLocations {
		if err := st.UpsertLocation(ctx, loc); err != nil {
			return fmt.Errorf("upsert location %s: %w", loc.LocationID, err)
		}
	}
	g.logger.Info("locations seeded", "count", len(defaultLocations))
	return nil
}

func (g *Globals) openAQ() *openaq.Client {
	return openaq.NewClient(g.OpenAQURL, g.OpenAQKey)
}

func engineFor(strictCountry bool) airquality.Engine {
	e := airquality.DefaultEngine
	if strictCountry {
		e.CountryPolicy = airquality.CountryStrict
	}
	return e
}
