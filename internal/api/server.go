package api

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/lox/airguard/internal/airquality"
	"github.com/lox/airguard/internal/components"
	"github.com/lox/airguard/internal/imagegen"
	"github.com/lox/airguard/internal/models"
	"github.com/lox/airguard/internal/openaq"
	"github.com/lox/airguard/internal/store"
)

// Upstream fetches latest measurements for the /air proxy.
type Upstream interface {
	Configured() bool
	FetchLatest(ctx context.Context, lat, lon float64) (*openaq.Response, error)
}

// Drafter writes recommendation text for a city.
type Drafter interface {
	Draft(ctx context.Context, agg models.CityAggregate) (string, error)
}

type Options struct {
	Addr       string
	Engine     airquality.Engine // zero Formula means DefaultFormula
	Upstream   Upstream
	Drafter    Drafter // optional
	ProxyRate  float64 // requests per second; zero disables limiting
	ProxyBurst int
	Logger     *slog.Logger
}

type Server struct {
	store      *store.Store
	addr       string
	engine     airquality.Engine
	upstream   Upstream
	drafter    Drafter
	limiter    *rate.Limiter
	logger     *slog.Logger
	tmpl       *template.Template
	components *components.Registry
	cardCache  *imagegen.CardCache
}

func NewServer(st *store.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var limiter *rate.Limiter
	if opts.ProxyRate > 0 {
		burst := opts.ProxyBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.ProxyRate), burst)
	}

	engine := opts.Engine
	if engine.Formula == (airquality.Formula{}) {
		engine.Formula = airquality.DefaultFormula
	}

	s := &Server{
		store:     st,
		addr:      opts.Addr,
		engine:    engine,
		upstream:  opts.Upstream,
		drafter:   opts.Drafter,
		limiter:   limiter,
		logger:    logger.With("component", "api"),
		tmpl:      newTemplates(),
		cardCache: imagegen.NewCardCache(5 * time.Minute),
	}
	s.components = s.registerComponents()
	return s
}

// Components returns the registry the shell renders from.
func (s *Server) Components() *components.Registry {
	return s.components
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.accessLog)
	r.Use(cors)

	r.Get("/", s.handleIndex)
	r.Get("/components/{name}", s.handleComponent)

	r.Get("/air", s.handleAir)
	r.Get("/calidad-aire", s.handleListReadings)
	r.Get("/health", s.handleHealth)
	r.Get("/og-image.png", s.handleOGImage)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/recommendations", s.handleFormCreateRecommendation)
	r.Post("/recommendations/{id}", s.handleFormUpdateRecommendation)
	r.Post("/recommendations/{id}/delete", s.handleFormDeleteRecommendation)

	r.Route("/api", func(r chi.Router) {
		r.Get("/readings", s.handleListReadings)
		r.Post("/readings", s.handleImportReadings)
		r.Put("/readings", s.handleReplaceReadings)
		r.Get("/aggregates", s.handleAggregates)
		r.Get("/ranking", s.handleRanking)
		r.Get("/summary", s.handleSummary)
		r.Get("/series", s.handleSeries)
		r.Get("/classify", s.handleClassify)
		r.Get("/report.xlsx", s.handleReport)

		r.Get("/recommendations", s.handleListRecommendations)
		r.Post("/recommendations", s.handleCreateRecommendation)
		r.Post("/recommendations/draft", s.handleDraftRecommendation)
		r.Get("/recommendations/{id}", s.handleGetRecommendation)
		r.Put("/recommendations/{id}", s.handleUpdateRecommendation)
		r.Delete("/recommendations/{id}", s.handleDeleteRecommendation)

		r.Get("/locations", s.handleLocations)
		r.Get("/locations/{id}/latest", s.handleLocationLatest)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found: "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("listening", "addr", s.addr)
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
