// Package main - консольная утилита рейтинга семинара.
//
// Утилита пересчитывает оценки, показывает рейтинг группы или всего потока,
// позицию участника, топ и статистику. Команда seed загружает состав
// из YAML-файла, serve поднимает HTTP API с /healthz и /metrics и
// пересчитывает оценки по SIGHUP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alem-hub/seminar-rating/config"
	"github.com/alem-hub/seminar-rating/internal/application/command"
	"github.com/alem-hub/seminar-rating/internal/application/query"
	"github.com/alem-hub/seminar-rating/internal/domain/rating"
	"github.com/alem-hub/seminar-rating/internal/domain/shared"
	"github.com/alem-hub/seminar-rating/internal/infrastructure/metrics"
	"github.com/alem-hub/seminar-rating/internal/infrastructure/persistence/redis"
	httpapi "github.com/alem-hub/seminar-rating/internal/interface/http"
	"github.com/alem-hub/seminar-rating/internal/interface/http/handlers"
	"github.com/alem-hub/seminar-rating/internal/interface/telegram/presenter"
)

const usage = `usage: rating [-seed file.yaml] <command> [args]

commands:
  migrate                       show migration status (postgres)
  recalculate                   recompute all grades
  overall                       overall rating
  group <id>                    rating of one group
  position [-group] <id>        position of a participant
  top [-group id] [-n N]        top N of a group or overall
  stats [-group id]             rating statistics
  seed <file.yaml>              load a roster into the store
  serve                         run the HTTP API, recompute on SIGHUP
`

// errUsage возвращается при неверных аргументах командной строки.
var errUsage = errors.New("invalid arguments")

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. РАЗБОР АРГУМЕНТОВ
	// ─────────────────────────────────────────────────────────────────────────
	fs := flag.NewFlagSet("rating", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	seedPath := fs.String("seed", "", "load a roster file before running the command")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: command is required", errUsage)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Debug("starting seminar rating",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"driver", cfg.Database.Driver,
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ХРАНИЛИЩЕ
	// ─────────────────────────────────────────────────────────────────────────
	backend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer backend.Close()

	// ─────────────────────────────────────────────────────────────────────────
	// 5. МЕТРИКИ (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var recorder rating.Metrics = rating.NopMetrics{}
	var registry *prometheus.Registry

	if cfg.Features.IsEnabled(config.FeatureMetrics) {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewPrometheusMetrics(registry)
		log.Debug("metrics enabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. УВЕДОМЛЕНИЯ ЧЕРЕЗ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	recalcOpts := []command.Option{
		command.WithMetrics(recorder),
		command.WithLogger(log),
	}
	var cache *redis.Cache

	if cfg.Redis.Enabled && cfg.Features.IsEnabled(config.FeatureNotifications) {
		redisCfg := redis.DefaultConfig()
		redisCfg.Addr = cfg.Redis.Addr
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.DialTimeout = cfg.Redis.DialTimeout

		cache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, notifications disabled", "error", err)
		} else {
			defer cache.Close()
			publisher := redis.NewEventPublisher(cache, cfg.Redis.Channel, log)
			recalcOpts = append(recalcOpts, command.WithPublisher(publisher))
			log.Debug("Redis notifications enabled", "addr", cfg.Redis.Addr)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. APPLICATION LAYER
	// ─────────────────────────────────────────────────────────────────────────
	recalc := command.NewRecalculateRatingsHandler(backend.source, backend.store, recalcOpts...)
	ratings := query.NewGetRatingHandler(backend.source, backend.store, recalc, recorder, log)

	app := &application{
		cfg:       cfg,
		log:       log,
		backend:   backend,
		recalc:    recalc,
		ratings:   ratings,
		stats:     query.NewGetRatingStatisticsHandler(ratings),
		presenter: presenter.NewRatingPresenter(cfg.Rating.DisplayLimit),
		registry:  registry,
		cache:     cache,
		out:       out,
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ЗАГРУЗКА СОСТАВА И ВЫПОЛНЕНИЕ КОМАНДЫ
	// ─────────────────────────────────────────────────────────────────────────
	if *seedPath != "" {
		if err := app.seed(ctx, *seedPath); err != nil {
			return err
		}
	}

	return app.execute(ctx, fs.Arg(0), fs.Args()[1:])
}

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION
// ══════════════════════════════════════════════════════════════════════════════

// application связывает обработчики, презентер и вывод.
type application struct {
	cfg       *config.Config
	log       *slog.Logger
	backend   *backend
	recalc    *command.RecalculateRatingsHandler
	ratings   *query.GetRatingHandler
	stats     *query.GetRatingStatisticsHandler
	presenter *presenter.RatingPresenter
	registry  *prometheus.Registry
	cache     *redis.Cache
	out       io.Writer
}

// execute выполняет команду.
func (a *application) execute(ctx context.Context, name string, args []string) error {
	switch name {
	case "migrate":
		return a.migrate(ctx)
	case "recalculate":
		return a.recalculate(ctx)
	case "overall":
		return a.overall(ctx)
	case "group":
		return a.group(ctx, args)
	case "position":
		return a.position(ctx, args)
	case "top":
		return a.top(ctx, args)
	case "stats":
		return a.statistics(ctx, args)
	case "seed":
		if len(args) != 1 {
			return fmt.Errorf("%w: seed needs a file", errUsage)
		}
		return a.seed(ctx, args[0])
	case "serve":
		return a.serve(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
}

func (a *application) print(s string) {
	fmt.Fprintln(a.out, s)
}

// ─────────────────────────────────────────────────────────────────────────────
// COMMANDS
// ─────────────────────────────────────────────────────────────────────────────

func (a *application) migrate(ctx context.Context) error {
	if a.backend.migrator == nil {
		a.print(fmt.Sprintf("driver %s keeps its schema up to date on open", a.backend.driver))
		return nil
	}

	status, err := a.backend.migrator.Status(ctx)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}

	for _, m := range status {
		state := "pending"
		if m.IsApplied {
			state = "applied " + m.AppliedAt.Format(time.RFC3339)
		}
		a.print(fmt.Sprintf("%3d  %-24s %s", m.Version, m.Name, state))
	}
	return nil
}

func (a *application) recalculate(ctx context.Context) error {
	recalc, err := a.recalc.RecomputeAll(ctx)
	if err != nil {
		return fmt.Errorf("recalculate: %w", err)
	}

	line := fmt.Sprintf("Пересчитано: %d (в расчёте: %d, исключено: %d)",
		recalc.Total, recalc.Included, recalc.Excluded)
	if recalc.Mu != nil && recalc.Sigma != nil {
		line += fmt.Sprintf(", µ = %.2f, σ = %.2f", *recalc.Mu, *recalc.Sigma)
	}
	a.print(line)
	return nil
}

func (a *application) overall(ctx context.Context) error {
	entries, err := a.ratings.GetOverallRating(ctx)
	if err != nil {
		return fmt.Errorf("overall rating: %w", err)
	}
	a.print(a.presenter.FormatRatingMessage(entries, "Общий рейтинг"))
	return nil
}

func (a *application) group(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: group needs an id", errUsage)
	}
	cohort, err := parseCohort(args[0])
	if err != nil {
		return err
	}

	entries, err := a.ratings.GetCohortRating(ctx, cohort)
	if err != nil {
		return fmt.Errorf("group rating: %w", err)
	}
	a.print(a.presenter.FormatRatingMessage(entries, cohortTitle("Рейтинг группы", entries)))
	return nil
}

func (a *application) position(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("position", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	byCohort := fs.Bool("group", false, "rank within the participant's group")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: position needs a participant id", errUsage)
	}

	id, err := parseParticipant(fs.Arg(0))
	if err != nil {
		return err
	}

	entry, err := a.ratings.GetUserPosition(ctx, id, *byCohort)
	if err != nil {
		return fmt.Errorf("user position: %w", err)
	}
	a.print(a.presenter.FormatUserPosition(entry, *byCohort))
	return nil
}

func (a *application) top(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	group := fs.Int64("group", 0, "group id, 0 for overall")
	n := fs.Int("n", a.cfg.Rating.DefaultTopLimit, "number of entries")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	scope := rating.CohortID(*group)
	entries, err := a.ratings.GetTopN(ctx, scope, *n)
	if err != nil {
		return fmt.Errorf("top: %w", err)
	}

	title := fmt.Sprintf("Топ-%d", *n)
	if !scope.IsAll() {
		title = cohortTitle(title+" группы", entries)
	}
	a.print(a.presenter.FormatRatingMessage(entries, title))
	return nil
}

func (a *application) statistics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	group := fs.Int64("group", 0, "group id, 0 for overall")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	res, err := a.stats.Handle(ctx, rating.CohortID(*group))
	if err != nil {
		return fmt.Errorf("statistics: %w", err)
	}
	a.print(a.presenter.FormatStatistics(res))
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// SERVE
// ─────────────────────────────────────────────────────────────────────────────

// serve запускает HTTP API и пересчитывает оценки по SIGHUP до завершения ctx.
func (a *application) serve(ctx context.Context) error {
	health := handlers.NewCompositeHealthChecker(a.cfg.App.Version)
	health.AddCheck("storage", handlers.NewPingCheck(a.backend))
	if a.cache != nil {
		health.AddCheck("redis", handlers.NewPingCheck(a.cache))
	}

	deps := httpapi.Dependencies{
		Ratings:       a.ratings,
		Statistics:    a.stats,
		Recalculator:  a.recalc,
		HealthChecker: health,
		Logger:        a.log,
	}
	if a.registry != nil {
		deps.MetricsHandler = promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry})
	}

	httpCfg := httpapi.DefaultConfig()
	httpCfg.Addr = a.cfg.HTTP.Addr
	httpCfg.ReadTimeout = a.cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = a.cfg.HTTP.WriteTimeout
	httpCfg.DefaultTopLimit = a.cfg.Rating.DefaultTopLimit
	httpCfg.Version = a.cfg.App.Version

	srv := httpapi.NewServer(httpCfg, deps)
	errCh := srv.StartAsync()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-hup:
			a.log.Info("received SIGHUP, recalculating")
			if _, err := a.recalc.RecomputeAll(ctx); err != nil {
				a.log.Error("recalculation failed", "error", err)
			}

		case err, ok := <-errCh:
			if ok && err != nil {
				return err
			}
			return nil

		case <-ctx.Done():
			a.log.Info("starting graceful shutdown...", "timeout", a.cfg.App.ShutdownTimeout.String())
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.App.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// setupLogger настраивает структурированный логгер.
func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Observability.LogLevel),
	}

	// Логи идут в stderr, stdout занят выводом команд.
	if cfg.IsProduction() || cfg.Observability.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	log := slog.New(handler)
	slog.SetDefault(log)

	return log
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseCohort(s string) (rating.CohortID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: group id %q", shared.ErrInvalidScope, s)
	}
	return rating.CohortID(v), nil
}

func parseParticipant(s string) (rating.ParticipantID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: participant id %q", errUsage, s)
	}
	return rating.ParticipantID(v), nil
}

// cohortTitle дописывает к заголовку название группы из первой записи.
func cohortTitle(title string, entries []rating.RatingEntry) string {
	if len(entries) > 0 && entries[0].CohortName != "" {
		return title + " " + entries[0].CohortName
	}
	return title
}
