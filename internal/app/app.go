package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cbrrates/internal/adapters"
	"cbrrates/internal/adapters/cache"
	"cbrrates/internal/adapters/cbr"
	"cbrrates/internal/adapters/excel"
	"cbrrates/internal/adapters/postgres"
	"cbrrates/internal/adapters/ratesdb"
	"cbrrates/internal/api"
	"cbrrates/internal/config"
	"cbrrates/internal/metrics"
	"cbrrates/internal/platform/db"
	httpserver "cbrrates/internal/platform/http"
	"cbrrates/internal/rate"
	"cbrrates/internal/rate/handler"

	"github.com/sirupsen/logrus"
)

// Options select the run mode. Date runs once for that day, From/To backfill a range,
// none of them starts the daemon (scheduler and HTTP API).
type Options struct {
	ConfigPath string
	Date       string
	From       string
	To         string
}

func (o Options) Validate() error {
	if o.Date != "" && (o.From != "" || o.To != "") {
		return errors.New("--date cannot be combined with --from/--to")
	}
	if (o.From == "") != (o.To == "") {
		return errors.New("--from and --to must be set together")
	}
	return nil
}

// Run wires the application components and executes the selected mode.
func Run(opts Options) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	appCfg, err := config.Init(opts.ConfigPath)
	if err != nil {
		return err
	}
	// Logger
	logrus.SetOutput(os.Stdout)
	cfgLevel := appCfg.Logging.Level
	if parsedLvl, parseErr := logrus.ParseLevel(cfgLevel); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.Info("✅ Config initialization successful")

	// Root context bound to OS signals for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipelineMetrics := metrics.NewPipelineMetrics()

	comp, cleanup, err := build(ctx, appCfg, pipelineMetrics)
	if err != nil {
		cleanup()
		return err
	}
	defer cleanup()

	switch {
	case opts.Date != "":
		report, runErr := comp.service.RunDate(ctx, opts.Date)
		logReport(report)
		return runErr
	case opts.From != "":
		report, runErr := comp.service.RunRange(ctx, opts.From, opts.To)
		logReport(report)
		return runErr
	}
	return serve(ctx, stop, appCfg, comp, pipelineMetrics)
}

type components struct {
	parser  *rate.Parser
	service *rate.Service
	filter  *rate.CurrencyFilter
}

// build creates the pipeline and its sinks. The returned cleanup releases the archive pool and cache.
func build(ctx context.Context, appCfg *config.AppConfig, m *metrics.PipelineMetrics) (*components, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	location, err := appCfg.Scheduler.Location()
	if err != nil {
		return nil, cleanup, err
	}

	sourceClient := cbr.NewClient(&http.Client{Timeout: appCfg.Source.RequestTimeout()}, appCfg.Source.BaseURL)
	filter := rate.NewCurrencyFilter(appCfg.Source.Currencies)
	if codes := filter.Codes(); len(codes) > 0 {
		logrus.WithField("currencies", codes).Info("Collecting allow-listed currencies only")
	}
	parser := rate.NewParser(
		sourceClient,
		rate.NewNormalizer(filter, time.Now),
		rate.NewRetryPolicy(appCfg.Source.MaxAttempts, appCfg.Source.RetryDelay()),
		appCfg.Source.PaceDelay(),
		rate.WithLocation(location),
		rate.WithMetrics(m),
	)

	recordsCache, err := cache.NewRecordsCache(appCfg.Cache.MaxItems, time.Duration(appCfg.Cache.TTLMinutes)*time.Minute)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, recordsCache.Close)

	serviceOpts := []rate.ServiceOption{
		rate.WithCache(recordsCache),
		rate.WithServiceMetrics(m),
	}

	if appCfg.DbServer.Enabled() {
		// Bounded context for startup operations (DB connect, migrations)
		startupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		pool, poolErr := db.CreatePoolAndPing(startupCtx, appCfg.DbServer)
		if poolErr != nil {
			logrus.WithError(poolErr).Error("Error connecting to db")
			return nil, cleanup, poolErr
		}
		closers = append(closers, pool.Close)
		logrus.Info("✅ Postgres connection successful")

		if migrateErr := db.Migrate(startupCtx, pool); migrateErr != nil {
			logrus.WithError(migrateErr).Error("Error applying migrations")
			return nil, cleanup, migrateErr
		}
		logrus.Info("✅ Postgres migrations applied")
		serviceOpts = append(serviceOpts, rate.WithArchive(postgres.NewRecordRepository(pool)))
	} else {
		logrus.Info("Postgres archive disabled")
	}

	var sender *ratesdb.Client
	if appCfg.DatabaseAPI.Endpoint != "" {
		sender = ratesdb.NewClient(
			&http.Client{Timeout: time.Duration(appCfg.DatabaseAPI.TimeoutSeconds) * time.Second},
			appCfg.DatabaseAPI.Endpoint,
			appCfg.DatabaseAPI.Token,
		)
	} else {
		logrus.Warn("Database endpoint is not configured, uploads disabled")
	}

	service := rate.NewService(
		parser,
		senderOrNil(sender),
		excel.NewWriter(appCfg.Excel.SheetName, appCfg.Excel.MaxColumnWidth),
		rate.RunConfig{OutputDir: appCfg.Excel.OutputDir, KeyFields: appCfg.Dedupe.KeyFields},
		serviceOpts...,
	)

	return &components{parser: parser, service: service, filter: filter}, cleanup, nil
}

// serve runs the daily scheduler and the HTTP API until ctx is canceled.
func serve(ctx context.Context, stop context.CancelFunc, appCfg *config.AppConfig, comp *components, m *metrics.PipelineMetrics) error {
	location, err := appCfg.Scheduler.Location()
	if err != nil {
		return err
	}
	scheduler := rate.NewScheduler(comp.service, rate.ScheduleConfig{
		At:         appCfg.Scheduler.At,
		Location:   location,
		RunOnStart: appCfg.Scheduler.RunOnStart,
	})
	// Ensure scheduler stops before the archive pool closes
	defer func() {
		if shutDownErr := scheduler.Shutdown(); shutDownErr != nil {
			logrus.Errorf("Scheduler shutdown error: %v", shutDownErr)
		}
	}()
	if startErr := scheduler.Start(ctx); startErr != nil {
		logrus.WithError(startErr).Error("Failed to start scheduler")
		return startErr
	}
	logrus.Infof("✅ Scheduler activation successful, daily run at %s %s", appCfg.Scheduler.At, location)

	runs := rate.NewRuns(ctx, comp.service, comp.parser, appCfg.HTTPServer.RunRetention())
	defer runs.Wait()

	rateHandler := handler.NewRateHandler(comp.service, runs, comp.filter)
	router := api.NewRouter(rateHandler, m.Handler())

	logrus.Info("Starting http server")
	// Block until context is canceled, then perform graceful shutdown.
	if serverErr := httpserver.Start(ctx, appCfg.HTTPServer, router); serverErr != nil {
		// Cancel the root context to stop scheduler and other in-flight work
		stop()
		logrus.Errorf("HTTP server error: %v", serverErr)
		return serverErr
	}
	return nil
}

func logReport(report rate.RunReport) {
	counts := make(map[string]int)
	for _, d := range report.Dates {
		counts[string(d.Status)]++
	}
	logrus.WithFields(logrus.Fields{
		"records":    report.Records,
		"dates":      counts,
		"excel_file": report.ExcelFile,
		"uploaded":   report.Uploaded,
		"archived":   report.Archived,
	}).Info("Run finished")
}

// senderOrNil keeps a nil client from becoming a non-nil interface.
func senderOrNil(c *ratesdb.Client) adapters.RecordsSender {
	if c == nil {
		return nil
	}
	return c
}
