package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/confscan/confscan/internal/client"
	"github.com/confscan/confscan/internal/conference"
	"github.com/confscan/confscan/internal/config"
	"github.com/confscan/confscan/internal/database"
	"github.com/confscan/confscan/internal/logging"
	"github.com/confscan/confscan/internal/models"
	"github.com/confscan/confscan/internal/repository"
	"github.com/confscan/confscan/internal/token"
)

const version = "1.2.0"

func main() {
	// CLI flags
	configPath := pflag.StringP("config", "c", "config.yaml", "Path to config file")
	migrateFlag := pflag.BoolP("migrate", "m", false, "Apply database migrations and exit")
	showVersion := pflag.BoolP("version", "v", false, "Print version and exit")
	logLevel := pflag.StringP("log-level", "l", "", "Log level (debug, info, warn, error)")
	confSlug := pflag.StringP("conference", "e", "", "Conference slug to operate on")

	parseRaw := pflag.String("parse", "", "Parse a scanned value and print the token (offline)")
	statusOp := pflag.Bool("status", false, "Check backend status for the conference")
	lookupRaw := pflag.String("lookup", "", "Scan pipeline: parse, validate and look up a scanned value")
	searchQuery := pflag.String("search", "", "Search registrations by name or company")
	storeRaw := pflag.String("store", "", "Scan pipeline: parse, validate and store a scanned value")
	note := pflag.String("note", "", "Note to attach to a stored scan (sponsor mode)")
	statsOp := pflag.Bool("stats", false, "Fetch backend statistics for the conference")
	recentOp := pflag.Bool("recent", false, "Print the local scan log for the conference")

	pflag.Parse()

	if *showVersion {
		fmt.Println("confscan version " + version)
		os.Exit(0)
	}

	if *parseRaw != "" {
		// Offline: no config, database or network needed.
		if err := runParse(*parseRaw); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg, err := config.LoadWithPath(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	if *migrateFlag {
		if err := database.Migrate(cfg.Database.Path); err != nil {
			fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Migrations applied successfully.")
		os.Exit(0)
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(cfg.Database.Path); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	a := &app{
		cfg:      cfg,
		logger:   logger,
		confRepo: repository.NewConferenceRepository(db),
		scanRepo: repository.NewScanRepository(db),
	}

	if err := a.syncConferences(ctx); err != nil {
		logger.Fatal("Failed to import configured conferences", zap.Error(err))
	}

	err = func() error {
		switch {
		case *statusOp:
			return a.runStatus(ctx, *confSlug)
		case *lookupRaw != "":
			return a.runScan(ctx, *confSlug, *lookupRaw, "", false)
		case *storeRaw != "":
			return a.runScan(ctx, *confSlug, *storeRaw, *note, true)
		case *searchQuery != "":
			return a.runSearch(ctx, *confSlug, *searchQuery)
		case *statsOp:
			return a.runStats(ctx, *confSlug)
		case *recentOp:
			return a.runRecent(ctx, *confSlug)
		default:
			pflag.Usage()
			return errors.New("no operation requested")
		}
	}()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runParse(raw string) error {
	tok, err := token.Parse(raw)
	if err != nil {
		return err
	}
	return printJSON(tok)
}

type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	confRepo *repository.ConferenceRepository
	scanRepo *repository.ScanRepository
}

// syncConferences imports the conferences declared in the config file
// into the local database, so the config file stays the single place
// a conference gets registered.
func (a *app) syncConferences(ctx context.Context) error {
	for _, cc := range a.cfg.Conferences {
		conf, err := cc.ToConference()
		if err != nil {
			return err
		}
		if err := a.confRepo.Upsert(ctx, &conf); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) conference(ctx context.Context, slug string) (*conference.Conference, error) {
	if slug == "" {
		return nil, errors.New("no conference selected, use --conference")
	}
	conf, err := a.confRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if conf == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrConferenceNotFound, slug)
	}
	return conf, nil
}

func (a *app) client(conf *conference.Conference) *client.Client {
	return client.New(conf.BaseURL(),
		client.WithLogger(logging.WithConference(a.logger, conf.Slug)),
		client.WithRetryPolicy(a.cfg.Client.RetryPolicy()),
		client.WithTimeouts(a.cfg.Client.ClientTimeouts()),
	)
}

func (a *app) runStatus(ctx context.Context, slug string) error {
	conf, err := a.conference(ctx, slug)
	if err != nil {
		return err
	}
	status, err := a.client(conf).Status(ctx)
	if err != nil {
		return err
	}
	return printJSON(status)
}

// runScan is the full scan pipeline: parse, validate against the
// conference's mode, then look up or store. Every scan ends up in the
// local log, whatever its outcome.
func (a *app) runScan(ctx context.Context, slug, raw, note string, store bool) error {
	conf, err := a.conference(ctx, slug)
	if err != nil {
		return err
	}

	rec := models.ScanRecord{ConferenceSlug: conf.Slug, Raw: raw}

	tok, err := token.Parse(raw)
	if err != nil {
		rec.Outcome = models.OutcomeInvalidFormat
		rec.Message = err.Error()
		a.record(ctx, &rec)
		return err
	}
	rec.TokenType = string(tok.Type)

	if err := token.ValidateForMode(tok, conf.Mode); err != nil {
		rec.Outcome = models.OutcomeWrongType
		rec.Message = err.Error()
		a.record(ctx, &rec)
		return err
	}

	if tok.Test {
		// Scanner setup check; never hits the backend.
		rec.Outcome = models.OutcomeTest
		a.record(ctx, &rec)
		fmt.Println("Test token scanned successfully.")
		return nil
	}

	c := a.client(conf)
	var reg *models.Registration
	if store {
		reg, err = c.Store(ctx, models.StoreRequest{Token: raw, Note: note})
	} else {
		reg, err = c.Lookup(ctx, raw)
	}
	if err != nil {
		if apiErr, ok := models.AsAPIError(err); ok {
			rec.Outcome = models.APIOutcome(apiErr.Kind)
			rec.Message = apiErr.Message
		} else {
			rec.Outcome = models.ScanOutcome(models.ErrorKindUnknown)
			rec.Message = err.Error()
		}
		a.record(ctx, &rec)
		return err
	}

	rec.Outcome = models.OutcomeOK
	a.record(ctx, &rec)
	return printJSON(reg)
}

func (a *app) runSearch(ctx context.Context, slug, query string) error {
	conf, err := a.conference(ctx, slug)
	if err != nil {
		return err
	}
	regs, err := a.client(conf).Search(ctx, query)
	if err != nil {
		return err
	}
	return printJSON(regs)
}

func (a *app) runStats(ctx context.Context, slug string) error {
	conf, err := a.conference(ctx, slug)
	if err != nil {
		return err
	}
	stats, err := a.client(conf).Stats(ctx)
	if err != nil {
		return err
	}
	for _, group := range stats {
		fmt.Println(strings.Join(group.Header, "\t"))
		for _, row := range group.Rows {
			fmt.Println(strings.Join(row, "\t"))
		}
		fmt.Println()
	}
	return nil
}

func (a *app) runRecent(ctx context.Context, slug string) error {
	conf, err := a.conference(ctx, slug)
	if err != nil {
		return err
	}
	recs, err := a.scanRepo.RecentByConference(ctx, conf.Slug, 50)
	if err != nil {
		return err
	}
	return printJSON(recs)
}

// record appends to the scan log; a logging failure must not mask the
// scan result itself.
func (a *app) record(ctx context.Context, rec *models.ScanRecord) {
	if err := a.scanRepo.Create(ctx, rec); err != nil {
		a.logger.Warn("Failed to record scan", zap.Error(err))
		return
	}
	a.logger.Info("Scan recorded",
		zap.String("conference", rec.ConferenceSlug),
		zap.String("outcome", string(rec.Outcome)),
		zap.String("token_type", rec.TokenType),
	)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
