package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	flag "github.com/spf13/pflag"

	"github.com/xonecas/zoea-galaxy/internal/ai"
	"github.com/xonecas/zoea-galaxy/internal/config"
	"github.com/xonecas/zoea-galaxy/internal/constants"
	"github.com/xonecas/zoea-galaxy/internal/core"
	"github.com/xonecas/zoea-galaxy/internal/logging"
	"github.com/xonecas/zoea-galaxy/internal/resource"
	"github.com/xonecas/zoea-galaxy/internal/store"
	"github.com/xonecas/zoea-galaxy/internal/tui"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "config.toml", "Path to config file")
		galaxyPath  = flag.String("galaxy", "", "Path to galaxy file (.toml, .yaml); overrides config")
		journalPath = flag.String("journal", "", "Path to journal database; overrides config (\":memory:\" keeps it in memory)")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		headless    = flag.Bool("headless", false, "Run without the dashboard, driving the galaxy from a timer")
		interval    = flag.Duration("interval", 2*time.Second, "Headless: time between cosmic events")
		duration    = flag.Duration("duration", 0, "Headless: stop after this long (0 runs until interrupted)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("Zoea Galaxy %s\n", Version)
		os.Exit(0)
	}

	logFile, err := initLogging(*debug, *headless)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	log.Info().Str("version", Version).Msg("Starting Zoea Galaxy")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	if !*debug {
		if lvl, err := zerolog.ParseLevel(cfg.Log.Level); err == nil && lvl != zerolog.NoLevel {
			zerolog.SetGlobalLevel(lvl)
		}
	}
	log.Debug().Interface("config", cfg).Msg("Configuration loaded")

	if *galaxyPath != "" {
		cfg.Galaxy = *galaxyPath
	}
	if cfg.Galaxy == "" {
		log.Fatal().Msg("No galaxy file: pass --galaxy or set galaxy in config")
	}
	galaxy, err := config.LoadGalaxy(cfg.Galaxy)
	if err != nil {
		log.Fatal().Err(err).Str("galaxy", cfg.Galaxy).Msg("Failed to load galaxy")
	}

	if *journalPath != "" {
		cfg.Log.Journal = *journalPath
	}
	s, err := openStore(cfg.Log.Journal)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize journal store")
	}
	defer s.Close()

	run, err := s.CreateRun(cfg.Galaxy)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create run")
	}
	journal := store.NewJournal(s, run.ID, constants.JournalBufferSize)
	log.Debug().Str("run", run.ID).Msg("Journal initialized")

	sink := logging.Fanout{logging.NewZerologSink(log.Logger), journal}

	bus := core.NewEventBus(constants.MinEventBusBufferSize)
	defer bus.Close()

	forge := resource.NewForge()
	orch := core.NewOrchestrator(cfg, forge, bus, core.WithSink(sink))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := orch.Populate(ctx, galaxy, ai.NewRegistry()); err != nil {
		log.Error().Err(err).Msg("Failed to populate galaxy")
		shutdown(orch, journal, s, run.ID)
		os.Exit(1)
	}
	if err := orch.StartAll(ctx); err != nil {
		log.Warn().Err(err).Msg("Some explorers failed to start")
	}
	if err := orch.VerifyDirectory(ctx); err != nil {
		log.Warn().Err(err).Msg("Directory check failed after start")
	}

	if *headless {
		runHeadless(ctx, orch, *interval, *duration)
	} else {
		eventCh := bus.Subscribe()
		program := tea.NewProgram(tui.New(orch, s, run.ID, eventCh), tea.WithAltScreen())

		go func() {
			<-ctx.Done()
			log.Info().Msg("Received shutdown signal")
			program.Quit()
		}()

		if _, err := program.Run(); err != nil {
			log.Error().Err(err).Msg("TUI error")
		}
		bus.Unsubscribe(eventCh)
	}

	shutdown(orch, journal, s, run.ID)
	log.Info().
		Int64("journaled", journal.Written()).
		Int64("dropped", journal.Dropped()).
		Int64("bus_dropped", bus.Dropped()).
		Msg("Zoea Galaxy shutdown complete")
}

// shutdown kills every actor, flushes the journal and closes the run.
func shutdown(orch *core.Orchestrator, journal *store.Journal, s *store.Store, runID string) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := orch.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("Shutdown finished with errors")
	}
	journal.Close()
	if err := s.FinishRun(runID); err != nil {
		log.Warn().Err(err).Str("run", runID).Msg("Failed to close run")
	}
}

func openStore(path string) (*store.Store, error) {
	switch path {
	case "":
		return store.New()
	case ":memory:":
		return store.OpenMemory()
	default:
		return store.Open(path)
	}
}

// initLogging points the global logger at stderr in headless mode and at
// ~/.zoea-galaxy/galaxy.log when the dashboard owns the terminal. The
// returned file, if any, must be closed by the caller.
func initLogging(debug, headless bool) (*os.File, error) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	var out io.Writer
	var file *os.File
	if headless {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	} else {
		dataDir, err := config.EnsureDataDir()
		if err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
		logPath := filepath.Join(dataDir, "galaxy.log")
		file, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = file
	}

	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return file, nil
}
