// =============================================================================
// Dividend Feed - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (dividendos)
//   ├── timelineCmd (dividendos timeline)
//   ├── tableCmd    (dividendos table)
//   ├── exportCmd   (dividendos export)
//   ├── serveCmd    (dividendos serve)
//   └── versionCmd  (dividendos version)
//
// CONFIGURATION:
//   Before any command runs, the root command:
//   1. Loads config.yaml, .env and DIVIDENDOS_* variables
//   2. Applies the --source override
//   3. Sets up the JSON logger on stderr
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/minaironcapital/dividendos/internal/config"
	"github.com/minaironcapital/dividendos/internal/converter"
	"github.com/minaironcapital/dividendos/internal/feed"
	"github.com/minaironcapital/dividendos/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose forces debug logging.
var verbose bool

// source overrides the configured feed location (URL or file path).
var source string

// app carries what PersistentPreRunE prepared for the running command.
var app struct {
	cfg       *config.Config
	log       *slog.Logger
	logCloser io.Closer
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "dividendos",
	Short: "Dividend feed ingestion - timeline and table views of a published spreadsheet",
	Long: `dividendos ingests a hand-curated dividend spreadsheet, published as a
CSV export (or saved as .csv / .xlsx), and turns it into a clean,
month-bucketed view.

The feed is parsed leniently: inconsistent, accented or pluralized column
names are recognised, blank rows are dropped and unparseable dates get a
bucket of their own. Nothing in the feed is ever rejected.

Example Usage:
  dividendos timeline                          # Month-by-month view
  dividendos table --q ban --estado pagado     # Filtered table
  dividendos export --format xml               # Write the timeline to output/
  dividendos serve --addr :8080                # JSON API
  dividendos timeline --source ./feed.xlsx     # Read a local export`,

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp(cmd)
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called once by main.main().
// Interrupts cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes the command tree and then closes the log file. cobra skips
// post-run hooks when a command fails, so closing happens here.
func run(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)

	if app.logCloser != nil {
		if cerr := app.logCloser.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close log file: %w", cerr)
		}
	}
	return err
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the configuration file (optional unless set explicitly)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)

	rootCmd.PersistentFlags().StringVarP(
		&source,
		"source",
		"s",
		"",
		"Feed URL or local .csv/.xlsx path, overriding the configuration",
	)
}

// initApp loads the configuration and the logger for the running command.
func initApp(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}

	log, closer, err := logger.Init(cfg.Logging, verbose)
	if err != nil {
		return err
	}

	app.cfg = cfg
	app.log = log
	app.logCloser = closer
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// newSource resolves the feed source from --source or the configuration.
func newSource() (feed.Source, error) {
	var (
		src feed.Source
		err error
	)
	if source != "" {
		src, err = feed.FromLocation(source, app.cfg.Feed)
	} else {
		src, err = feed.NewSource(app.cfg.Feed)
	}
	if errors.Is(err, feed.ErrNoSource) {
		return nil, fmt.Errorf("%w: set feed.url or feed.path in %s, DIVIDENDOS_FEED_URL, or pass --source", err, cfgFile)
	}
	return src, err
}

// sourceName describes the feed location for logs and summaries.
func sourceName() string {
	switch {
	case source != "":
		return source
	case app.cfg.Feed.URL != "":
		return app.cfg.Feed.URL
	default:
		return app.cfg.Feed.Path
	}
}

// runPipeline builds the pipeline for the configured source and runs it once.
func runPipeline(ctx context.Context) (*converter.Result, error) {
	src, err := newSource()
	if err != nil {
		return nil, err
	}
	return converter.New(src, app.cfg, app.log).Run(ctx)
}
