package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/uiucal/uiucal/internal/calendar"
	"github.com/uiucal/uiucal/internal/config"
	"github.com/uiucal/uiucal/internal/export"
	"github.com/uiucal/uiucal/internal/logger"
	"github.com/uiucal/uiucal/internal/scraper"
	"github.com/uiucal/uiucal/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

// app holds the state shared by all commands of one invocation
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	cfgFile string
	verbose bool
	format  string
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	config.SetDefaults(a.v)

	cmd := &cobra.Command{
		Use:   "uiucal",
		Short: "Export the UIU academic calendar as CSV and iCalendar files",
		Long: `A CLI tool that scrapes the UIU academic calendar page and writes one
Google Calendar compatible CSV file and one .ics file per semester heading.

Configuration hierarchy (highest to lowest priority):
  1. CLI flags
  2. Environment variables (UIUCAL_*)
  3. Config file (~/.uiucal/config.yaml)
  4. Defaults`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.loadConfig,
		RunE:              a.runExport,
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: $HOME/.uiucal/config.yaml)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringVar(&a.format, "format", "text", "Output format: text or json")

	flags := cmd.Flags()
	flags.String("url", config.DefaultURL, "Academic calendar page to scrape")
	flags.StringP("out", "o", config.DefaultOutputDir, "Output directory for .csv and .ics files")
	flags.Bool("dry-run", false, "Print the files instead of writing them")
	flags.StringSlice("group", nil, "Only export headings containing this text (repeatable)")
	flags.String("sort", "", "Order events within a heading: date or title (default: page order)")
	flags.Bool("no-robots", false, "Do not check robots.txt before fetching")

	_ = a.v.BindPFlag("url", flags.Lookup("url"))
	_ = a.v.BindPFlag("output_dir", flags.Lookup("out"))
	_ = a.v.BindPFlag("dry_run", flags.Lookup("dry-run"))
	_ = a.v.BindPFlag("groups", flags.Lookup("group"))
	_ = a.v.BindPFlag("sort", flags.Lookup("sort"))

	cmd.AddCommand(newInspectCmd(a))
	cmd.AddCommand(newConfigCmd(a))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig reads the config file and environment, then sets up logging
func (a *app) loadConfig(cmd *cobra.Command, args []string) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		a.v.AddConfigPath(filepath.Join(home, ".uiucal"))
		a.v.SetConfigType("yaml")
		a.v.SetConfigName("config")
	}

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if a.cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if f := cmd.Flags().Lookup("no-robots"); f != nil && f.Changed && f.Value.String() == "true" {
		cfg.RespectRobots = false
	}
	a.cfg = cfg

	level := logger.ParseLevel(cfg.LogLevel)
	if a.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	if used := a.v.ConfigFileUsed(); used != "" {
		logger.Debug("using config file", logger.Fields{"path": used})
	}
	return nil
}

// runExport is the main command logic
func (a *app) runExport(cmd *cobra.Command, args []string) error {
	format, err := ParseFormat(a.format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := a.cfg
	sc := scraper.New(
		scraper.WithURL(cfg.URL),
		scraper.WithUserAgent(cfg.UserAgent),
		scraper.WithTimeout(cfg.Timeout),
		scraper.WithRetries(cfg.Retries),
		scraper.WithMinInterval(cfg.MinInterval),
		scraper.WithRobots(cfg.RespectRobots),
	)

	var sink storage.Sink
	if cfg.DryRun {
		sink = storage.NewDryRunSink(cmd.OutOrStdout())
	} else {
		fs, err := storage.NewFileSink(cfg.OutputDir)
		if err != nil {
			return fmt.Errorf("initializing output: %w", err)
		}
		sink = fs
	}

	enc := calendar.NewEncoder(
		calendar.WithProductID(cfg.ProductID),
		calendar.WithTimezone(cfg.Timezone),
	)

	report, err := export.New(cfg, sc, sink, enc).Run(ctx)
	if err != nil {
		return err
	}

	if a.verbose {
		logger.Debug("run metrics", logger.Fields{"metrics": logger.GetMetricsSnapshot()})
	}

	if err := WriteReport(cmd.OutOrStdout(), report, format, a.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.ics>...",
		Short: "List the events stored in generated .ics files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := ParseFormat(a.format)
			if err != nil {
				return err
			}

			results := make([]Inspection, 0, len(args))
			for _, path := range args {
				sum, err := inspectFile(path)
				if err != nil {
					return err
				}
				results = append(results, Inspection{File: path, Summary: sum})
			}
			return WriteInspections(cmd.OutOrStdout(), results, format)
		},
	}
}

func inspectFile(path string) (*calendar.Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sum, err := calendar.Inspect(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sum, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// No config needed to print the version.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "uiucal %s\n", Version)
		},
	}
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
