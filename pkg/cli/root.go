package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/getmockd/mockforce/pkg/cli/internal/flags"
	"github.com/getmockd/mockforce/pkg/cli/internal/output"
	"github.com/getmockd/mockforce/pkg/config"
	"github.com/getmockd/mockforce/pkg/logging"
	"github.com/getmockd/mockforce/pkg/org"
	"github.com/getmockd/mockforce/pkg/virtual"
)

var (
	// Persistent flags available to all subcommands
	configPath string
	logLevel   string
	logFormat  string
	jsonOutput bool
	extraSeeds flags.StringSlice

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mockforce",
	Short: "mockforce is an in-memory Salesforce org for tests",
	Long: `mockforce runs Salesforce-style queries and bulk batches against an in-memory
record store seeded from YAML or JSON files.

The store is built from a config file (mockforce.yaml in the current directory,
or the file named by --config or MOCKFORCE_CONFIG). Every command starts from
the seed data; nothing is persisted between runs.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: discover mockforce.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	rootCmd.PersistentFlags().Var(&extraSeeds, "seed", "Additional seed file or glob (repeatable)")
}

// loadConfig resolves the config file from flags, the environment or the
// working directory. With no config anywhere it returns the defaults and an
// empty path.
func loadConfig() (*config.Config, string, error) {
	path := configPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get working directory: %w", err)
		}
		path, err = config.Discover(wd)
		if errors.Is(err, config.ErrNoConfig) {
			cfg := config.DefaultConfig()
			if err := addSeeds(cfg); err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
		if err != nil {
			return nil, "", err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, path, err
	}
	if err := addSeeds(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// addSeeds appends --seed entries, resolved against the working directory.
func addSeeds(cfg *config.Config) error {
	for _, s := range extraSeeds {
		abs, err := filepath.Abs(s)
		if err != nil {
			return fmt.Errorf("resolving seed %q: %w", s, err)
		}
		cfg.Seed = append(cfg.Seed, abs)
	}
	return nil
}

// openOrg builds a seeded org from the resolved config. Logs go to the
// command's error stream.
func openOrg(cmd *cobra.Command) (*org.Org, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := warnUnmatched(cmd.ErrOrStderr(), cfg); err != nil {
		return nil, err
	}

	level, format := cfg.Log.Level, cfg.Log.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	logger := logging.FromStrings(level, format, cmd.ErrOrStderr())

	return org.FromConfig(cfg, org.WithLogger(logger))
}

// warnUnmatched reports seed globs that select no file.
func warnUnmatched(w io.Writer, cfg *config.Config) error {
	unmatched, err := cfg.UnmatchedSeeds()
	if err != nil {
		return err
	}
	for _, pattern := range unmatched {
		output.Warn(w, "seed pattern %q matched no files", pattern)
	}
	return nil
}

// describe prefixes store errors with their Salesforce error code.
func describe(err error) error {
	var coded virtual.CodedError
	if errors.As(err, &coded) {
		return fmt.Errorf("%s: %w", coded.ErrorCode(), err)
	}
	return err
}
