// Command forage runs the dataset ingestion pipeline: discover files
// under configured roots, load them, analyze record shape, and print a
// summary report.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/justapithecus/forage/forage"
)

var (
	cfgFile    string
	maxRecords int
	dataset    string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:   "forage",
		Short: "Discover, load, and analyze heterogeneous dataset files",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./forage.yaml)")
	root.PersistentFlags().IntVar(&maxRecords, "max-records", forage.DefaultMaxRecords, "record cap per file")
	root.PersistentFlags().StringVar(&dataset, "dataset", "", "restrict analysis to one dataset")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(reportCmd(), discoverCmd(), extractCmd(), mirrorCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig layers an optional YAML config file and environment
// variables over flag defaults. Recognized keys: datasets (map of
// name to root directory), max_records, dataset.
func loadConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("forage")
		viper.SetConfigType("yaml")
	}

	viper.SetDefault("max_records", forage.DefaultMaxRecords)
	viper.SetEnvPrefix("forage")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing config file means defaults; any other failure is fatal.
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// basePaths returns the configured dataset roots, falling back to the
// competition defaults when the config names none.
func basePaths() map[string]string {
	paths := viper.GetStringMapString("datasets")
	if len(paths) == 0 {
		return forage.DefaultBasePaths()
	}
	return paths
}

func logger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()
}

func pipelineOptions() []forage.Option {
	if viper.IsSet("max_records") && maxRecords == forage.DefaultMaxRecords {
		maxRecords = viper.GetInt("max_records")
	}
	if dataset == "" {
		dataset = viper.GetString("dataset")
	}
	return []forage.Option{
		forage.WithLogger(logger()),
		forage.WithMaxRecords(maxRecords),
		forage.WithDataset(dataset),
	}
}
