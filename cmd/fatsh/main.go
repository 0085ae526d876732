package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aligator/fatfs/checkpoint"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// GlobalConfig is the global tool configuration
type GlobalConfig struct {
	Image   string       `yaml:"image"`
	Verbose bool         `yaml:"verbose"`
	Format  FormatConfig `yaml:"format"`
}

// FormatConfig holds the defaults of the `mkfs` subcommand
type FormatConfig struct {
	Type              string `yaml:"type"`
	Size              string `yaml:"size"`
	SectorsPerCluster uint8  `yaml:"sectors-per-cluster"`
	Label             string `yaml:"label"`
	OEM               string `yaml:"oem"`
}

var (
	defaultLogFormatter = &log.TextFormatter{}

	// Config is the global tool configuration
	Config = GlobalConfig{
		Format: FormatConfig{
			Type: "fat32",
		},
	}

	verbose bool
)

// infoFormatter overrides the default format for Info() log events to
// provide an easier to read output
type infoFormatter struct {
}

func (f *infoFormatter) Format(entry *log.Entry) ([]byte, error) {
	if entry.Level == log.InfoLevel {
		return append([]byte(entry.Message), '\n'), nil
	}
	return defaultLogFormatter.Format(entry)
}

func defaultConfigPath() string {
	return filepath.Join(os.Getenv("HOME"), ".fatsh", "config.yml")
}

func readConfig(cfgPath string) error {
	cfgBytes, err := os.ReadFile(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %q: %w", cfgPath, err)
	}
	if err := yaml.Unmarshal(cfgBytes, &Config); err != nil {
		return fmt.Errorf("failed to parse %q: %w", cfgPath, err)
	}
	return nil
}

// setupLogging once the flags have been parsed, setup the logging
func setupLogging(quiet, verboseFlag bool) error {
	log.SetFormatter(new(infoFormatter))
	log.SetLevel(log.InfoLevel)
	if quiet && verboseFlag {
		return errors.New("can't set quiet and verbose flag at the same time")
	}
	if quiet {
		log.SetLevel(log.ErrorLevel)
	}
	if verboseFlag {
		// Switch back to the standard formatter
		log.SetFormatter(defaultLogFormatter)
		log.SetLevel(log.DebugLevel)
	}
	verbose = verboseFlag
	return nil
}

// report logs a failed command in one line. Verbose runs add the checkpoint trace.
func report(err error) {
	log.Error(err)
	if !verbose {
		return
	}
	for _, line := range checkpoint.Trace(err) {
		log.Debug(line)
	}
}

func newCmd() *cobra.Command {
	var (
		flagQuiet   bool
		flagVerbose bool
		cfgPath     string
	)
	cmd := &cobra.Command{
		Use:               "fatsh",
		Short:             "Inspect and modify FAT32 images",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := readConfig(cfgPath); err != nil {
				return err
			}
			if !cmd.Flag("verbose").Changed {
				flagVerbose = Config.Verbose
			}
			return setupLogging(flagQuiet, flagVerbose)
		},
	}

	cmd.AddCommand(mkfsCmd())
	cmd.AddCommand(lsCmd())
	cmd.AddCommand(catCmd())
	cmd.AddCommand(mkdirCmd())
	cmd.AddCommand(touchCmd())
	cmd.AddCommand(rmCmd())
	cmd.AddCommand(rmdirCmd())
	cmd.AddCommand(shellCmd())

	cmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "Path of the configuration file")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Quiet execution")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose execution, prints debug logs and error traces")

	return cmd
}

func main() {
	if err := newCmd().Execute(); err != nil {
		report(err)
		os.Exit(1)
	}
}
