package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/signals/internal/config"
	"github.com/zjrosen/signals/internal/log"
)

var (
	version    = "dev"
	cfgFile    string
	cfg        config.Config
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "signals",
	Short: "Run scripted scenarios against typed signal registries",
	Long: `signals exercises the signal package: it loads a YAML scenario of
listeners and add/remove/dispatch steps, runs it against a Registry or a
PriorityRegistry, and reports which listeners ran in which order.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCleanup != nil {
			logCleanup()
			logCleanup = nil
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .signals/config.yaml or ~/.config/signals/config.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false,
		"write a debug log (also enabled by "+log.EnvDebug+")")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	rootCmd.PersistentFlags().Bool("show-ids", false, "print listener IDs next to names")
	rootCmd.PersistentFlags().Bool("trace", false, "record OpenTelemetry spans")
	rootCmd.PersistentFlags().String("trace-exporter", "", "trace exporter: none, file, stdout, otlp")
}

func initConfig() {
	// Reset so repeated Execute calls (tests) do not inherit state
	viper.Reset()

	defaults := config.Defaults()
	viper.SetDefault("log.debug", defaults.Log.Debug)
	viper.SetDefault("log.path", defaults.Log.Path)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("output.color", defaults.Output.Color)
	viper.SetDefault("output.show_ids", defaults.Output.ShowIDs)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("log.debug", flags.Lookup("debug"))
	_ = viper.BindPFlag("output.show_ids", flags.Lookup("show-ids"))
	_ = viper.BindPFlag("tracing.enabled", flags.Lookup("trace"))
	_ = viper.BindPFlag("tracing.exporter", flags.Lookup("trace-exporter"))

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .signals/config.yaml (current directory)
		// 2. ~/.config/signals/config.yaml (user config)
		if _, err := os.Stat(config.DefaultConfigPath); err == nil {
			viper.SetConfigFile(config.DefaultConfigPath)
		} else {
			if dir := config.UserConfigDir(); dir != "" {
				viper.AddConfigPath(dir)
			}
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	// Missing config is fine, defaults apply; other errors surface in setup
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			configErr = fmt.Errorf("reading config: %w", err)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

var configErr error

// setup validates config and starts the debug log before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	if configErr != nil {
		err := configErr
		configErr = nil
		return err
	}

	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		cfg.Output.Color = false
	}
	if os.Getenv(log.EnvDebug) != "" {
		cfg.Log.Debug = true
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.Log.Debug {
		cleanup, err := log.Init(filepath.Clean(cfg.Log.Path), "signals")
		if err != nil {
			return err
		}
		log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
		logCleanup = cleanup
	}

	log.Debug(log.CatCLI, "Starting command", "command", cmd.CommandPath(), "config", viper.ConfigFileUsed())
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
