package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pumped-fn/tinystore"
	"github.com/pumped-fn/tinystore/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// NewRootCommand creates the root command for the tinystore CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tinystore",
		Short: "tinystore - reactive value stores",
		Long:  "Runs small demos of reactive stores: reducers, async writes and derived values.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.LogFormat == "" {
				return nil
			}
			for _, f := range config.ValidFormats {
				if strings.EqualFold(opts.LogFormat, f) {
					return nil
				}
			}
			return fmt.Errorf("invalid log format %q: must be one of %v", opts.LogFormat, config.ValidFormats)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level override (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format override (text|json|auto)")

	cmd.AddCommand(NewCounterCommand(opts))
	cmd.AddCommand(NewDerivedCommand(opts))

	return cmd
}

// newRegistry builds a registry from the config file and flag overrides.
// Logs go to the command's stderr so they never mix with demo output.
func newRegistry(opts *RootOptions, cmd *cobra.Command) (*tinystore.Registry, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.Log.Format = opts.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return tinystore.NewRegistry(cfg.RegistryOptions(cmd.ErrOrStderr())...), nil
}
