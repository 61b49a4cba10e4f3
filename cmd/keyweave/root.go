package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dshills/keyweave/internal/config"
	"github.com/dshills/keyweave/internal/logging"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	logLevel string
	noEnv    bool

	log *logrus.Entry
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "keyweave",
		Short: "Programmable keyboard engine",
		Long: `keyweave turns debounced key switch events into HID reports using a
layered keymap with tap-hold keys, combos, tap dances, leader sequences,
dynamic macros and Lua custom actions.

Keyboards are described in TOML or YAML files. Use 'keyweave check' to
validate one and 'keyweave replay' to run an event script through it.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.log = logging.New(logging.Config{
				Level:  opts.logLevel,
				Output: cmd.ErrOrStderr(),
				Prefix: "keyweave",
			})
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: trace, debug, info, warn or error")
	cmd.PersistentFlags().BoolVar(&opts.noEnv, "no-env", false, "Ignore KEYWEAVE_* environment overrides")

	cmd.AddCommand(
		newCheckCmd(opts),
		newLayersCmd(opts),
		newReplayCmd(opts),
		newSchemaCmd(),
		newVersionCmd(),
	)
	return cmd
}

// loader returns a keyboard loader honoring the global flags.
func (o *globalOptions) loader() *config.Loader {
	lopts := []config.Option{config.WithLogger(o.log)}
	if o.noEnv {
		lopts = append(lopts, config.WithoutEnv())
	}
	return config.NewLoader(lopts...)
}
