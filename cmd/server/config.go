package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind            string
	port            int
	tickInterval    time.Duration
	disconnectGrace time.Duration
	emptyGrace      time.Duration
	removeDelay     time.Duration
	verbose         bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("WORDDUEL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "wordduel-server",
		Short:         "Real-time two-player trivia duel server.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: WORDDUEL_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: WORDDUEL_PORT)")
	fs.DurationVar(&cfg.tickInterval, "tick-interval", time.Second, "countdown tick interval (env: WORDDUEL_TICK_INTERVAL)")
	fs.DurationVar(&cfg.disconnectGrace, "disconnect-grace", 5*time.Second, "time a disconnected player may reconnect before removal (env: WORDDUEL_DISCONNECT_GRACE)")
	fs.DurationVar(&cfg.emptyGrace, "empty-grace", 30*time.Second, "time an empty waiting lobby is kept for the host to return (env: WORDDUEL_EMPTY_GRACE)")
	fs.DurationVar(&cfg.removeDelay, "remove-delay", 10*time.Second, "time a finished lobby stays resolvable so clients can render results (env: WORDDUEL_REMOVE_DELAY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "debug-level logging (env: WORDDUEL_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})

	return cmd
}
