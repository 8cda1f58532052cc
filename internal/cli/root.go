package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// options are the global flags; each can also come from PIXELHUNT_<FLAG>.
type options struct {
	configPath string
	port       string
	logLevel   string
	logPretty  bool
}

// legacyEnv keeps the plain variable names older deployments set.
var legacyEnv = map[string]string{
	"config": "CONFIG_PATH",
	"port":   "PORT",
}

// Execute runs the CLI.
func Execute() error {
	// a missing .env is normal outside development
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("pixelhunt failed")
		return err
	}
	return nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	v := viper.New()
	v.SetEnvPrefix("PIXELHUNT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "pixelhunt",
		Short:         "Image guessing quiz: reveal tiles, guess the picture",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVar(&opts.configPath, "config", "config/config.yaml", "path to YAML config (env: PIXELHUNT_CONFIG)")
	fs.StringVar(&opts.port, "port", "", "port to listen on, overrides server.port (env: PIXELHUNT_PORT)")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level, overrides log.level (env: PIXELHUNT_LOG_LEVEL)")
	fs.BoolVar(&opts.logPretty, "log-pretty", false, "human readable console logs (env: PIXELHUNT_LOG_PRETTY)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if legacy, ok := legacyEnv[f.Name]; ok && !v.IsSet(f.Name) {
			if val, ok := os.LookupEnv(legacy); ok {
				_ = fs.Set(f.Name, val)
			}
		}
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.AddCommand(NewStartCmd(opts))
	cmd.AddCommand(NewMigrateCmd(opts))
	cmd.AddCommand(NewSeedCmd(opts))
	return cmd
}

// configureLogging sets the global zerolog level and output. A flag or env
// level wins over the one from the config file.
func configureLogging(flagLevel, fileLevel string, pretty bool) {
	raw := flagLevel
	if raw == "" {
		raw = fileLevel
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(raw))
	if err != nil || raw == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
