package main

import (
	"eotile/internal/config"
	"eotile/internal/logging"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app carries state shared by the subcommands.
type app struct {
	conf *viper.Viper
	cfg  config.Config
}

// configFlags maps persistent flags onto config keys.
var configFlags = map[string]string{
	"log-level":  "LOG_LEVEL",
	"log-format": "LOG_FORMAT",
	"db-url":     "DB_URL",
	"redis-url":  "REDIS_URL",
}

func newRootCmd() *cobra.Command {
	a := &app{conf: viper.New()}

	root := &cobra.Command{
		Use:   "eotile",
		Short: "eotile: satellite tile footprints that survive the antimeridian",
		Long: `
eotile builds planar footprints for satellite imagery tiles (Sentinel-2,
Landsat WRS-2, DEM cells and generated grids), splitting tiles that cross
the antimeridian into an east and a west part, and serves them over HTTP.
`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.String("log-level", "", "Log level, one of [debug, info, warn, error]")
	flags.String("log-format", "", "Log format, one of [json, console]")
	flags.String("db-url", "", "PostgreSQL connection URL")
	flags.String("redis-url", "", "Redis connection URL")

	root.AddCommand(newServeCmd(a), newSeedCmd(a), newFootprintCmd(a))
	return root
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	for name, key := range configFlags {
		// only the flag lookup can fail and every name is registered
		_ = v.BindPFlag(key, flags.Lookup(name))
	}
}

// load reads the configuration and installs the logger. Logs go to stderr
// so commands that print results keep stdout clean.
func (a *app) load(cmd *cobra.Command) error {
	bindFlags(a.conf, cmd.Root().PersistentFlags())

	cfg, err := config.Load(a.conf)
	if err != nil {
		return errors.WithMessage(err, "load configuration")
	}
	a.cfg = cfg

	logging.Setup(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	return nil
}
