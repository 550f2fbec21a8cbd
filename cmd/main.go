package main

import (
	"os"

	"cbrrates/internal/app"
	"cbrrates/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

const (
	configFlagName = "config"
	dateFlagName   = "date"
	fromFlagName   = "from"
	toFlagName     = "to"
)

type flags struct {
	// Config is the path to the YAML config file.
	Config string
	// Date is a single DD.MM.YYYY date to collect.
	Date string
	// From is the first date of a backfill.
	From string
	// To is the last date of a backfill.
	To string
}

func newFlags() *flags {
	return &flags{}
}

// Bind registers the flag definitions with the given flag set.
func (f *flags) Bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.Config, configFlagName, config.DefaultConfigPath, "Path to the config file")
	flagSet.StringVar(&f.Date, dateFlagName, "", "Collect the rates of one date (DD.MM.YYYY) and exit")
	flagSet.StringVar(&f.From, fromFlagName, "", "Backfill start date (DD.MM.YYYY), requires --to")
	flagSet.StringVar(&f.To, toFlagName, "", "Backfill end date (DD.MM.YYYY), requires --from")
}

func main() {
	f := newFlags()
	flagSet := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	f.Bind(flagSet)
	_ = flagSet.Parse(os.Args[1:])

	if err := app.Run(app.Options{
		ConfigPath: f.Config,
		Date:       f.Date,
		From:       f.From,
		To:         f.To,
	}); err != nil {
		logrus.WithError(err).Error("cbrrates failed")
		os.Exit(1)
	}
}
