package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/petr-muller/standup/internal/calendar"
	"github.com/petr-muller/standup/internal/notes"
)

type options struct {
	notesPath string
	timezone  string
	dump      bool
}

func gatherOptions() options {
	var o options
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	fs.StringVar(&o.notesPath, "notes", "", "Path to the legacy notes dump to inspect")
	fs.StringVar(&o.timezone, "timezone", "America/Toronto", "IANA timezone name used to determine weekdays")
	fs.BoolVar(&o.dump, "dump", false, "Dump the parsed structure as YAML instead of the coverage table")

	if err := fs.Parse(os.Args[1:]); err != nil {
		logrus.WithError(err).Fatalf("cannot parse args: '%s'", os.Args[1:])
	}

	return o
}

func (o *options) validate() error {
	if o.notesPath == "" {
		return fmt.Errorf("--notes must be specified and nonempty")
	}

	if !calendar.ValidTimezone(o.timezone) {
		return fmt.Errorf("--timezone must be a valid IANA timezone name")
	}

	return nil
}

func main() {
	o := gatherOptions()
	if err := o.validate(); err != nil {
		logrus.WithError(err).Fatal("invalid options")
	}

	parsed, err := notes.ParseFile(o.notesPath)
	if err != nil {
		logrus.WithError(err).Fatal("cannot parse notes")
	}
	if parsed.Empty() {
		logrus.Warning("The dump yielded no entries; it may be in an unrecognized format")
	}

	if o.dump {
		serialized, err := yaml.Marshal(parsed)
		if err != nil {
			logrus.WithError(err).Fatal("cannot serialize notes")
		}
		fmt.Print(string(serialized))
		return
	}

	location, err := time.LoadLocation(o.timezone)
	if err != nil {
		logrus.WithError(err).Fatal("cannot load timezone")
	}

	days := parsed.Days()
	gaps := parsed.GapRanges(location)
	logrus.Infof("Parsed notes for %d days, %d gap ranges to backfill", len(days), len(gaps))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MONTH\tNOTES\tMISSING WEEKDAY RANGES")
	for _, month := range parsed.Months() {
		prefix := fmt.Sprintf("%04d-%02d", month.Year, int(month.Month))

		known := 0
		for day := range days {
			if strings.HasPrefix(day, prefix) {
				known++
			}
		}

		var missing []string
		for _, gap := range gaps {
			if strings.HasPrefix(gap.Start, prefix) {
				if gap.Start == gap.End {
					missing = append(missing, gap.Start)
				} else {
					missing = append(missing, fmt.Sprintf("%s..%s", gap.Start, gap.End))
				}
			}
		}

		fmt.Fprintf(w, "%s %d\t%d\t%s\n", month.Month, month.Year, known, strings.Join(missing, ", "))
	}
	if err := w.Flush(); err != nil {
		logrus.WithError(err).Fatal("cannot write the coverage table")
	}
}
