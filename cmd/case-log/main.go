// Command case-log inspects the report archive written by sleuth: list the
// history, or print one entry (or the latest) as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/theimaginaryfoundation/sleuth-o-bot/caselog"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	store, err := caselog.NewStore(cfg.Dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	switch {
	case cfg.Latest:
		entry, found, err := store.Latest()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		if !found {
			fmt.Fprintln(os.Stderr, "no entries archived yet")
			os.Exit(1)
		}
		printEntryJSON(entry)
	case cfg.ID != "":
		entries, err := store.List()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		for _, e := range entries {
			if e.ID == cfg.ID {
				printEntryJSON(e)
				return
			}
		}
		fmt.Fprintf(os.Stderr, "no entry with id %s\n", cfg.ID)
		os.Exit(1)
	default:
		entries, err := store.List()
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		listEntries(entries, cfg.JSON)
	}
}

func printEntryJSON(e caselog.Entry) {
	b, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stdout, string(b))
}

func listEntries(entries []caselog.Entry, asJSON bool) {
	if asJSON {
		for _, e := range entries {
			b, err := json.Marshal(e)
			if err != nil {
				continue
			}
			fmt.Fprintln(os.Stdout, string(b))
		}
		return
	}
	for _, e := range entries {
		fmt.Fprintf(os.Stdout, "%s  %s  demo=%t  %s ms  %s\n",
			e.ID, entryAge(e.CreatedAt), e.Demo, humanize.Comma(e.ElapsedMS), e.Report.Headline)
	}
	fmt.Fprintf(os.Stderr, "%s entries\n", humanize.Comma(int64(len(entries))))
}

func entryAge(createdAt string) string {
	t, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return createdAt
	}
	return humanize.Time(t)
}
