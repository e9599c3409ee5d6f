// Command sleuth runs one investigation: gather photo/calendar signals,
// derive insights, narrate, validate, and print the report. Exit codes:
// 0 for a report (fallback included), 1 for a recoverable abort, 2 for
// usage errors.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/theimaginaryfoundation/sleuth-o-bot/caselog"
	"github.com/theimaginaryfoundation/sleuth-o-bot/detective"
	"github.com/theimaginaryfoundation/sleuth-o-bot/detective/narrator"
	"github.com/theimaginaryfoundation/sleuth-o-bot/logger"
	"github.com/theimaginaryfoundation/sleuth-o-bot/pipeline"
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

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gen, err := buildGenerator(cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	var photos pipeline.PhotoSource
	if cfg.PhotoExport != "" {
		photos = pipeline.FilePhotoSource{Path: cfg.PhotoExport}
	}
	var calendar pipeline.CalendarSource
	if cfg.CalendarExport != "" {
		calendar = pipeline.FileCalendarSource{Path: cfg.CalendarExport}
	}
	prober := pipeline.StaticProber{Status: "no network transport configured", Verified: true}

	controller := pipeline.New(photos, calendar, prober, gen, log, pipeline.Options{
		Deadline:          time.Duration(cfg.DeadlineSeconds) * time.Second,
		CacheTTL:          time.Duration(cfg.CacheTTLSeconds) * time.Second,
		PhotoLimitDays:    cfg.PhotoLimitDays,
		CalendarSinceDays: cfg.CalendarSinceDays,
		CalendarUntilDays: cfg.CalendarUntilDays,
	})

	started := time.Now()
	updates, err := controller.Start(ctx, cfg.Demo)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	var last pipeline.Update
	for u := range updates {
		last = u
		printProgress(u)
	}

	if last.Report == nil {
		if last.Message != "" {
			fmt.Fprintln(os.Stderr, last.Message)
		} else {
			fmt.Fprintln(os.Stderr, "the run produced no report")
		}
		os.Exit(1)
	}

	if err := printReport(*last.Report, cfg.JSONOut); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if cfg.HistoryDir != "" {
		store, err := caselog.NewStore(cfg.HistoryDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		entry, err := store.Append(caselog.Entry{
			ID:        last.RunID,
			Demo:      cfg.Demo,
			ElapsedMS: time.Since(started).Milliseconds(),
			Report:    *last.Report,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		log.Info("report archived", "id", entry.ID, "dir", cfg.HistoryDir)
	}
}

// buildGenerator wires the narrator, or returns nil when no API key is
// available: the run then degrades to the deterministic fallback report.
func buildGenerator(cfg Config, log *logger.Logger) (narrator.Generator, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		log.Warn("no API key configured; reports will use the deterministic fallback narration")
		return nil, nil
	}

	header := ""
	if cfg.PromptFile != "" {
		h, err := narrator.LoadPromptHeader(cfg.PromptFile)
		if err != nil {
			return nil, err
		}
		header = h
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := openai.NewClient(opts...)
	return narrator.NewOpenAI(&client, cfg.Model, narrator.ComposeInstructions(header))
}

func printProgress(u pipeline.Update) {
	fmt.Fprintf(os.Stderr, "[%s]", u.State)
	for _, s := range u.Steps {
		fmt.Fprintf(os.Stderr, " %s:%s", s.Name, s.State)
	}
	fmt.Fprintln(os.Stderr)
}

func printReport(report detective.DetectiveReport, asJSON bool) error {
	if asJSON {
		b, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(b))
		return nil
	}

	fmt.Fprintf(os.Stdout, "\n%s\n\n", report.Headline)
	for i, d := range report.Deductions {
		fmt.Fprintf(os.Stdout, "%s deduction: %s\n  %s\n", humanize.Ordinal(i+1), d.Finding, d.Evidence)
	}
	fmt.Fprintf(os.Stdout, "\nSurprising fact: %s\n", report.SurprisingFact)
	fmt.Fprintf(os.Stdout, "%s\n", report.PrivacyStatement)
	return nil
}
