package main

import (
	"errors"
	"flag"
	"path/filepath"

	"github.com/theimaginaryfoundation/sleuth-o-bot/config"
)

type Config struct {
	ConfigPath string

	Demo           bool
	PhotoExport    string
	CalendarExport string

	Model           string
	BaseURL         string
	APIKey          string
	PromptFile      string
	MaxOutputTokens int64

	DeadlineSeconds   int
	CacheTTLSeconds   int
	PhotoLimitDays    int
	CalendarSinceDays int
	CalendarUntilDays int

	HistoryDir string
	LogMode    string
	JSONOut    bool
}

func (c Config) Validate() error {
	if c.Model == "" {
		return errors.New("missing -model")
	}
	if c.DeadlineSeconds <= 0 {
		return errors.New("deadline must be > 0")
	}
	if c.CacheTTLSeconds < 0 {
		return errors.New("cache-ttl must be >= 0")
	}
	if c.PhotoLimitDays <= 0 {
		return errors.New("photo-limit-days must be > 0")
	}
	if c.CalendarSinceDays <= 0 || c.CalendarUntilDays <= 0 {
		return errors.New("calendar day windows must be > 0")
	}
	if c.MaxOutputTokens < 0 {
		return errors.New("max-output-tokens must be >= 0")
	}
	return nil
}

func defaultConfig() Config {
	base := config.Default()
	return Config{
		Model:             base.Model.Name,
		MaxOutputTokens:   base.Model.MaxOutputTokens,
		DeadlineSeconds:   base.Run.DeadlineSeconds,
		CacheTTLSeconds:   base.Run.CacheTTLSeconds,
		PhotoLimitDays:    base.Sources.PhotoLimitDays,
		CalendarSinceDays: base.Sources.CalendarSinceDays,
		CalendarUntilDays: base.Sources.CalendarUntilDays,
		LogMode:           base.Logging.Mode,
	}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()

	fs.StringVar(&cfg.ConfigPath, "config", "", "Optional YAML config file; flags override file values")
	fs.BoolVar(&cfg.Demo, "demo", false, "Run on the deterministic synthetic dataset instead of exports")
	fs.StringVar(&cfg.PhotoExport, "photo-export", "", "Path to an exported photo payload JSON file")
	fs.StringVar(&cfg.CalendarExport, "calendar-export", "", "Path to an exported calendar payload JSON file")
	fs.StringVar(&cfg.Model, "model", cfg.Model, "Model for narration")
	fs.StringVar(&cfg.BaseURL, "base-url", "", "API base URL override (e.g. a local inference server)")
	fs.StringVar(&cfg.APIKey, "api-key", "", "API key (overrides OPENAI_API_KEY env var); absent, narration degrades to the deterministic fallback")
	fs.StringVar(&cfg.PromptFile, "prompt-file", "", "Optional path to a custom persona prompt header (prepended before the required SECURITY+schema tail)")
	fs.Int64Var(&cfg.MaxOutputTokens, "max-output-tokens", cfg.MaxOutputTokens, "Max narration output tokens (0 = implementation default)")
	fs.IntVar(&cfg.DeadlineSeconds, "deadline", cfg.DeadlineSeconds, "Global run deadline in seconds")
	fs.IntVar(&cfg.CacheTTLSeconds, "cache-ttl", cfg.CacheTTLSeconds, "Signal cache TTL in seconds (0 = default)")
	fs.IntVar(&cfg.PhotoLimitDays, "photo-limit-days", cfg.PhotoLimitDays, "Trailing window of photo history to request")
	fs.IntVar(&cfg.CalendarSinceDays, "calendar-since-days", cfg.CalendarSinceDays, "Days of calendar history before today to request")
	fs.IntVar(&cfg.CalendarUntilDays, "calendar-until-days", cfg.CalendarUntilDays, "Days of upcoming calendar entries to request")
	fs.StringVar(&cfg.HistoryDir, "history", "", "Optional case-log directory; completed reports are archived there")
	fs.StringVar(&cfg.LogMode, "log-mode", cfg.LogMode, "Log mode: dev or prod")
	fs.BoolVar(&cfg.JSONOut, "json", false, "Print the final report as JSON instead of text")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.ConfigPath != "" {
		cfg.ConfigPath = filepath.Clean(cfg.ConfigPath)
		file, err := config.Load(cfg.ConfigPath)
		if err != nil {
			return Config{}, err
		}
		set := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
		applyFileConfig(&cfg, file, set)
	}

	if cfg.PhotoExport != "" {
		cfg.PhotoExport = filepath.Clean(cfg.PhotoExport)
	}
	if cfg.CalendarExport != "" {
		cfg.CalendarExport = filepath.Clean(cfg.CalendarExport)
	}
	if cfg.PromptFile != "" {
		cfg.PromptFile = filepath.Clean(cfg.PromptFile)
	}
	if cfg.HistoryDir != "" {
		cfg.HistoryDir = filepath.Clean(cfg.HistoryDir)
	}
	return cfg, nil
}

// applyFileConfig copies file values into cfg for every flag the user did
// not set explicitly.
func applyFileConfig(cfg *Config, file config.Config, set map[string]bool) {
	if !set["model"] && file.Model.Name != "" {
		cfg.Model = file.Model.Name
	}
	if !set["base-url"] {
		cfg.BaseURL = file.Model.BaseURL
	}
	if !set["api-key"] && file.Model.APIKey != "" {
		cfg.APIKey = file.Model.APIKey
	}
	if !set["prompt-file"] {
		cfg.PromptFile = file.Model.PromptFile
	}
	if !set["max-output-tokens"] && file.Model.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = file.Model.MaxOutputTokens
	}
	if !set["deadline"] && file.Run.DeadlineSeconds > 0 {
		cfg.DeadlineSeconds = file.Run.DeadlineSeconds
	}
	if !set["cache-ttl"] && file.Run.CacheTTLSeconds > 0 {
		cfg.CacheTTLSeconds = file.Run.CacheTTLSeconds
	}
	if !set["photo-export"] {
		cfg.PhotoExport = file.Sources.PhotoExport
	}
	if !set["calendar-export"] {
		cfg.CalendarExport = file.Sources.CalendarExport
	}
	if !set["photo-limit-days"] && file.Sources.PhotoLimitDays > 0 {
		cfg.PhotoLimitDays = file.Sources.PhotoLimitDays
	}
	if !set["calendar-since-days"] && file.Sources.CalendarSinceDays > 0 {
		cfg.CalendarSinceDays = file.Sources.CalendarSinceDays
	}
	if !set["calendar-until-days"] && file.Sources.CalendarUntilDays > 0 {
		cfg.CalendarUntilDays = file.Sources.CalendarUntilDays
	}
	if !set["history"] {
		cfg.HistoryDir = file.History.Dir
	}
	if !set["log-mode"] && file.Logging.Mode != "" {
		cfg.LogMode = file.Logging.Mode
	}
}
