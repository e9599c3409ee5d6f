package main

import (
	"errors"
	"flag"
	"path/filepath"
)

type Config struct {
	Dir    string
	ID     string
	Latest bool
	JSON   bool
}

func (c Config) Validate() error {
	if c.Dir == "" {
		return errors.New("missing -dir")
	}
	if c.Latest && c.ID != "" {
		return errors.New("-latest and -id are mutually exclusive")
	}
	return nil
}

func defaultConfig() Config {
	return Config{}
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()

	fs.StringVar(&cfg.Dir, "dir", "", "Case-log directory written by sleuth -history")
	fs.StringVar(&cfg.ID, "id", "", "Print a single archived entry as JSON")
	fs.BoolVar(&cfg.Latest, "latest", false, "Print the most recent entry as JSON")
	fs.BoolVar(&cfg.JSON, "json", false, "List entries as JSON lines instead of a table")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if cfg.Dir != "" {
		cfg.Dir = filepath.Clean(cfg.Dir)
	}
	return cfg, nil
}
