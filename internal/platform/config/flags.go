package config

import (
	"flag"
	"log/slog"
	"strings"
)

// ParseFlags applies the global judgecli flags over cfg and returns the
// arguments left after them. Flags take precedence over the environment.
func ParseFlags(cfg *Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("judgecli", flag.ContinueOnError)

	apiURL := fs.String("api", "", "Judge API base URL (overrides API_BASE_URL)")
	driver := fs.String("storage", "", "Session storage: file, memory, redis or postgres (overrides STORAGE_DRIVER)")
	verbose := fs.Bool("v", false, "Debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *apiURL != "" {
		cfg.APIBaseURL = strings.TrimRight(*apiURL, "/")
	}
	if *driver != "" {
		cfg.StorageDriver = *driver
	}
	if *verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	return fs.Args(), nil
}
