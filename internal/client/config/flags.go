package config

import (
	"flag"
	"os"

	"github.com/voiceroll/voiceroll/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the attendance service
//	-d string   path to the local state database
//	-s string   path to the sample audio file used by the CLI recorder
//	-q string   path to the scanned payload file used by the CLI scanner
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-q"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.Endpoint, "a", cfg.Endpoint, "base URL of the attendance service")
	fs.StringVar(&cfg.StateDBPath, "d", cfg.StateDBPath, "path to the local state database")
	fs.StringVar(&cfg.SamplePath, "s", cfg.SamplePath, "path to the sample audio file")
	fs.StringVar(&cfg.ScanPath, "q", cfg.ScanPath, "path to the scanned payload file")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
