package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds the process logger. dev gets a human console writer; everything else gets JSON.
// An unknown level falls back to info.
func New(level, env, service string) zerolog.Logger {
	return newWithWriter(os.Stdout, level, env, service)
}

// stderr is where Bootstrap writes; swapped in tests.
var stderr io.Writer = os.Stderr

// Bootstrap is the logger a command uses before its configuration is loaded: JSON on stderr at
// info level.
func Bootstrap(service string) zerolog.Logger {
	return newWithWriter(stderr, "info", "prod", service)
}

func newWithWriter(w io.Writer, level, env, service string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if env == "dev" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: w != os.Stdout}
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Str("service", service).
		Logger()
}
