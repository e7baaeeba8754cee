package log_test

import (
	"log/slog"
	"os"

	"github.com/ardnew/dexpr/log"
)

func Example() {
	logger := log.Make(os.Stdout,
		log.WithLevel(log.LevelInfo),
		log.WithFormat(log.FormatText),
		log.WithPretty(false),
		log.WithTimeLayout("none"))

	logger.With(slog.String("component", "repl")).
		Info("evaluated", slog.String("text", "1 + 2"), slog.Int("result", 3))
	logger.Debug("not written")

	// Output:
	// level=INFO msg=evaluated component=repl text="1 + 2" result=3
}

func Example_default() {
	log.Config(log.WithLevel(log.LevelDebug), log.WithFormat(log.FormatJSON))

	log.Debug("request details", slog.String("method", "POST"))
}
