package log_test

import (
	"log/slog"
	"os"

	"github.com/ardnew/weft/log"
)

func Example_levels() {
	logger := log.Make(os.Stdout,
		log.WithLevel(log.LevelInfo),
		log.WithPretty(false),
		log.WithTimeLayout("none"))

	logger.Debug("hidden")
	logger.Info("rendering", slog.String("file", "page.tmpl"))
	// Output:
	// level=INFO msg=rendering file=page.tmpl
}

func Example_json() {
	logger := log.Make(os.Stdout,
		log.WithFormat(log.FormatJSON),
		log.WithPretty(false),
		log.WithTimeLayout("none"))

	logger.With(slog.Int("span", 2)).Warn("slow statement")
	// Output:
	// {"level":"WARN","msg":"slow statement","span":2}
}
