package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/weft/log"
	"github.com/ardnew/weft/pkg"
	"github.com/ardnew/weft/render"
	"github.com/ardnew/weft/source"
)

// CLI is the top-level command-line interface for weft.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Backend     string           `default:"${backendDefault}" enum:"${backendEnum}" help:"Source loading backend."`
	Data        []string         `help:"Preload bindings from a YAML, JSON or TOML file."                       placeholder:"FILE"       sep:"none" short:"d"`
	Define      []string         `help:"Bind NAME to VALUE before rendering."                                   placeholder:"NAME=VALUE" sep:"none" short:"D"`
	Dump        string           `help:"Write the final bindings to FILE, as JSON for .json and YAML otherwise." placeholder:"FILE"`
	Interactive bool             `help:"Start an interactive console after rendering."                          short:"i"`
	Version     kong.VersionFlag `help:"Print version and exit."`

	Template string `arg:"" help:"Template file to render." optional:""`
}

// exitCode carries the status kong asks to exit with out of kong.Parse.
type exitCode int

// Main runs weft with args and returns the process exit status. Rendered
// output goes to stdout. Logs and the diagnostic of a failure go to stderr.
//
// Main never exits the process itself. Output produced before a failure is
// flushed before the diagnostic is written.
func Main(ctx context.Context, stdout, stderr io.Writer, args ...string) (code int) {
	out := bufio.NewWriter(stdout)

	defer func() {
		if r := recover(); r != nil {
			exit, ok := r.(exitCode)
			if !ok {
				panic(r)
			}

			code = int(exit)
		}

		if err := out.Flush(); err != nil && code == ExitSuccess {
			Report(stderr, fmt.Errorf("%w: %w", render.ErrOutput, err))

			code = ExitFailure
		}
	}()

	if err := Run(ctx, out, stderr, args...); err != nil {
		_ = out.Flush()

		log.DebugContext(ctx, "run failed", slog.Any("error", err))
		Report(stderr, err)

		return ExitFailure
	}

	return ExitSuccess
}

// Run parses args and renders the template they name.
func Run(ctx context.Context, stdout, stderr io.Writer, args ...string) error {
	// Validate before kong reads any configuration file.
	inv, err := scan(args)
	if err != nil {
		return err
	}

	var cli CLI

	parser, err := newParser(&cli, stdout, stderr)
	if err != nil {
		return err
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	if cli.Template == "" && !cli.Interactive {
		return ErrUsage
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := cli.Log.start(ctx, stderr)

	logger.TraceContext(ctx, "command line",
		slog.Any("args", args),
		slog.Int("operands", len(inv.operands)))

	// [pprofConfig.start] is a no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx, logger)()

	return cli.run(ctx, stdout, logger)
}

func newParser(cli *CLI, stdout, stderr io.Writer) (*kong.Kong, error) {
	configFile := pkg.ConfigPath(baseConfig)

	vars := kong.Vars{
		"version":        pkg.Name + " " + pkg.Version,
		"backendDefault": source.DefaultBackend.String(),
		"backendEnum":    join(source.Backends()),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	return kong.New(cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { panic(exitCode(code)) }),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.DefaultEnvars(strings.TrimSuffix(pkg.EnvPrefix(), "_")),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:   true,
				Summary:   true,
				FlagsLast: false,
			}),
		kong.Configuration(kong.JSON, configFile+".json"),
		kong.Configuration(loadYAML, configFile+".yaml"),
		vars,
	)
}

// join lists names for a kong enum.
func join(names iter.Seq[string]) string {
	return strings.Join(slices.Collect(names), ",")
}
