package cli

import (
	"slices"
	"strings"
)

// option describes one command-line flag as [scan] sees it.
type option struct {
	name      string // long name without "--"
	short     rune
	value     bool // takes an argument
	negatable bool
}

// options are the flags of [CLI]. They must match its kong tags, which the
// tests verify against the parsed model.
var options = []option{
	{name: "help", short: 'h'},
	{name: "version"},
	{name: "log-level", value: true},
	{name: "log-format", value: true},
	{name: "log-time-layout", value: true},
	{name: "log-caller", negatable: true},
	{name: "log-pretty", negatable: true},
	{name: "backend", value: true},
	{name: "data", short: 'd', value: true},
	{name: "define", short: 'D', value: true},
	{name: "dump", value: true},
	{name: "interactive", short: 'i'},
}

// invocation is what [scan] learned about the arguments.
type invocation struct {
	operands    []string
	interactive bool
	exits       bool // --help or --version
}

// scan validates args before anything else runs, so that a malformed
// invocation is reported without touching the file system. Every flag must
// be one of [options] or a pprof flag, and at most one operand may be given.
// Without an operand, -i, --help or --version is required.
func scan(args []string) (invocation, error) {
	var inv invocation

	opts := slices.Concat(options, pprofOptions())

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch {
		case arg == "--":
			inv.operands = append(inv.operands, args[i+1:]...)
			i = len(args)

		case strings.HasPrefix(arg, "--"):
			name, _, assigned := strings.Cut(arg[2:], "=")

			opt, ok := lookupLong(opts, name)
			if !ok {
				return inv, unknownOption(arg)
			}

			if opt.value && !assigned {
				i++ // value is the next argument
			}

			inv.note(opt)

		case strings.HasPrefix(arg, "-"):
			skip, err := inv.shorts(opts, arg)
			if err != nil {
				return inv, err
			}

			if skip {
				i++
			}

		default:
			inv.operands = append(inv.operands, arg)
		}
	}

	switch {
	case len(inv.operands) > 1:
		return inv, &UsageError{
			Msg: "unsupported extra argument '" + inv.operands[1] + "'",
		}

	case len(inv.operands) == 0 && !inv.interactive && !inv.exits:
		return inv, ErrUsage
	}

	return inv, nil
}

// shorts checks a cluster of short flags such as "-ih" or "-dvars.yaml".
// skip reports whether the last flag takes the next argument as its value.
func (inv *invocation) shorts(opts []option, arg string) (skip bool, err error) {
	cluster := []rune(arg[1:])
	if len(cluster) == 0 {
		return false, unknownOption(arg)
	}

	for i, r := range cluster {
		opt, ok := lookupShort(opts, r)
		if !ok {
			return false, unknownOption(arg)
		}

		inv.note(opt)

		if opt.value {
			return i == len(cluster)-1, nil
		}
	}

	return false, nil
}

func (inv *invocation) note(opt option) {
	switch opt.name {
	case "interactive":
		inv.interactive = true
	case "help", "version":
		inv.exits = true
	}
}

func lookupLong(opts []option, name string) (option, bool) {
	for _, opt := range opts {
		if name == opt.name {
			return opt, true
		}

		if opt.negatable && name == "no-"+opt.name {
			return opt, true
		}
	}

	return option{}, false
}

func lookupShort(opts []option, r rune) (option, bool) {
	for _, opt := range opts {
		if opt.short != 0 && opt.short == r {
			return opt, true
		}
	}

	return option{}, false
}

func unknownOption(arg string) *UsageError {
	return &UsageError{Msg: "unknown cmdline option '" + arg + "'"}
}
