//go:build !pprof

package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/weft/log"
)

// pprofConfig is empty when built without the pprof tag.
type pprofConfig struct{}

func pprofOptions() []option { return nil }

func (pprofConfig) vars() kong.Vars { return kong.Vars{} }

func (pprofConfig) group() kong.Group {
	var group kong.Group

	group.Key = "pprof"
	group.Title = "Profiling (pprof)"

	return group
}

func (pprofConfig) start(context.Context, log.Logger) (stop func()) {
	return func() {}
}
