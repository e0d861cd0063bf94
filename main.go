package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/ardnew/weft/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	code := cli.Main(ctx, os.Stdout, os.Stderr, os.Args[1:]...)

	stop()
	os.Exit(code)
}
