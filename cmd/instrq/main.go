package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/instrq/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	cmd := cli.NewRootCommand()
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "instrq:", err)
	}
	stop()
	os.Exit(cli.GetExitCode(err))
}
