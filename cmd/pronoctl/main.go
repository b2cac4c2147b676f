package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"PronosticsPlatform/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.New(cli.Options{}).Execute(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}
