package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/userkeeper/internal/admincli"
	"github.com/dmitrijs2005/userkeeper/internal/logging"
	"github.com/dmitrijs2005/userkeeper/internal/server/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()
	global, command := admincli.SplitArgs(os.Args[1:])

	cfg, err := config.Load(global)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 2
	}

	logger := logging.NewJSON(os.Stderr, "warn")
	app, closeFn, err := admincli.Open(ctx, cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeFn()

	if err := app.Run(ctx, command); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		if errors.Is(err, admincli.ErrUsage) {
			return 2
		}
		return 1
	}
	return 0
}
