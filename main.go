package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ardnew/dexpr/cli"
	"github.com/ardnew/dexpr/lang"
	"github.com/ardnew/dexpr/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		var lerr *lang.Error
		if errors.As(err, &lerr) {
			if snippet := lerr.Snippet(); snippet != "" {
				fmt.Fprintln(os.Stderr, snippet)
			}
		}

		log.Error(
			"run failed",
			slog.Any("error", err),
		) // slog automatically uses LogValue()
		os.Exit(1)
	}
}
