package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/JailtonJunior94/boardroom-go/pkg/boardroom"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for configuration mistakes and 1 for everything else.
func exitCode(err error) int {
	if boardroom.IsCode(err, boardroom.CodeAuthRequired) || boardroom.IsCode(err, boardroom.CodeInvalidRequest) {
		return 2
	}
	return 1
}
