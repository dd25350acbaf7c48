// Command streakctl runs operator tasks against the streakd database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/limbo/streakd/internal/service"
	"github.com/limbo/streakd/pkg/cleanup"
)

func main() {
	service.InitValidator()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	cleanup.CleanUp()
	if err != nil {
		os.Exit(1)
	}
}
