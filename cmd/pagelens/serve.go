package main

import (
	"context"
	"fmt"
	"time"
)

// shutdownTimeout bounds graceful shutdown of in-flight requests.
const shutdownTimeout = 10 * time.Second

// Run executes the serve command. It blocks until the context is cancelled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	if err := deps.Server.Open(c.Addr); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", err)
		return fmt.Errorf("failed to listen on %s: %w", c.Addr, err)
	}
	deps.Logger.Info("listening", "addr", deps.Server.Addr())
	fmt.Fprintf(deps.Stdout, "Listening on %s\n", deps.Server.Addr())

	<-deps.Ctx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return deps.Server.Close(ctx)
}
