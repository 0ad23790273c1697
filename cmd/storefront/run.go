package main

import (
	"context"
	"fmt"
	"os"
)

type runnable interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Done() <-chan os.Signal
}

// run starts the application and blocks until ctx is cancelled or fx asks to shut down.
func run(ctx context.Context, app runnable) error {
	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("start application: %w", err)
	}

	select {
	case <-ctx.Done():
	case <-app.Done():
	}

	if err := app.Stop(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("stop application: %w", err)
	}
	return nil
}
