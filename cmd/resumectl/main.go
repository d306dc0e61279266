// Command resumectl inspects and deletes a user's resume records from the
// operator's shell, using the same stores and lifecycle rules as the API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/AhmeWagih/resume-analyzer/internal/bootstrap"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/config"
	"github.com/AhmeWagih/resume-analyzer/internal/shared/telemetry"
)

func main() {
	// stdout carries command output; keep log lines off it.
	telemetry.SetOutput(os.Stderr)

	root := newRootCmd(openFromConfig)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openFromConfig builds the stores from the environment (and .env).
func openFromConfig(ctx context.Context, userID string) (session, error) {
	cfg := config.Load()
	app, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		return session{}, err
	}
	return session{
		Manager:   app.Registry.For(userID),
		Artifacts: app.Artifacts,
		Close:     func() { _ = app.Close() },
	}, nil
}
