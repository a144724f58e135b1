package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurogarden-backend/internal/app"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				a.Start()
				return a.Run(ctx)
			})
		},
	}
}
