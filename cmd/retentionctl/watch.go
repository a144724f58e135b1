package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurogarden-backend/internal/app"
	"github.com/yungbote/neurogarden-backend/internal/platform/redisx"
)

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream enrichment and review events from Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if a.Clients.Bus == nil {
					return fmt.Errorf("watch requires REDIS_ADDR")
				}
				out := cmd.OutOrStdout()
				events := make(chan redisx.Event, 16)
				if err := a.Clients.Bus.StartForwarder(ctx, func(ev redisx.Event) {
					select {
					case events <- ev:
					case <-ctx.Done():
					}
				}); err != nil {
					return err
				}
				for {
					select {
					case <-ctx.Done():
						return nil
					case ev := <-events:
						if err := printJSON(out, ev); err != nil {
							return err
						}
					}
				}
			})
		},
	}
}
