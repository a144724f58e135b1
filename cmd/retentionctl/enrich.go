package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/neurogarden-backend/internal/app"
	"github.com/yungbote/neurogarden-backend/internal/data/repos"
	"github.com/yungbote/neurogarden-backend/internal/modules/retention"
	"github.com/yungbote/neurogarden-backend/internal/platform/dbctx"
)

type batchEntry struct {
	ItemID uuid.UUID                   `json:"item_id"`
	Result *retention.EnrichmentResult `json:"result,omitempty"`
	Error  string                      `json:"error,omitempty"`
}

func enrichCmd() *cobra.Command {
	var (
		all         bool
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "enrich [item-id]",
		Short: "Generate study chunks, mnemonics and recall questions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) == 1) {
				return fmt.Errorf("pass exactly one of <item-id> or --all")
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if !all {
					id, err := parseItemID(args[0])
					if err != nil {
						return err
					}
					res, err := a.Services.Retention.EnsureEnriched(ctx, id)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), map[string]any{"result": res})
				}
				entries, err := enrichAll(ctx, a, concurrency)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"results": entries})
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Enrich every stored item")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 4, "Items enriched in parallel with --all")
	return cmd
}

// enrichAll fans out across distinct items; per-item failures are reported, not fatal.
func enrichAll(ctx context.Context, a *app.App, concurrency int) ([]batchEntry, error) {
	items, err := a.Repos.ContentItem.List(dbctx.Of(ctx), repos.ContentListFilter{})
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	if concurrency < 1 {
		concurrency = 1
	}
	entries := make([]batchEntry, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, it := range items {
		entries[i].ItemID = it.ID
		g.Go(func() error {
			res, err := a.Services.Retention.EnsureEnriched(gctx, it.ID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				entries[i].Error = err.Error()
				return nil
			}
			entries[i].Result = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

func summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary <item-id>",
		Short: "Generate the item summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Services.Retention.EnsureSummary(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"result": res})
			})
		},
	}
}
