package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/neurogarden-backend/internal/app"
	"github.com/yungbote/neurogarden-backend/internal/domain/content"
	"github.com/yungbote/neurogarden-backend/internal/platform/dbctx"
)

func seedCmd() *cobra.Command {
	var (
		kind     string
		title    string
		bodyFile string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a content item from a markdown file",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := content.ParseKind(kind)
			if err != nil {
				return err
			}
			if strings.TrimSpace(title) == "" {
				return fmt.Errorf("--title is required")
			}
			raw, err := os.ReadFile(bodyFile)
			if err != nil {
				return fmt.Errorf("read body: %w", err)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				rows, err := a.Repos.ContentItem.Create(dbctx.Of(ctx), []*content.Item{{
					ID:    uuid.New(),
					Kind:  k,
					Title: strings.TrimSpace(title),
					Body:  string(raw),
				}})
				if err != nil {
					return fmt.Errorf("create item: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"item": rows[0]})
			})
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", string(content.KindNote), "Content kind (post, note, project)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Item title")
	cmd.Flags().StringVarP(&bodyFile, "body-file", "f", "", "Markdown file holding the item body")
	_ = cmd.MarkFlagRequired("body-file")
	return cmd
}
