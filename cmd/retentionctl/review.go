package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/yungbote/neurogarden-backend/internal/app"
	"github.com/yungbote/neurogarden-backend/internal/domain/content"
	"github.com/yungbote/neurogarden-backend/internal/services"
)

func dueCmd() *cobra.Command {
	var (
		kind  string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "due",
		Short: "List items due for review, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := services.DueFilter{Limit: limit}
			if kind != "" {
				k, err := content.ParseKind(kind)
				if err != nil {
					return err
				}
				filter.Kind = k
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				items, err := a.Services.Retention.ListDue(ctx, filter, time.Now())
				if err != nil {
					return err
				}
				if items == nil {
					items = []*content.Item{}
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"items": items})
			})
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Restrict to one content kind")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum items (0 = all)")
	return cmd
}

func recallCmd() *cobra.Command {
	var (
		question int
		answer   string
	)
	cmd := &cobra.Command{
		Use:   "recall <item-id>",
		Short: "Submit a recall answer for grading",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				attempt, err := a.Services.Retention.SubmitRecall(ctx, id, question, answer)
				if attempt == nil {
					return err
				}
				// A degraded attempt is still a result the learner can act on.
				return printJSON(cmd.OutOrStdout(), map[string]any{"attempt": attempt, "degraded": attempt.Degraded})
			})
		},
	}
	cmd.Flags().IntVarP(&question, "question", "q", 0, "Recall question index")
	cmd.Flags().StringVarP(&answer, "answer", "a", "", "Answer text")
	_ = cmd.MarkFlagRequired("answer")
	return cmd
}

func reviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "review <item-id> pass|fail",
		Short:     "Record a review outcome and advance or reset the schedule",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(services.ReviewPass), string(services.ReviewFail)},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			outcome, err := services.ParseReviewOutcome(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				rs, err := a.Services.Retention.RecordReview(ctx, id, outcome)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"review": map[string]any{
					"review_stage":     rs.Stage,
					"review_interval":  rs.Interval,
					"last_reviewed_at": rs.LastReviewedAt,
				}})
			})
		},
	}
}
