package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/neurogarden-backend/internal/app"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "retentionctl",
		Short:         "Operate the knowledge retention engine",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(enrichCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(dueCmd())
	rootCmd.AddCommand(recallCmd())
	rootCmd.AddCommand(reviewCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(watchCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// withApp wires the full application for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	a, err := app.New(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func parseItemID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid item id %q: %w", raw, err)
	}
	return id, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
