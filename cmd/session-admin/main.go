// Package main provides a CLI tool for administering sessions in the UI service.
// It reads store statistics, clears sessions, and lists the trigger ledger via the admin API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jsamuelsen11/commitquest/ui-service/internal/client"
	"github.com/jsamuelsen11/commitquest/ui-service/internal/models"
	"github.com/jsamuelsen11/commitquest/ui-service/pkg/logger"
)

const defaultTimeout = 30 * time.Second

type options struct {
	baseURL  string
	apiKey   string
	timeout  time.Duration
	asJSON   bool
	logLevel string
}

func main() {
	_ = godotenv.Load(".env.local")

	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "session-admin",
		Short:         "Administer CommitQuest UI sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.baseURL, "url", envOr("UI_SERVICE_URL", "http://localhost:8080"), "UI service base URL")
	root.PersistentFlags().StringVar(&opts.apiKey, "api-key", os.Getenv("ADMIN_API_KEY"), "admin API key (defaults to $ADMIN_API_KEY)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", defaultTimeout, "request timeout")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print raw JSON")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newStatsCmd(opts))
	root.AddCommand(newClearCmd(opts))
	root.AddCommand(newTriggersCmd(opts))
	return root
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show session store statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			stats, err := opts.adminClient().GetSessionStats(ctx)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), stats)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "backend:            %s\n", stats.StorageBackend)
			_, _ = fmt.Fprintf(out, "total sessions:     %d\n", stats.TotalSessions)
			_, _ = fmt.Fprintf(out, "triggered sessions: %d\n", stats.TriggeredSessions)
			_, _ = fmt.Fprintf(out, "memory usage:       %s\n", stats.MemoryUsage)
			return nil
		},
	}
}

func newClearCmd(opts *options) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear sessions without --yes")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			resp, err := opts.adminClient().ClearSessions(ctx)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all sessions")
	return cmd
}

func newTriggersCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "triggers",
		Short: "List recent Analyze presses that opened the gate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
			defer cancel()

			list, err := opts.adminClient().ListTriggers(ctx, limit)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return printJSON(cmd.OutOrStdout(), list)
			}
			return printTriggers(cmd.OutOrStdout(), list)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of events (server default when 0)")
	return cmd
}

func (o *options) adminClient() *client.AdminClient {
	log := logger.New(o.logLevel, "text", "stderr")
	base := client.NewBaseClient(o.baseURL+"/admin", o.apiKey, o.timeout, log)
	return client.NewAdminClient(base, log)
}

func printTriggers(w io.Writer, list *models.TriggerList) error {
	if list.Count == 0 {
		_, err := fmt.Fprintln(w, "no trigger events")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TRIGGERED AT\tUSERNAME\tTOKEN SOURCE\tSESSION")
	for _, event := range list.Triggers {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			event.TriggeredAt.Format(time.RFC3339), event.Username, event.TokenSource, event.SessionID)
	}
	return tw.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
