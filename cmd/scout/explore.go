package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/use-agent/scout/api/handler"
	"github.com/use-agent/scout/explore"
	"github.com/use-agent/scout/models"
)

// formatFlag is shared by the commands that print articles.
var formatFlag string

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&formatFlag, "format", "f", "text", "article content format (text|markdown|markdown_citations)")
}

func validFormat(f string) error {
	switch f {
	case "text", "markdown", "markdown_citations":
		return nil
	}
	return fmt.Errorf("unknown format %q", f)
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func exploreCmd() *cobra.Command {
	var (
		topic      string
		callsLimit int
		trace      bool
	)
	cmd := &cobra.Command{
		Use:   "explore URL",
		Short: "Find one relevant article starting from a seed page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(formatFlag); err != nil {
				return err
			}
			cfg := loadConfig()
			closeLog := initLogger(cfg.Log)
			defer closeLog()

			svc, err := buildServices(cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			ctx, stop := signalContext()
			defer stop()

			out := svc.explorer.Explore(ctx, args[0], topic, callsLimit)
			return printJSON(exploreResult(out, formatFlag, trace))
		},
	}
	cmd.Flags().StringVarP(&topic, "topic", "t", "", "topic the article must be about (required)")
	cmd.Flags().IntVar(&callsLimit, "calls-limit", 0, "action budget (default $SCOUT_CALLS_LIMIT or 6)")
	cmd.Flags().BoolVar(&trace, "trace", false, "include the per-action trace")
	addFormatFlag(cmd)
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func exploreResult(out explore.Outcome, format string, trace bool) models.ExploreResponse {
	resp := models.ExploreResponse{
		Success:    out.Found,
		Found:      out.Found,
		State:      out.Phase.String(),
		StopReason: out.StopReason,
		CallsMade:  out.CallsMade,
	}
	if trace {
		resp.Trace = out.Trace
	}
	if sa, ok := out.Scored(); ok {
		article := handler.NewArticleResult(sa, format)
		resp.Article = &article
		resp.Verdict = &sa.Verdict
	}
	return resp
}
