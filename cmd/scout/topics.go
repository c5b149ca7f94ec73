package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/use-agent/scout/feed"
)

func topicsCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "topics TOPIC",
		Short: "Discover recent article URLs for a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			closeLog := initLogger(cfg.Log)
			defer closeLog()

			topic := strings.Join(args, " ")
			d := feed.NewDiscoverer(cfg.Feed.SearchURL, cfg.Fetch.UserAgent, cfg.Feed.Timeout)

			ctx, stop := signalContext()
			defer stop()
			return printTopicURLs(ctx, d, topic, n)
		},
	}
	cmd.Flags().IntVarP(&n, "num", "n", 5, "number of URLs")
	return cmd
}

func printTopicURLs(ctx context.Context, d *feed.Discoverer, topic string, n int) error {
	urls, err := d.TopicURLs(ctx, topic, n)
	if err != nil {
		return fmt.Errorf("topic search: %w", err)
	}
	for _, u := range urls {
		fmt.Println(u)
	}
	return nil
}
