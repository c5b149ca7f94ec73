package main

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/use-agent/scout/api/handler"
	"github.com/use-agent/scout/explore"
	"github.com/use-agent/scout/models"
	"github.com/use-agent/scout/rank"
	"gopkg.in/yaml.v3"
)

// seedFile is the YAML accepted by `scout rank --file`.
type seedFile struct {
	Topic        string   `yaml:"topic"`
	URLs         []string `yaml:"urls"`
	MinRelevance *float64 `yaml:"min_relevance"`
	MaxArticles  int      `yaml:"max_articles"`
}

func loadSeedFile(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &sf, nil
}

// rankFlags are the flag values of `scout rank`.
type rankFlags struct {
	file         string
	topic        string
	minRelevance float64
	maxArticles  int
	concurrency  int
	callsLimit   int
	quiet        bool
}

// resolve merges the seed file, positional URLs and flags. Flags the user
// set win over the file.
func (f *rankFlags) resolve(cmd *cobra.Command, args []string, defaults models.RankDefaults) (topic string, urls []string, opts rank.Options, err error) {
	topic = f.topic
	urls = args
	opts = rank.Options{
		MinRelevance: defaults.MinRelevance,
		MaxArticles:  f.maxArticles,
		Concurrency:  f.concurrency,
		CallsLimit:   f.callsLimit,
	}

	if f.file != "" {
		sf, err := loadSeedFile(f.file)
		if err != nil {
			return "", nil, rank.Options{}, err
		}
		if topic == "" {
			topic = sf.Topic
		}
		urls = append(sf.URLs, urls...)
		if sf.MinRelevance != nil {
			opts.MinRelevance = *sf.MinRelevance
		}
		if opts.MaxArticles == 0 {
			opts.MaxArticles = sf.MaxArticles
		}
	}
	if cmd.Flags().Changed("min-relevance") {
		opts.MinRelevance = f.minRelevance
	}

	if topic == "" {
		return "", nil, rank.Options{}, fmt.Errorf("a topic is required (--topic or the seed file)")
	}
	if len(urls) == 0 {
		return "", nil, rank.Options{}, fmt.Errorf("no seed URLs given")
	}
	return topic, urls, opts, nil
}

func rankCmd() *cobra.Command {
	var f rankFlags
	cmd := &cobra.Command{
		Use:   "rank [URL...]",
		Short: "Explore many seed pages and rank the articles found",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validFormat(formatFlag); err != nil {
				return err
			}
			cfg := loadConfig()
			topic, urls, opts, err := f.resolve(cmd, args, models.RankDefaults{MinRelevance: cfg.Batch.MinRelevance})
			if err != nil {
				return err
			}

			closeLog := initLogger(cfg.Log)
			defer closeLog()

			svc, err := buildServices(cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			if !f.quiet {
				bar := newProgressBar(len(urls), "exploring")
				opts.OnOutcome = func(done, total int, _ explore.Outcome) {
					_ = bar.Set(done)
				}
				defer bar.Finish()
			}

			ctx, stop := signalContext()
			defer stop()

			res := svc.runner.ScrapeAndRank(ctx, urls, topic, opts)
			if err := printJSON(handler.NewRankResponse(topic, res, formatFlag)); err != nil {
				return err
			}
			if res.NoContent() {
				return fmt.Errorf("%s", handler.MsgNoContent)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.file, "file", "", "YAML seed file {topic, urls, min_relevance, max_articles}")
	cmd.Flags().StringVarP(&f.topic, "topic", "t", "", "topic used for scoring")
	cmd.Flags().Float64Var(&f.minRelevance, "min-relevance", 0, "drop articles scoring below this (default $SCOUT_MIN_RELEVANCE)")
	cmd.Flags().IntVarP(&f.maxArticles, "max-articles", "n", 0, "maximum articles returned (default $SCOUT_MAX_ARTICLES)")
	cmd.Flags().IntVarP(&f.concurrency, "concurrency", "c", 0, "parallel explorations; 1 runs politely in sequence")
	cmd.Flags().IntVar(&f.callsLimit, "calls-limit", 0, "action budget per seed")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "hide the progress bar")
	addFormatFlag(cmd)
	return cmd
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
