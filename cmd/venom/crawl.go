package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ShroXd/venom"
	"github.com/ShroXd/venom/internal/spider"
	"github.com/spf13/cobra"
)

type crawlConfig struct {
	venom.Config `yaml:",inline"`
	Spider       spider.Config `yaml:"spider"`
}

func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the site described by a spider file",
		Long: `Crawl fetches spider.start_url, follows every link matched by spider.links
and prints one JSON item per detail page on stdout.

Spider file example:
  name: articles
  delay: 500ms
  allowed_domains: [localhost]
  log:
    level: info
  spider:
    start_url: http://localhost:6657/articles
    links: a.article@href
    fields:
      title: h1.title
      author: span.author`,
		Args: cobra.NoArgs,
		RunE: runCrawlCmd,
	}

	cmd.Flags().StringP("config", "c", "spider.yaml", "Path to the spider file")
	cmd.Flags().StringP("log-level", "l", "", "Override the console log level")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	level, err := cmd.Flags().GetString("log-level")
	if err != nil {
		return err
	}

	cfg, err := loadCrawlConfig(path)
	if err != nil {
		return err
	}
	if level != "" {
		cfg.Log.Level = level
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return crawl(ctx, cfg, logger, cmd.OutOrStdout())
}

func loadCrawlConfig(path string) (*crawlConfig, error) {
	cfg := &crawlConfig{}
	if err := venom.DecodeConfigFile(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Spider.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func crawl(ctx context.Context, cfg *crawlConfig, logger venom.Logger, out io.Writer) error {
	opts := append(cfg.Options(),
		venom.WithLogger(logger),
		venom.WithItemConsumer(jsonLines(out)),
	)
	engine, err := venom.New(opts...)
	if err != nil {
		return err
	}

	start := spider.NewDefinitions(&cfg.Spider).AsFunc(engine.Spider(), nil, cfg.Spider.StartFields())
	return engine.Run(ctx, start)
}

// jsonLines writes every item as one line of JSON.
func jsonLines(w io.Writer) venom.ItemConsumer {
	var mu sync.Mutex
	enc := json.NewEncoder(w)

	return func(item interface{}) error {
		mu.Lock()
		defer mu.Unlock()
		return enc.Encode(item)
	}
}
