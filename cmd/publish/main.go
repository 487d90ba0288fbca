package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"miseflow/internal/core/cache"
	"miseflow/internal/core/publish"
	"miseflow/internal/core/recipe"
	"miseflow/internal/core/source"
	"miseflow/internal/infrastructure/config"
	"miseflow/internal/pkg/common"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	flags := pflag.NewFlagSet("publish", pflag.ExitOnError)
	file := flags.String("file", "", "URL list, one per line (\"-\" reads stdin)")
	servings := flags.Float64("servings", cfg.Publish.Servings, "servings for normalized recipes")
	limit := flags.Int("limit", cfg.Publish.Limit, "maximum number of URLs to process")
	republish := flags.Bool("republish", false, "publish even when the content fingerprint is unchanged")
	out := flags.String("out", "", "directory for <slug>.json files")
	_ = flags.Parse(os.Args[1:])

	if *file == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		flags.Usage()
		os.Exit(2)
	}

	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	if err := run(cfg, *file, *out, publish.Options{
		Servings:  *servings,
		Limit:     *limit,
		Republish: *republish,
	}); err != nil {
		common.LogError("發布失敗", zap.Error(err))
		common.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, file, out string, opts publish.Options) error {
	urls, err := readList(file)
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs found in %s", file)
	}

	// 指紋存放於快取；擷取本身不讀快取，確保每次都取得最新內容
	store, err := cache.NewStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	if store != nil {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	extractor := source.NewExtractor(cfg, nil, nil)
	publisher := publish.NewPublisher(extractor, recipe.NewNormalizer(nil), store, cfg.Publish.Workers)

	results, runErr := publisher.Run(ctx, urls, opts)

	if out != "" {
		if err := os.MkdirAll(out, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	for _, r := range results {
		line := fmt.Sprintf("%-9s %s", r.Status, r.URL)
		if r.Reason != "" {
			line += " (" + r.Reason + ")"
		}
		if r.Status == publish.StatusPublished && out != "" {
			path, err := writeRecipe(out, r)
			if err != nil {
				return err
			}
			line += " -> " + path
		}
		fmt.Println(line)
	}

	summary, err := common.ToIndentedJSON(publish.Summarize(results))
	if err != nil {
		return err
	}
	fmt.Println(string(summary))

	return runErr
}

func readList(file string) ([]string, error) {
	var r io.Reader = os.Stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open url list: %w", err)
		}
		defer f.Close()
		r = f
	}
	return publish.ReadURLList(r)
}

func writeRecipe(dir string, r publish.Result) (string, error) {
	data, err := common.ToIndentedJSON(r.Recipe)
	if err != nil {
		return "", fmt.Errorf("failed to encode %s: %w", r.Slug, err)
	}
	path := filepath.Join(dir, r.Slug+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
