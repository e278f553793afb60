package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lumenscan/lumen/internal/cache"
	"github.com/lumenscan/lumen/internal/catalog"
	"github.com/lumenscan/lumen/internal/config"
	"github.com/lumenscan/lumen/internal/logging"
	"github.com/lumenscan/lumen/internal/output"
	"github.com/lumenscan/lumen/internal/providers"
	"github.com/lumenscan/lumen/internal/redact"
	"github.com/lumenscan/lumen/internal/scan"
)

// Shared scan flags
var (
	flagPaths          string
	flagExclude        string
	flagProvider       string
	flagModel          string
	flagFormat         string
	flagOut            string
	flagCategories     string
	flagSubcategories  string
	flagPrompts        string
	flagTokenBudget    int
	flagConcurrency    int
	flagMaxRetries     int
	flagTimeout        int
	flagNoCache        bool
	flagNoRedact       bool
	flagFailOnFindings bool
)

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (cerebras, openai, ollama)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, markdown, json, sarif)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagCategories, "categories", "", "Analysis categories to run (comma-separated)")
	cmd.Flags().StringVar(&flagSubcategories, "subcategories", "", "Subcategory IDs to run (comma-separated)")
	cmd.Flags().StringVar(&flagPrompts, "prompts", "", "Prompt repository JSON file (default: built-in)")
	cmd.Flags().IntVar(&flagTokenBudget, "token-budget", 0, "Token budget per model call")
	cmd.Flags().IntVar(&flagConcurrency, "concurrency", 0, "Maximum in-flight batches")
	cmd.Flags().IntVar(&flagMaxRetries, "max-retries", 0, "Rate-limit retries per batch")
	cmd.Flags().IntVar(&flagTimeout, "timeout", 0, "Whole-scan deadline in seconds")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the response cache")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagFailOnFindings, "fail-on-findings", false, "Exit 1 when any finding is reported")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagCategories != "" {
		m["category_filter"] = flagCategories
	}
	if flagSubcategories != "" {
		m["subcategory_filter"] = flagSubcategories
	}
	if flagPrompts != "" {
		m["prompts_file"] = flagPrompts
	}
	if flagTokenBudget > 0 {
		m["token_budget"] = fmt.Sprintf("%d", flagTokenBudget)
	}
	if flagConcurrency > 0 {
		m["concurrency_limit"] = fmt.Sprintf("%d", flagConcurrency)
	}
	if flagMaxRetries > 0 {
		m["max_retries"] = fmt.Sprintf("%d", flagMaxRetries)
	}
	if flagTimeout > 0 {
		m["timeout_seconds"] = fmt.Sprintf("%d", flagTimeout)
	}
	if flagPaths != "" {
		m["include"] = flagPaths
	}
	if flagExclude != "" {
		m["exclude"] = flagExclude
	}
	return m
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a source tree or file for issues",
	Long:  "Scan discovers supported source files under path (default: current directory), expands them against the prompt catalog, and sends batched analysis requests to the configured LLM provider.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(flagConfig, buildOverrides())
		if err != nil {
			return err
		}
		root := "."
		if len(args) == 1 {
			root = args[0]
		}
		runScan(root, cfg)
		return nil
	},
}

func init() {
	addScanFlags(scanCmd)
}

func runScan(root string, cfg config.Config) {
	log, err := logging.New(flagDebug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	defer func() { _ = log.Sync() }()

	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	repo, err := catalog.LoadRepository(cfg.PromptsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	files, err := catalog.Discover(root, catalog.DiscoverOptions{
		Include: cfg.Include,
		Exclude: cfg.Exclude,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No supported source files found.")
		return
	}

	scanRoot := root
	if info, serr := os.Stat(root); serr == nil && !info.IsDir() {
		scanRoot = filepath.Dir(root)
	}

	expander := catalog.Expander{
		Repo:           repo,
		Filter:         catalog.Filter{Categories: cfg.CategoryFilter, Subcategories: cfg.SubcategoryFilter},
		SnippetCeiling: cfg.TokenBudget / 2,
		Logger:         log,
	}
	if cfg.Privacy.RedactSecrets {
		expander.Transform = redact.Secrets
	}
	units, err := expander.Expand(scanRoot, files)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	if len(units) == 0 {
		fmt.Fprintln(os.Stderr, "No checks selected; adjust --categories/--subcategories or the prompt repository.")
		return
	}

	provider, err := providers.New(cfg.Provider, cfg.Model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if providers.IsAuthError(err) {
			exitCode = ExitAuthError
		} else {
			exitCode = ExitUsageError
		}
		return
	}

	opts := scan.Options{
		TokenBudget:   cfg.TokenBudget,
		BatchOverhead: cfg.BatchOverhead,
		Concurrency:   cfg.Concurrency,
		MaxRetries:    cfg.MaxRetries,
		Timeout:       time.Duration(cfg.TimeoutSeconds) * time.Second,
		Logger:        log,
	}
	if cfg.Cache.Enabled && !flagNoCache {
		c, cerr := cache.New(true, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
		if cerr != nil {
			log.Warn("cache unavailable, continuing without it", zap.Error(cerr))
		} else {
			opts.Cache = c.Scoped(cfg.Provider, cfg.Model)
		}
	}

	engine := scan.NewEngine(provider, opts)
	report, err := engine.Run(context.Background(), units)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}
	report.Version = version
	report.Model = cfg.Model
	if abs, aerr := filepath.Abs(root); aerr == nil {
		report.Root = abs
	} else {
		report.Root = root
	}

	if err := output.WriteReport(report, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return
	}

	if flagFailOnFindings && report.Stats.TotalFindings > 0 {
		exitCode = ExitFindings
	}
}
