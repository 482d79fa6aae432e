package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/finpulse/finpulse/internal/advisor"
	"github.com/finpulse/finpulse/internal/cache"
	"github.com/finpulse/finpulse/internal/config"
	"github.com/finpulse/finpulse/internal/fetch"
	"github.com/finpulse/finpulse/internal/httpapi"
	"github.com/finpulse/finpulse/internal/insight"
	"github.com/finpulse/finpulse/internal/narrative"
	"github.com/finpulse/finpulse/internal/question"
	sigengine "github.com/finpulse/finpulse/internal/signal"
	"github.com/finpulse/finpulse/internal/store"
)

const (
	appName = "FinPulse"
	version = "v1.2.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "finpulse",
		Short:   "Period-over-period business signal engine",
		Version: version,
		Long: `FinPulse ingests accounting, web-analytics, and ad-spend deltas and
derives severity-ranked signals, threshold insights, and CFO narrative
prompts for small-business dashboards.`,
	}

	var configPath string
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (defaults apply when empty)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	var businessID string
	signalsCmd := &cobra.Command{
		Use:   "signals",
		Short: "Generate the signal feed for one business and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if businessID == "" {
				return fmt.Errorf("--business is required")
			}
			return runSignals(configPath, businessID)
		},
	}
	signalsCmd.Flags().StringVar(&businessID, "business", "", "business identifier")

	var inputPath string
	insightsCmd := &cobra.Command{
		Use:   "insights",
		Short: "Run the insight rule engine over a JSON snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return fmt.Errorf("--input is required")
			}
			return runInsights(configPath, inputPath)
		},
	}
	insightsCmd.Flags().StringVar(&inputPath, "input", "", "path to JSON file with digits/gaDelta/adsDelta")

	var reportBusinessID string
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the feed and run the advisor for a structured CFO report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if reportBusinessID == "" {
				return fmt.Errorf("--business is required")
			}
			return runReport(configPath, reportBusinessID)
		},
	}
	reportCmd.Flags().StringVar(&reportBusinessID, "business", "", "business identifier")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version)
		},
	}

	rootCmd.AddCommand(serveCmd, signalsCmd, insightsCmd, reportCmd, versionCmd)
	return rootCmd
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	return config.Load(path)
}

func buildEngine(cfg *config.Config) *sigengine.Engine {
	var fetchers fetch.Fetchers = fetch.NewHTTPFetcher(fetch.HTTPConfig{
		BaseURL:        cfg.Upstream.BaseURL,
		RequestTimeout: time.Duration(cfg.Upstream.RequestTimeoutSec) * time.Second,
		RatePerSecond:  cfg.Upstream.RatePerSecond,
		RateBurst:      cfg.Upstream.RateBurst,
		BreakerTimeout: time.Duration(cfg.Upstream.BreakerTimeoutSec) * time.Second,
		MaxFailures:    cfg.Upstream.MaxFailures,
	}, log.Logger)

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		fetchers = cache.New(fetchers, rdb, cfg.Redis.TTL(), log.Logger)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("snapshot cache enabled")
	}

	return sigengine.NewEngine(fetchers, fetchers, fetchers, log.Logger)
}

// buildAdvisor dials Gemini when the advisor is enabled. A nil agent
// with a nil error means the advisor is simply off.
func buildAdvisor(ctx context.Context, cfg *config.Config) (*advisor.Agent, error) {
	if !cfg.Advisor.Enabled {
		return nil, nil
	}
	key := os.Getenv(cfg.Advisor.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("advisor enabled but %s is not set", cfg.Advisor.APIKeyEnv)
	}
	client, err := advisor.NewGeminiClient(ctx, key)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("advisor enabled")
	return advisor.NewAgent(client, log.Logger), nil
}

func runServe(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	engine := buildEngine(cfg)

	var st *store.Store
	if cfg.Postgres.DSN != "" {
		st, err = store.Open(cfg.Postgres.DSN, cfg.Postgres.QueryTimeout())
		if err != nil {
			return err
		}
		log.Info().Msg("postgres store enabled")
	}

	var answers httpapi.AnswerStore
	var feeds httpapi.FeedStore
	if st != nil {
		answers = st
		feeds = st
	}

	agent, err := buildAdvisor(context.Background(), cfg)
	if err != nil {
		return err
	}
	var adv httpapi.ReportAdvisor
	if agent != nil {
		adv = agent
	}

	srv := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}, engine, cfg.Thresholds(), answers, feeds, adv, log.Logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-stop:
		log.Info().Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}

func runSignals(configPath, businessID string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	engine := buildEngine(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	signals, err := engine.Generate(ctx, businessID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(signals)
}

func runReport(configPath, businessID string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if !cfg.Advisor.Enabled {
		return fmt.Errorf("advisor is not enabled in config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	agent, err := buildAdvisor(ctx, cfg)
	if err != nil {
		return err
	}

	engine := buildEngine(cfg)
	signals, err := engine.Generate(ctx, businessID)
	if err != nil {
		return err
	}

	prompt := narrative.BuildCFOPrompt(signals, question.FromSignals(signals))
	report, err := agent.Run(ctx, prompt)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func runInsights(configPath, inputPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	var in struct {
		Digits   insight.DigitsSnapshot `json:"digits"`
		GADelta  insight.GADelta        `json:"gaDelta"`
		AdsDelta *insight.AdsDelta      `json:"adsDelta"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}

	insights := insight.Generate(in.Digits, in.GADelta, in.AdsDelta, cfg.Thresholds())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(insights)
}
