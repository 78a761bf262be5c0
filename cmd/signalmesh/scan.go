package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/signalmesh/signalmesh/internal/bots"
	"github.com/signalmesh/signalmesh/internal/cache"
	"github.com/signalmesh/signalmesh/internal/classifier"
	"github.com/signalmesh/signalmesh/internal/httpx"
	"github.com/signalmesh/signalmesh/internal/metrics"
	"github.com/signalmesh/signalmesh/internal/orchestrator"
	"github.com/signalmesh/signalmesh/internal/ratelimit"
	"github.com/signalmesh/signalmesh/internal/registry"
)

type scanFlags struct {
	assets      []string
	amount      float64
	chains      []string
	lookback    int
	configPath  string
	redisAddr   string
	cacheTTL    time.Duration
	metricsAddr string
}

func newScanCmd() *cobra.Command {
	var flags scanFlags
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one aggregation pass over the requested assets",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd.Context(), flags)
		},
	}
	cmd.Flags().StringSliceVarP(&flags.assets, "assets", "a", nil, "asset symbols to scan (required)")
	cmd.Flags().Float64Var(&flags.amount, "amount", 0, "intended transaction size in USD")
	cmd.Flags().StringSliceVar(&flags.chains, "chains", nil, "chains to inspect (default: inferred from assets)")
	cmd.Flags().IntVar(&flags.lookback, "lookback", 24, "news and whale-flow lookback in hours")
	cmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "sources YAML file (default: built-in registry)")
	cmd.Flags().StringVar(&flags.redisAddr, "redis", "", "redis address for the shared cache (default: in-memory)")
	cmd.Flags().DurationVar(&flags.cacheTTL, "cache-ttl", cache.DefaultTTL, "bot output cache TTL")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address during the run")
	_ = cmd.MarkFlagRequired("assets")
	return cmd
}

func runScan(ctx context.Context, flags scanFlags) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := loadRegistry(flags.configPath)
	if err != nil {
		return err
	}

	var store cache.Store = cache.NewMemory()
	if flags.redisAddr != "" {
		store = cache.NewRedis(redis.NewClient(&redis.Options{Addr: flags.redisAddr}))
		log.Info().Str("addr", flags.redisAddr).Msg("using redis cache")
	}

	promReg := prometheus.NewRegistry()
	if flags.metricsAddr != "" {
		go serveMetrics(flags.metricsAddr, promReg)
	}

	deps := bots.Deps{
		Limiter:  ratelimit.New(),
		Cache:    store,
		Keys:     apiKeys(reg),
		Metrics:  metrics.NewCollector(promReg),
		CacheTTL: flags.cacheTTL,
	}
	fetchers := bots.HTTPFetchers(httpx.New(httpx.DefaultConfig()), deps.Keys)

	orch, err := orchestrator.New(
		bots.NewPriceBot(reg, deps, fetchers.Quotes),
		bots.NewLiquidityBot(reg, deps, fetchers.Books),
		bots.NewOnChainBot(reg, deps, fetchers.Chains),
		bots.NewDerivativesBot(reg, deps, fetchers.Derivs),
		bots.NewNewsBot(reg, deps, classifier.New(), fetchers.Articles),
		bots.NewRegulatoryBot(reg, deps, bots.DefaultRegulatoryLists(), fetchers.Lists),
		bots.NewAnomalyBot(reg, deps, fetchers.Quotes),
		bots.NewWhaleFlowBot(reg, deps, fetchers.Whales),
	)
	if err != nil {
		return err
	}
	orch.WithMetrics(deps.Metrics)

	out, err := orch.Run(ctx, orchestrator.Request{
		Assets:         flags.assets,
		TransactionUSD: flags.amount,
		Chains:         flags.chains,
		LookbackHours:  flags.lookback,
	})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func loadRegistry(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Default(), nil
	}
	reg, err := registry.Load(path)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Int("sources", len(reg.All())).Msg("loaded source registry")
	return reg, nil
}

// apiKeys resolves every key env var named in the registry. Missing keys are
// fine; the bot layer skips keyed sources without one.
func apiKeys(reg *registry.Registry) map[string]string {
	keys := make(map[string]string)
	for _, src := range reg.All() {
		if src.APIKeyEnv != "" {
			keys[src.APIKeyEnv] = os.Getenv(src.APIKeyEnv)
		}
	}
	return keys
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	log.Info().Str("addr", addr).Msg("serving metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn().Err(err).Msg("metrics server stopped")
	}
}
