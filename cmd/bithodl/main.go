package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/smartcontractkit/chainlink-common/pkg/logger"

	"github.com/Mosas2000/BitHodl"
	"github.com/Mosas2000/BitHodl/config"
	"github.com/Mosas2000/BitHodl/network"
	"github.com/Mosas2000/BitHodl/sdk"
	"github.com/Mosas2000/BitHodl/toast"
	"github.com/Mosas2000/BitHodl/txflow"
)

func main() {
	configPath := flag.String("config", "bithodl.toml", "path to the TOML config file")
	metricsAddr := flag.String("metrics-addr", "", "listen address for the Prometheus metrics endpoint, overrides MetricsAddress")
	flag.Parse()

	lggr, err := logger.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	lggr = logger.Named(lggr, "BitHodl")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		lggr.Fatalw("failed to load config", "path", *configPath, "err", err)
	}
	if !cfg.IsEnabled() {
		lggr.Fatalw("cannot start: disabled in config", "path", *configPath)
	}

	addr := cfg.MetricsAddr()
	if *metricsAddr != "" {
		addr = *metricsAddr
	}

	if err := run(lggr, cfg, addr); err != nil {
		lggr.Fatalw("exiting", "err", err)
	}
}

func loadConfig(path string) (*config.TOMLConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	d := toml.NewDecoder(strings.NewReader(string(raw)))
	d.DisallowUnknownFields()

	var cfg config.TOMLConfig
	if err := d.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config toml: %w", err)
	}
	if err := cfg.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.SetDefaults()
	return &cfg, nil
}

func run(lggr logger.Logger, cfg *config.TOMLConfig, metricsAddr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	net := cfg.ChainNetwork()
	client := sdk.NewClient(cfg.APIURL(), sdk.CreateHTTPClientWithTimeout(cfg.FlowConfig().RequestTimeout))
	lggr.Infow("starting", "network", net, "apiURL", cfg.APIURL())

	sink := toast.NewSink(cfg.ToastCap())
	unsubToasts := sink.Subscribe(func(n toast.Notification) {
		lggr.Infow("notification", "level", n.Level, "title", n.Title, "message", n.Message)
	})
	defer unsubToasts()

	probe := network.NewProbe(lggr, client, cfg.ProbeTimeoutDuration())
	netMon := network.NewMonitor(lggr, probe, cfg.StatusPollPeriodDuration())
	if err := netMon.Start(ctx); err != nil {
		return err
	}
	defer logger.Sugared(lggr).ErrorIfFn(netMon.Close, "failed to close network monitor")

	unsubStatus := netMon.Subscribe(func(s network.Status) {
		if !s.IsConnected {
			sink.ShowWarning("Connection lost", "Unable to reach the Stacks API")
			return
		}
		lggr.Debugw("chain reachable", "latencyMs", s.LatencyMs)
	})
	defer unsubStatus()

	flow := txflow.NewFlow(lggr, client, cfg.FlowConfig(), net, sink)
	if err := flow.Start(ctx); err != nil {
		return err
	}
	defer logger.Sugared(lggr).ErrorIfFn(flow.Close, "failed to close flow engine")

	if acct := cfg.Account; acct != nil {
		logBalance(ctx, lggr, client, *acct)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		lggr.Infow("metrics endpoint listening", "addr", metricsAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lggr.Errorw("metrics server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	lggr.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func logBalance(ctx context.Context, lggr logger.Logger, client sdk.StacksClient, principal string) {
	bal, err := client.GetAccountBalance(ctx, principal)
	if err != nil {
		lggr.Warnw("failed to fetch account balance", "account", principal, "err", err)
		return
	}
	stx, err := bithodl.ParseBalance(bal.Balance)
	if err != nil {
		lggr.Warnw("unparseable account balance", "account", principal, "balance", bal.Balance, "err", err)
		return
	}
	lggr.Infow("account balance", "account", principal, "balanceSTX", stx)
}
