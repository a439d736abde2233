package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"xarb-scanner/internal/bus"
	"xarb-scanner/internal/config"
	"xarb-scanner/internal/feeds"
	"xarb-scanner/internal/logging"
	"xarb-scanner/internal/view"

	"go.uber.org/zap"
)

const (
	defaultVerifyEnvFile = ".env"
	defaultVerifyTimeout = 15 * time.Second
)

func main() {
	configPath := flag.String("config", "", "optional config path; built-in defaults are used when empty")
	showView := flag.Bool("view", false, "print the scanner route table from redis and exit")
	exchange := flag.String("exchange", "", "only check this exchange")
	flag.Parse()

	if err := config.LoadEnv(defaultVerifyEnvFile); err != nil {
		fatal(err)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	log := logging.New(cfg.Log, "verify")
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultVerifyTimeout)
	defer cancel()

	if *showView {
		if err := printView(ctx, cfg); err != nil {
			fatal(err)
		}
		return
	}
	if err := checkFunding(ctx, cfg, strings.ToLower(strings.TrimSpace(*exchange)), log); err != nil {
		fatal(err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	return config.Default()
}

// checkFunding hits every enabled exchange REST endpoint once and prints the
// funding rates of the watched symbols.
func checkFunding(ctx context.Context, cfg *config.Config, only string, log *zap.Logger) error {
	list := feeds.FromConfig(cfg.Feeds, cfg.Strategy.Exchanges, cfg.Strategy.Symbols, log.Named("feeds"), nil)
	if len(list) == 0 {
		return errors.New("no feeds enabled")
	}
	failed := 0
	for _, f := range list {
		if only != "" && f.Exchange() != only {
			continue
		}
		start := time.Now()
		rates, err := f.FetchFunding(ctx)
		if err != nil {
			failed++
			fmt.Printf("%-12s FAIL %v\n", f.Exchange(), err)
			continue
		}
		fmt.Printf("%-12s ok   %d symbols in %s\n", f.Exchange(), len(rates), time.Since(start).Round(time.Millisecond))
		symbols := make([]string, 0, len(rates))
		for sym := range rates {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)
		for _, sym := range symbols {
			fmt.Printf("  %-8s %+.6f%%\n", sym, rates[sym]*100)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d feed(s) failed", failed)
	}
	return nil
}

func printView(ctx context.Context, cfg *config.Config) error {
	redisBus, err := bus.NewRedis(ctx, bus.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer redisBus.Close()

	data, ok, err := redisBus.GetView(ctx, cfg.Bus.ViewKey)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no view at %s; is the scanner running?", cfg.Bus.ViewKey)
	}
	snap, err := view.Decode(data)
	if err != nil {
		return err
	}

	fmt.Printf("generated %s  position %s", snap.GeneratedAt.UTC().Format(time.RFC3339), snap.Position.State)
	if snap.Position.Route != "" {
		fmt.Printf(" %s entry %.4f%%", snap.Position.Route, snap.Position.EntryBasis*100)
	}
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ROUTE\tBASIS%\tNET%\tFUND\tSTREAK\tTIER\tTREND\tSTABLE\tTTP")
	for _, r := range snap.Routes {
		if r.Offline {
			fmt.Fprintf(w, "%s\toffline\t\t\t\t\t\t\t\n", r.Route)
			continue
		}
		route := r.Route
		if r.Active {
			route = "*" + route
		}
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%+.6f\t%d\t%s\t%s\t%t\t%.0fs\n",
			route, r.BasisPct, r.NetPct, r.FundingDiff, r.Streak, r.Tier, r.Trend, r.Stable, r.SecondsToPayout)
	}
	return w.Flush()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
