// Command reconciler keeps a Cloudflare DNS zone's A-records converged
// with a Traefik-style declarative source, on a fixed tick interval. It
// exits cleanly without doing anything if Cloudflare credentials are not
// configured — running the reconciler is optional.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/caimel/mediacore/internal/common"
	"github.com/caimel/mediacore/internal/reconciler"
)

func main() {
	cfg := common.Load()
	logger := common.NewLogger(cfg.LogLevel)

	if !cfg.Reconciler.Enabled() {
		logger.Info().Msg("reconciler: CLOUDFLARE_API_TOKEN/DOMAIN_BASE not set, exiting")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	common.LogStartup(logger, "reconciler", map[string]string{
		"domain_base": cfg.Reconciler.DomainBase,
		"tick":        cfg.Reconciler.TickInterval.String(),
	})

	provider := reconciler.NewCloudflareClient(
		cfg.Reconciler.CloudflareAPIToken,
		reconciler.WithCloudflareLogger(logger),
	)
	ipResolver := reconciler.NewIPEchoResolver(cfg.Reconciler.IPEchoServices, logger)

	r := reconciler.New(reconciler.Config{
		DomainBase:        cfg.Reconciler.DomainBase,
		TraefikConfigPath: cfg.Reconciler.TraefikConfigPath,
		FingerprintPath:   cfg.Reconciler.FingerprintPath,
		HealthPath:        cfg.Reconciler.HealthPath,
	}, provider, ipResolver, logger)

	r.Run(ctx, cfg.Reconciler.TickInterval)
	common.LogShutdown(logger, "reconciler")
}
