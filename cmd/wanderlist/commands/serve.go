package commands

import (
	"fmt"

	"github.com/mmcdole/wanderlist/internal/metrics"
	"github.com/mmcdole/wanderlist/internal/offline"
	"github.com/mmcdole/wanderlist/internal/server"
	"github.com/mmcdole/wanderlist/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the app through the offline asset cache",
	Long: `Install the configured cache generation, activate it and serve the
application origin through it. Static assets are answered cache-first and
API calls always go to the network.

If the origin is unreachable at startup, a generation stored by an earlier
run is served instead.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "listen address (overrides server.listen)")
}

func runServe(cmd *cobra.Command, args []string) error {
	e, err := setup(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	origin, err := e.cfg.OriginURL()
	if err != nil {
		return err
	}
	cacheCfg, err := e.offlineConfig()
	if err != nil {
		return err
	}

	storage, err := store.NewGenerationStore(e.cfg.Cache.Dir, e.cfg.Server.Origin)
	if err != nil {
		return fmt.Errorf("failed to open cache storage: %w", err)
	}
	defer storage.Close()

	var cacheMetrics offline.Metrics
	var opts []server.Option
	if e.cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		cacheMetrics = metrics.NewCacheMetrics(reg)
		opts = append(opts, server.WithMetricsHandler(e.cfg.Metrics.Path, metrics.Handler(reg)))
	}

	host := server.NewHost(storage, e.fetcher(), cacheMetrics, e.logger)
	if err := host.DeployOrRestore(ctx, cacheCfg); err != nil {
		return err
	}
	if active := host.Active(); active != nil && active.State() == offline.StateActive {
		e.printer.Success(fmt.Sprintf("cache %s active", active.Name()))
	}

	addr := e.cfg.Server.Listen
	if serveListen != "" {
		addr = serveListen
	}
	e.printer.Printf("serving %s on %s\n", origin, addr)

	srv := server.New(host, storage, origin, e.logger, opts...)
	return srv.Run(ctx, addr, e.cfg.Server.ReadTimeout)
}
