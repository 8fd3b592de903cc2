package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/ripple-ui/ripple/pkg/inspect"
	"github.com/ripple-ui/ripple/pkg/observe"
	"github.com/ripple-ui/ripple/pkg/ripple"
)

func inspectCmd() *cobra.Command {
	var (
		addr     string
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Serve a live inspector for a demo reactive workload",
		Long: `Start an HTTP server exposing the engine inspector and Prometheus
metrics, driven by a small demo workload that continuously writes
signals through a memo diamond.

Endpoints:

  /debug/snapshot - counters and recent events as JSON
  /debug/ws       - WebSocket event stream
  /debug/healthz  - liveness probe
  /metrics        - Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			printBanner()

			inspector := inspect.New()
			metrics := observe.NewMetrics()
			ripple.SetHooks(observe.Multi(metrics, inspector))
			defer ripple.SetHooks(nil)

			stop := make(chan struct{})
			go runDemoWorkload(interval, stop)

			r := chi.NewRouter()
			r.Mount("/debug", inspector.Routes())
			r.Handle("/metrics", promhttp.Handler())

			srv := &http.Server{Addr: addr, Handler: r}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()

			success("inspector listening on http://%s", addr)
			info("snapshot: http://%s/debug/snapshot", addr)
			info("metrics:  http://%s/metrics", addr)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				close(stop)
				return err
			case <-sigCh:
				fmt.Println()
				info("shutting down")
			}

			close(stop)
			inspector.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "127.0.0.1:8484", "Listen address")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 250*time.Millisecond, "Demo write interval")

	return cmd
}

// runDemoWorkload drives a small diamond graph so the inspector has
// something to show.
func runDemoWorkload(interval time.Duration, stop <-chan struct{}) {
	var counter *ripple.Signal[int]

	root := ripple.CreateRoot(func() {
		counter = ripple.NewSignal(0)
		double := ripple.NewMemo(func() int { return counter.Get() * 2 })
		parity := ripple.NewMemo(func() int { return counter.Get() % 2 })

		ripple.CreateEffect(func() ripple.Cleanup {
			_ = double.Get() + parity.Get()
			return nil
		}, ripple.EffectName("demo-sink"))
	})
	defer root.Dispose()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	i := 0
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			i++
			counter.Set(i)
			if i%10 == 0 {
				// Periodic no-op write so the noop counter moves too.
				counter.Set(i)
			}
		}
	}
}
