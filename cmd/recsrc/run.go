package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"recsrc/pkg/executor"
	"recsrc/pkg/logging"
	"recsrc/pkg/metrics"
	"recsrc/pkg/plan"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		parallel    int
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "run <plan.yaml>",
		Short: "Execute a plan and print its rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.WithComponent("cli")

			doc, err := plan.LoadFile(args[0])
			if err != nil {
				return err
			}
			compiled, err := plan.Compile(doc)
			if err != nil {
				return err
			}
			defer compiled.Close()

			m := metrics.New(a.cfg.Metrics.Namespace)
			addr := metricsAddr
			if addr == "" {
				addr = a.cfg.Metrics.Addr
			}
			if addr != "" {
				stop, err := serveMetrics(addr, m)
				if err != nil {
					return err
				}
				defer stop()
				log.Infow("serving metrics", "addr", addr)
			}

			exec, err := executor.New(compiled,
				executor.WithMetrics(m),
				executor.WithParallelism(a.cfg.Executor.Parallelism),
			)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if parallel <= 1 {
				res, err := exec.Execute(ctx)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderResult(res))
				return nil
			}

			results, err := exec.ExecuteConcurrent(ctx, parallel)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), renderResult(results[0]))
			fmt.Fprintf(cmd.OutOrStdout(), "%d executions, %d rows each\n", len(results), len(results[0].Rows))
			return nil
		},
	}

	cmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "number of concurrent executions")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for the prometheus /metrics endpoint")
	return cmd
}

// serveMetrics starts the /metrics endpoint and returns its shutdown func.
func serveMetrics(addr string, m *metrics.Metrics) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("metrics server stopped", "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
