package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/glimte/mmate-aspect/binding"
	"github.com/glimte/mmate-aspect/dispatcher"
	"github.com/glimte/mmate-aspect/interceptors"
	"github.com/glimte/mmate-aspect/invocation"
	"github.com/glimte/mmate-aspect/observability"
	"github.com/glimte/mmate-aspect/proxy"
	"github.com/glimte/mmate-aspect/reporting"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "aspect",
		Short: "Inspect and exercise interceptor bindings",
		Long: `aspect inspects binding files against a list of method names and runs a
small demonstration of method and exception interceptor chains.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	logger := func(cmd *cobra.Command) *slog.Logger {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	}

	rootCmd.AddCommand(newInspectCmd(logger), newDemoCmd(logger))
	return rootCmd
}

func newInspectCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var methods []string

	cmd := &cobra.Command{
		Use:   "inspect <binding-file>",
		Short: "Show the registrations a binding file produces",
		Long: `Resolve a binding file against candidate method names and print one line per
registration, in the order the chains would run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := binding.Load(args[0])
			if err != nil {
				return err
			}

			plan, err := binding.Resolve(cfg, binding.DefaultCatalog(logger(cmd)), methods)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if cfg.Name != "" {
				fmt.Fprintf(out, "%s\n", cfg.Name)
			}
			if len(plan) == 0 {
				fmt.Fprintln(out, "no registrations")
				return nil
			}
			fmt.Fprintf(out, "%-10s %-24s %s\n", "KIND", "METHOD", "INTERCEPTOR")
			fmt.Fprint(out, plan.String())
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&methods, "methods", "m", nil, "Candidate method names for `when` selectors")

	return cmd
}

// demoAccount is the proxied object of the demo command
type demoAccount struct {
	balance int
}

func (a *demoAccount) Charge(ctx context.Context, amount int) (int, error) {
	if amount > a.balance {
		return 0, fmt.Errorf("insufficient funds: balance %d, charge %d", a.balance, amount)
	}
	a.balance -= amount
	return amount, nil
}

func newDemoCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var (
		amount       int
		balance      int
		shortCircuit bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a charge through an interceptor chain",
		Long: `Proxy an account whose Charge method is wrapped by logging, metrics and
counting interceptors. Failed charges are reported by an exception interceptor.
With --short-circuit the counting interceptor answers 0 without charging.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(cmd.Context(), cmd.OutOrStdout(), logger(cmd), amount, balance, shortCircuit)
		},
	}
	cmd.Flags().IntVar(&amount, "amount", 100, "Amount to charge")
	cmd.Flags().IntVar(&balance, "balance", 1000, "Starting account balance")
	cmd.Flags().BoolVar(&shortCircuit, "short-circuit", false, "Answer from the counting interceptor without proceeding")

	return cmd
}

func runDemo(ctx context.Context, out io.Writer, logger *slog.Logger, amount, balance int, shortCircuit bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	callee, err := proxy.Reflect(&demoAccount{balance: balance})
	if err != nil {
		return err
	}

	d := dispatcher.New(dispatcher.WithName("Account"), dispatcher.WithLogger(logger))
	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	reports := reporting.NewMemoryStore()

	var counted atomic.Int64
	counter := interceptors.NewMethodInterceptorFunc("counter", func(ctx context.Context, next *invocation.Invocation) (any, error) {
		counted.Add(1)
		if shortCircuit {
			return 0, nil
		}
		return next.Proceed(ctx)
	})

	stack := interceptors.NewStackBuilder(logger).
		WithLogging().
		WithMetrics(metrics).
		WithCustom(counter).
		Build()
	if err := d.AddMethodInterceptors("Charge", stack...); err != nil {
		return err
	}
	if err := d.AddExceptionInterceptor("Charge", reporting.NewReportingInterceptor(reports,
		reporting.WithLogger(logger),
		reporting.WithSource("aspect-demo"),
	)); err != nil {
		return err
	}

	charged, callErr := proxy.Call[int](ctx, proxy.New(d, callee), "Charge", amount)

	fmt.Fprintf(out, "chain:    %s\n", chainNames(d, "Charge"))
	if callErr != nil {
		fmt.Fprintf(out, "error:    %v\n", callErr)
	} else {
		fmt.Fprintf(out, "charged:  %d\n", charged)
	}
	fmt.Fprintf(out, "counted:  %d\n", counted.Load())
	fmt.Fprintf(out, "invoked:  %.0f\n", counterTotal(registry, "aspect_invocations_total"))
	fmt.Fprintf(out, "reports:  %d\n", reports.Len())

	return nil
}

func chainNames(d *dispatcher.Dispatcher, method string) string {
	chain, _ := d.Interceptors(method)
	names := make([]string, 0, len(chain)+1)
	for _, i := range chain {
		names = append(names, i.Name())
	}
	names = append(names, method)
	return strings.Join(names, " -> ")
}

func counterTotal(g prometheus.Gatherer, name string) float64 {
	mfs, err := g.Gather()
	if err != nil {
		return 0
	}

	var total float64
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
