package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tanpawarit/bankerai/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/bankerai/agent/contract"
	"github.com/tanpawarit/bankerai/agent/router"
	configx "github.com/tanpawarit/bankerai/pkg/config"
	_ "github.com/tanpawarit/bankerai/pkg/logger/autoload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "bankerai",
		Short:         "Route financial questions to analysis agents and summarize the answers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configx.SetEnvFile(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file")

	root.AddCommand(newClassifyCmd(), newRouteCmd(), newAnalyzeCmd(), newServeCmd())
	return root
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <query>",
		Short: "Show the companies, tickers and agents a query maps to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configx.New[AppConfig](appPrefix)
			if err != nil {
				return err
			}
			classifier, err := newClassifier(*cfg, nil)
			if err != nil {
				return err
			}
			query := strings.Join(args, " ")
			cls := classifier.Classify(query)
			return writeJSON(cmd.OutOrStdout(), router.Analysis{
				Classification: cls,
				Agents:         router.NewSelector(classifier, nil).Select(query, cls.Tickers),
			})
		},
	}
}

func newRouteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "route <query>",
		Short: "Dispatch a query to its agents and print the aggregated response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			resp := a.router.Route(cmd.Context(), contractx.Request{
				Context: contractx.NewRequestContext(strings.Join(args, " "), nil, nil, nil),
			})
			return writeJSON(cmd.OutOrStdout(), resp)
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "analyze <query>",
		Short: "Run the full analysis pipeline for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if timeout <= 0 {
				timeout = a.cfg.AnalysisTimeout
			}
			out := a.workflow.RunAnalysis(cmd.Context(), strings.Join(args, " "), timeout)
			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if out.Status != orchestrator.OutcomeSuccess {
				return fmt.Errorf("analysis %s: %s", out.Status, out.Error)
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall time budget (default BANKERAI_ANALYSIS_TIMEOUT)")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis pipeline and metrics over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.ListenAddr
			}
			var reports reportStore
			if a.reports != nil {
				reports = a.reports
			}
			return serve(cmd.Context(), addr, newServer(a.workflow, reports, a.metrics, a.cfg.AnalysisTimeout))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default BANKERAI_LISTEN_ADDR)")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
