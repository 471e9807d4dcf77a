package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	config "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Config"
	container "gitlab.com/maplesense1/mdc.dashboard_client/src/production/MDC.Container"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(os.Stdout, container.NewReportContainer)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	// every completion path exits 0
}

type containerFactory func() (*container.ReportContainer, error)

func newRootCmd(out io.Writer, newContainer containerFactory) *cobra.Command {
	return &cobra.Command{
		Use:           "meraki-report",
		Short:         "Fetch Meraki Dashboard inventory and status and write a network report",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), out, newContainer)
		},
	}
}

func run(ctx context.Context, out io.Writer, newContainer containerFactory) error {
	// Initialize dependency injection container
	ctr, err := newContainer()
	if err != nil {
		reportConfigError(out, err)
		return nil
	}
	defer ctr.Shutdown(context.Background())

	r, err := ctr.Runner(out)
	if err != nil {
		reportConfigError(out, err)
		return nil
	}

	if err := r.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			ctr.GetLogger().Warn("Report run interrupted")
			return nil
		}
		return err
	}
	return nil
}

func reportConfigError(out io.Writer, err error) {
	var cfgErr *config.ConfigError
	if errors.As(err, &cfgErr) {
		err = cfgErr
	}
	fmt.Fprintf(out, "Configuration error: %v\n", err)
	fmt.Fprintln(out, "Please check your .env file configuration")
}
