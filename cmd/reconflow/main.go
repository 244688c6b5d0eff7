// cmd/reconflow/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"reconflow/internal/core/domain"

	// Plugins compilados: se auto-registran vía init()
	_ "reconflow/internal/plugins/collect/crtsh"
	_ "reconflow/internal/plugins/collect/dnsresolve"
	_ "reconflow/internal/plugins/collect/threatminer"
	_ "reconflow/internal/plugins/login/redis"
)

var (
	// Rellenables con -ldflags en build
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:           "reconflow",
	Short:         "Plugin-driven recon orchestrator",
	Long:          "reconflow runs capability plugins over seed targets and feeds every result back as new targets, level by level.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "reconflow %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, cancel := rootContextWithSignals()
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode: 2 para errores de uso/configuración, 1 para el resto.
func exitCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidConfig), errors.Is(err, domain.ErrInvalidTarget):
		return 2
	default:
		return 1
	}
}

// rootContextWithSignals cancela el contexto raíz con SIGINT/SIGTERM.
// Una segunda señal termina el proceso sin esperar a los jobs en curso.
func rootContextWithSignals() (context.Context, context.CancelFunc) {
	base, baseCancel := context.WithCancel(context.Background())

	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-ch:
			baseCancel()
		case <-base.Done():
			return
		}
		<-ch
		fmt.Fprintln(os.Stderr, "\ninterrupted")
		os.Exit(130)
	}()

	return base, func() {
		signal.Stop(ch)
		baseCancel()
	}
}
