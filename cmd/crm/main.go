package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jhoicas/customer-registry/internal/application/registry"
	"github.com/jhoicas/customer-registry/internal/bootstrap"
	"github.com/jhoicas/customer-registry/internal/infrastructure/kvstore"
	"github.com/jhoicas/customer-registry/pkg/config"
	"github.com/jhoicas/customer-registry/pkg/logger"
)

// app estado compartido por los subcomandos; se arma en PersistentPreRunE.
type app struct {
	storeDriver string
	storeKey    string
	verbose     bool
	logFile     string

	cfg     *config.Config
	log     *logger.Logger
	reg     *registry.CustomerRegistry
	store   kvstore.Store
	closers []io.Closer
}

// newRootCmd arma el árbol de comandos sobre a. El llamador cierra a con a.close()
// (PersistentPostRun no corre cuando un comando falla).
func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "crm",
		Short: "Registro de clientes (name, email, phone)",
		Long: `crm administra la colección de clientes guardada en el slot configurado.

El backend se elige con STORE_DRIVER (sqlite, memory, postgres, redis, s3)
o con --store; la clave del slot con STORE_KEY o --key.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.storeDriver, "store", "", "backend del slot (sobrescribe STORE_DRIVER)")
	root.PersistentFlags().StringVar(&a.storeKey, "key", "", "clave del slot (sobrescribe STORE_KEY)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log en nivel debug")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "archivo de log (la TUI usa crm.log en el directorio temporal)")

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newDeleteCmd(a),
		newExportCmd(a),
		newTUICmd(a),
	)
	return root
}

// open carga configuración, logger y registro.
func (a *app) open(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("store") {
		cfg.Store.Driver = strings.ToLower(strings.TrimSpace(a.storeDriver))
	}
	if cmd.Flags().Changed("key") {
		cfg.Store.Key = a.storeKey
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.App.LogLevel
	if a.verbose {
		level = "debug"
	}
	out, err := a.logOutput(cmd)
	if err != nil {
		return err
	}
	a.log = logger.New(logger.Config{Env: cfg.App.Env, Level: level, Output: out})

	reg, store, err := bootstrap.OpenRegistry(cmd.Context(), cfg, a.log)
	if err != nil {
		return err
	}
	a.reg, a.store = reg, store
	return nil
}

// logOutput la TUI ocupa la terminal, así que su log va a archivo.
func (a *app) logOutput(cmd *cobra.Command) (io.Writer, error) {
	path := a.logFile
	if path == "" && cmd.Name() == "tui" {
		path = filepath.Join(os.TempDir(), "crm.log")
	}
	if path == "" {
		return cmd.ErrOrStderr(), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("abrir log %s: %w", path, err)
	}
	a.closers = append(a.closers, f)
	return f, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.log != nil {
			a.log.Error().Err(err).Msg("cerrar store")
		}
		a.store = nil
	}
	for _, c := range a.closers {
		_ = c.Close()
	}
	a.closers = nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
