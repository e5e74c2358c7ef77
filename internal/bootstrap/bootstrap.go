// Package bootstrap arma el registro de clientes sobre el backend configurado.
// Lo comparten la API, el CLI y el importador.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jhoicas/customer-registry/internal/application/registry"
	"github.com/jhoicas/customer-registry/internal/domain"
	"github.com/jhoicas/customer-registry/internal/infrastructure/kvstore"
	"github.com/jhoicas/customer-registry/pkg/config"
	"github.com/jhoicas/customer-registry/pkg/logger"
)

// OpenRegistry abre el store y carga el registro. Un snapshot corrupto se registra
// como warning y el registro arranca vacío; cualquier otro error es fatal.
// El llamador debe cerrar el store devuelto.
func OpenRegistry(ctx context.Context, cfg *config.Config, log *logger.Logger, opts ...registry.Option) (*registry.CustomerRegistry, kvstore.Store, error) {
	store, err := kvstore.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("abrir store %s: %w", cfg.Store.Driver, err)
	}

	opts = append([]registry.Option{
		registry.WithKey(cfg.Store.Key),
		registry.WithLogger(log),
	}, opts...)

	// el warning del snapshot corrupto ya lo registra el propio registro
	reg, err := registry.New(ctx, store, opts...)
	if err != nil && (!domain.IsRecoverable(err) || reg == nil) {
		_ = store.Close()
		return nil, nil, fmt.Errorf("cargar clientes: %w", err)
	}

	log.Info().
		Str("driver", cfg.Store.Driver).
		Str("key", reg.Key()).
		Int("customers", reg.Snapshot().Len()).
		Msg("registro de clientes cargado")
	return reg, store, nil
}
