package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jhoicas/customer-registry/internal/application/registry"
	"github.com/jhoicas/customer-registry/internal/domain"
)

var _ registry.Observer = (*RegistryMetrics)(nil)

// RegistryMetrics métricas Prometheus del registro de clientes.
type RegistryMetrics struct {
	operations *prometheus.CounterVec
	customers  prometheus.Gauge
}

// NewRegistryMetrics crea y registra las métricas en reg.
func NewRegistryMetrics(reg prometheus.Registerer) *RegistryMetrics {
	m := &RegistryMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "customer_registry_operations_total",
			Help: "Operaciones del registro por resultado.",
		}, []string{"operation", "result"}),
		customers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "customer_registry_customers",
			Help: "Clientes en la colección en memoria.",
		}),
	}
	reg.MustRegister(m.operations, m.customers)
	return m
}

// Observe cuenta una operación clasificando el error.
func (m *RegistryMetrics) Observe(op string, err error) {
	m.operations.WithLabelValues(op, Result(err)).Inc()
}

// SetCustomers actualiza el tamaño de la colección.
func (m *RegistryMetrics) SetCustomers(n int) {
	m.customers.Set(float64(n))
}

// Result etiqueta de resultado para err.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrNotEditing):
		return "conflict"
	case domain.IsRecoverable(err):
		return "recovered"
	default:
		return "error"
	}
}
