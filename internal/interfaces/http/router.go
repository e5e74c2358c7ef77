package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/customer-registry/internal/application/export"
	"github.com/jhoicas/customer-registry/internal/application/registry"
	"github.com/jhoicas/customer-registry/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Registry    *registry.CustomerRegistry
	CustomerPDF *export.PDFUseCase  // opcional
	Gatherer    prometheus.Gatherer // opcional: expone /metrics
	Logger      *logger.Logger      // opcional: log por petición
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	if deps.Logger != nil {
		app.Use(RequestLogger(deps.Logger))
	}
	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")
	customerHandler := NewCustomerHandler(deps.Registry, deps.CustomerPDF)

	// Vista completa (formulario + tabla)
	api.Get("/view", customerHandler.View)

	// Customers
	customers := api.Group("/customers")
	customers.Get("/", customerHandler.List)
	customers.Post("/", customerHandler.Create)
	customers.Get("/export.pdf", customerHandler.ExportPDF)
	customers.Delete("/:id", customerHandler.Delete)
	customers.Post("/:id/edit", customerHandler.BeginEdit)

	// Formulario y edición
	api.Put("/form", customerHandler.SetForm)
	api.Post("/submit", customerHandler.Submit)
	edit := api.Group("/edit")
	edit.Post("/save", customerHandler.SaveEdit)
	edit.Post("/cancel", customerHandler.CancelEdit)
}
