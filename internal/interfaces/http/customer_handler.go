package http

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/customer-registry/internal/application/dto"
	"github.com/jhoicas/customer-registry/internal/application/export"
	"github.com/jhoicas/customer-registry/internal/application/registry"
	"github.com/jhoicas/customer-registry/internal/domain"
	"github.com/jhoicas/customer-registry/internal/domain/entity"
)

// CustomerHandler maneja las peticiones HTTP del registro de clientes (formulario + tabla).
type CustomerHandler struct {
	reg *registry.CustomerRegistry
	pdf *export.PDFUseCase
}

// NewCustomerHandler construye el handler. pdf puede ser nil (export deshabilitado).
func NewCustomerHandler(reg *registry.CustomerRegistry, pdf *export.PDFUseCase) *CustomerHandler {
	return &CustomerHandler{reg: reg, pdf: pdf}
}

// View godoc
// @Summary      Estado de la vista (formulario, etiqueta del envío y filas)
// @Tags         customers
// @Produce      json
// @Success      200  {object}  dto.RegistryView
// @Router       /api/view [get]
func (h *CustomerHandler) View(c *fiber.Ctx) error {
	return c.JSON(h.reg.View())
}

// List godoc
// @Summary      Listar clientes en orden de inserción
// @Tags         customers
// @Produce      json
// @Success      200  {array}  dto.CustomerResponse
// @Router       /api/customers [get]
func (h *CustomerHandler) List(c *fiber.Ctx) error {
	snapshot := h.reg.Snapshot()
	out := make([]dto.CustomerResponse, 0, snapshot.Len())
	for _, item := range snapshot {
		out = append(out, toResponse(item))
	}
	return c.JSON(out)
}

// Create godoc
// @Summary      Agregar cliente
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CustomerForm  true  "Datos del cliente"
// @Success      201   {object}  dto.CustomerResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/customers [post]
func (h *CustomerHandler) Create(c *fiber.Ctx) error {
	var in dto.CustomerForm
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	customer, err := h.reg.AddCustomer(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toResponse(customer))
}

// Delete godoc
// @Summary      Eliminar cliente
// @Tags         customers
// @Param        id   path  int  true  "ID del cliente"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/customers/{id} [delete]
func (h *CustomerHandler) Delete(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id debe ser numérico"})
	}
	if err := h.reg.DeleteCustomer(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// BeginEdit godoc
// @Summary      Iniciar edición de un cliente (copia sus datos al formulario)
// @Tags         edit
// @Produce      json
// @Param        id   path  int  true  "ID del cliente"
// @Success      200  {object}  dto.RegistryView
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/customers/{id}/edit [post]
func (h *CustomerHandler) BeginEdit(c *fiber.Ctx) error {
	id, ok := parseID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_ID", Message: "id debe ser numérico"})
	}
	if _, err := h.reg.BeginEdit(id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(h.reg.View())
}

// SetForm godoc
// @Summary      Actualizar los campos del formulario
// @Tags         edit
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CustomerForm  true  "Campos del formulario"
// @Success      200   {object}  dto.RegistryView
// @Router       /api/form [put]
func (h *CustomerHandler) SetForm(c *fiber.Ctx) error {
	var in dto.CustomerForm
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	h.reg.SetForm(in)
	return c.JSON(h.reg.View())
}

// SaveEdit godoc
// @Summary      Guardar la edición en curso
// @Tags         edit
// @Produce      json
// @Success      200  {object}  dto.CustomerResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/edit/save [post]
func (h *CustomerHandler) SaveEdit(c *fiber.Ctx) error {
	customer, err := h.reg.SaveEdit(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toResponse(customer))
}

// CancelEdit godoc
// @Summary      Cancelar la edición en curso
// @Tags         edit
// @Produce      json
// @Success      200  {object}  dto.RegistryView
// @Router       /api/edit/cancel [post]
func (h *CustomerHandler) CancelEdit(c *fiber.Ctx) error {
	h.reg.CancelEdit()
	return c.JSON(h.reg.View())
}

// Submit godoc
// @Summary      Control de envío ("Add Customer" / "Save Edit" según el modo)
// @Tags         edit
// @Produce      json
// @Success      200  {object}  dto.CustomerResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/submit [post]
func (h *CustomerHandler) Submit(c *fiber.Ctx) error {
	customer, err := h.reg.Submit(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toResponse(customer))
}

// ExportPDF godoc
// @Summary      Descargar listado de clientes en PDF
// @Tags         customers
// @Produce      application/pdf
// @Success      200  {file}  binary
// @Router       /api/customers/export.pdf [get]
func (h *CustomerHandler) ExportPDF(c *fiber.Ctx) error {
	if h.pdf == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_IMPLEMENTED", Message: "export PDF no configurado"})
	}
	b, filename, err := h.pdf.DownloadCustomersPDF(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(b)
}

// writeError traduce errores de dominio a respuestas HTTP.
func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrNotEditing):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOT_EDITING", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func toResponse(c entity.Customer) dto.CustomerResponse {
	return dto.CustomerResponse{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone}
}
