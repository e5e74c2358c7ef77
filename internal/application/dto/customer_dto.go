package dto

// CustomerForm campos transitorios del formulario (crear y editar usan los mismos).
type CustomerForm struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

// IsZero indica si el formulario está vacío.
func (f CustomerForm) IsZero() bool {
	return f.Name == "" && f.Email == "" && f.Phone == ""
}

// CustomerResponse salida de un cliente.
type CustomerResponse struct {
	ID    int64  `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Phone string `json:"phone" yaml:"phone"`
}

// Acciones disponibles por fila de la tabla.
const (
	ActionEdit    = "edit"
	ActionDelete  = "delete"
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
)

// Etiquetas del control de envío.
const (
	SubmitLabelAdd  = "Add Customer"
	SubmitLabelSave = "Save Edit"
)

// CustomerRow una fila de la tabla. Si Editing es true, Name/Email/Phone son los
// valores del formulario (inputs editables) y las acciones son confirm/cancel.
type CustomerRow struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Phone   string   `json:"phone"`
	Editing bool     `json:"editing"`
	Actions []string `json:"actions"`
}

// RegistryView estado renderizable: formulario, control de envío y tabla.
type RegistryView struct {
	Form        CustomerForm  `json:"form"`
	SubmitLabel string        `json:"submit_label"`
	EditActive  bool          `json:"edit_active"`
	EditID      int64         `json:"edit_id"`
	Rows        []CustomerRow `json:"rows"` // vacío = la tabla no se muestra
}
