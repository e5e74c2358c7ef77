// Package registry implementa el caso de uso del registro de clientes: la colección
// en memoria, el formulario transitorio (crear/editar) y la persistencia de la
// colección completa en un slot clave/valor después de cada mutación.
package registry

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jhoicas/customer-registry/internal/application/dto"
	"github.com/jhoicas/customer-registry/internal/domain"
	"github.com/jhoicas/customer-registry/internal/domain/entity"
	"github.com/jhoicas/customer-registry/internal/domain/repository"
	"github.com/jhoicas/customer-registry/pkg/logger"
)

// noEdit centinela de editID cuando no hay edición en curso.
const noEdit int64 = 0

// Operaciones reportadas al Observer.
const (
	OpLoad       = "load"
	OpAdd        = "add"
	OpDelete     = "delete"
	OpBeginEdit  = "begin_edit"
	OpSaveEdit   = "save_edit"
	OpCancelEdit = "cancel_edit"
)

// Observer recibe el resultado de cada operación (métricas).
type Observer interface {
	Observe(op string, err error)
	SetCustomers(n int)
}

type nopObserver struct{}

func (nopObserver) Observe(string, error) {}
func (nopObserver) SetCustomers(int)      {}

var validate = newValidator()

// newValidator usa los nombres del tag json en los errores ("name" en vez de "Name").
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// CustomerRegistry estado del registro: colección + formulario + modo edición.
// Las operaciones se serializan con un mutex; cada una corre hasta completarse.
type CustomerRegistry struct {
	mu sync.Mutex

	store    repository.KeyValueStore
	key      string
	now      func() time.Time
	log      *logger.Logger
	observer Observer
	session  string

	customers  entity.CustomerCollection
	form       dto.CustomerForm
	editID     int64
	editActive bool
}

// Option configura el registro.
type Option func(*CustomerRegistry)

// WithKey cambia la clave del slot (por defecto "customers").
func WithKey(key string) Option {
	return func(r *CustomerRegistry) {
		if key != "" {
			r.key = key
		}
	}
}

// WithClock inyecta el reloj usado para generar IDs.
func WithClock(now func() time.Time) Option {
	return func(r *CustomerRegistry) { r.now = now }
}

// WithLogger inyecta el logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *CustomerRegistry) { r.log = l }
}

// WithObserver inyecta el observador de operaciones.
func WithObserver(o Observer) Option {
	return func(r *CustomerRegistry) { r.observer = o }
}

// New construye el registro y carga la colección desde el slot (una sola vez).
//
// Si el valor guardado no se puede decodificar, el registro arranca vacío y se
// devuelve junto con un *domain.RecoverableError: el registro es utilizable.
// Cualquier otro error (fallo de lectura del store) devuelve registro nil.
func New(ctx context.Context, store repository.KeyValueStore, opts ...Option) (*CustomerRegistry, error) {
	r := &CustomerRegistry{
		store:     store,
		key:       DefaultKey,
		now:       time.Now,
		log:       logger.NewNop(),
		observer:  nopObserver{},
		session:   uuid.NewString(),
		customers: entity.CustomerCollection{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Child(r.log.With().Str("component", "registry").Str("session", r.session))

	err := r.load(ctx)
	r.observer.Observe(OpLoad, err)
	if err != nil && !domain.IsRecoverable(err) {
		return nil, err
	}
	r.observer.SetCustomers(r.customers.Len())
	return r, err
}

func (r *CustomerRegistry) load(ctx context.Context) error {
	raw, found, err := r.store.Get(ctx, r.key)
	if err != nil {
		return fmt.Errorf("leer slot %q: %w", r.key, err)
	}
	if !found {
		r.log.Debug().Str("key", r.key).Msg("slot vacío, colección inicial vacía")
		return nil
	}
	customers, err := DecodeCollection(raw)
	if err != nil {
		r.log.Warn().Err(err).Str("key", r.key).Int("bytes", len(raw)).
			Msg("snapshot corrupto, se inicia con colección vacía")
		return &domain.RecoverableError{
			Op:  "cargar clientes",
			Err: fmt.Errorf("%w: %v", domain.ErrCorruptSnapshot, err),
		}
	}
	r.customers = customers
	r.log.Info().Int("customers", customers.Len()).Msg("clientes cargados")
	return nil
}

// Session identificador de esta instancia (aparece en los logs).
func (r *CustomerRegistry) Session() string { return r.session }

// Key clave del slot.
func (r *CustomerRegistry) Key() string { return r.key }

// Snapshot copia de la colección actual.
func (r *CustomerRegistry) Snapshot() entity.CustomerCollection {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.customers.Clone()
}

// Form valores actuales del formulario.
func (r *CustomerRegistry) Form() dto.CustomerForm {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.form
}

// SetForm reemplaza los valores del formulario (lo que el usuario escribe).
func (r *CustomerRegistry) SetForm(f dto.CustomerForm) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.form = f
}

// EditState devuelve el ID en edición (0 = ninguno) y si el modo edición está activo.
func (r *CustomerRegistry) EditState() (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.editID, r.editActive
}

// SubmitLabel etiqueta del control de envío según el modo.
func (r *CustomerRegistry) SubmitLabel() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.submitLabel()
}

func (r *CustomerRegistry) submitLabel() string {
	if r.editActive {
		return dto.SubmitLabelSave
	}
	return dto.SubmitLabelAdd
}

// AddCustomer agrega un cliente al final de la colección y persiste.
// Con algún campo vacío devuelve domain.ErrInvalidInput sin tocar la colección.
func (r *CustomerRegistry) AddCustomer(ctx context.Context, in dto.CustomerForm) (entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.add(ctx, in)
	r.observer.Observe(OpAdd, err)
	return c, err
}

func (r *CustomerRegistry) add(ctx context.Context, in dto.CustomerForm) (entity.Customer, error) {
	if r.editActive {
		return entity.Customer{}, fmt.Errorf("%w: edición en curso del cliente %d", domain.ErrConflict, r.editID)
	}
	if err := validateForm(in); err != nil {
		return entity.Customer{}, err
	}
	customer := entity.Customer{
		ID:    r.now().UnixMilli(),
		Name:  in.Name,
		Email: in.Email,
		Phone: in.Phone,
	}
	r.customers = r.customers.Append(customer)
	r.clearForm()
	if err := r.persist(ctx); err != nil {
		return customer, err
	}
	r.log.Info().Int64("customer_id", customer.ID).Msg("cliente agregado")
	return customer, nil
}

// DeleteCustomer elimina el cliente id, limpia el formulario, sale del modo edición y persiste.
// Si id no existe devuelve domain.ErrNotFound y nada cambia.
func (r *CustomerRegistry) DeleteCustomer(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	err := r.delete(ctx, id)
	r.observer.Observe(OpDelete, err)
	return err
}

func (r *CustomerRegistry) delete(ctx context.Context, id int64) error {
	next, removed := r.customers.Without(id)
	if !removed {
		return fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
	}
	r.customers = next
	r.clearForm()
	if err := r.persist(ctx); err != nil {
		return err
	}
	r.log.Info().Int64("customer_id", id).Msg("cliente eliminado")
	return nil
}

// BeginEdit copia el cliente id al formulario y activa el modo edición.
func (r *CustomerRegistry) BeginEdit(id int64) (entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	customer, found := r.customers.Find(id)
	if !found {
		err := fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
		r.observer.Observe(OpBeginEdit, err)
		return entity.Customer{}, err
	}
	r.form = dto.CustomerForm{Name: customer.Name, Email: customer.Email, Phone: customer.Phone}
	r.editID = customer.ID
	r.editActive = true
	r.observer.Observe(OpBeginEdit, nil)
	r.log.Debug().Int64("customer_id", id).Msg("edición iniciada")
	return customer, nil
}

// SaveEdit aplica el formulario al cliente en edición, sale del modo edición y persiste.
func (r *CustomerRegistry) SaveEdit(ctx context.Context) (entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, err := r.saveEdit(ctx)
	r.observer.Observe(OpSaveEdit, err)
	return c, err
}

func (r *CustomerRegistry) saveEdit(ctx context.Context) (entity.Customer, error) {
	if !r.editActive {
		return entity.Customer{}, domain.ErrNotEditing
	}
	if err := validateForm(r.form); err != nil {
		return entity.Customer{}, err
	}
	id := r.editID
	next, replaced := r.customers.Replace(id, entity.CustomerFields{
		Name:  r.form.Name,
		Email: r.form.Email,
		Phone: r.form.Phone,
	})
	if !replaced {
		// el cliente fue eliminado mientras se editaba
		r.clearForm()
		return entity.Customer{}, fmt.Errorf("%w: id %d", domain.ErrNotFound, id)
	}
	r.customers = next
	r.clearForm()
	if err := r.persist(ctx); err != nil {
		return entity.Customer{}, err
	}
	saved, _ := next.Find(id)
	r.log.Info().Int64("customer_id", id).Msg("cliente actualizado")
	return saved, nil
}

// CancelEdit sale del modo edición y limpia el formulario sin tocar la colección.
func (r *CustomerRegistry) CancelEdit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearForm()
	r.observer.Observe(OpCancelEdit, nil)
}

// Submit es el control de envío: guarda la edición en modo edición, si no agrega
// un cliente con los valores del formulario.
func (r *CustomerRegistry) Submit(ctx context.Context) (entity.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.editActive {
		c, err := r.saveEdit(ctx)
		r.observer.Observe(OpSaveEdit, err)
		return c, err
	}
	c, err := r.add(ctx, r.form)
	r.observer.Observe(OpAdd, err)
	return c, err
}

// View arma el estado renderizable (formulario, etiqueta del envío y filas).
func (r *CustomerRegistry) View() dto.RegistryView {
	r.mu.Lock()
	defer r.mu.Unlock()
	view := dto.RegistryView{
		Form:        r.form,
		SubmitLabel: r.submitLabel(),
		EditActive:  r.editActive,
		EditID:      r.editID,
		Rows:        make([]dto.CustomerRow, 0, r.customers.Len()),
	}
	for _, c := range r.customers {
		row := dto.CustomerRow{
			ID:      c.ID,
			Name:    c.Name,
			Email:   c.Email,
			Phone:   c.Phone,
			Actions: []string{dto.ActionEdit, dto.ActionDelete},
		}
		if r.editID != noEdit && c.ID == r.editID {
			row.Name, row.Email, row.Phone = r.form.Name, r.form.Email, r.form.Phone
			row.Editing = true
			row.Actions = []string{dto.ActionConfirm, dto.ActionCancel}
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}

// clearForm limpia los campos transitorios y resetea el estado de edición.
func (r *CustomerRegistry) clearForm() {
	r.form = dto.CustomerForm{}
	r.editID = noEdit
	r.editActive = false
}

// persist escribe la colección ya confirmada en memoria; el slot nunca queda
// con un estado anterior al de la operación que acaba de terminar.
func (r *CustomerRegistry) persist(ctx context.Context) error {
	r.observer.SetCustomers(r.customers.Len())
	raw, err := EncodeCollection(r.customers)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersist, err)
	}
	if err := r.store.Set(ctx, r.key, raw); err != nil {
		r.log.Error().Err(err).Str("key", r.key).Msg("persistir clientes")
		return fmt.Errorf("%w: %w", domain.ErrPersist, err)
	}
	return nil
}

func validateForm(in dto.CustomerForm) error {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return fmt.Errorf("%w (faltan: %v)", domain.ErrInvalidInput, fields)
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
