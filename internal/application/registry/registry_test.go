package registry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jhoicas/customer-registry/internal/application/dto"
	"github.com/jhoicas/customer-registry/internal/application/registry"
	"github.com/jhoicas/customer-registry/internal/domain"
	"github.com/jhoicas/customer-registry/internal/domain/entity"
	"github.com/jhoicas/customer-registry/internal/infrastructure/kvstore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// fakeClock avanza 1ms en cada llamada para que los IDs sean únicos y predecibles.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

func newClock() *fakeClock {
	return &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
}

// failingStore falla en Set después de permitir n escrituras.
type failingStore struct {
	*kvstore.MemoryStore
	allowed int
	getErr  error
}

func (s *failingStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	return s.MemoryStore.Get(ctx, key)
}

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	if s.allowed <= 0 {
		return errors.New("disco lleno")
	}
	s.allowed--
	return s.MemoryStore.Set(ctx, key, value)
}

func newRegistry(t *testing.T) (*registry.CustomerRegistry, *kvstore.MemoryStore) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	clock := newClock()
	r, err := registry.New(context.Background(), store, registry.WithClock(clock.Now))
	require.NoError(t, err)
	return r, store
}

func form(name, email, phone string) dto.CustomerForm {
	return dto.CustomerForm{Name: name, Email: email, Phone: phone}
}

// stored decodifica lo que hay en el slot.
func stored(t *testing.T, store *kvstore.MemoryStore) entity.CustomerCollection {
	t.Helper()
	raw, found, err := store.Get(context.Background(), registry.DefaultKey)
	require.NoError(t, err)
	require.True(t, found, "el slot debe existir tras una mutación")
	c, err := registry.DecodeCollection(raw)
	require.NoError(t, err)
	return c
}

func seed(t *testing.T, r *registry.CustomerRegistry, n int) entity.CustomerCollection {
	t.Helper()
	names := []string{"Ann", "Bob", "Cid", "Dee", "Eve"}
	for i := 0; i < n; i++ {
		_, err := r.AddCustomer(context.Background(), form(names[i], names[i]+"@x.com", "55"+string(rune('0'+i))))
		require.NoError(t, err)
	}
	return r.Snapshot()
}

// ──────────────────────────────────────────────────────────────────────────────
// Load
// ──────────────────────────────────────────────────────────────────────────────

func TestNew_SlotVacio_ColeccionVacia(t *testing.T) {
	r, store := newRegistry(t)
	assert.Equal(t, 0, r.Snapshot().Len())

	_, found, _ := store.Get(context.Background(), registry.DefaultKey)
	assert.False(t, found, "cargar no debe escribir el slot")
}

func TestNew_CargaColeccionGuardada(t *testing.T) {
	store := kvstore.NewMemoryStoreWith(map[string]string{
		"customers": `[{"id":1,"name":"Ann","email":"a@x.com","phone":"555"},{"id":2,"name":"Bob","email":"b@x.com","phone":"556"}]`,
	})
	r, err := registry.New(context.Background(), store)
	require.NoError(t, err)

	want := entity.CustomerCollection{
		{ID: 1, Name: "Ann", Email: "a@x.com", Phone: "555"},
		{ID: 2, Name: "Bob", Email: "b@x.com", Phone: "556"},
	}
	if diff := cmp.Diff(want, r.Snapshot()); diff != "" {
		t.Errorf("colección cargada (-want +got):\n%s", diff)
	}
}

func TestNew_SnapshotCorrupto_RecuperableYVacio(t *testing.T) {
	store := kvstore.NewMemoryStoreWith(map[string]string{"customers": `{no es json`})
	r, err := registry.New(context.Background(), store)

	require.Error(t, err)
	require.NotNil(t, r, "con error recuperable el registro debe ser utilizable")
	assert.True(t, domain.IsRecoverable(err))
	assert.ErrorIs(t, err, domain.ErrCorruptSnapshot)
	assert.Equal(t, 0, r.Snapshot().Len())

	// la siguiente mutación sobrescribe el valor corrupto
	_, err = r.AddCustomer(context.Background(), form("Ann", "a@x.com", "555"))
	require.NoError(t, err)
	assert.Equal(t, 1, stored(t, store).Len())
}

func TestNew_Null_ColeccionVacia(t *testing.T) {
	store := kvstore.NewMemoryStoreWith(map[string]string{"customers": `null`})
	r, err := registry.New(context.Background(), store)
	require.NoError(t, err)
	assert.NotNil(t, r.Snapshot())
	assert.Equal(t, 0, r.Snapshot().Len())
}

func TestNew_ErrorDeLectura_NoRecuperable(t *testing.T) {
	store := &failingStore{MemoryStore: kvstore.NewMemoryStore(), getErr: errors.New("conexión rechazada")}
	r, err := registry.New(context.Background(), store)
	require.Error(t, err)
	assert.Nil(t, r)
	assert.False(t, domain.IsRecoverable(err))
}

func TestNew_ClavePersonalizada(t *testing.T) {
	store := kvstore.NewMemoryStoreWith(map[string]string{
		"crm.test": `[{"id":9,"name":"Zed","email":"z@x.com","phone":"1"}]`,
	})
	r, err := registry.New(context.Background(), store, registry.WithKey("crm.test"))
	require.NoError(t, err)
	assert.Equal(t, "crm.test", r.Key())
	assert.Equal(t, 1, r.Snapshot().Len())
}

// ──────────────────────────────────────────────────────────────────────────────
// AddCustomer
// ──────────────────────────────────────────────────────────────────────────────

func TestAddCustomer_AgregaAlFinal(t *testing.T) {
	r, _ := newRegistry(t)
	before := seed(t, r, 2)

	c, err := r.AddCustomer(context.Background(), form("Cid", "c@x.com", "557"))
	require.NoError(t, err)

	after := r.Snapshot()
	require.Equal(t, before.Len()+1, after.Len())
	last := after[after.Len()-1]
	assert.Equal(t, c, last)
	assert.Equal(t, "Cid", last.Name)
	assert.Equal(t, "c@x.com", last.Email)
	assert.Equal(t, "557", last.Phone)
	assert.NotZero(t, last.ID)
	if diff := cmp.Diff(before, after[:before.Len()]); diff != "" {
		t.Errorf("los clientes previos no deben cambiar (-want +got):\n%s", diff)
	}
}

func TestAddCustomer_IDEsTimestampEnMilisegundos(t *testing.T) {
	store := kvstore.NewMemoryStore()
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	r, err := registry.New(context.Background(), store, registry.WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)

	c, err := r.AddCustomer(context.Background(), form("Ann", "a@x.com", "555"))
	require.NoError(t, err)
	assert.Equal(t, fixed.UnixMilli(), c.ID)
}

func TestAddCustomer_CampoVacio_NoCambiaNada(t *testing.T) {
	cases := []dto.CustomerForm{
		form("", "a@x.com", "555"),
		form("Ann", "", "555"),
		form("Ann", "a@x.com", ""),
		form("", "", ""),
	}
	for _, in := range cases {
		r, store := newRegistry(t)
		before := seed(t, r, 1)
		raw, _, _ := store.Get(context.Background(), registry.DefaultKey)

		_, err := r.AddCustomer(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "entrada %+v", in)
		assert.Equal(t, before, r.Snapshot())

		rawAfter, _, _ := store.Get(context.Background(), registry.DefaultKey)
		assert.Equal(t, raw, rawAfter, "no debe persistir nada")
	}
}

func TestAddCustomer_ErrorDeValidacionNombraCampos(t *testing.T) {
	r, _ := newRegistry(t)
	_, err := r.AddCustomer(context.Background(), form("Ann", "", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
	assert.Contains(t, err.Error(), "phone")
}

func TestAddCustomer_LimpiaFormulario(t *testing.T) {
	r, _ := newRegistry(t)
	r.SetForm(form("Ann", "a@x.com", "555"))

	_, err := r.Submit(context.Background())
	require.NoError(t, err)
	assert.True(t, r.Form().IsZero())
	id, active := r.EditState()
	assert.Zero(t, id)
	assert.False(t, active)
}

// El slot refleja el estado confirmado en memoria, incluido el cliente recién
// agregado (no el estado previo a la operación).
func TestAddCustomer_PersisteColeccionConfirmada(t *testing.T) {
	r, store := newRegistry(t)

	_, err := r.AddCustomer(context.Background(), form("Ann", "a@x.com", "555"))
	require.NoError(t, err)
	assert.Equal(t, r.Snapshot(), stored(t, store))

	_, err = r.AddCustomer(context.Background(), form("Bob", "b@x.com", "556"))
	require.NoError(t, err)
	assert.Equal(t, r.Snapshot(), stored(t, store))
	assert.Equal(t, 2, stored(t, store).Len())
}

func TestAddCustomer_DuranteEdicion_Conflicto(t *testing.T) {
	r, _ := newRegistry(t)
	before := seed(t, r, 1)
	_, err := r.BeginEdit(before[0].ID)
	require.NoError(t, err)

	_, err = r.AddCustomer(context.Background(), form("Bob", "b@x.com", "556"))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, before, r.Snapshot())
}

func TestAddCustomer_FalloDePersistencia(t *testing.T) {
	store := &failingStore{MemoryStore: kvstore.NewMemoryStore(), allowed: 0}
	r, err := registry.New(context.Background(), store)
	require.NoError(t, err)

	_, err = r.AddCustomer(context.Background(), form("Ann", "a@x.com", "555"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersist)
	// el estado en memoria queda confirmado aunque el slot no se haya escrito
	assert.Equal(t, 1, r.Snapshot().Len())
}

// ──────────────────────────────────────────────────────────────────────────────
// DeleteCustomer
// ──────────────────────────────────────────────────────────────────────────────

func TestDeleteCustomer_EliminaSoloUno(t *testing.T) {
	r, store := newRegistry(t)
	before := seed(t, r, 3)

	require.NoError(t, r.DeleteCustomer(context.Background(), before[1].ID))

	want := entity.CustomerCollection{before[0], before[2]}
	if diff := cmp.Diff(want, r.Snapshot()); diff != "" {
		t.Errorf("colección tras eliminar (-want +got):\n%s", diff)
	}
	assert.Equal(t, want, stored(t, store))
}

func TestDeleteCustomer_Inexistente_NoOp(t *testing.T) {
	r, store := newRegistry(t)
	before := seed(t, r, 2)
	raw, _, _ := store.Get(context.Background(), registry.DefaultKey)

	err := r.DeleteCustomer(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, before, r.Snapshot())

	rawAfter, _, _ := store.Get(context.Background(), registry.DefaultKey)
	assert.Equal(t, raw, rawAfter)
}

func TestDeleteCustomer_SaleDelModoEdicion(t *testing.T) {
	r, _ := newRegistry(t)
	before := seed(t, r, 2)
	_, err := r.BeginEdit(before[0].ID)
	require.NoError(t, err)

	require.NoError(t, r.DeleteCustomer(context.Background(), before[0].ID))
	id, active := r.EditState()
	assert.Zero(t, id)
	assert.False(t, active)
	assert.True(t, r.Form().IsZero())
	assert.Equal(t, dto.SubmitLabelAdd, r.SubmitLabel())
}

// ──────────────────────────────────────────────────────────────────────────────
// BeginEdit / SaveEdit / CancelEdit
// ──────────────────────────────────────────────────────────────────────────────

func TestBeginEdit_CopiaCamposAlFormulario(t *testing.T) {
	r, _ := newRegistry(t)
	before := seed(t, r, 2)

	c, err := r.BeginEdit(before[1].ID)
	require.NoError(t, err)
	assert.Equal(t, before[1], c)
	assert.Equal(t, form(c.Name, c.Email, c.Phone), r.Form())

	id, active := r.EditState()
	assert.Equal(t, c.ID, id)
	assert.True(t, active)
	assert.Equal(t, dto.SubmitLabelSave, r.SubmitLabel())
}

func TestBeginEdit_Inexistente(t *testing.T) {
	r, _ := newRegistry(t)
	seed(t, r, 1)

	_, err := r.BeginEdit(42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, active := r.EditState()
	assert.False(t, active)
	assert.True(t, r.Form().IsZero())
}

func TestSaveEdit_SinCambios_ContenidoIdentico(t *testing.T) {
	r, _ := newRegistry(t)
	before := seed(t, r, 3)

	_, err := r.BeginEdit(before[1].ID)
	require.NoError(t, err)
	_, err = r.SaveEdit(context.Background())
	require.NoError(t, err)

	if diff := cmp.Diff(before, r.Snapshot()); diff != "" {
		t.Errorf("editar sin cambios no debe alterar la colección (-want +got):\n%s", diff)
	}
}

func TestSaveEdit_SoloCambiaElObjetivo(t *testing.T) {
	r, store := newRegistry(t)
	before := seed(t, r, 3)

	_, err := r.BeginEdit(before[1].ID)
	require.NoError(t, err)
	r.SetForm(form("Robert", "robert@x.com", "999"))
	saved, err := r.SaveEdit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entity.Customer{ID: before[1].ID, Name: "Robert", Email: "robert@x.com", Phone: "999"}, saved)
	want := entity.CustomerCollection{before[0], saved, before[2]}
	if diff := cmp.Diff(want, r.Snapshot()); diff != "" {
		t.Errorf("colección tras editar (-want +got):\n%s", diff)
	}
	assert.Equal(t, want, stored(t, store))

	_, active := r.EditState()
	assert.False(t, active)
	assert.True(t, r.Form().IsZero())
}

func TestSaveEdit_SinEdicion(t *testing.T) {
	r, _ := newRegistry(t)
	before := seed(t, r, 1)

	_, err := r.SaveEdit(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotEditing)
	assert.Equal(t, before, r.Snapshot())
}

func TestSaveEdit_CampoVacio_MantieneEdicion(t *testing.T) {
	r, _ := newRegistry(t)
	before := seed(t, r, 1)
	_, err := r.BeginEdit(before[0].ID)
	require.NoError(t, err)

	r.SetForm(form("Ann", "", "555"))
	_, err = r.SaveEdit(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	id, active := r.EditState()
	assert.True(t, active)
	assert.Equal(t, before[0].ID, id)
	assert.Equal(t, before, r.Snapshot())
}

func TestCancelEdit_RestableceSinMutar(t *testing.T) {
	r, store := newRegistry(t)
	before := seed(t, r, 2)
	raw, _, _ := store.Get(context.Background(), registry.DefaultKey)

	_, err := r.BeginEdit(before[0].ID)
	require.NoError(t, err)
	r.SetForm(form("cambiado", "c@x.com", "0"))
	r.CancelEdit()

	id, active := r.EditState()
	assert.Zero(t, id)
	assert.False(t, active)
	assert.True(t, r.Form().IsZero())
	assert.Equal(t, before, r.Snapshot())
	rawAfter, _, _ := store.Get(context.Background(), registry.DefaultKey)
	assert.Equal(t, raw, rawAfter)
}

func TestSubmit_DespachaSegunModo(t *testing.T) {
	r, _ := newRegistry(t)

	r.SetForm(form("Ann", "a@x.com", "555"))
	added, err := r.Submit(context.Background())
	require.NoError(t, err)

	_, err = r.BeginEdit(added.ID)
	require.NoError(t, err)
	r.SetForm(form("Ann", "ann@x.com", "555"))
	saved, err := r.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, added.ID, saved.ID)
	assert.Equal(t, "ann@x.com", saved.Email)
	assert.Equal(t, 1, r.Snapshot().Len())
}

// ──────────────────────────────────────────────────────────────────────────────
// View (contrato de render)
// ──────────────────────────────────────────────────────────────────────────────

func TestView_FilaEnEdicionMuestraFormulario(t *testing.T) {
	r, _ := newRegistry(t)
	before := seed(t, r, 2)

	view := r.View()
	assert.Equal(t, dto.SubmitLabelAdd, view.SubmitLabel)
	require.Len(t, view.Rows, 2)
	for _, row := range view.Rows {
		assert.False(t, row.Editing)
		assert.Equal(t, []string{dto.ActionEdit, dto.ActionDelete}, row.Actions)
	}

	_, err := r.BeginEdit(before[1].ID)
	require.NoError(t, err)
	r.SetForm(form("Bobby", before[1].Email, before[1].Phone))

	view = r.View()
	assert.Equal(t, dto.SubmitLabelSave, view.SubmitLabel)
	assert.True(t, view.EditActive)
	assert.Equal(t, before[1].ID, view.EditID)
	assert.False(t, view.Rows[0].Editing)
	assert.True(t, view.Rows[1].Editing)
	assert.Equal(t, "Bobby", view.Rows[1].Name)
	assert.Equal(t, []string{dto.ActionConfirm, dto.ActionCancel}, view.Rows[1].Actions)
	// la colección no cambia hasta confirmar
	assert.Equal(t, before[1].Name, r.Snapshot()[1].Name)
}

func TestView_ColeccionVacia_SinFilas(t *testing.T) {
	r, _ := newRegistry(t)
	view := r.View()
	assert.Empty(t, view.Rows)
	assert.NotNil(t, view.Rows)
}

// ──────────────────────────────────────────────────────────────────────────────
// Round-trip y escenario completo
// ──────────────────────────────────────────────────────────────────────────────

func TestPersistirYRecargar_MismaColeccion(t *testing.T) {
	r, store := newRegistry(t)
	want := seed(t, r, 5)

	reloaded, err := registry.New(context.Background(), store)
	require.NoError(t, err)
	if diff := cmp.Diff(want, reloaded.Snapshot()); diff != "" {
		t.Errorf("round-trip (-want +got):\n%s", diff)
	}
}

func TestEscenario_AgregarEditarEliminar(t *testing.T) {
	ctx := context.Background()
	r, store := newRegistry(t)

	ann, err := r.AddCustomer(ctx, form("Ann", "a@x.com", "555"))
	require.NoError(t, err)
	assert.Equal(t, entity.CustomerCollection{{ID: ann.ID, Name: "Ann", Email: "a@x.com", Phone: "555"}}, r.Snapshot())

	_, err = r.BeginEdit(ann.ID)
	require.NoError(t, err)
	f := r.Form()
	f.Email = "ann@x.com"
	r.SetForm(f)
	_, err = r.SaveEdit(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.CustomerCollection{{ID: ann.ID, Name: "Ann", Email: "ann@x.com", Phone: "555"}}, r.Snapshot())

	require.NoError(t, r.DeleteCustomer(ctx, ann.ID))
	assert.Equal(t, 0, r.Snapshot().Len())
	assert.Equal(t, 0, stored(t, store).Len())
}

// recordingObserver guarda las operaciones observadas.
type recordingObserver struct {
	ops       []string
	customers int
}

func (o *recordingObserver) Observe(op string, _ error) { o.ops = append(o.ops, op) }
func (o *recordingObserver) SetCustomers(n int)         { o.customers = n }

func TestObserver_RecibeOperaciones(t *testing.T) {
	obs := &recordingObserver{}
	r, err := registry.New(context.Background(), kvstore.NewMemoryStore(), registry.WithObserver(obs))
	require.NoError(t, err)

	c, err := r.AddCustomer(context.Background(), form("Ann", "a@x.com", "555"))
	require.NoError(t, err)
	_, _ = r.BeginEdit(c.ID)
	r.CancelEdit()
	require.NoError(t, r.DeleteCustomer(context.Background(), c.ID))

	assert.Equal(t, []string{
		registry.OpLoad, registry.OpAdd, registry.OpBeginEdit, registry.OpCancelEdit, registry.OpDelete,
	}, obs.ops)
	assert.Equal(t, 0, obs.customers)
}
