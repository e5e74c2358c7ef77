package entity

// Customer representa un cliente del registro (lo que se persiste en el slot "customers").
type Customer struct {
	ID    int64  `json:"id"` // milisegundos desde epoch al momento de creación
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CustomerFields datos editables de un cliente (todo menos el ID).
type CustomerFields struct {
	Name  string
	Email string
	Phone string
}

// Fields devuelve los campos editables del cliente.
func (c Customer) Fields() CustomerFields {
	return CustomerFields{Name: c.Name, Email: c.Email, Phone: c.Phone}
}

// CustomerCollection secuencia ordenada de clientes; conserva el orden de inserción.
// Las operaciones no mutan el receptor: devuelven una colección nueva.
type CustomerCollection []Customer

// Len número de clientes.
func (c CustomerCollection) Len() int { return len(c) }

// Find busca un cliente por ID. El bool es false si no existe.
func (c CustomerCollection) Find(id int64) (Customer, bool) {
	for _, item := range c {
		if item.ID == id {
			return item, true
		}
	}
	return Customer{}, false
}

// Append devuelve una colección nueva con customer al final.
func (c CustomerCollection) Append(customer Customer) CustomerCollection {
	out := make(CustomerCollection, 0, len(c)+1)
	out = append(out, c...)
	return append(out, customer)
}

// Without devuelve una colección sin el cliente id. El bool es false si no existía.
func (c CustomerCollection) Without(id int64) (CustomerCollection, bool) {
	out := make(CustomerCollection, 0, len(c))
	removed := false
	for _, item := range c {
		if item.ID == id {
			removed = true
			continue
		}
		out = append(out, item)
	}
	return out, removed
}

// Replace devuelve una colección donde el cliente id tiene los campos f; el resto queda igual.
func (c CustomerCollection) Replace(id int64, f CustomerFields) (CustomerCollection, bool) {
	out := make(CustomerCollection, len(c))
	replaced := false
	for i, item := range c {
		if item.ID == id {
			item.Name, item.Email, item.Phone = f.Name, f.Email, f.Phone
			replaced = true
		}
		out[i] = item
	}
	return out, replaced
}

// Clone copia la colección (nunca nil).
func (c CustomerCollection) Clone() CustomerCollection {
	out := make(CustomerCollection, len(c))
	copy(out, c)
	return out
}
