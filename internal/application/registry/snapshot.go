package registry

import (
	"encoding/json"
	"fmt"

	"github.com/jhoicas/customer-registry/internal/domain/entity"
)

// DefaultKey clave fija del slot donde vive la colección.
const DefaultKey = "customers"

// EncodeCollection serializa la colección como arreglo JSON ("[]" si está vacía).
func EncodeCollection(c entity.CustomerCollection) (string, error) {
	if c == nil {
		c = entity.CustomerCollection{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("codificar clientes: %w", err)
	}
	return string(b), nil
}

// DecodeCollection interpreta el valor del slot. "null" equivale a colección vacía.
func DecodeCollection(raw string) (entity.CustomerCollection, error) {
	var c entity.CustomerCollection
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decodificar clientes: %w", err)
	}
	if c == nil {
		c = entity.CustomerCollection{}
	}
	return c, nil
}
