package repository

import "context"

// KeyValueStore puerto del slot de persistencia clave/valor (equivalente a un localStorage).
// Get devuelve found=false si la clave no existe; Set sobrescribe el valor completo.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}
