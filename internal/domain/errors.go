package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("cliente no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida: name, email y phone son requeridos")
	ErrConflict        = errors.New("conflicto con el estado actual")
	ErrNotEditing      = errors.New("no hay una edición en curso")
	ErrPersist         = errors.New("no se pudo persistir la colección")
	ErrCorruptSnapshot = errors.New("snapshot de clientes corrupto")
)

// RecoverableError indica un fallo del que la aplicación puede continuar
// (ej: snapshot ilegible en el almacenamiento; se arranca con colección vacía).
type RecoverableError struct {
	Op  string
	Err error
}

func (e *RecoverableError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RecoverableError) Unwrap() error { return e.Err }

// IsRecoverable indica si err (o alguno de sus wrappers) es un RecoverableError.
func IsRecoverable(err error) bool {
	var re *RecoverableError
	return errors.As(err, &re)
}
