// Package importer carga clientes desde archivos CSV o XML y los agrega al registro
// uno por uno, de modo que la validación y la persistencia son las de AddCustomer.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/customer-registry/internal/application/dto"
	"github.com/jhoicas/customer-registry/internal/domain"
	"github.com/jhoicas/customer-registry/internal/domain/entity"
	"github.com/jhoicas/customer-registry/pkg/logger"
)

// Record fila leída del archivo. Line es la línea CSV o la posición del elemento XML (base 1).
type Record struct {
	Line int
	Form dto.CustomerForm
}

// RowError fila rechazada por validación.
type RowError struct {
	Line int
	Err  error
}

// Report resultado de una importación.
type Report struct {
	Imported int
	Rejected []RowError
}

// Adder es la parte del registro que usa el importador.
type Adder interface {
	AddCustomer(ctx context.Context, in dto.CustomerForm) (entity.Customer, error)
}

// decodeCharset envuelve r según la codificación declarada (UTF-8 por defecto).
func decodeCharset(charset string, r io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	default:
		return nil, fmt.Errorf("importer: codificación no soportada %q", charset)
	}
}

// ReadCSV lee filas name,email,phone. Si la primera fila es un encabezado con esos
// nombres (en cualquier orden) se usa para ubicar las columnas. Un encabezado que
// nombra solo algunas columnas es un error.
func ReadCSV(r io.Reader, charset string) ([]Record, error) {
	in, err := decodeCharset(charset, r)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("importer: leer CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	cols := map[string]int{"name": 0, "email": 1, "phone": 2}
	start := 0
	header, ok, err := parseHeader(rows[0])
	if err != nil {
		return nil, err
	}
	if ok {
		cols = header
		start = 1
	}

	out := make([]Record, 0, len(rows)-start)
	for i := start; i < len(rows); i++ {
		row := rows[i]
		out = append(out, Record{
			Line: i + 1,
			Form: dto.CustomerForm{
				Name:  cell(row, cols["name"]),
				Email: cell(row, cols["email"]),
				Phone: cell(row, cols["phone"]),
			},
		})
	}
	return out, nil
}

// parseHeader trata la fila como encabezado si nombra al menos una columna conocida.
func parseHeader(row []string) (map[string]int, bool, error) {
	cols := make(map[string]int, 3)
	for i, h := range row {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		switch h {
		case "name", "email", "phone":
			cols[h] = i
		}
	}
	if len(cols) == 0 {
		return nil, false, nil
	}
	var missing []string
	for _, k := range []string{"name", "email", "phone"} {
		if _, ok := cols[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, false, fmt.Errorf("importer: encabezado incompleto, faltan: %v", missing)
	}
	return cols, true, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadXML lee <customers><customer .../></customers>. Cada campo puede venir como
// atributo (name="...") o como elemento hijo (<name>...</name>).
func ReadXML(r io.Reader) ([]Record, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = decodeCharset
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("importer: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("importer: documento sin raíz")
	}
	if root.Tag != "customers" {
		return nil, fmt.Errorf("importer: raíz <%s>, se esperaba <customers>", root.Tag)
	}

	var out []Record
	for i, el := range root.SelectElements("customer") {
		out = append(out, Record{
			Line: i + 1,
			Form: dto.CustomerForm{
				Name:  field(el, "name"),
				Email: field(el, "email"),
				Phone: field(el, "phone"),
			},
		})
	}
	return out, nil
}

func field(el *etree.Element, name string) string {
	if v := el.SelectAttrValue(name, ""); v != "" {
		return strings.TrimSpace(v)
	}
	if child := el.SelectElement(name); child != nil {
		return strings.TrimSpace(child.Text())
	}
	return ""
}

// Import agrega los registros en orden. Las filas inválidas se reportan y se saltan;
// cualquier otro error (persistencia, edición en curso) detiene la importación.
func Import(ctx context.Context, adder Adder, records []Record, log *logger.Logger) (Report, error) {
	if log == nil {
		log = logger.NewNop()
	}
	var rep Report
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		c, err := adder.AddCustomer(ctx, rec.Form)
		switch {
		case err == nil:
			rep.Imported++
			log.Debug().Int("line", rec.Line).Int64("customer_id", c.ID).Msg("cliente importado")
		case errors.Is(err, domain.ErrInvalidInput):
			rep.Rejected = append(rep.Rejected, RowError{Line: rec.Line, Err: err})
			log.Warn().Int("line", rec.Line).Err(err).Msg("fila rechazada")
		default:
			return rep, fmt.Errorf("importer: línea %d: %w", rec.Line, err)
		}
	}
	return rep, nil
}

// MonotonicClock garantiza milisegundos estrictamente crecientes, para que una
// importación en lote no repita IDs.
func MonotonicClock(now func() time.Time) func() time.Time {
	var (
		mu   sync.Mutex
		last time.Time
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := now().Truncate(time.Millisecond)
		if !t.After(last) {
			t = last.Add(time.Millisecond)
		}
		last = t
		return t
	}
}
