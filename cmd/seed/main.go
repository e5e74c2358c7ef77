// seed importa clientes desde un archivo CSV o XML al slot configurado (STORE_DRIVER/STORE_KEY).
//
// Uso: go run ./cmd/seed <clientes.csv|clientes.xml> [codificación]
// La codificación aplica solo a CSV (utf-8 por defecto, también iso-8859-1 y windows-1252);
// en XML se toma de la declaración <?xml encoding="..."?>.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jhoicas/customer-registry/internal/application/importer"
	"github.com/jhoicas/customer-registry/internal/application/registry"
	"github.com/jhoicas/customer-registry/internal/bootstrap"
	"github.com/jhoicas/customer-registry/pkg/config"
	"github.com/jhoicas/customer-registry/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "uso: seed <clientes.csv|clientes.xml> [codificación]")
		os.Exit(2)
	}
	path := os.Args[1]
	charset := ""
	if len(os.Args) > 2 {
		charset = os.Args[2]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Output: os.Stderr})

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir archivo: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var records []importer.Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		records, err = importer.ReadXML(f)
	default:
		records, err = importer.ReadCSV(f, charset)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer %s: %v\n", path, err)
		os.Exit(1)
	}

	ctx := context.Background()
	reg, store, err := bootstrap.OpenRegistry(ctx, cfg, log,
		registry.WithClock(importer.MonotonicClock(time.Now)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir registro: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	rep, err := importer.Import(ctx, reg, records, log)
	fmt.Printf("Importados: %d, rechazados: %d, total en %q: %d\n",
		rep.Imported, len(rep.Rejected), reg.Key(), reg.Snapshot().Len())
	for _, r := range rep.Rejected {
		fmt.Printf("  fila %d: %v\n", r.Line, r.Err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Importación interrumpida: %v\n", err)
		store.Close()
		os.Exit(1)
	}
}
