package export

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/customer-registry/internal/domain/entity"
)

// CustomerPDFGenerator puerto para generar el listado de clientes en PDF.
type CustomerPDFGenerator interface {
	GenerateCustomerListPDF(ctx context.Context, title string, generatedAt time.Time, customers entity.CustomerCollection) ([]byte, error)
}

// CustomerSource origen de la colección a exportar (el registro).
type CustomerSource interface {
	Snapshot() entity.CustomerCollection
}

// PDFUseCase genera el listado de clientes en PDF, en el orden de la colección.
type PDFUseCase struct {
	source    CustomerSource
	generator CustomerPDFGenerator
	title     string
	now       func() time.Time
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(source CustomerSource, generator CustomerPDFGenerator, title string) *PDFUseCase {
	if title == "" {
		title = "CRM"
	}
	return &PDFUseCase{source: source, generator: generator, title: title, now: time.Now}
}

// DownloadCustomersPDF devuelve los bytes del PDF y el nombre de archivo sugerido.
func (uc *PDFUseCase) DownloadCustomersPDF(ctx context.Context) (pdfBytes []byte, filename string, err error) {
	now := uc.now()
	pdfBytes, err = uc.generator.GenerateCustomerListPDF(ctx, uc.title, now, uc.source.Snapshot())
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generar listado: %w", err)
	}
	return pdfBytes, fmt.Sprintf("clientes_%s.pdf", now.Format("20060102_150405")), nil
}
