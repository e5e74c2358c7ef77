package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/customer-registry/internal/application/dto"
	"github.com/jhoicas/customer-registry/internal/application/export"
	"github.com/jhoicas/customer-registry/internal/domain/entity"
	infrapdf "github.com/jhoicas/customer-registry/internal/infrastructure/pdf"
	"github.com/jhoicas/customer-registry/internal/interfaces/tui"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6B88FE")).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newListCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Listar clientes en orden de inserción",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeCustomers(cmd.OutOrStdout(), output, a.reg.Snapshot())
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "table", "formato: table, json o yaml")
	return cmd
}

func newAddCmd(a *app) *cobra.Command {
	var in dto.CustomerForm
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Agregar un cliente",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.reg.AddCustomer(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cliente %d agregado\n", c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "nombre")
	cmd.Flags().StringVar(&in.Email, "email", "", "email")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "teléfono")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var name, email, phone string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Editar un cliente; solo cambian los campos indicados",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.reg.BeginEdit(id); err != nil {
				return err
			}
			form := a.reg.Form()
			if cmd.Flags().Changed("name") {
				form.Name = name
			}
			if cmd.Flags().Changed("email") {
				form.Email = email
			}
			if cmd.Flags().Changed("phone") {
				form.Phone = phone
			}
			a.reg.SetForm(form)
			c, err := a.reg.SaveEdit(cmd.Context())
			if err != nil {
				a.reg.CancelEdit()
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cliente %d actualizado\n", c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "nuevo nombre")
	cmd.Flags().StringVar(&email, "email", "", "nuevo email")
	cmd.Flags().StringVar(&phone, "phone", "", "nuevo teléfono")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Eliminar un cliente",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.reg.DeleteCustomer(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cliente %d eliminado\n", id)
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Exportar el listado de clientes a PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := export.NewPDFUseCase(a.reg, infrapdf.NewMarotoPDFGenerator(), a.cfg.App.Name)
			b, filename, err := uc.DownloadCustomersPDF(cmd.Context())
			if err != nil {
				return err
			}
			if out == "" {
				out = filename
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return fmt.Errorf("escribir %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "PDF escrito en %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "archivo destino (por defecto clientes_<fecha>.pdf)")
	return cmd
}

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Abrir el formulario y la tabla en la terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), a.reg)
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id inválido %q", s)
	}
	return id, nil
}

func writeCustomers(w io.Writer, format string, customers entity.CustomerCollection) error {
	rows := make([]dto.CustomerResponse, 0, customers.Len())
	for _, c := range customers {
		rows = append(rows, dto.CustomerResponse{ID: c.ID, Name: c.Name, Email: c.Email, Phone: c.Phone})
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		if len(rows) == 0 {
			_, err := fmt.Fprintln(w, "Sin clientes")
			return err
		}
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("ID", "NAME", "EMAIL", "PHONE").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return cellStyle
			})
		for _, r := range rows {
			t.Row(strconv.FormatInt(r.ID, 10), r.Name, r.Email, r.Phone)
		}
		_, err := fmt.Fprintln(w, t.Render())
		return err
	default:
		return fmt.Errorf("formato desconocido %q (table, json, yaml)", format)
	}
}
