package printer

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/navikt/deployment-cli/pkg/models"
)

// OutputType defines the output format
type OutputType string

const (
	// OutputTypeTable outputs in table format
	OutputTypeTable OutputType = "table"
	// OutputTypeJSON outputs in JSON format
	OutputTypeJSON OutputType = "json"
	// OutputTypeYAML outputs in YAML format
	OutputTypeYAML OutputType = "yaml"
)

// ParseOutputType validates a user supplied output format
func ParseOutputType(s string) (OutputType, error) {
	switch t := OutputType(strings.ToLower(s)); t {
	case OutputTypeTable, OutputTypeJSON, OutputTypeYAML:
		return t, nil
	default:
		return "", fmt.Errorf("unsupported output format %q, expected one of table, json, yaml", s)
	}
}

// TablePrinter handles formatted table output similar to kubectl
type TablePrinter struct {
	writer    *tabwriter.Writer
	headers   []string
	rows      [][]string
	noHeaders bool
}

// Option configures the TablePrinter
type Option func(*TablePrinter)

// WithNoHeaders disables header output
func WithNoHeaders() Option {
	return func(p *TablePrinter) {
		p.noHeaders = true
	}
}

// NewTablePrinter creates a new table printer using tabwriter for column alignment
func NewTablePrinter(out io.Writer, opts ...Option) *TablePrinter {
	if out == nil {
		out = os.Stdout
	}

	p := &TablePrinter{
		writer: tabwriter.NewWriter(out, 0, 0, 3, ' ', 0),
		rows:   make([][]string, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// SetHeaders sets the table headers
func (p *TablePrinter) SetHeaders(headers ...string) {
	p.headers = headers
}

// AddRow adds a data row to the table
func (p *TablePrinter) AddRow(values ...any) {
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = fmt.Sprintf("%v", v)
	}
	p.rows = append(p.rows, row)
}

// Render outputs the formatted table
func (p *TablePrinter) Render() error {
	if len(p.rows) == 0 && len(p.headers) == 0 {
		return nil
	}

	if !p.noHeaders && len(p.headers) > 0 {
		headerLine := strings.ToUpper(strings.Join(p.headers, "\t"))
		_, _ = fmt.Fprintln(p.writer, headerLine)
	}

	for _, row := range p.rows {
		_, _ = fmt.Fprintln(p.writer, strings.Join(row, "\t"))
	}

	return p.writer.Flush()
}

// PrintStatuses renders deployment statuses as a table, newest first as
// returned by the API.
func PrintStatuses(out io.Writer, statuses []models.DeploymentStatus, opts ...Option) error {
	t := NewTablePrinter(out, opts...)
	t.SetHeaders("ID", "State", "Target URL")
	for _, s := range statuses {
		t.AddRow(s.ID, s.State, EmptyValueOrDefault(s.TargetURL, "<none>"))
	}
	return t.Render()
}

// EmptyValueOrDefault returns the value or a default placeholder
func EmptyValueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
