package printer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	yaml "gopkg.in/yaml.v3"
)

// Printer writes documents in the selected output format
type Printer struct {
	out        io.Writer
	outputType OutputType
}

// New creates a new printer with the specified output type
func New(outputType OutputType) *Printer {
	if outputType == "" {
		outputType = OutputTypeJSON
	}
	return &Printer{
		out:        os.Stdout,
		outputType: outputType,
	}
}

// SetOutput sets the output writer
func (p *Printer) SetOutput(out io.Writer) {
	p.out = out
}

// Print writes data as JSON or YAML depending on the output type
func (p *Printer) Print(data any) error {
	switch p.outputType {
	case OutputTypeJSON:
		return p.PrintJSON(data)
	case OutputTypeYAML:
		return p.PrintYAML(data)
	default:
		return fmt.Errorf("unsupported output format %q", p.outputType)
	}
}

// PrintJSON prints data as compact JSON followed by a newline
func (p *Printer) PrintJSON(data any) error {
	return json.NewEncoder(p.out).Encode(data)
}

// PrintYAML prints data as YAML. The value goes through its JSON encoding
// first so json tags and numbers are kept as they are sent to the API.
func (p *Printer) PrintYAML(data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(b, &node); err != nil {
		return err
	}
	clearStyle(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err = p.out.Write(buf.Bytes())
	return err
}

// clearStyle turns JSON flow style into block style
func clearStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		clearStyle(child)
	}
}

// PrintSuccess prints a success message with kubectl-style formatting
func PrintSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "✓ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s\n", message)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "Warning: %s\n", message)
}

// PrintError prints an error message
func PrintError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "Error: %s\n", message)
}
