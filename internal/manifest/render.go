package manifest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"
)

// bareVariable matches {{ name }} placeholders written without the leading dot
var bareVariable = regexp.MustCompile(`\{\{(-?\s*)([a-zA-Z_][a-zA-Z0-9_]*)(\s*-?)\}\}`)

var templateKeywords = map[string]bool{
	"end": true, "else": true, "break": true, "continue": true,
	"nil": true, "true": true, "false": true,
}

// Renderer renders resource templates into Kubernetes resources
type Renderer struct {
	funcs template.FuncMap
}

// NewRenderer creates a Renderer with the sprig function library
func NewRenderer() *Renderer {
	return &Renderer{funcs: sprig.TxtFuncMap()}
}

// Render templates each file with vars and parses the result. The resources
// are returned in file order; a file holding several documents, or a YAML
// list, contributes each of them in turn.
func (r *Renderer) Render(files []string, vars map[string]any) ([]any, error) {
	resources := []any{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("unable to open resource file %s: %w", file, err)
		}

		rendered, err := r.RenderTemplate(file, string(data), vars)
		if err != nil {
			return nil, fmt.Errorf("failed to render template for file %s: %w", file, err)
		}

		docs, err := ParseDocuments(rendered)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		resources = append(resources, docs...)
	}
	return resources, nil
}

// LoadRaw parses files without templating them
func (r *Renderer) LoadRaw(files []string) ([]any, error) {
	resources := []any{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("unable to open raw resource file %s: %w", file, err)
		}
		docs, err := ParseDocuments(string(data))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		resources = append(resources, docs...)
	}
	return resources, nil
}

// RenderTemplate executes text as a Go template. Placeholders without a
// leading dot, such as {{ team }}, are treated as variable lookups.
func (r *Renderer) RenderTemplate(name, text string, vars map[string]any) (string, error) {
	text = bareVariable.ReplaceAllStringFunc(text, func(m string) string {
		parts := bareVariable.FindStringSubmatch(m)
		ident := parts[2]
		if templateKeywords[ident] {
			return m
		}
		if _, isFunc := r.funcs[ident]; isFunc {
			return m
		}
		return "{{" + parts[1] + "." + ident + parts[3] + "}}"
	})

	tmpl, err := template.New(name).Funcs(r.funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ParseDocuments parses YAML or JSON text into JSON compatible values. Empty
// documents are skipped and top-level lists are flattened.
func ParseDocuments(text string) ([]any, error) {
	reader := utilyaml.NewYAMLReader(bufio.NewReader(strings.NewReader(text)))
	var result []any
	for {
		doc, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(bytes.TrimSpace(doc)) == 0 {
			continue
		}

		jsonDoc, err := yaml.YAMLToJSON(doc)
		if err != nil {
			return nil, err
		}
		dec := json.NewDecoder(bytes.NewReader(jsonDoc))
		dec.UseNumber()
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}

		switch v := value.(type) {
		case nil:
		case []any:
			result = append(result, v...)
		default:
			result = append(result, v)
		}
	}
	return result, nil
}
