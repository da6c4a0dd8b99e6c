// Package prompt loads the agent's system instructions from a YAML document.
package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_instructions.yaml
var defaultInstructions []byte

var ErrEmptyInstructions = errors.New("instruction document has no content")

// Document is the instruction source. Sections are joined in field order.
type Document struct {
	Description      string              `yaml:"description"`
	ConductRules     []string            `yaml:"conduct_rules"`
	Examples         []string            `yaml:"examples"`
	Observations     []string            `yaml:"observations"`
	SQLGuidelines    []string            `yaml:"sql_guidelines"`
	AvailableColumns map[string][]string `yaml:"available_columns"`
}

func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse instructions: %w", err)
	}
	return &doc, nil
}

// Load reads the document at path, or the built-in one when path is empty,
// and returns the assembled instruction text.
func Load(path string) (string, error) {
	data := defaultInstructions
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read instructions: %w", err)
		}
	}

	doc, err := Parse(data)
	if err != nil {
		return "", err
	}

	text := doc.Assemble()
	if text == "" {
		return "", ErrEmptyInstructions
	}
	return text, nil
}

// Assemble concatenates the non-empty sections.
func (d *Document) Assemble() string {
	var sections []string

	if s := strings.TrimSpace(d.Description); s != "" {
		sections = append(sections, s)
	}
	if len(d.ConductRules) > 0 {
		sections = append(sections, "Regras de Conduta\n"+numbered(d.ConductRules))
	}
	if len(d.Examples) > 0 {
		sections = append(sections, "Exemplos de Resposta Esperada\n"+bulleted(d.Examples))
	}
	if len(d.Observations) > 0 {
		sections = append(sections, "Observações\n"+bulleted(d.Observations))
	}
	if len(d.SQLGuidelines) > 0 {
		sections = append(sections, "Diretrizes SQL\n"+bulleted(d.SQLGuidelines))
	}
	if len(d.AvailableColumns) > 0 {
		views := make([]string, 0, len(d.AvailableColumns))
		for view := range d.AvailableColumns {
			views = append(views, view)
		}
		sort.Strings(views)

		var b strings.Builder
		b.WriteString("Colunas disponíveis")
		for _, view := range views {
			fmt.Fprintf(&b, "\n• %s: %s", view, strings.Join(d.AvailableColumns[view], ", "))
		}
		sections = append(sections, b.String())
	}

	return strings.Join(sections, "\n\n")
}

func numbered(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, strings.TrimSpace(item))
	}
	return strings.Join(lines, "\n")
}

func bulleted(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "• " + strings.TrimSpace(item)
	}
	return strings.Join(lines, "\n")
}
