package remote

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"

	"github.com/formease/formease/form"
)

// formatSchema renders the current form structure as a markdown table for
// the model prompt.
func formatSchema(schema *form.Schema) string {
	var buf strings.Builder
	buf.WriteString("# Current form state:\n")
	table := tablewriter.NewTable(&buf, tablewriter.WithRenderer(renderer.NewMarkdown()))
	table.Header("Section", "Field Key", "Label", "Required", "Type", "Options", "Value")
	for _, sec := range schema.Sections {
		for _, f := range sec.Fields {
			value := f.Value
			if strings.TrimSpace(value) == "" {
				value = "Not filled"
			}
			required := "no"
			if f.Required {
				required = "yes"
			}
			_ = table.Append(
				fmt.Sprintf("%d: %s", sec.ID, sec.Title),
				f.FieldKey, f.Label, required, f.Type,
				strings.Join(f.Options, ", "), value,
			)
		}
	}
	_ = table.Render()
	return buf.String()
}

// formatTurn renders the dialogue context section of the prompt.
func formatTurn(schema *form.Schema, turn Turn) string {
	sectionTitle := "None"
	for _, sec := range schema.Sections {
		if sec.ID == turn.CurrentSectionID {
			sectionTitle = sec.Title
			break
		}
	}
	lastQuestion := turn.LastQuestion
	if lastQuestion == "" {
		lastQuestion = "None"
	}
	currentField := turn.CurrentFieldKey
	if currentField == "" {
		currentField = "None"
	}
	sections := []string{
		"# Current context:",
		fmt.Sprintf("- Last question asked: %s", lastQuestion),
		fmt.Sprintf("- Current section: %s", sectionTitle),
		fmt.Sprintf("- Current field: %s", currentField),
	}
	return strings.Join(sections, "\n")
}
