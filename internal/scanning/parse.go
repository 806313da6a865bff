package scanning

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// InvoiceFields is the ordered list of fields the model is asked to extract
var InvoiceFields = []string{
	"invoice_number",
	"invoiced_date_time",
	"invoiced_amount",
	"total_amount",
	"total_amount_in_words",
	"gst",
	"subtotal",
	"invoiced_from",
	"invoiced_to",
	"item_description",
	"item_quantity",
	"item_hsncode",
	"item_price",
	"item_total",
	"item_2_description",
	"item_2_quantity",
	"item_2_hsncode",
	"item_2_price",
	"item_2_total",
}

// extractionInstruction is sent with every document, unchanged
var extractionInstruction = "Extract the following information from the document: " + strings.Join(InvoiceFields, ", ")

// ResponseParser pairs the instruction sent to the model with the grammar
// used to read its answer back into fields
type ResponseParser interface {
	// Instruction returns the text sent alongside the image
	Instruction() string
	// Parse extracts fields from the answer text. It never fails; text it
	// cannot read yields an empty map.
	Parse(text string) map[string]string
}

// NewResponseParser returns the parser for a response format: "markdown" or "json"
func NewResponseParser(format string) (ResponseParser, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "markdown":
		return MarkdownParser{}, nil
	case "json":
		return JSONParser{}, nil
	default:
		return nil, fmt.Errorf("unknown response format %q", format)
	}
}

// fieldLine matches "**field_name:** value" up to the end of the line
var fieldLine = regexp.MustCompile(`\*\*([\w_]+):\*\*\s+(.*)`)

// MarkdownParser reads "**key:** value" lines from a free-text answer.
// Lines in any other shape are dropped, and a later duplicate key replaces an earlier one.
type MarkdownParser struct{}

// Instruction returns the field extraction instruction
func (MarkdownParser) Instruction() string {
	return extractionInstruction
}

// Parse extracts the bold-key lines of text
func (MarkdownParser) Parse(text string) map[string]string {
	fields := make(map[string]string)
	for _, m := range fieldLine.FindAllStringSubmatch(text, -1) {
		key := strings.ToLower(strings.TrimSpace(m[1]))
		fields[key] = strings.TrimSpace(m[2])
	}
	return fields
}

// JSONParser asks the model for a flat JSON object and reads it back
type JSONParser struct{}

// Instruction returns the field extraction instruction with a JSON output contract
func (JSONParser) Instruction() string {
	return extractionInstruction + `

Return ONLY a flat JSON object whose keys are the field names above.
- Use null for a field you cannot find
- Do not include any text before or after the JSON
- Do not use markdown code blocks`
}

// Parse reads the outermost JSON object of text. Null values are dropped and
// scalars are kept in their literal text form.
func (JSONParser) Parse(text string) map[string]string {
	fields := make(map[string]string)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	endIdx := strings.LastIndex(text, "}")
	if startIdx == -1 || endIdx < startIdx {
		return fields
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text[startIdx:endIdx+1]), &raw); err != nil {
		return fields
	}

	for key, value := range raw {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		if v, ok := jsonScalar(value); ok {
			fields[key] = v
		}
	}
	return fields
}

// jsonScalar renders a JSON value as field text
func jsonScalar(value json.RawMessage) (string, bool) {
	literal := strings.TrimSpace(string(value))
	switch {
	case literal == "null" || literal == "":
		return "", false
	case strings.HasPrefix(literal, `"`):
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	default:
		// numbers, booleans, and nested values keep their JSON text
		return literal, true
	}
}
