package provider

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tordrt/schemadraft/internal/schema"
)

const promptTemplate = `
Generate a comprehensive database schema for the following description:

%s

%s
Please provide:
1. Table definitions with appropriate data types (including UUID, VARCHAR, INTEGER, BOOLEAN, TIMESTAMP, TEXT, etc.)
2. Primary and foreign key relationships
3. Any constraints or validations needed

Return as JSON with the following structure:
- tables: array of table objects
- Each table should have:
  - name: string (table name)
  - columns: array of column objects
- Each column should have:
  - name: string (column name)
  - type: string (data type like 'UUID', 'VARCHAR(255)', 'INTEGER', 'BOOLEAN', 'TIMESTAMP', 'TEXT', etc.)
  - nullable: boolean (can be null)
  - defaultValue: string (optional default value)
  - isPrimaryKey: boolean (is primary key)
  - isUnique: boolean (has unique constraint)
  - foreignKey: object with table and column properties (if it's a foreign key)

Make sure to use these exact property names: isPrimaryKey (not primaryKey), isUnique, defaultValue, etc.
`

// BuildPrompt renders the model prompt for req.
func BuildPrompt(req Request) string {
	current := ""
	if req.Current != nil && req.Current.Len() > 0 {
		data, err := json.Marshal(req.Current)
		if err == nil {
			current = "\nCurrent existing schema (modify/extend this if provided):\n" + string(data) + "\n"
		}
	}
	return fmt.Sprintf(promptTemplate, req.Description, current)
}

var codeFence = regexp.MustCompile("```(?:json|JSON)?")

// ParseResponse extracts tables from model output, tolerating a surrounding
// markdown code fence.
func ParseResponse(text string) ([]*schema.Table, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil, fmt.Errorf("empty response from model")
	}
	cleaned = strings.TrimSpace(codeFence.ReplaceAllLiteralString(cleaned, ""))

	tables, err := schema.DecodeTables([]byte(cleaned))
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated schema as JSON: %w", err)
	}
	return tables, nil
}
