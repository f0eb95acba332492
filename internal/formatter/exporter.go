package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tordrt/schemadraft/internal/codegen"
	"github.com/tordrt/schemadraft/internal/schema"
)

// OverviewFile is written next to the generated code.
const OverviewFile = "_overview.md"

// Exporter writes every generated code format, plus a markdown overview,
// into a directory.
type Exporter struct {
	OutputDir string
	Formats   []codegen.Format // all formats when empty
}

// NewExporter creates an exporter for outputDir
func NewExporter(outputDir string, formats ...codegen.Format) *Exporter {
	return &Exporter{OutputDir: outputDir, Formats: formats}
}

// Export writes the files and returns their paths in write order.
func (e *Exporter) Export(s *schema.Schema) ([]string, error) {
	schema.MustNotBeNil(s)

	if err := os.MkdirAll(e.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	formats := e.Formats
	if len(formats) == 0 {
		formats = codegen.Formats()
	}

	var written []string
	for _, f := range formats {
		out, err := codegen.Generate(f, s)
		if err != nil {
			return written, err
		}
		path := filepath.Join(e.OutputDir, codegen.FileName(f))
		if err := os.WriteFile(path, []byte(out+"\n"), 0o644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}

	path := filepath.Join(e.OutputDir, OverviewFile)
	if err := e.writeOverview(path, s, formats); err != nil {
		return written, fmt.Errorf("failed to write overview: %w", err)
	}
	return append(written, path), nil
}

func (e *Exporter) writeOverview(path string, s *schema.Schema, formats []codegen.Format) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintf(file, "# Schema Overview\n\n")
	_, _ = fmt.Fprintf(file, "Generated files:\n\n")
	for _, f := range formats {
		_, _ = fmt.Fprintf(file, "- `%s` (%s)\n", codegen.FileName(f), f)
	}
	_, _ = fmt.Fprintf(file, "\n## Tables\n\n")

	sorted := s.Tables()
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})

	for _, table := range sorted {
		_, _ = fmt.Fprintf(file, "- **%s**", table.Name)
		if refs := references(table); len(refs) > 0 {
			targets := make([]string, 0, len(refs))
			for _, c := range refs {
				targets = append(targets, c.ForeignKey.Table)
			}
			_, _ = fmt.Fprintf(file, " (references: %s)", strings.Join(targets, ", "))
		}
		_, _ = fmt.Fprintf(file, "\n")
	}
	_, _ = fmt.Fprintln(file)

	md := NewMarkdownFormatter(file)
	for _, table := range s.Tables() {
		md.FormatTable(s, table)
	}
	return nil
}
