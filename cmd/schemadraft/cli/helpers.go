package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tordrt/schemadraft/internal/codegen"
	"github.com/tordrt/schemadraft/internal/config"
	"github.com/tordrt/schemadraft/internal/formatter"
	"github.com/tordrt/schemadraft/internal/provider"
	"github.com/tordrt/schemadraft/internal/schema"
)

// parseTableList splits a comma-separated flag value, dropping blanks.
func parseTableList(list string) []string {
	if list == "" {
		return nil
	}
	var out []string
	for _, t := range strings.Split(list, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// readSchema loads a schema file, or stdin when path is "-".
func readSchema(in io.Reader, path string) (*schema.Schema, error) {
	if path != "-" {
		return schema.ReadFile(path)
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	tables, err := schema.DecodeTables(data)
	if err != nil {
		return nil, err
	}
	return schema.New(tables...), nil
}

// openOutput returns stdout, or a created file when path is set. The
// returned close function reports the file's close error.
func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// writeSchema renders s as json, yaml, text, markdown or any codegen format.
func writeSchema(w io.Writer, format string, s *schema.Schema) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(s.Tables()); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "text":
		return formatter.NewTextFormatter(w).Format(s)
	case "markdown", "md":
		return formatter.NewMarkdownFormatter(w).Format(s)
	}

	f, err := codegen.ParseFormat(format)
	if err != nil {
		return fmt.Errorf("invalid format: %s (must be json, yaml, text, markdown, sql, prisma or drizzle)", format)
	}
	if err := codegen.Write(w, f, s); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

// writeOutput renders s to path, or stdout when path is empty.
func writeOutput(stdout io.Writer, path, format string, s *schema.Schema) (err error) {
	w, closeFn, err := openOutput(stdout, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeFn(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()
	return writeSchema(w, format, s)
}

// openProvider builds the configured model client. It returns nil when no
// provider is configured.
func openProvider(ctx context.Context, cfg config.Config, logger *slog.Logger) (*provider.Provider, error) {
	if cfg.Provider.Kind == "" || cfg.Provider.Kind == provider.KindNone {
		return nil, nil
	}
	client, err := provider.Open(ctx, cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("init provider: %w", err)
	}
	return provider.New(client, logger, cfg.Provider.Timeout), nil
}
