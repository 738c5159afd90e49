package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blocktrail/blocktrail-go/internal/output"
)

const defaultOutputFormat = output.FormatTable

type outputSink struct {
	writer io.Writer
	close  func() error
	path   string
}

func outputExtension(format output.Format) string {
	switch format {
	case output.FormatJSON:
		return "json"
	case output.FormatYAML:
		return "yaml"
	case output.FormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

var nonFilename = regexp.MustCompile(`[^a-z0-9._-]+`)

func sanitizeFilename(value string) string {
	clean := strings.ToLower(strings.TrimSpace(value))
	clean = nonFilename.ReplaceAllString(clean, "-")
	clean = strings.Trim(clean, "-.")
	if clean == "" {
		return "output"
	}
	return clean
}

func resolveOutputFormat(cmd *cobra.Command) (output.Format, error) {
	value, err := cmd.Flags().GetString("output-format")
	if err != nil {
		return "", err
	}
	return output.ParseFormat(value)
}

// resolveOutputPath returns --out, or a file named after name inside --out-dir
// when the command has one.
func resolveOutputPath(cmd *cobra.Command, name string, format output.Format) (string, error) {
	outPath, err := cmd.Flags().GetString("out")
	if err != nil {
		return "", err
	}
	outPath = strings.TrimSpace(outPath)

	if cmd.Flags().Lookup("out-dir") == nil {
		return outPath, nil
	}
	outDir, err := cmd.Flags().GetString("out-dir")
	if err != nil {
		return "", err
	}
	outDir = strings.TrimSpace(outDir)
	if outDir == "" {
		return outPath, nil
	}
	if outPath != "" {
		return "", fmt.Errorf("--out and --out-dir are mutually exclusive")
	}

	dir, err := ensureOutDir(outDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("%s.%s", sanitizeFilename(name), outputExtension(format))), nil
}

// openSink opens path for writing. An empty path or "-" writes to stdout.
func openSink(path string, stdout io.Writer) (*outputSink, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "-" {
		if stdout == nil {
			stdout = os.Stdout
		}
		return &outputSink{writer: stdout, close: func() error { return nil }, path: "-"}, nil
	}

	if err := os.MkdirAll(filepath.Dir(trimmed), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(trimmed)
	if err != nil {
		return nil, err
	}
	return &outputSink{writer: file, close: file.Close, path: trimmed}, nil
}

func ensureOutDir(dir string) (string, error) {
	clean := strings.TrimSpace(dir)
	if clean == "" {
		return "", nil
	}
	if err := os.MkdirAll(clean, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	abs, err := filepath.Abs(clean)
	if err != nil {
		return clean, nil
	}
	return abs, nil
}

// writeResult renders v in the command's output format to its sink.
func writeResult(cmd *cobra.Command, name string, v any) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}
	path, err := resolveOutputPath(cmd, name, format)
	if err != nil {
		return err
	}

	rendered, err := output.NewFormatter(format, colourEnabled(path)).Format(v)
	if err != nil {
		return err
	}

	sink, err := openSink(path, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { _ = sink.close() }()

	if !strings.HasSuffix(rendered, "\n") {
		rendered += "\n"
	}
	_, err = io.WriteString(sink.writer, rendered)
	return err
}

func colourEnabled(path string) bool {
	if noColor {
		return false
	}
	p := strings.TrimSpace(path)
	return p == "" || p == "-"
}
