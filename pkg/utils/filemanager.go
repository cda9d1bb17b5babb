// =============================================================================
// Dividend Feed - File Manager Utility
// =============================================================================
//
// This module provides the file utilities of the export command:
//   - Directory management
//   - Export file naming
//   - Atomic file writing
//   - Summary log generation
//
// NAMING:
//   Export file names come from a format string with placeholders, so that
//   repeated exports never overwrite each other:
//     "dividendos_{timestamp}_{uuid}" -> "dividendos_20240315_101500_<uuid>.json"
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates dir and its parents if they don't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName builds an export file name for the current time.
//
// PARAMETERS:
//   - format: The file name format. Placeholders:
//       {uuid}      - A random UUID, unless params sets "uuid"
//       {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//       {date}      - Current date (YYYYMMDD)
//       {time}      - Current time (HHMMSS)
//     Any other {key} is replaced from params.
//   - ext: The extension to ensure, e.g. ".json".
//   - params: Extra placeholder values.
//
// RETURNS:
//   - The generated file name, with ext appended when missing.
//
// EXAMPLE:
//   format: "dividendos_{date}_{uuid}"  ext: ".xml"
//   output: "dividendos_20240315_a1b2c3d4-e5f6-7890-abcd-ef1234567890.xml"
func GenerateOutputFileName(format, ext string, params map[string]string) string {
	return generateOutputFileName(format, ext, time.Now(), params)
}

func generateOutputFileName(format, ext string, now time.Time, params map[string]string) string {
	replacements := map[string]string{
		"{uuid}":      uuid.NewString(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	// Placeholder values must not introduce directories.
	result = strings.NewReplacer("/", "_", `\`, "_").Replace(result)

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// =============================================================================
// FILE WRITING
// =============================================================================

// WriteFileAtomic writes data to dir/name through a temporary file, so
// readers never see a partial export.
//
// RETURNS:
//   - The path of the written file.
//   - An error if the directory or file cannot be written.
func WriteFileAtomic(dir, name string, data []byte) (string, error) {
	if err := EnsureDir(dir); err != nil {
		return "", err
	}

	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move %s into place: %w", name, err)
	}

	return path, nil
}

// =============================================================================
// SUMMARY LOG GENERATION
// =============================================================================

// ExportSummary describes one export run.
type ExportSummary struct {
	RunID      string
	Source     string
	StartTime  time.Time
	EndTime    time.Time
	OutputFile string
	Format     string

	RowsParsed int
	Records    int
	Buckets    int

	// Issues are the formatted diagnostics of the feed.
	Issues []string
}

// WriteSummaryLog writes a human-readable summary next to the export.
//
// PARAMETERS:
//   - summary: The export summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ExportSummary, outputDir string) (string, error) {
	if err := EnsureDir(outputDir); err != nil {
		return "", err
	}

	timestamp := summary.StartTime.Format("20060102_150405")
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("export_summary_%s_%s.txt", timestamp, shortID(summary.RunID)))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Dividend Feed - Export Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Source:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n\n"+
		"Output:\n"+
		"  File:           %s\n"+
		"  Format:         %s\n\n"+
		"Statistics:\n"+
		"  Rows Parsed:    %d\n"+
		"  Records:        %d\n"+
		"  Month Buckets:  %d\n"+
		"  Warnings:       %d\n\n",
		summary.RunID,
		summary.Source,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.OutputFile,
		summary.Format,
		summary.RowsParsed,
		summary.Records,
		summary.Buckets,
		len(summary.Issues),
	)

	if len(summary.Issues) > 0 {
		writer.WriteString("Warnings:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, issue := range summary.Issues {
			fmt.Fprintf(writer, "  %s\n", issue)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// shortID returns the first block of a UUID for file names.
func shortID(id string) string {
	if head, _, ok := strings.Cut(id, "-"); ok && head != "" {
		return head
	}
	if id == "" {
		return "run"
	}
	return id
}
