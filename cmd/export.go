// =============================================================================
// Dividend Feed - Export Command
// =============================================================================
//
// This file defines the 'export' command, which runs the pipeline once and
// writes the result to the output directory.
//
// COMMAND USAGE:
//   dividendos export [flags]
//
// FLAGS:
//   --format   : json (full result) or xml (timeline document)
//   --dry-run  : Run the pipeline and report, without writing files
//   --xsd      : Also write the XSD of the XML export
//
// PROCESSING PIPELINE:
//   1. Fetch and process the feed
//   2. Encode the result in the chosen format
//   3. Write the export file (name from output.name_format)
//   4. Write the summary log
//
// =============================================================================

package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/minaironcapital/dividendos/internal/converter"
	"github.com/minaironcapital/dividendos/internal/render"
	"github.com/minaironcapital/dividendos/internal/xmlwriter"
	"github.com/minaironcapital/dividendos/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// exportFormat overrides output.format.
var exportFormat string

// dryRun runs the pipeline without writing any file.
var dryRun bool

// writeXSD also writes the XSD next to an XML export.
var writeXSD bool

// =============================================================================
// EXPORT COMMAND DEFINITION
// =============================================================================

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the processed feed to the output directory",
	Long: `The export command fetches the feed, processes it and writes one file to
the output directory, plus a summary log listing the feed diagnostics.

  json  the whole result: records, month buckets, statuses, diagnostics
  xml   the month-bucketed timeline document

File names follow output.name_format; {uuid} is the run id of the export.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Export format: json or xml (default from output.format)")
	exportCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the pipeline without writing output files")
	exportCmd.Flags().BoolVar(&writeXSD, "xsd", false, "Also write the XSD schema of the XML export")
}

// =============================================================================
// MAIN EXPORT FUNCTION
// =============================================================================

func runExport(cmd *cobra.Command) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	format := exportFormat
	if format == "" {
		format = app.cfg.Output.Format
	}

	// =========================================================================
	// STEP 1: RUN THE PIPELINE
	// =========================================================================

	result, err := runPipeline(cmd.Context())
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: ENCODE
	// =========================================================================

	data, ext, err := encodeExport(result, format)
	if err != nil {
		return err
	}

	name := utils.GenerateOutputFileName(app.cfg.Output.NameFormat, ext, map[string]string{"uuid": result.RunID})

	if dryRun {
		fmt.Fprintf(out, "Dry run: would write %s (%d bytes, %d records, %d buckets, %d warnings)\n",
			name, len(data), len(result.Records), len(result.Buckets), result.Stats.Warnings)
		return nil
	}

	// =========================================================================
	// STEP 3: WRITE THE EXPORT
	// =========================================================================

	path, err := utils.WriteFileAtomic(app.cfg.Output.Dir, name, data)
	if err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	app.log.Info("export written", "run_id", result.RunID, "path", path, "format", format)
	fmt.Fprintln(out, path)

	if writeXSD && format == "xml" {
		xsdPath := filepath.Join(app.cfg.Output.Dir, "timeline.xsd")
		if !utils.FileExists(xsdPath) {
			if _, err := utils.WriteFileAtomic(app.cfg.Output.Dir, "timeline.xsd", xmlwriter.GenerateXSD()); err != nil {
				return fmt.Errorf("failed to write xsd: %w", err)
			}
		}
		fmt.Fprintln(out, xsdPath)
	}

	if result.Report.HasIssues() {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d feed warnings, listed in the summary log\n", result.Report.WarningCount())
	}

	// =========================================================================
	// STEP 4: SUMMARY LOG
	// =========================================================================

	issues := make([]string, 0, len(result.Report.Issues))
	for _, issue := range result.Report.Issues {
		issues = append(issues, issue.String())
	}

	summaryPath, err := utils.WriteSummaryLog(utils.ExportSummary{
		RunID:      result.RunID,
		Source:     sourceName(),
		StartTime:  startTime,
		EndTime:    time.Now(),
		OutputFile: path,
		Format:     format,
		RowsParsed: result.Stats.RowsParsed,
		Records:    len(result.Records),
		Buckets:    len(result.Buckets),
		Issues:     issues,
	}, app.cfg.Output.Dir)
	if err != nil {
		// The export itself is complete.
		app.log.Warn("failed to write summary log", "error", err)
		return nil
	}
	app.log.Debug("summary written", "path", summaryPath)

	return nil
}

// encodeExport encodes the result and returns the file extension to use.
func encodeExport(result *converter.Result, format string) ([]byte, string, error) {
	switch format {
	case "json":
		var buf bytes.Buffer
		if err := render.JSON(&buf, result); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), ".json", nil
	case "xml":
		opts := xmlwriter.DefaultGenerateOptions()
		opts.RootAttributes["locale"] = app.cfg.Display.Locale
		opts.RootAttributes["loaded_at"] = result.LoadedAt.Format(time.RFC3339)
		doc, err := xmlwriter.GenerateWithOptions(result.Buckets, result.RunID, opts)
		if err != nil {
			return nil, "", err
		}
		return doc, ".xml", nil
	default:
		return nil, "", fmt.Errorf("unknown export format %q (want json or xml)", format)
	}
}
