package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minaironcapital/dividendos/internal/filter"
	"github.com/minaironcapital/dividendos/internal/render"
)

var (
	tableQuery  string
	tableStatus string
	tableFormat string
)

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Show the dividends as a filtered table",
	Long: `Fetches the feed and prints the records in feed order.

--q keeps records whose "ticker empresa" contains the text, ignoring case.
--estado keeps records whose status equals the value exactly (statuses are
lowercased on ingestion, so use e.g. "pagado").`,
	Example: `  dividendos table --q ban
  dividendos table --estado pagado --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := runPipeline(cmd.Context())
		if err != nil {
			return err
		}

		records := result.Filter(filter.State{Query: tableQuery, Status: tableStatus})
		app.log.Debug("filter applied",
			"q", tableQuery,
			"estado", tableStatus,
			"matched", len(records),
			"total", len(result.Records),
		)

		out := cmd.OutOrStdout()

		switch tableFormat {
		case "text":
			return render.TableText(out, records)
		case "json":
			return render.JSON(out, records)
		case "md":
			md, err := render.TableMarkdown(records)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(out, md)
			return err
		default:
			return fmt.Errorf("unknown format %q (want text, json or md)", tableFormat)
		}
	},
}

func init() {
	rootCmd.AddCommand(tableCmd)

	tableCmd.Flags().StringVar(&tableQuery, "q", "", "Case-insensitive text matched against ticker and company")
	tableCmd.Flags().StringVar(&tableStatus, "estado", "", "Exact status to keep")
	tableCmd.Flags().StringVarP(&tableFormat, "format", "f", "text", "Output format: text, json, md")
}
