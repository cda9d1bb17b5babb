package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/minaironcapital/dividendos/internal/render"
	"github.com/minaironcapital/dividendos/internal/xmlwriter"
)

var timelineFormat string

var timelineStyle string

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show the dividends grouped by ex-date month",
	Long: `Fetches the feed and prints one section per calendar month of the
ex-date, sorted by month key. Records without an ex-date are listed under
"Sin fecha"; dates that cannot be read keep their original text as a section
of their own.

Formats:
  text  aligned plain text (default)
  json  the buckets as JSON
  md    Markdown
  term  Markdown styled for the terminal
  xml   the XML export document`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := runPipeline(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()

		switch timelineFormat {
		case "text":
			return render.TimelineText(out, result.Buckets)
		case "json":
			return render.JSON(out, result.Buckets)
		case "md", "term":
			md, err := render.TimelineMarkdown(result.Buckets)
			if err != nil {
				return err
			}
			if timelineFormat == "term" {
				if md, err = render.Terminal(md, timelineStyle); err != nil {
					return err
				}
			}
			_, err = fmt.Fprint(out, md)
			return err
		case "xml":
			doc, err := xmlwriter.Generate(result.Buckets, result.RunID)
			if err != nil {
				return err
			}
			_, err = out.Write(doc)
			return err
		default:
			return fmt.Errorf("unknown format %q (want text, json, md, term or xml)", timelineFormat)
		}
	},
}

func init() {
	rootCmd.AddCommand(timelineCmd)

	timelineCmd.Flags().StringVarP(&timelineFormat, "format", "f", "text", "Output format: text, json, md, term, xml")
	timelineCmd.Flags().StringVar(&timelineStyle, "style", "auto", "Terminal style for --format term: auto, dark, light, notty")
}
