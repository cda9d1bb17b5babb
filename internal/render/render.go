// Package render formats pipeline output for people and programs: plain
// text tables, Markdown (optionally styled for a terminal) and JSON.
package render

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"text/tabwriter"
	"text/template"

	"github.com/charmbracelet/glamour"

	"github.com/minaironcapital/dividendos/internal/timeline"
	"github.com/minaironcapital/dividendos/internal/types"
)

//go:embed templates/*.md
var templates embed.FS

var funcs = template.FuncMap{
	"cell":   cell,
	"amount": amount,
	"link":   link,
}

// TimelineMarkdown renders the buckets as one Markdown section per month.
func TimelineMarkdown(buckets []timeline.Bucket) (string, error) {
	return renderTemplate("templates/timeline.md", buckets)
}

// TableMarkdown renders records as a single Markdown table.
func TableMarkdown(records []types.Record) (string, error) {
	return renderTemplate("templates/table.md", records)
}

// Terminal styles Markdown for a terminal. style is a glamour style name
// such as "auto", "dark", "light" or "notty".
func Terminal(markdown, style string) (string, error) {
	if style == "" {
		style = "auto"
	}
	out, err := glamour.Render(markdown, style)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// TimelineText writes the buckets as aligned plain text.
func TimelineText(w io.Writer, buckets []timeline.Bucket) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	for i, bucket := range buckets {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s (%d)\n", bucket.Label, len(bucket.Entries))
		for _, r := range bucket.Entries {
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", r.DisplayName(), r.ExDate, r.PayDate, amount(r), r.Estado)
		}
	}

	return tw.Flush()
}

// TableText writes records as an aligned plain text table with a header.
func TableText(w io.Writer, records []types.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "TICKER\tEMPRESA\tEX-DATE\tPAGO\tIMPORTE\tESTADO")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", r.Ticker, r.Empresa, r.ExDate, r.PayDate, amount(r), r.Estado)
	}

	return tw.Flush()
}

// JSON writes v as indented JSON followed by a newline.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}

func renderTemplate(file string, data any) (string, error) {
	content, err := fs.ReadFile(templates, file)
	if err != nil {
		return "", fmt.Errorf("error reading template %q: %w", file, err)
	}

	tmpl, err := template.New(file).Funcs(funcs).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("error parsing template %q: %w", file, err)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("error executing template %q: %w", file, err)
	}
	return b.String(), nil
}

// cell makes a value safe inside a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// amount joins the raw amount and its currency. A blank amount stays blank.
func amount(r types.Record) string {
	if r.ImporteBruto == "" {
		return ""
	}
	return cell(r.ImporteBruto + " " + r.Moneda)
}

func link(url string) string {
	if url == "" {
		return ""
	}
	return "[fuente](" + strings.ReplaceAll(url, ")", "%29") + ")"
}
