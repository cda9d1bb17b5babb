// =============================================================================
// Dividend Feed - Main Entry Point
// =============================================================================
//
// USAGE:
//   dividendos timeline     - Month-by-month view of the feed
//   dividendos table        - Filtered table of the feed
//   dividendos export       - Write the processed feed to the output directory
//   dividendos serve        - Read-only JSON API
//   dividendos version      - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Ingestion pipeline, exporters and HTTP API
//   - pkg/       : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/minaironcapital/dividendos/cmd"
)

func main() {
	cmd.Execute()
}
