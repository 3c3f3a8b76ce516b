package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// CSVExporter exports dossiers to CSV format: one row per custody event,
// with the evidence identity repeated on every row so the file stands
// alone in a spreadsheet.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{IncludeHeader: includeHeader}
}

// Format returns "csv".
func (e *CSVExporter) Format() string { return "csv" }

// Export writes the dossier's custody timeline to the provided writer in
// CSV format.
func (e *CSVExporter) Export(ctx context.Context, dossier *Dossier, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return NewError("csv", dossier.Evidence.ID, err)
		}
	}

	score := ""
	if dossier.Evidence.AdmissibilityScore != nil {
		score = strconv.Itoa(*dossier.Evidence.AdmissibilityScore)
	}

	for _, event := range dossier.Timeline {
		row := []string{
			dossier.Evidence.ID,
			dossier.Evidence.Fingerprint,
			dossier.Evidence.SourceType,
			score,
			strconv.FormatInt(event.Seq, 10),
			string(event.Action),
			event.Actor,
			event.Detail,
			event.Timestamp.UTC().Format(time.RFC3339Nano),
		}
		if err := writer.Write(row); err != nil {
			return NewError("csv", dossier.Evidence.ID, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return NewError("csv", dossier.Evidence.ID, err)
	}
	return nil
}

// headerRow returns the CSV header row.
func headerRow() []string {
	return []string{
		"evidenceId", "fingerprint", "sourceType", "admissibilityScore",
		"seq", "action", "actor", "detail", "timestamp",
	}
}
