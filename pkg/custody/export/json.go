package export

import (
	"context"
	"encoding/json"
	"io"
)

// JSONExporter exports dossiers to JSON format.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Format returns "json".
func (e *JSONExporter) Format() string { return "json" }

// Export writes the dossier to the provided writer as a single JSON object
// with "evidence" and "timeline" keys.
func (e *JSONExporter) Export(ctx context.Context, dossier *Dossier, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(dossier, "", "  ")
	} else {
		data, err = json.Marshal(dossier)
	}
	if err != nil {
		return NewError("json", dossier.Evidence.ID, err)
	}

	if _, err := w.Write(data); err != nil {
		return NewError("json", dossier.Evidence.ID, err)
	}
	return nil
}
