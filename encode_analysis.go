package exposure

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// This file contains code to persist a complete exposure analysis as a
// single JSON document, in a way that is still human-readable and
// git-friendly. The report is wrapped in a versioned envelope so that
// older builds fail loudly on newer layouts instead of misreading them.

// analysisSchemaVersion is the version written to, and required from,
// analysis documents.
const analysisSchemaVersion = 1

var (
	// ErrNoAnalysis reports a document or directory that holds no
	// exposure analysis.
	ErrNoAnalysis = errors.New("no exposure analysis")
	// ErrSchemaVersion reports an analysis document written with an
	// incompatible schema version.
	ErrSchemaVersion = errors.New("unsupported analysis schema version")
)

// EncodeAnalysis writes the report and its derived summary to 'w' as one
// indented JSON document:
//
//	{
//	  "schema_version": 1,
//	  "generated_at": "2026-08-25T07:04:05Z",
//	  "exposure_analysis": { ... },
//	  "exposure_summary": { ... }
//	}
//
// The price snapshot travels inside exposure_analysis, so the document is
// self-sufficient for a later recalculation.
func EncodeAnalysis(w io.Writer, report *ExposureReport) error {
	if report == nil {
		return ErrNoAnalysis
	}

	var jw jsonObjectWriter
	jw.Append("schema_version", analysisSchemaVersion)
	jw.Append("generated_at", report.Timestamp.UTC().Format(time.RFC3339))
	jw.Append("exposure_analysis", report)
	jw.Append("exposure_summary", NewExposureSummary(report))
	data, err := jw.MarshalJSON()
	if err != nil {
		return fmt.Errorf("cannot marshal analysis document: %w", err)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return fmt.Errorf("cannot indent analysis document: %w", err)
	}
	buf.WriteByte('\n')
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("cannot write analysis document: %w", err)
	}
	return nil
}

// DecodeAnalysis reads an analysis document written by EncodeAnalysis and
// returns the report it carries. It fails with ErrSchemaVersion on a
// document written by an incompatible build, and with ErrNoAnalysis on a
// document carrying no exposure_analysis object.
func DecodeAnalysis(r io.Reader) (*ExposureReport, error) {
	var jdoc struct {
		SchemaVersion int             `json:"schema_version"`
		GeneratedAt   time.Time       `json:"generated_at"`
		Analysis      *ExposureReport `json:"exposure_analysis"`
	}
	if err := json.NewDecoder(r).Decode(&jdoc); err != nil {
		return nil, fmt.Errorf("cannot parse analysis document: %w", err)
	}
	if jdoc.SchemaVersion != analysisSchemaVersion {
		return nil, fmt.Errorf("%w: document has version %d, this build reads version %d",
			ErrSchemaVersion, jdoc.SchemaVersion, analysisSchemaVersion)
	}
	if jdoc.Analysis == nil {
		return nil, ErrNoAnalysis
	}
	if jdoc.Analysis.Timestamp.IsZero() {
		jdoc.Analysis.Timestamp = jdoc.GeneratedAt
	}
	return jdoc.Analysis, nil
}
