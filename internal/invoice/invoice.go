package invoice

import "time"

// Status describes how extraction went for one document
type Status string

const (
	// StatusOK means the model answered and at least one field was read
	StatusOK Status = "ok"
	// StatusUnsupportedFormat means the file extension is not an image type or pdf
	StatusUnsupportedFormat Status = "unsupported_format"
	// StatusDecodeFailure means the document bytes could not be rasterized
	StatusDecodeFailure Status = "decode_failure"
	// StatusModelCallFailure means the model call failed or its response had no answer text
	StatusModelCallFailure Status = "model_call_failure"
	// StatusParseMiss means the model answered but no field line matched
	StatusParseMiss Status = "parse_miss"
)

// Row is the normalized record of one uploaded document.
// Values holds every table column; a nil value is the null marker.
type Row struct {
	Source string             `json:"source"`
	Status Status             `json:"status"`
	Error  string             `json:"error,omitempty"`
	Values map[string]*string `json:"values"`
}

// Value returns the text of a column, empty for null
func (r Row) Value(column string) string {
	if v := r.Values[column]; v != nil {
		return *v
	}
	return ""
}

// Table is the uniform result of a batch.
// Columns is the union of every extracted key, requested fields first.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Batch is an extracted table kept for on-demand export
type Batch struct {
	ID        string    `json:"id"`
	Table     Table     `json:"table"`
	CreatedAt time.Time `json:"created_at"`
}

// BatchSummary is the listing view of a batch
type BatchSummary struct {
	ID        string         `json:"id"`
	Documents int            `json:"documents"`
	Statuses  map[Status]int `json:"statuses"`
	CreatedAt time.Time      `json:"created_at"`
}

// Summary counts the rows of the batch per status
func (b *Batch) Summary() BatchSummary {
	statuses := make(map[Status]int)
	for _, row := range b.Table.Rows {
		statuses[row.Status]++
	}
	return BatchSummary{
		ID:        b.ID,
		Documents: len(b.Table.Rows),
		Statuses:  statuses,
		CreatedAt: b.CreatedAt,
	}
}
