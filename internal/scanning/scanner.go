package scanning

import (
	"context"
	"errors"
	"image"
	"strings"
)

// Failure kinds reported by the scanning pipeline. Callers classify with errors.Is.
var (
	// ErrUnsupportedFormat is returned when a document extension is not a known image type or pdf
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrDecodeFailure is returned when document bytes cannot be decoded into an image
	ErrDecodeFailure = errors.New("decode failure")
	// ErrModelCall is returned for any transport, auth, quota or response error from a model
	ErrModelCall = errors.New("model call failure")
)

// Document is an uploaded file
type Document struct {
	Name string
	Data []byte
}

// Extension returns the lower-cased text after the last dot of the name.
// A name without a dot is returned whole.
func (d Document) Extension() string {
	name := d.Name
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// Part is one content segment of a model candidate
type Part struct {
	Text   string
	IsText bool
}

// Candidate is one answer returned by a model
type Candidate struct {
	Parts []Part
}

// Response is the raw answer of a model call
type Response struct {
	Candidates []Candidate
}

// AnswerText returns the text of the first candidate's first part.
// It reports false when the response does not have that shape.
func (r *Response) AnswerText() (string, bool) {
	if r == nil || len(r.Candidates) == 0 || len(r.Candidates[0].Parts) == 0 {
		return "", false
	}
	part := r.Candidates[0].Parts[0]
	if !part.IsText {
		return "", false
	}
	return part.Text, true
}

// TextResponse builds a single-candidate response holding text
func TextResponse(text string) *Response {
	return &Response{Candidates: []Candidate{{Parts: []Part{{Text: text, IsText: true}}}}}
}

// Extractor defines a multimodal model that reads a rasterized document
type Extractor interface {
	// Extract sends the instruction and the image in one request.
	// Every returned error wraps ErrModelCall.
	Extract(ctx context.Context, img image.Image, instruction string) (*Response, error)
	// Close closes the extractor and releases resources
	Close() error
}
