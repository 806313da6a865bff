package invoice

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/invoice-extractor/internal/scanning"
)

// Rasterizer turns an uploaded document into a single image
type Rasterizer interface {
	Rasterize(doc scanning.Document) (image.Image, error)
}

// IDGenerator generates unique IDs for batches
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service runs the extraction pipeline over batches of documents
type Service struct {
	db          DB
	extractor   scanning.Extractor
	rasterizer  Rasterizer
	parser      scanning.ResponseParser
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, extractor scanning.Extractor, rasterizer Rasterizer, parser scanning.ResponseParser) *Service {
	return NewServiceWithDeps(db, extractor, rasterizer, parser, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor scanning.Extractor, rasterizer Rasterizer, parser scanning.ResponseParser, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		rasterizer:  rasterizer,
		parser:      parser,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// Assemble extracts every document in order and returns one row per document.
// Failed documents keep their row with every value null.
func (s *Service) Assemble(ctx context.Context, docs []scanning.Document) *Table {
	extractions := make([]extraction, 0, len(docs))
	for _, doc := range docs {
		extractions = append(extractions, s.extract(ctx, doc))
	}

	table := buildTable(extractions)
	NormalizeTable(table)
	return table
}

// extract runs one document through rasterize, model call and parse
func (s *Service) extract(ctx context.Context, doc scanning.Document) extraction {
	e := extraction{source: doc.Name, fields: map[string]string{}}

	img, err := s.rasterizer.Rasterize(doc)
	if err != nil {
		e.status, e.err = statusFor(err), err
		logFailure(doc, e)
		return e
	}

	resp, err := s.extractor.Extract(ctx, img, s.parser.Instruction())
	if err != nil {
		e.status, e.err = StatusModelCallFailure, err
		logFailure(doc, e)
		return e
	}

	text, ok := resp.AnswerText()
	if !ok {
		e.status, e.err = StatusModelCallFailure, fmt.Errorf("%w: response has no answer text", scanning.ErrModelCall)
		logFailure(doc, e)
		return e
	}

	e.fields = s.parser.Parse(text)
	if len(e.fields) == 0 {
		e.status = StatusParseMiss
		slog.Warn("No fields matched in model answer",
			"source", doc.Name,
			"answer_size", len(text),
		)
		return e
	}

	e.status = StatusOK
	return e
}

// statusFor maps a pipeline error onto its row status
func statusFor(err error) Status {
	switch {
	case errors.Is(err, scanning.ErrUnsupportedFormat):
		return StatusUnsupportedFormat
	case errors.Is(err, scanning.ErrDecodeFailure):
		return StatusDecodeFailure
	default:
		return StatusModelCallFailure
	}
}

func logFailure(doc scanning.Document, e extraction) {
	slog.Error("Failed to extract invoice",
		"source", doc.Name,
		"extension", doc.Extension(),
		"file_size", len(doc.Data),
		"status", e.status,
		"error", e.err,
	)
}

// ProcessBatch assembles the documents and saves the batch for later export
func (s *Service) ProcessBatch(ctx context.Context, docs []scanning.Document) (*Batch, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("at least one document is required")
	}

	batch := &Batch{
		ID:        s.idGenerator.Generate(),
		Table:     *s.Assemble(ctx, docs),
		CreatedAt: s.timeSource.Now(),
	}

	if err := s.db.SaveBatch(batch); err != nil {
		return nil, fmt.Errorf("saving batch to database: %w", err)
	}
	return batch, nil
}

// GetBatch retrieves a batch by ID
func (s *Service) GetBatch(id string) (*Batch, error) {
	batch, err := s.db.GetBatch(id)
	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}
	return batch, nil
}

// ListBatches returns a summary of every stored batch
func (s *Service) ListBatches() ([]BatchSummary, error) {
	batches, err := s.db.ListBatches()
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}
	summaries := make([]BatchSummary, 0, len(batches))
	for _, b := range batches {
		summaries = append(summaries, b.Summary())
	}
	return summaries, nil
}

// DeleteBatch removes a batch
func (s *Service) DeleteBatch(id string) error {
	if _, err := s.db.GetBatch(id); err != nil {
		return fmt.Errorf("getting batch for deletion: %w", err)
	}
	if err := s.db.DeleteBatch(id); err != nil {
		return fmt.Errorf("deleting batch from database: %w", err)
	}
	return nil
}

// ExportBatch renders a stored batch in the requested format
func (s *Service) ExportBatch(id string, format Format, opts ExportOptions) ([]byte, error) {
	batch, err := s.db.GetBatch(id)
	if err != nil {
		return nil, fmt.Errorf("getting batch: %w", err)
	}
	data, err := Export(&batch.Table, format, opts)
	if err != nil {
		return nil, fmt.Errorf("exporting batch: %w", err)
	}
	return data, nil
}
