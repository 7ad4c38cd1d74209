// Package extract reads raw review snapshots from CSV, XLSX, ODS, and JSON files.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/reviewlens/internal/models"
)

var (
	// ErrUnsupportedFormat is returned for file extensions no reader handles.
	ErrUnsupportedFormat = errors.New("unsupported input format")
	// ErrMissingColumn is returned when a required column has no recognized header.
	ErrMissingColumn = errors.New("missing required column")
	// ErrNoReviews is returned when the input holds no records.
	ErrNoReviews = errors.New("input contains no reviews")
)

// Extractor reads raw reviews from snapshot files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its records in file order.
// A missing or unreadable file, an unknown format, and an empty collection are errors.
func (e *Extractor) Extract(path string) ([]models.RawReview, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	reviews, err := e.ExtractBytes(content, ext)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reviews, nil
}

// ExtractBytes parses content based on the given extension.
// ext should include the leading dot (e.g. ".csv").
func (e *Extractor) ExtractBytes(content []byte, ext string) ([]models.RawReview, error) {
	var (
		reviews []models.RawReview
		err     error
	)
	switch ext {
	case ".csv":
		reviews, err = extractCSV(content)
	case ".xlsx":
		reviews, err = extractExcel(content)
	case ".ods":
		reviews, err = extractODS(content)
	case ".json":
		reviews, err = extractJSON(content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, ErrNoReviews
	}
	return reviews, nil
}
