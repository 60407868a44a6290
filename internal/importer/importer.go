package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"porch-petals/internal/domain"
)

type InventoryWriter interface {
	Upsert(ctx context.Context, item domain.InventoryItem) error
}

// CSVImporter reads inventory exports (id, name, available, total columns in
// any order) and inserts/updates inventory rows.
type CSVImporter struct {
	reader *csv.Reader
	repo   InventoryWriter
}

func NewCSVImporter(r io.Reader, repo InventoryWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader: csvr,
		repo:   repo,
	}
}

var requiredHeaders = []string{"id", "name", "available"}

// Run parses CSV rows and upserts one inventory row per line. Blank lines
// are skipped; the first invalid row aborts the import.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, h := range requiredHeaders {
		if _, ok := index[h]; !ok {
			return 0, fmt.Errorf("missing %q column", h)
		}
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		item, err := parseRow(record, index)
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		if item == nil {
			continue
		}

		if err := i.repo.Upsert(ctx, *item); err != nil {
			return imported, fmt.Errorf("upsert inventory %q: %w", item.ID, err)
		}
		imported++
	}

	return imported, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (*domain.InventoryItem, error) {
	id := pick(record, index, "id")
	name := pick(record, index, "name")
	availableStr := pick(record, index, "available")
	totalStr := pick(record, index, "total")

	if id == "" && name == "" && availableStr == "" {
		return nil, nil
	}
	if id == "" || name == "" {
		return nil, errors.New("id and name are required")
	}

	available, err := strconv.Atoi(availableStr)
	if err != nil || available < 0 {
		return nil, fmt.Errorf("invalid available count %q for %s", availableStr, id)
	}

	// A missing total means the row is at full capacity.
	total := available
	if totalStr != "" {
		total, err = strconv.Atoi(totalStr)
		if err != nil || total < 0 {
			return nil, fmt.Errorf("invalid total %q for %s", totalStr, id)
		}
	}

	return &domain.InventoryItem{
		ID:        id,
		Name:      name,
		Available: available,
		Total:     total,
	}, nil
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
