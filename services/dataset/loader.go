package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dunderai/auditcore/models"
	"github.com/dunderai/auditcore/services"
)

// candidateDelimiters are tried in order when sniffing the CSV separator.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// Loader fetches and parses a tabular dataset from a source path.
// A source path is either a local file path or an http(s) URL; the
// bit-level format is CSV with auto-detected delimiter.
type Loader struct {
	client *http.Client
}

// NewLoader creates a loader with the given HTTP client. A nil client
// falls back to a default with a 30s timeout.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{client: client}
}

// Load fetches and parses the dataset at the given source path.
// Unreachable or malformed sources yield a data_source DomainError.
func (l *Loader) Load(ctx context.Context, path string) (*models.RecordSet, error) {
	raw, err := l.fetch(ctx, path)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeDataSource,
			fmt.Sprintf("dataset source unreachable: %s", path), err)
	}

	rs, err := parseCSV(path, raw)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeDataSource,
			fmt.Sprintf("dataset source malformed: %s", path), err)
	}
	return rs, nil
}

// fetch reads the raw bytes behind a source path.
func (l *Loader) fetch(ctx context.Context, path string) ([]byte, error) {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, path)
		}
		return io.ReadAll(resp.Body)
	}
	return os.ReadFile(path)
}

// parseCSV parses raw CSV bytes into a RecordSet. The delimiter is
// sniffed from the header line; column names are trimmed of surrounding
// whitespace; numeric-looking cells are stored as float64, empty cells
// as nil, everything else as string.
func parseCSV(source string, raw []byte) (*models.RecordSet, error) {
	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty document")
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv parse: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no header row")
	}

	columns := make([]string, len(records[0]))
	for i, name := range records[0] {
		columns[i] = strings.TrimSpace(name)
	}

	rows := make([]models.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(models.Row, len(columns))
		for i, col := range columns {
			if i >= len(record) {
				row[col] = nil
				continue
			}
			row[col] = parseCell(record[i])
		}
		rows = append(rows, row)
	}

	return &models.RecordSet{
		Source:   source,
		Columns:  columns,
		Rows:     rows,
		LoadedAt: time.Now(),
	}, nil
}

// sniffDelimiter picks the candidate delimiter that appears most often
// in the first line. Commas win ties, matching their position in the
// candidate list.
func sniffDelimiter(text string) rune {
	header := text
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		header = text[:idx]
	}

	best := ','
	bestCount := 0
	for _, d := range candidateDelimiters {
		if n := strings.Count(header, string(d)); n > bestCount {
			best = d
			bestCount = n
		}
	}
	return best
}

// parseCell converts one CSV cell into its in-memory value.
func parseCell(cell string) any {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return trimmed
}
