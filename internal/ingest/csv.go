package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

var csvColumns = []string{"bank_ref", "reference", "timestamp", "amount", "currency"}

// CSVBankFeed reads one statement file per day, {dir}/{YYYY-MM-DD}.csv.
// Columns are located by header name, so their order in the file is free.
type CSVBankFeed struct {
	dir string
}

func NewCSVBankFeed(dir string) *CSVBankFeed {
	return &CSVBankFeed{dir: dir}
}

func (f *CSVBankFeed) FetchBankRecords(ctx context.Context, date domain.Date) ([]domain.BankRecord, error) {
	path := filepath.Join(f.dir, date.String()+".csv")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("FetchBankRecords: open %s: %w", path, err)
	}
	defer file.Close()

	records, err := readStatementCSV(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("FetchBankRecords: %s: %w", path, err)
	}
	return records, nil
}

func readStatementCSV(ctx context.Context, r io.Reader) ([]domain.BankRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range csvColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q: %w", col, domain.ErrInvalidRequest)
		}
	}

	var records []domain.BankRecord
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rec, err := normalize(rawBankRecord{
			BankRef:   row[index["bank_ref"]],
			Reference: row[index["reference"]],
			Timestamp: row[index["timestamp"]],
			Amount:    row[index["amount"]],
			Currency:  row[index["currency"]],
		})
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
