package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/evend-recon/internal/domain"
)

func writeStatement(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestCSVBankFeed_FetchBankRecords(t *testing.T) {
	dir := t.TempDir()
	writeStatement(t, dir, "2024-01-15.csv", strings.Join([]string{
		"currency,amount,timestamp,reference,bank_ref",
		"USD,100.00,2024-01-15T09:05:00Z,REF-1,BNK-1",
		"ZAR,18.20,2024-01-15T10:00:00Z,,BNK-2",
	}, "\n")+"\n")

	records, err := NewCSVBankFeed(dir).FetchBankRecords(context.Background(), testDate)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "BNK-1", records[0].BankRef)
	assert.Equal(t, "REF-1", records[0].Reference)
	assert.Equal(t, int64(10000), records[0].Amount)
	assert.Equal(t, domain.CurrencyZAR, records[1].Currency)
	assert.Equal(t, int64(1820), records[1].Amount)
}

func TestCSVBankFeed_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "missing column",
			content: "bank_ref,reference,timestamp,amount\nBNK-1,REF-1,2024-01-15T09:05:00Z,1.00\n",
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "bad amount on a line",
			content: "bank_ref,reference,timestamp,amount,currency\nBNK-1,REF-1,2024-01-15T09:05:00Z,1.001,USD\n",
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeStatement(t, dir, "2024-01-15.csv", tc.content)

			_, err := NewCSVBankFeed(dir).FetchBankRecords(context.Background(), testDate)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestCSVBankFeed_KeepsRepeatedLines(t *testing.T) {
	dir := t.TempDir()
	writeStatement(t, dir, "2024-01-15.csv", strings.Join([]string{
		"bank_ref,reference,timestamp,amount,currency",
		"BNK-1,REF-1,2024-01-15T09:05:00Z,50.00,USD",
		"BNK-1,REF-1,2024-01-15T09:05:00Z,50.00,USD",
	}, "\n")+"\n")

	records, err := NewCSVBankFeed(dir).FetchBankRecords(context.Background(), testDate)
	require.NoError(t, err)

	require.Len(t, records, 2, "a repeated bank line is data for the matcher, not a feed error")
	assert.Equal(t, records[0], records[1])
}

func TestCSVBankFeed_MissingFile(t *testing.T) {
	_, err := NewCSVBankFeed(t.TempDir()).FetchBankRecords(context.Background(), testDate)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
