package ingest

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/evend-recon/internal/domain"
	"github.com/josh-kwaku/evend-recon/internal/logging"
)

// OFXBankFeed reads the bank's OFX download for a day, {dir}/{YYYY-MM-DD}.ofx.
// FITID becomes the bank reference. The system reference is the first of
// REFNUM, CHECKNUM and MEMO the bank filled in.
type OFXBankFeed struct {
	dir string
}

func NewOFXBankFeed(dir string) *OFXBankFeed {
	return &OFXBankFeed{dir: dir}
}

var hundred = big.NewRat(100, 1)

func (f *OFXBankFeed) FetchBankRecords(ctx context.Context, date domain.Date) ([]domain.BankRecord, error) {
	path := filepath.Join(f.dir, date.String()+".ofx")
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("FetchBankRecords: open %s: %w", path, err)
	}
	defer file.Close()

	resp, err := ofxgo.ParseResponse(file)
	if err != nil {
		return nil, fmt.Errorf("FetchBankRecords: parse %s: %w", path, err)
	}

	var records []domain.BankRecord
	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		currency := domain.Currency(stmt.CurDef.String())
		for _, tx := range stmt.BankTranList.Transactions {
			rec, err := ofxRecord(tx, currency)
			if err != nil {
				return nil, fmt.Errorf("FetchBankRecords: %s: %w", path, err)
			}
			records = append(records, rec)
		}
	}

	logging.FromContext(ctx).Info("ofx statement parsed", "recon_date", date.String(), "records", len(records))
	return records, nil
}

func ofxRecord(tx ofxgo.Transaction, stmtCurrency domain.Currency) (domain.BankRecord, error) {
	bankRef := string(tx.FiTID)

	cents := new(big.Rat).Mul(&tx.TrnAmt.Rat, hundred)
	if !cents.IsInt() {
		return domain.BankRecord{}, fmt.Errorf("%s: amount %s: %w", bankRef, tx.TrnAmt.String(), domain.ErrInvalidAmount)
	}
	amount, err := domain.AmountFromDecimal(decimal.NewFromBigInt(cents.Num(), -2))
	if err != nil {
		return domain.BankRecord{}, fmt.Errorf("%s: %w", bankRef, err)
	}

	currency := stmtCurrency
	if tx.Currency != nil {
		currency = domain.Currency(tx.Currency.CurSym.String())
	}
	if !currency.IsValid() {
		return domain.BankRecord{}, fmt.Errorf("%s: currency %q: %w", bankRef, currency, domain.ErrInvalidCurrency)
	}
	if bankRef == "" {
		return domain.BankRecord{}, fmt.Errorf("missing FITID: %w", domain.ErrInvalidRequest)
	}

	return domain.BankRecord{
		BankRef:   bankRef,
		Reference: ofxReference(tx),
		Timestamp: tx.DtPosted.Time.UTC(),
		Amount:    amount,
		Currency:  currency,
	}, nil
}

func ofxReference(tx ofxgo.Transaction) string {
	for _, v := range []ofxgo.String{tx.RefNum, tx.CheckNum, tx.Memo} {
		if ref := strings.TrimSpace(string(v)); ref != "" {
			return ref
		}
	}
	return ""
}
