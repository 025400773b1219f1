package domain

import (
	"strconv"
	"time"
)

type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "success"
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// SystemTransactionRecord is a settled entry from the platform ledger.
type SystemTransactionRecord struct {
	ID        string
	Reference string
	Timestamp time.Time
	VendorID  string
	Amount    int64
	Currency  Currency
}

// BankRecord is one line of a bank statement. Reference holds the system
// reference when the bank carried it through, otherwise it is empty.
type BankRecord struct {
	BankRef   string
	Reference string
	Timestamp time.Time
	Amount    int64
	Currency  Currency
	// Seq numbers the lines of one statement that share a BankRef, starting
	// at 1 for the earliest. Zero until the matcher assigns it.
	Seq int
}

// Key identifies the line within its statement. A repeated BankRef is
// qualified with its ordinal, so the second BNK-1 becomes "BNK-1#2".
func (b BankRecord) Key() string {
	if b.Seq <= 1 {
		return b.BankRef
	}
	return b.BankRef + "#" + strconv.Itoa(b.Seq)
}

type MatchedPair struct {
	System SystemTransactionRecord
	Bank   BankRecord
}

// AmountDelta is system minus bank.
func (p MatchedPair) AmountDelta() int64 {
	return p.System.Amount - p.Bank.Amount
}

func (p MatchedPair) Mismatched() bool {
	return p.AmountDelta() != 0
}
