package store

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	KindAccountCreation TransactionKind = "account_creation"
	KindDeposit         TransactionKind = "deposit"
	KindWithdrawal      TransactionKind = "withdrawal"
	KindTransferOut     TransactionKind = "transfer_out"
	KindTransferIn      TransactionKind = "transfer_in"
)

func ParseTransactionKind(raw string) (TransactionKind, error) {
	switch kind := TransactionKind(raw); kind {
	case KindAccountCreation, KindDeposit, KindWithdrawal, KindTransferOut, KindTransferIn:
		return kind, nil
	}
	return "", fmt.Errorf("unknown transaction kind %q", raw)
}

// Transaction is a write-once log entry. Counterparty is set only for the
// transfer kinds: the target account on a transfer_out, the source account
// on a transfer_in.
type Transaction struct {
	ID            string
	Kind          TransactionKind
	AccountNumber string
	Counterparty  *string
	Amount        decimal.Decimal
	BalanceAfter  decimal.Decimal
	Timestamp     time.Time
	Description   string
}

// TransactionLog is the append-only ordered record of every
// balance-affecting event. Entries are never edited or removed.
type TransactionLog struct {
	entries []Transaction
}

func NewTransactionLog() *TransactionLog {
	return &TransactionLog{}
}

func (l *TransactionLog) Append(entry Transaction) {
	l.entries = append(l.entries, entry)
}

// AppendPair inserts both entries of a transfer as one unit, so the log
// never shows a debit without its matching credit.
func (l *TransactionLog) AppendPair(out, in Transaction) {
	l.entries = append(l.entries, out, in)
}

// ForAccount returns the account's entries in insertion order. Reversing
// for most-recent-first display is the caller's concern.
func (l *TransactionLog) ForAccount(number string) []Transaction {
	var matched []Transaction
	for _, entry := range l.entries {
		if entry.AccountNumber == number {
			matched = append(matched, entry)
		}
	}
	return matched
}

func (l *TransactionLog) All() []Transaction {
	out := make([]Transaction, len(l.entries))
	copy(out, l.entries)
	return out
}

// Seed replaces the log contents, used when restoring a snapshot.
func (l *TransactionLog) Seed(entries []Transaction) {
	l.entries = append([]Transaction(nil), entries...)
}

func (l *TransactionLog) Len() int {
	return len(l.entries)
}
