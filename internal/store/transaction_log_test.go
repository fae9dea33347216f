package store

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func entryFor(number string, kind TransactionKind) Transaction {
	return Transaction{
		ID:            number + "-" + string(kind),
		Kind:          kind,
		AccountNumber: number,
		Amount:        decimal.RequireFromString("10.00"),
		BalanceAfter:  decimal.RequireFromString("510.00"),
		Timestamp:     time.Now().UTC(),
	}
}

func TestAppendKeepsInsertionOrder(t *testing.T) {
	log := NewTransactionLog()
	log.Append(entryFor("111111", KindAccountCreation))
	log.Append(entryFor("111111", KindDeposit))
	log.Append(entryFor("222222", KindAccountCreation))
	log.Append(entryFor("111111", KindWithdrawal))

	entries := log.ForAccount("111111")
	if len(entries) != 3 {
		t.Fatalf("ForAccount returned %d entries, want 3", len(entries))
	}
	wantKinds := []TransactionKind{KindAccountCreation, KindDeposit, KindWithdrawal}
	for i, kind := range wantKinds {
		if entries[i].Kind != kind {
			t.Fatalf("entry %d kind = %q, want %q", i, entries[i].Kind, kind)
		}
	}
	if len(log.ForAccount("333333")) != 0 {
		t.Fatalf("ForAccount leaked entries for an unknown account")
	}
}

func TestAppendPair(t *testing.T) {
	log := NewTransactionLog()
	out := entryFor("111111", KindTransferOut)
	in := entryFor("222222", KindTransferIn)
	log.AppendPair(out, in)

	all := log.All()
	if len(all) != 2 {
		t.Fatalf("log has %d entries, want 2", len(all))
	}
	if all[0].Kind != KindTransferOut || all[1].Kind != KindTransferIn {
		t.Fatalf("pair out of order: %q then %q", all[0].Kind, all[1].Kind)
	}
}

func TestAllReturnsCopy(t *testing.T) {
	log := NewTransactionLog()
	log.Append(entryFor("111111", KindDeposit))
	all := log.All()
	all[0].AccountNumber = "mutated"
	if log.All()[0].AccountNumber != "111111" {
		t.Fatalf("All exposed internal storage")
	}
}

func TestSeedReplacesContents(t *testing.T) {
	log := NewTransactionLog()
	log.Append(entryFor("111111", KindDeposit))
	log.Seed([]Transaction{entryFor("222222", KindAccountCreation)})
	if log.Len() != 1 {
		t.Fatalf("Len = %d after seed, want 1", log.Len())
	}
	if log.All()[0].AccountNumber != "222222" {
		t.Fatalf("seed did not replace contents")
	}
}

func TestParseTransactionKind(t *testing.T) {
	for _, kind := range []TransactionKind{KindAccountCreation, KindDeposit, KindWithdrawal, KindTransferOut, KindTransferIn} {
		parsed, err := ParseTransactionKind(string(kind))
		if err != nil || parsed != kind {
			t.Fatalf("ParseTransactionKind(%q) = %q, %v", kind, parsed, err)
		}
	}
	if _, err := ParseTransactionKind("refund"); err == nil {
		t.Fatalf("unknown kind accepted")
	}
}
