package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"banking/internal/services"
	"banking/internal/store"
)

func newTestSession(script string) (*Session, *services.LedgerService, *bytes.Buffer) {
	ledger := services.NewLedgerService(store.NewAccountStore(), store.NewTransactionLog(), zap.NewNop())
	var out bytes.Buffer
	return New(strings.NewReader(script), &out, ledger, zap.NewNop()), ledger, &out
}

func TestSessionExitSentinel(t *testing.T) {
	session, _, out := newTestSession("exit\n")
	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "Goodbye") {
		t.Fatalf("exit sentinel did not end the session: %q", out.String())
	}
}

func TestSessionCreateAccountFlow(t *testing.T) {
	session, ledger, out := newTestSession("1\nAda Lovelace\n500\nsavings\nhunter2secret\n3\n")
	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	accounts, entries := ledger.Export()
	if len(accounts) != 1 {
		t.Fatalf("session created %d accounts, want 1", len(accounts))
	}
	if !accounts[0].Balance.Equal(decimal.RequireFromString("500")) {
		t.Fatalf("opening balance = %s, want 500", accounts[0].Balance)
	}
	if len(entries) != 1 || entries[0].Kind != store.KindAccountCreation {
		t.Fatalf("expected a single account_creation entry, got %+v", entries)
	}
	if !strings.Contains(out.String(), "created successfully") {
		t.Fatalf("missing confirmation in output: %q", out.String())
	}
}

func TestSessionLoginAndDeposit(t *testing.T) {
	ledger := services.NewLedgerService(store.NewAccountStore(), store.NewTransactionLog(), zap.NewNop())
	account, err := ledger.CreateAccount(context.Background(), services.CreateAccountRequest{
		OwnerName:      "Ada Lovelace",
		InitialDeposit: decimal.RequireFromString("500.00"),
		Kind:           store.Savings,
		Credential:     "hunter2secret",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	script := "2\n" + account.Number + "\nhunter2secret\n1\n25.50\n7\n3\n"
	var out bytes.Buffer
	session := New(strings.NewReader(script), &out, ledger, zap.NewNop())
	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	current, err := ledger.Account(context.Background(), account.Number)
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	if !current.Balance.Equal(decimal.RequireFromString("525.50")) {
		t.Fatalf("balance after deposit = %s, want 525.50", current.Balance)
	}
	if !strings.Contains(out.String(), "New Balance: $525.50") {
		t.Fatalf("missing deposit confirmation in output: %q", out.String())
	}
}

func TestSessionRejectsBadLogin(t *testing.T) {
	session, _, out := newTestSession("2\n000000\nwrong-secret\n3\n")
	if err := session.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "Invalid account number or credential") {
		t.Fatalf("missing rejection message in output: %q", out.String())
	}
}
