// Package storage persists the account repository and transaction log as a
// versioned JSON snapshot. Amounts travel as decimal strings and timestamps
// as RFC 3339 with nanoseconds, so decode(encode(x)) reconstructs x exactly.
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"banking/internal/store"
)

const (
	storageKind   = "json_snapshot"
	schemaVersion = 1
)

// ErrCorruptState marks a data file that exists but cannot be decoded.
// Callers fall back to an empty state instead of aborting.
var ErrCorruptState = errors.New("corrupt state file")

type Meta struct {
	Storage string    `json:"storage"`
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
}

type PersistAccount struct {
	Number         string          `json:"number"`
	OwnerName      string          `json:"owner_name"`
	Kind           string          `json:"kind"`
	Balance        decimal.Decimal `json:"balance"`
	CredentialHash string          `json:"credential_hash"`
	CreatedAt      time.Time       `json:"created_at"`
}

type PersistTransaction struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	AccountNumber string          `json:"account_number"`
	Counterparty  *string         `json:"counterparty,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Timestamp     time.Time       `json:"timestamp"`
	Description   string          `json:"description"`
}

type Snapshot struct {
	Meta         Meta                      `json:"meta"`
	Accounts     map[string]PersistAccount `json:"accounts"`
	Transactions []PersistTransaction      `json:"transactions"`
}

func Empty() Snapshot {
	return Snapshot{
		Meta:         Meta{Storage: storageKind, Version: schemaVersion},
		Accounts:     map[string]PersistAccount{},
		Transactions: []PersistTransaction{},
	}
}

// NewSnapshot converts in-memory state to its durable representation.
func NewSnapshot(accounts []store.Account, entries []store.Transaction) Snapshot {
	snap := Empty()
	for _, account := range accounts {
		snap.Accounts[account.Number] = PersistAccount{
			Number:         account.Number,
			OwnerName:      account.OwnerName,
			Kind:           string(account.Kind),
			Balance:        account.Balance,
			CredentialHash: account.CredentialHash,
			CreatedAt:      account.CreatedAt,
		}
	}
	for _, entry := range entries {
		snap.Transactions = append(snap.Transactions, PersistTransaction{
			ID:            entry.ID,
			Kind:          string(entry.Kind),
			AccountNumber: entry.AccountNumber,
			Counterparty:  entry.Counterparty,
			Amount:        entry.Amount,
			BalanceAfter:  entry.BalanceAfter,
			Timestamp:     entry.Timestamp,
			Description:   entry.Description,
		})
	}
	return snap
}

// Restore rebuilds the in-memory state, rejecting snapshots that violate
// the core invariants (unknown kinds, negative balances).
func (snap Snapshot) Restore() ([]store.Account, []store.Transaction, error) {
	accounts := make([]store.Account, 0, len(snap.Accounts))
	for _, pa := range snap.Accounts {
		kind, err := store.ParseAccountKind(pa.Kind)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: account %s has unknown kind %q", ErrCorruptState, pa.Number, pa.Kind)
		}
		if pa.Balance.IsNegative() {
			return nil, nil, fmt.Errorf("%w: account %s has negative balance", ErrCorruptState, pa.Number)
		}
		accounts = append(accounts, store.Account{
			Number:         pa.Number,
			OwnerName:      pa.OwnerName,
			Kind:           kind,
			Balance:        pa.Balance,
			CredentialHash: pa.CredentialHash,
			CreatedAt:      pa.CreatedAt,
		})
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Number < accounts[j].Number })

	entries := make([]store.Transaction, 0, len(snap.Transactions))
	for _, pt := range snap.Transactions {
		kind, err := store.ParseTransactionKind(pt.Kind)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: transaction %s: %v", ErrCorruptState, pt.ID, err)
		}
		entries = append(entries, store.Transaction{
			ID:            pt.ID,
			Kind:          kind,
			AccountNumber: pt.AccountNumber,
			Counterparty:  pt.Counterparty,
			Amount:        pt.Amount,
			BalanceAfter:  pt.BalanceAfter,
			Timestamp:     pt.Timestamp,
			Description:   pt.Description,
		})
	}
	return accounts, entries, nil
}

func Encode(snap Snapshot) ([]byte, error) {
	return json.MarshalIndent(snap, "", "  ")
}

func Decode(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorruptState, err)
	}
	if snap.Meta.Storage != storageKind || snap.Meta.Version != schemaVersion {
		return Snapshot{}, fmt.Errorf("%w: unsupported schema %q version %d", ErrCorruptState, snap.Meta.Storage, snap.Meta.Version)
	}
	if snap.Accounts == nil {
		snap.Accounts = map[string]PersistAccount{}
	}
	return snap, nil
}

// Load reads the data file. A missing or empty file is a fresh start, not
// an error.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Empty(), nil
	}
	if err != nil {
		return Snapshot{}, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Empty(), nil
	}
	return Decode(data)
}

// Save writes the snapshot atomically: encode to a temp file, then rename
// over the target, so a crash mid-write never corrupts the previous state.
func Save(path string, snap Snapshot) error {
	snap.Meta.Storage = storageKind
	snap.Meta.Version = schemaVersion
	snap.Meta.SavedAt = time.Now().UTC()
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
