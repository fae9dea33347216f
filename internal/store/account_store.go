package store

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"banking/internal/auth"
	"banking/internal/validator"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMinimumDeposit    = fmt.Errorf("%w: initial deposit must be at least $500.00", validator.ErrValidation)
)

// MinimumOpeningDeposit is the smallest balance an account may open with.
var MinimumOpeningDeposit = decimal.RequireFromString("500.00")

type AccountKind string

const (
	Savings AccountKind = "savings"
	Current AccountKind = "current"
)

func ParseAccountKind(raw string) (AccountKind, error) {
	switch AccountKind(strings.ToLower(strings.TrimSpace(raw))) {
	case Savings:
		return Savings, nil
	case Current:
		return Current, nil
	}
	return "", validator.ErrInvalidAccountKind
}

type Account struct {
	Number         string
	OwnerName      string
	Kind           AccountKind
	Balance        decimal.Decimal
	CredentialHash string
	CreatedAt      time.Time
}

// AccountStore is the in-memory account repository. It is not safe for
// concurrent use on its own; LedgerService serializes access.
type AccountStore struct {
	accounts map[string]*Account
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[string]*Account)}
}

type CreateAccountInput struct {
	OwnerName      string
	InitialDeposit decimal.Decimal
	Kind           AccountKind
	Credential     string
}

// Create validates the input, hashes the credential and inserts a new
// account under a freshly generated number. It does not write a log entry;
// that is the engine's responsibility.
func (s *AccountStore) Create(input CreateAccountInput) (Account, error) {
	if err := validator.ValidateOwnerName(input.OwnerName); err != nil {
		return Account{}, err
	}
	if _, err := ParseAccountKind(string(input.Kind)); err != nil {
		return Account{}, err
	}
	if err := validator.ValidateCredential(input.Credential); err != nil {
		return Account{}, err
	}
	if input.InitialDeposit.LessThan(MinimumOpeningDeposit) {
		return Account{}, ErrMinimumDeposit
	}
	hash, err := auth.HashPassword(input.Credential)
	if err != nil {
		return Account{}, err
	}
	account := &Account{
		Number:         s.nextNumber(),
		OwnerName:      strings.TrimSpace(input.OwnerName),
		Kind:           input.Kind,
		Balance:        input.InitialDeposit,
		CredentialHash: hash,
		CreatedAt:      time.Now().UTC(),
	}
	s.accounts[account.Number] = account
	return *account, nil
}

func (s *AccountStore) Get(number string) (Account, error) {
	account, ok := s.accounts[number]
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	return *account, nil
}

func (s *AccountStore) Exists(number string) bool {
	_, ok := s.accounts[number]
	return ok
}

type UpdateAccountInput struct {
	OwnerName  *string
	Kind       *string
	Credential *string
}

// UpdateFields applies a partial update. Nil fields keep their prior value.
// Everything is validated before anything is applied, so a rejected update
// leaves the account untouched. The boolean reports whether any field
// actually changed.
func (s *AccountStore) UpdateFields(number string, input UpdateAccountInput) (bool, error) {
	account, ok := s.accounts[number]
	if !ok {
		return false, ErrAccountNotFound
	}

	var newKind AccountKind
	if input.Kind != nil {
		parsed, err := ParseAccountKind(*input.Kind)
		if err != nil {
			return false, err
		}
		newKind = parsed
	}
	if input.OwnerName != nil {
		if err := validator.ValidateOwnerName(*input.OwnerName); err != nil {
			return false, err
		}
	}
	var newHash string
	if input.Credential != nil {
		if err := validator.ValidateCredential(*input.Credential); err != nil {
			return false, err
		}
		hash, err := auth.HashPassword(*input.Credential)
		if err != nil {
			return false, err
		}
		newHash = hash
	}

	changed := false
	if input.OwnerName != nil {
		account.OwnerName = strings.TrimSpace(*input.OwnerName)
		changed = true
	}
	if input.Kind != nil {
		account.Kind = newKind
		changed = true
	}
	if input.Credential != nil {
		account.CredentialHash = newHash
		changed = true
	}
	return changed, nil
}

// AdjustBalance applies delta to the balance, rejecting any result below
// zero. There is no partial application: either the new balance commits or
// nothing does.
func (s *AccountStore) AdjustBalance(number string, delta decimal.Decimal) (decimal.Decimal, error) {
	account, ok := s.accounts[number]
	if !ok {
		return decimal.Zero, ErrAccountNotFound
	}
	next := account.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, ErrInsufficientFunds
	}
	account.Balance = next
	return next, nil
}

// All returns account copies sorted by number.
func (s *AccountStore) All() []Account {
	out := make([]Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		out = append(out, *account)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Seed replaces the repository contents, used when restoring a snapshot.
// Seeded numbers join the collision set, so they are never reissued.
func (s *AccountStore) Seed(accounts []Account) {
	s.accounts = make(map[string]*Account, len(accounts))
	for _, account := range accounts {
		copied := account
		s.accounts[copied.Number] = &copied
	}
}

// nextNumber draws six-digit account numbers until it finds a free one.
// Deletion is unsupported, so a number once issued is never reused.
func (s *AccountStore) nextNumber() string {
	for {
		number := strconv.Itoa(100000 + rand.Intn(900000))
		if _, taken := s.accounts[number]; !taken {
			return number
		}
	}
}
