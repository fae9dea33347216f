package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"banking/internal/auth"
	"banking/internal/store"
	"banking/internal/validator"
)

var (
	ErrInvalidAmount         = fmt.Errorf("%w: amount must be positive", validator.ErrValidation)
	ErrSameAccountTransfer   = fmt.Errorf("%w: cannot transfer to the same account", validator.ErrValidation)
	ErrUnknownTargetAccount  = fmt.Errorf("%w: recipient account not found", validator.ErrValidation)
	ErrInvalidCredentials    = errors.New("invalid account number or credential")
	ErrInterestNotApplicable = errors.New("interest applies to savings accounts only")
)

// Savings accounts accrue at a fixed 3% annual rate, projected monthly.
var (
	annualInterestRate = decimal.RequireFromString("0.03")
	monthsPerYear      = decimal.NewFromInt(12)
)

// LedgerService orchestrates every balance mutation against the account
// repository and the transaction log. A single mutex spans both, so each
// operation commits the balance change and its log entry together or not
// at all.
type LedgerService struct {
	mu       sync.Mutex
	accounts *store.AccountStore
	log      *store.TransactionLog
	logger   *zap.Logger
}

func NewLedgerService(accounts *store.AccountStore, log *store.TransactionLog, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{accounts: accounts, log: log, logger: logger}
}

type CreateAccountRequest struct {
	OwnerName      string
	InitialDeposit decimal.Decimal
	Kind           store.AccountKind
	Credential     string
}

func (s *LedgerService) CreateAccount(ctx context.Context, req CreateAccountRequest) (store.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, err := s.accounts.Create(store.CreateAccountInput{
		OwnerName:      req.OwnerName,
		InitialDeposit: req.InitialDeposit,
		Kind:           req.Kind,
		Credential:     req.Credential,
	})
	if err != nil {
		return store.Account{}, err
	}
	s.log.Append(store.Transaction{
		ID:            uuid.NewString(),
		Kind:          store.KindAccountCreation,
		AccountNumber: account.Number,
		Amount:        req.InitialDeposit,
		BalanceAfter:  account.Balance,
		Timestamp:     time.Now().UTC(),
		Description:   fmt.Sprintf("Account opened with initial deposit of $%s", req.InitialDeposit.StringFixed(2)),
	})
	s.logger.Info("account created",
		zap.String("account", account.Number),
		zap.String("kind", string(account.Kind)))
	return account, nil
}

// Authenticate verifies the credential against the stored hash. Unknown
// accounts and bad credentials are indistinguishable to the caller.
func (s *LedgerService) Authenticate(ctx context.Context, number, credential string) (store.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, err := s.accounts.Get(number)
	if err != nil {
		return store.Account{}, ErrInvalidCredentials
	}
	if !auth.CheckPassword(account.CredentialHash, credential) {
		return store.Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// Account returns a point-in-time copy of the account.
func (s *LedgerService) Account(ctx context.Context, number string) (store.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts.Get(number)
}

type BalanceChange struct {
	AccountNumber   string
	PreviousBalance decimal.Decimal
	NewBalance      decimal.Decimal
}

func (s *LedgerService) Deposit(ctx context.Context, number string, amount decimal.Decimal) (BalanceChange, error) {
	if !amount.IsPositive() {
		return BalanceChange{}, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	account, err := s.accounts.Get(number)
	if err != nil {
		return BalanceChange{}, err
	}
	newBalance, err := s.accounts.AdjustBalance(number, amount)
	if err != nil {
		return BalanceChange{}, err
	}
	s.log.Append(store.Transaction{
		ID:            uuid.NewString(),
		Kind:          store.KindDeposit,
		AccountNumber: number,
		Amount:        amount,
		BalanceAfter:  newBalance,
		Timestamp:     time.Now().UTC(),
		Description:   fmt.Sprintf("Deposited $%s", amount.StringFixed(2)),
	})
	s.logger.Info("deposit", zap.String("account", number), zap.String("amount", amount.StringFixed(2)))
	return BalanceChange{AccountNumber: number, PreviousBalance: account.Balance, NewBalance: newBalance}, nil
}

func (s *LedgerService) Withdraw(ctx context.Context, number string, amount decimal.Decimal) (BalanceChange, error) {
	if !amount.IsPositive() {
		return BalanceChange{}, ErrInvalidAmount
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	account, err := s.accounts.Get(number)
	if err != nil {
		return BalanceChange{}, err
	}
	newBalance, err := s.accounts.AdjustBalance(number, amount.Neg())
	if err != nil {
		return BalanceChange{}, err
	}
	s.log.Append(store.Transaction{
		ID:            uuid.NewString(),
		Kind:          store.KindWithdrawal,
		AccountNumber: number,
		Amount:        amount,
		BalanceAfter:  newBalance,
		Timestamp:     time.Now().UTC(),
		Description:   fmt.Sprintf("Withdrew $%s", amount.StringFixed(2)),
	})
	s.logger.Info("withdrawal", zap.String("account", number), zap.String("amount", amount.StringFixed(2)))
	return BalanceChange{AccountNumber: number, PreviousBalance: account.Balance, NewBalance: newBalance}, nil
}

type TransferRequest struct {
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
}

type TransferResult struct {
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
}

// Transfer debits one account, credits the other and appends the linked
// transfer_out/transfer_in pair, all inside one critical section. Every
// precondition is checked before the first mutation; once the debit check
// passes, the credit cannot violate the balance floor, so the pair cannot
// half-apply.
func (s *LedgerService) Transfer(ctx context.Context, req TransferRequest) (TransferResult, error) {
	if !req.Amount.IsPositive() {
		return TransferResult{}, ErrInvalidAmount
	}
	if req.FromAccount == req.ToAccount {
		return TransferResult{}, ErrSameAccountTransfer
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	from, err := s.accounts.Get(req.FromAccount)
	if err != nil {
		return TransferResult{}, err
	}
	if !s.accounts.Exists(req.ToAccount) {
		return TransferResult{}, ErrUnknownTargetAccount
	}
	if from.Balance.LessThan(req.Amount) {
		return TransferResult{}, store.ErrInsufficientFunds
	}

	fromBalance, err := s.accounts.AdjustBalance(req.FromAccount, req.Amount.Neg())
	if err != nil {
		return TransferResult{}, err
	}
	toBalance, err := s.accounts.AdjustBalance(req.ToAccount, req.Amount)
	if err != nil {
		return TransferResult{}, err
	}

	now := time.Now().UTC()
	target, source := req.ToAccount, req.FromAccount
	out := store.Transaction{
		ID:            uuid.NewString(),
		Kind:          store.KindTransferOut,
		AccountNumber: req.FromAccount,
		Counterparty:  &target,
		Amount:        req.Amount,
		BalanceAfter:  fromBalance,
		Timestamp:     now,
		Description:   fmt.Sprintf("Transferred $%s to account %s", req.Amount.StringFixed(2), req.ToAccount),
	}
	in := store.Transaction{
		ID:            uuid.NewString(),
		Kind:          store.KindTransferIn,
		AccountNumber: req.ToAccount,
		Counterparty:  &source,
		Amount:        req.Amount,
		BalanceAfter:  toBalance,
		Timestamp:     now,
		Description:   fmt.Sprintf("Received $%s from account %s", req.Amount.StringFixed(2), req.FromAccount),
	}
	s.log.AppendPair(out, in)
	s.logger.Info("transfer",
		zap.String("from", req.FromAccount),
		zap.String("to", req.ToAccount),
		zap.String("amount", req.Amount.StringFixed(2)))
	return TransferResult{FromBalance: fromBalance, ToBalance: toBalance}, nil
}

type InterestProjection struct {
	AccountNumber    string
	Balance          decimal.Decimal
	AnnualRate       decimal.Decimal
	MonthlyRate      decimal.Decimal
	Interest         decimal.Decimal
	ProjectedBalance decimal.Decimal
}

// CalculateInterest is a read-only projection for savings accounts. It
// never appends a log entry or touches the balance.
func (s *LedgerService) CalculateInterest(ctx context.Context, number string) (InterestProjection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, err := s.accounts.Get(number)
	if err != nil {
		return InterestProjection{}, err
	}
	if account.Kind != store.Savings {
		return InterestProjection{}, ErrInterestNotApplicable
	}
	monthlyRate := annualInterestRate.Div(monthsPerYear)
	interest := account.Balance.Mul(monthlyRate).RoundBank(2)
	return InterestProjection{
		AccountNumber:    number,
		Balance:          account.Balance,
		AnnualRate:       annualInterestRate,
		MonthlyRate:      monthlyRate,
		Interest:         interest,
		ProjectedBalance: account.Balance.Add(interest),
	}, nil
}

type UpdateAccountRequest struct {
	OwnerName  *string
	Kind       *string
	Credential *string
}

// UpdateAccount applies a partial update. The account number itself is
// immutable; the request type has no field for it. The boolean reports
// whether anything changed.
func (s *LedgerService) UpdateAccount(ctx context.Context, number string, req UpdateAccountRequest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := s.accounts.UpdateFields(number, store.UpdateAccountInput{
		OwnerName:  req.OwnerName,
		Kind:       req.Kind,
		Credential: req.Credential,
	})
	if err != nil {
		return false, err
	}
	if changed {
		s.logger.Info("account updated", zap.String("account", number))
	}
	return changed, nil
}

// History returns the account's entries in chronological order. Callers
// reverse for most-recent-first display.
func (s *LedgerService) History(ctx context.Context, number string) ([]store.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.accounts.Get(number); err != nil {
		return nil, err
	}
	return s.log.ForAccount(number), nil
}

// Export copies the full repository and log state for the save boundary.
func (s *LedgerService) Export() ([]store.Account, []store.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts.All(), s.log.All()
}
