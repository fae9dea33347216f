// Package cli is the interactive session layer. It holds no ledger state of
// its own: every prompt resolves to a single engine call, and the explicit
// account number from login is threaded through each operation.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/term"

	"banking/internal/money"
	"banking/internal/services"
	"banking/internal/store"
	"banking/internal/validator"
)

// errExit means the user typed the exit sentinel at a prompt; the current
// flow unwinds to the previous menu with no state change.
var errExit = errors.New("exit requested")

type Session struct {
	raw    io.Reader
	in     *bufio.Reader
	out    io.Writer
	ledger *services.LedgerService
	logger *zap.Logger
}

func New(in io.Reader, out io.Writer, ledger *services.LedgerService, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{raw: in, in: bufio.NewReader(in), out: out, ledger: ledger, logger: logger}
}

// Run drives the main menu until the user exits or input ends.
func (s *Session) Run(ctx context.Context) error {
	for {
		fmt.Fprintln(s.out, "\n=== Welcome to Go Bank ===")
		fmt.Fprintln(s.out, "1. Create New Account")
		fmt.Fprintln(s.out, "2. Login to Existing Account")
		fmt.Fprintln(s.out, "3. Exit")
		choice, err := s.prompt("Please select an option: ")
		if err != nil {
			return s.unwind(err)
		}
		switch choice {
		case "1":
			err = s.createAccount(ctx)
		case "2":
			err = s.login(ctx)
		case "3":
			fmt.Fprintln(s.out, "Thank you for banking with us. Goodbye!")
			return nil
		default:
			fmt.Fprintln(s.out, "Sorry, that's not a valid option. Please try again.")
		}
		if err != nil && !errors.Is(err, errExit) {
			return s.unwind(err)
		}
	}
}

func (s *Session) createAccount(ctx context.Context) error {
	fmt.Fprintln(s.out, "\n=== Let's Create Your Account ===")
	fmt.Fprintln(s.out, "Type 'exit' anytime to go back to the main menu.")

	name, err := s.prompt("What's your full name? ")
	if err != nil {
		return err
	}
	if name == "" {
		fmt.Fprintln(s.out, "Name is required to create an account!")
		return nil
	}
	deposit, err := s.promptAmount("How much would you like to deposit initially? $")
	if err != nil {
		return err
	}
	kind, err := s.promptKind("What type of account? (savings/current): ", false)
	if err != nil {
		return err
	}
	credential, err := s.promptNewCredential("Create a secure credential (minimum 6 characters): ")
	if err != nil {
		return err
	}

	account, err := s.ledger.CreateAccount(ctx, services.CreateAccountRequest{
		OwnerName:      name,
		InitialDeposit: deposit,
		Kind:           kind,
		Credential:     credential,
	})
	if err != nil {
		fmt.Fprintln(s.out, errorMessage(err))
		return nil
	}
	fmt.Fprintf(s.out, "\nCongratulations %s!\n", account.OwnerName)
	fmt.Fprintln(s.out, "Your account has been created successfully!")
	fmt.Fprintf(s.out, "Account Number: %s\n", account.Number)
	fmt.Fprintf(s.out, "Current Balance: %s\n", money.FormatAmount(account.Balance))
	return nil
}

func (s *Session) login(ctx context.Context) error {
	fmt.Fprintln(s.out, "\n=== Account Login ===")
	fmt.Fprintln(s.out, "Type 'exit' to go back to the main menu.")

	number, err := s.prompt("Enter your account number: ")
	if err != nil {
		return err
	}
	credential, err := s.promptSecret("Enter your credential: ")
	if err != nil {
		return err
	}
	account, err := s.ledger.Authenticate(ctx, number, credential)
	if err != nil {
		fmt.Fprintln(s.out, errorMessage(err))
		return nil
	}
	fmt.Fprintf(s.out, "\nWelcome back, %s!\n", account.OwnerName)
	return s.accountMenu(ctx, account.Number)
}

func (s *Session) accountMenu(ctx context.Context, number string) error {
	for {
		account, err := s.ledger.Account(ctx, number)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "\n=== %s's Account ===\n", account.OwnerName)
		fmt.Fprintf(s.out, "Account #: %s\n", account.Number)
		fmt.Fprintf(s.out, "Account Type: %s\n", titleKind(account.Kind))
		fmt.Fprintf(s.out, "Current Balance: %s\n", money.FormatAmount(account.Balance))
		fmt.Fprintln(s.out, "\nWhat would you like to do today?")
		fmt.Fprintln(s.out, "1. Deposit Money")
		fmt.Fprintln(s.out, "2. Withdraw Money")
		fmt.Fprintln(s.out, "3. Transfer Money")
		fmt.Fprintln(s.out, "4. View Transaction History")
		fmt.Fprintln(s.out, "5. Calculate Interest")
		fmt.Fprintln(s.out, "6. Update Account Information")
		fmt.Fprintln(s.out, "7. Logout")

		choice, err := s.prompt("Please select an option: ")
		if err != nil {
			if errors.Is(err, errExit) {
				fmt.Fprintln(s.out, "You have been logged out. See you soon!")
				return nil
			}
			return err
		}
		switch choice {
		case "1":
			err = s.deposit(ctx, number)
		case "2":
			err = s.withdraw(ctx, number)
		case "3":
			err = s.transfer(ctx, number)
		case "4":
			err = s.history(ctx, number)
		case "5":
			err = s.interest(ctx, number)
		case "6":
			err = s.updateAccount(ctx, number)
		case "7":
			fmt.Fprintln(s.out, "You have been logged out. See you soon!")
			return nil
		default:
			fmt.Fprintln(s.out, "Invalid option. Please try again.")
		}
		if err != nil && !errors.Is(err, errExit) {
			return err
		}
	}
}

func (s *Session) deposit(ctx context.Context, number string) error {
	fmt.Fprintln(s.out, "\n=== Make a Deposit ===")
	amount, err := s.promptAmount("How much would you like to deposit? $")
	if err != nil {
		return err
	}
	change, err := s.ledger.Deposit(ctx, number, amount)
	if err != nil {
		fmt.Fprintln(s.out, errorMessage(err))
		return nil
	}
	fmt.Fprintln(s.out, "Deposit successful!")
	fmt.Fprintf(s.out, "Previous Balance: %s\n", money.FormatAmount(change.PreviousBalance))
	fmt.Fprintf(s.out, "New Balance: %s\n", money.FormatAmount(change.NewBalance))
	return nil
}

func (s *Session) withdraw(ctx context.Context, number string) error {
	fmt.Fprintln(s.out, "\n=== Withdraw Money ===")
	amount, err := s.promptAmount("How much would you like to withdraw? $")
	if err != nil {
		return err
	}
	change, err := s.ledger.Withdraw(ctx, number, amount)
	if err != nil {
		fmt.Fprintln(s.out, errorMessage(err))
		return nil
	}
	fmt.Fprintln(s.out, "Withdrawal successful!")
	fmt.Fprintf(s.out, "Previous Balance: %s\n", money.FormatAmount(change.PreviousBalance))
	fmt.Fprintf(s.out, "New Balance: %s\n", money.FormatAmount(change.NewBalance))
	return nil
}

func (s *Session) transfer(ctx context.Context, number string) error {
	fmt.Fprintln(s.out, "\n=== Transfer Money ===")
	target, err := s.prompt("Enter recipient's account number: ")
	if err != nil {
		return err
	}
	amount, err := s.promptAmount("How much would you like to transfer? $")
	if err != nil {
		return err
	}
	result, err := s.ledger.Transfer(ctx, services.TransferRequest{
		FromAccount: number,
		ToAccount:   target,
		Amount:      amount,
	})
	if err != nil {
		fmt.Fprintln(s.out, errorMessage(err))
		return nil
	}
	fmt.Fprintln(s.out, "Transfer successful!")
	fmt.Fprintf(s.out, "Your new balance: %s\n", money.FormatAmount(result.FromBalance))
	fmt.Fprintf(s.out, "Recipient's new balance: %s\n", money.FormatAmount(result.ToBalance))
	return nil
}

func (s *Session) history(ctx context.Context, number string) error {
	fmt.Fprintln(s.out, "\n=== Transaction History ===")
	entries, err := s.ledger.History(ctx, number)
	if err != nil {
		fmt.Fprintln(s.out, errorMessage(err))
		return nil
	}
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "No transactions found for your account.")
		return nil
	}
	fmt.Fprintf(s.out, "Showing %d transactions:\n", len(entries))
	fmt.Fprintln(s.out, strings.Repeat("-", 50))
	// most recent first; the log itself stays chronological
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		fmt.Fprintf(s.out, "%s\n", entry.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(s.out, "   %s\n", entry.Description)
		fmt.Fprintf(s.out, "   Balance: %s\n", money.FormatAmount(entry.BalanceAfter))
		if entry.Counterparty != nil {
			switch entry.Kind {
			case store.KindTransferOut:
				fmt.Fprintf(s.out, "   To: %s\n", *entry.Counterparty)
			case store.KindTransferIn:
				fmt.Fprintf(s.out, "   From: %s\n", *entry.Counterparty)
			}
		}
		fmt.Fprintln(s.out, strings.Repeat("-", 30))
	}
	return nil
}

func (s *Session) interest(ctx context.Context, number string) error {
	fmt.Fprintln(s.out, "\n=== Interest Calculator ===")
	projection, err := s.ledger.CalculateInterest(ctx, number)
	if err != nil {
		fmt.Fprintln(s.out, errorMessage(err))
		return nil
	}
	fmt.Fprintf(s.out, "Current Balance: %s\n", money.FormatAmount(projection.Balance))
	fmt.Fprintf(s.out, "Monthly Interest Rate: %s%%\n", projection.MonthlyRate.Mul(decimal.NewFromInt(100)).StringFixed(2))
	fmt.Fprintf(s.out, "Estimated Monthly Interest: %s\n", money.FormatAmount(projection.Interest))
	fmt.Fprintf(s.out, "Balance after one month: %s\n", money.FormatAmount(projection.ProjectedBalance))
	return nil
}

func (s *Session) updateAccount(ctx context.Context, number string) error {
	fmt.Fprintln(s.out, "\n=== Update Account Information ===")
	fmt.Fprintln(s.out, "Press Enter to keep a current value. The account number cannot be changed.")

	account, err := s.ledger.Account(ctx, number)
	if err != nil {
		return err
	}
	var req services.UpdateAccountRequest

	fmt.Fprintf(s.out, "Current name: %s\n", account.OwnerName)
	name, err := s.prompt("Enter new name: ")
	if err != nil {
		return err
	}
	if name != "" {
		req.OwnerName = &name
	}

	fmt.Fprintf(s.out, "Current account type: %s\n", account.Kind)
	kindRaw, err := s.promptKindOptional("Enter new account type (savings/current): ")
	if err != nil {
		return err
	}
	if kindRaw != "" {
		req.Kind = &kindRaw
	}

	credential, err := s.promptOptionalCredential("Enter new credential (minimum 6 characters): ")
	if err != nil {
		return err
	}
	if credential != "" {
		req.Credential = &credential
	}

	changed, err := s.ledger.UpdateAccount(ctx, number, req)
	if err != nil {
		fmt.Fprintln(s.out, errorMessage(err))
		return nil
	}
	if !changed {
		fmt.Fprintln(s.out, "No changes were made to your account.")
		return nil
	}
	fmt.Fprintln(s.out, "Account information updated successfully!")
	return nil
}

// prompt reads one line, applying the exit sentinel. io.EOF unwinds the
// whole session.
func (s *Session) prompt(label string) (string, error) {
	fmt.Fprint(s.out, label)
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	value := strings.TrimSpace(line)
	if strings.EqualFold(value, "exit") {
		return "", errExit
	}
	return value, nil
}

// promptSecret hides input when attached to a terminal; under a pipe or in
// tests it degrades to a plain line read.
func (s *Session) promptSecret(label string) (string, error) {
	file, ok := s.raw.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return s.prompt(label)
	}
	fmt.Fprint(s.out, label)
	raw, err := term.ReadPassword(int(file.Fd()))
	fmt.Fprintln(s.out)
	if err != nil {
		return "", err
	}
	value := strings.TrimSpace(string(raw))
	if strings.EqualFold(value, "exit") {
		return "", errExit
	}
	return value, nil
}

func (s *Session) promptAmount(label string) (decimal.Decimal, error) {
	for {
		raw, err := s.prompt(label)
		if err != nil {
			return decimal.Zero, err
		}
		amount, err := money.ParseAmount(raw)
		if err != nil {
			fmt.Fprintln(s.out, "Please enter a valid amount!")
			continue
		}
		return amount, nil
	}
}

func (s *Session) promptKind(label string, allowEmpty bool) (store.AccountKind, error) {
	for {
		raw, err := s.prompt(label)
		if err != nil {
			return "", err
		}
		if raw == "" && allowEmpty {
			return "", nil
		}
		kind, err := store.ParseAccountKind(raw)
		if err != nil {
			fmt.Fprintln(s.out, "Please choose either 'savings' or 'current'.")
			continue
		}
		return kind, nil
	}
}

func (s *Session) promptKindOptional(label string) (string, error) {
	kind, err := s.promptKind(label, true)
	return string(kind), err
}

func (s *Session) promptNewCredential(label string) (string, error) {
	for {
		credential, err := s.promptSecret(label)
		if err != nil {
			return "", err
		}
		if err := validator.ValidateCredential(credential); err != nil {
			fmt.Fprintln(s.out, "Credential must be at least 6 characters long!")
			continue
		}
		return credential, nil
	}
}

func (s *Session) promptOptionalCredential(label string) (string, error) {
	for {
		credential, err := s.promptSecret(label)
		if err != nil {
			return "", err
		}
		if credential == "" {
			return "", nil
		}
		if err := validator.ValidateCredential(credential); err != nil {
			fmt.Fprintln(s.out, "Credential must be at least 6 characters long!")
			continue
		}
		return credential, nil
	}
}

func (s *Session) unwind(err error) error {
	if errors.Is(err, errExit) || errors.Is(err, io.EOF) {
		fmt.Fprintln(s.out, "Thank you for banking with us. Goodbye!")
		return nil
	}
	return err
}

func titleKind(kind store.AccountKind) string {
	raw := string(kind)
	if raw == "" {
		return raw
	}
	return strings.ToUpper(raw[:1]) + raw[1:]
}

func errorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrInsufficientFunds):
		return "Sorry, you don't have enough funds for this transaction."
	case errors.Is(err, services.ErrInvalidCredentials):
		return "Invalid account number or credential. Please try again."
	case errors.Is(err, services.ErrSameAccountTransfer):
		return "You cannot transfer money to your own account!"
	case errors.Is(err, services.ErrUnknownTargetAccount):
		return "Recipient account not found. Please check the account number."
	case errors.Is(err, services.ErrInterestNotApplicable):
		return "Interest calculation is only available for savings accounts."
	case errors.Is(err, store.ErrMinimumDeposit):
		return "Minimum deposit should be $500!"
	case errors.Is(err, store.ErrAccountNotFound):
		return "Account not found. Please check the account number."
	case errors.Is(err, validator.ErrValidation):
		return strings.TrimPrefix(err.Error(), "validation failed: ")
	default:
		return "Something went wrong: " + err.Error()
	}
}
