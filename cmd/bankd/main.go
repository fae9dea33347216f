package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"banking/internal/cli"
	"banking/internal/config"
	"banking/internal/services"
	"banking/internal/storage"
	"banking/internal/store"
)

var dataFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "bankd",
		Short:         "Interactive single-tenant bank ledger",
		Long:          "bankd tracks named accounts and records every balance-affecting event in an append-only transaction log, persisted as a JSON snapshot.",
		RunE:          runSession,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVarP(&dataFile, "file", "f", "", "path to the ledger data file (defaults to $BANK_DATA_FILE)")
	return cmd
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if dataFile != "" {
		cfg.DataFile = dataFile
	}
	logger, err := newLogger(cfg.AppEnv)
	if err != nil {
		return err
	}
	defer logger.Sync()

	snap, err := storage.Load(cfg.DataFile)
	if err != nil {
		if !errors.Is(err, storage.ErrCorruptState) {
			return err
		}
		logger.Warn("data file is corrupt, starting fresh",
			zap.String("path", cfg.DataFile), zap.Error(err))
		snap = storage.Empty()
	}
	restoredAccounts, restoredEntries, err := snap.Restore()
	if err != nil {
		logger.Warn("data file violates ledger invariants, starting fresh",
			zap.String("path", cfg.DataFile), zap.Error(err))
		restoredAccounts, restoredEntries = nil, nil
	}

	accounts := store.NewAccountStore()
	accounts.Seed(restoredAccounts)
	log := store.NewTransactionLog()
	log.Seed(restoredEntries)
	ledger := services.NewLedgerService(accounts, log, logger)

	save := func() {
		accts, entries := ledger.Export()
		if err := storage.Save(cfg.DataFile, storage.NewSnapshot(accts, entries)); err != nil {
			logger.Error("failed to save ledger state",
				zap.String("path", cfg.DataFile), zap.Error(err))
			return
		}
		logger.Info("ledger state saved", zap.String("path", cfg.DataFile))
	}

	// An interrupt aborts whatever prompt is in flight; committed state is
	// already consistent, so save and leave.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-interrupt
		fmt.Fprintln(cmd.OutOrStdout())
		save()
		os.Exit(0)
	}()

	session := cli.New(cmd.InOrStdin(), cmd.OutOrStdout(), ledger, logger)
	runErr := session.Run(cmd.Context())
	save()
	return runErr
}

func newLogger(appEnv string) (*zap.Logger, error) {
	if appEnv == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
