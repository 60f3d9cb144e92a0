package main

import (
	"context"
	"fmt"

	"github.com/mtrack/mortgage-engine/internal/calculation"
	"github.com/mtrack/mortgage-engine/internal/domain"
	"github.com/spf13/cobra"
)

func (a *app) helocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "heloc",
		Short: "Record HELOC draws and repayments and inspect credit room",
	}
	cmd.AddCommand(a.helocBorrowCmd(), a.helocRepayCmd(), a.helocHistoryCmd(), a.helocRecalcCmd())
	return cmd
}

// accountOwner returns the user to act as: the --user flag, else the account's owner
func (a *app) accountOwner(ctx context.Context, accountID, user string) (string, error) {
	if user != "" {
		return user, nil
	}
	account, err := a.store.FindHelocAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	if account == nil {
		return "", fmt.Errorf("heloc account %s not found", accountID)
	}
	return account.UserID, nil
}

func (a *app) helocBorrowCmd() *cobra.Command {
	var (
		amount, user, description string
		persist                   bool
	)
	cmd := &cobra.Command{
		Use:   "borrow <account-id>",
		Short: "Draw on a HELOC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			value, err := parseMoney("amount", amount)
			if err != nil {
				return err
			}
			owner, err := a.accountOwner(ctx, args[0], user)
			if err != nil {
				return err
			}
			tx, err := a.engine.RecordBorrowing(ctx, calculation.BorrowingRequest{
				AccountID:   args[0],
				UserID:      owner,
				Amount:      value,
				Date:        a.clock(),
				Description: description,
			})
			if err != nil {
				return err
			}
			return a.finishTransaction(tx, persist)
		},
	}
	f := cmd.Flags()
	f.StringVar(&amount, "amount", "", "amount to draw")
	f.StringVar(&user, "user", "", "acting user (default: the account owner)")
	f.StringVar(&description, "description", "", "ledger description")
	f.BoolVar(&persist, "persist", false, "write the transaction back to the portfolio file")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (a *app) helocRepayCmd() *cobra.Command {
	var (
		amount, user, kind, description string
		persist                         bool
	)
	cmd := &cobra.Command{
		Use:   "repay <account-id>",
		Short: "Pay down a HELOC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			value, err := parseMoney("amount", amount)
			if err != nil {
				return err
			}
			owner, err := a.accountOwner(ctx, args[0], user)
			if err != nil {
				return err
			}
			tx, err := a.engine.RecordRepayment(ctx, calculation.RepaymentRequest{
				AccountID:   args[0],
				UserID:      owner,
				Amount:      value,
				Date:        a.clock(),
				Type:        domain.RepaymentType(kind),
				Description: description,
			})
			if err != nil {
				return err
			}
			return a.finishTransaction(tx, persist)
		},
	}
	f := cmd.Flags()
	f.StringVar(&amount, "amount", "", "amount to repay")
	f.StringVar(&user, "user", "", "acting user (default: the account owner)")
	f.StringVar(&kind, "type", string(domain.RepayInterestPrincipal), "interest_only, interest_principal or full")
	f.StringVar(&description, "description", "", "ledger description")
	f.BoolVar(&persist, "persist", false, "write the transaction back to the portfolio file")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (a *app) finishTransaction(tx *domain.HelocTransaction, persist bool) error {
	r := a.newReport("HELOC transaction")
	r.Transactions = []domain.HelocTransaction{*tx}
	if err := a.render(r); err != nil {
		return err
	}
	if persist {
		return a.persist()
	}
	return nil
}

func (a *app) helocHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <account-id>",
		Short: "Show an account's ledger and the credit room its mortgage payments unlocked",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			account, err := a.store.FindHelocAccount(ctx, args[0])
			if err != nil {
				return err
			}
			if account == nil {
				return fmt.Errorf("heloc account %s not found", args[0])
			}
			history, err := a.engine.CreditRoomHistory(ctx, account.ID)
			if err != nil {
				return err
			}
			transactions, err := a.store.FindHelocTransactions(ctx, account.ID)
			if err != nil {
				return err
			}

			r := a.newReport(fmt.Sprintf("HELOC %s history", account.ID))
			r.CreditRoom = history
			r.Transactions = transactions
			r.Notes = append(r.Notes, fmt.Sprintf("Credit limit %s, balance %s, available %s",
				account.CreditLimit.Format(), account.CurrentBalance.Format(), account.AvailableCredit().Format()))
			return a.render(r)
		},
	}
}

func (a *app) helocRecalcCmd() *cobra.Command {
	var (
		user    string
		persist bool
	)
	cmd := &cobra.Command{
		Use:   "recalc <account-id>",
		Short: "Recompute a HELOC credit limit from its linked mortgage balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			owner, err := a.accountOwner(ctx, args[0], user)
			if err != nil {
				return err
			}
			account, err := a.engine.RecalculateCreditLimit(ctx, args[0], owner)
			if err != nil {
				return err
			}
			r := a.newReport(fmt.Sprintf("HELOC %s credit limit", account.ID))
			r.Notes = append(r.Notes, fmt.Sprintf("Credit limit %s, available %s",
				account.CreditLimit.Format(), account.AvailableCredit().Format()))
			if err := a.render(r); err != nil {
				return err
			}
			if persist {
				return a.persist()
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "acting user (default: the account owner)")
	cmd.Flags().BoolVar(&persist, "persist", false, "write the updated account back to the portfolio file")
	return cmd
}
