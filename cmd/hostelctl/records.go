package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hostelctl/hostelctl/internal/api"
	"github.com/hostelctl/hostelctl/internal/cli"
	"github.com/hostelctl/hostelctl/internal/listing"
	"github.com/hostelctl/hostelctl/internal/model"
)

// dateFlag reads a YYYY-MM-DD flag, defaulting to today.
func dateFlag(cmd *cobra.Command, name string, now time.Time) (model.Date, error) {
	value, _ := cmd.Flags().GetString(name)
	if strings.TrimSpace(value) == "" {
		return model.NewDate(now), nil
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return model.Date{}, fmt.Errorf("--%s: %w", name, err)
	}
	return d, nil
}

func parseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, arg)
	}
	return id, nil
}

func expensesAddCmd(env *rootEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Long: `Record an expense for the selected PG location.

The amount must be positive. The date defaults to today.`,
		Example: `  hostelctl expenses add --type Electricity --amount 1520.50 --paid-to "BESCOM" --method UPI`,
		Args:    cobra.NoArgs,
	}

	cmd.Flags().String("type", "", "expense type (required)")
	cmd.Flags().String("amount", "", "amount (required)")
	cmd.Flags().String("date", "", "expense date, YYYY-MM-DD (default: today)")
	cmd.Flags().String("paid-to", "", "who was paid")
	cmd.Flags().String("method", "", "payment method (CASH, UPI, CARD, BANK_TRANSFER, CHEQUE)")
	cmd.Flags().String("remarks", "", "free-form note")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("amount")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rawAmount, _ := cmd.Flags().GetString("amount")
		amount, err := decimal.NewFromString(strings.TrimSpace(rawAmount))
		if err != nil {
			return fmt.Errorf("--amount: invalid amount %q", rawAmount)
		}
		date, err := dateFlag(cmd, "date", time.Now())
		if err != nil {
			return err
		}

		expense := model.Expense{ExpenseDate: date, Amount: amount}
		expense.ExpenseType, _ = cmd.Flags().GetString("type")
		expense.PaidTo, _ = cmd.Flags().GetString("paid-to")
		expense.Remarks, _ = cmd.Flags().GetString("remarks")
		method, _ := cmd.Flags().GetString("method")
		expense.PaymentMethod = strings.ToUpper(strings.TrimSpace(method))

		if err := api.Validate(expense); err != nil {
			return err
		}

		sess, err := env.connect(ctx, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		created, err := api.Create(ctx, sess.client, api.Expenses, expense)
		if err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Recorded expense %d: %s %s on %s",
			created.SNo, created.ExpenseType, listing.Money(created.Amount), created.ExpenseDate)))
		return nil
	}

	return cmd
}

func expensesDeleteCmd(env *rootEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <expense-id>",
		Short: "Delete an expense",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().BoolP("force", "f", false, "skip confirmation prompt")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		id, err := parseID(args[0], "expense")
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		sess, err := env.connect(ctx, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		expense, err := api.Get[model.Expense](ctx, sess.client, api.Expenses, id)
		if err != nil {
			return fmt.Errorf("failed to get expense: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, cli.FormatTitle("Delete Expense"))
		fmt.Fprintln(out, cli.FormatField("Type", expense.ExpenseType))
		fmt.Fprintln(out, cli.FormatField("Amount", listing.Money(expense.Amount)))
		fmt.Fprintln(out, cli.FormatField("Date", expense.ExpenseDate.String()))
		fmt.Fprintln(out, cli.FormatField("Paid to", expense.PaidTo))
		fmt.Fprintln(out)

		if !force {
			ok, err := cli.Confirm(ctx, cli.NewNonBlockingReader(cmd.InOrStdin()), out, fmt.Sprintf("Delete expense %d?", id))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Operation canceled.")
				return nil
			}
			fmt.Fprintln(out)
		}

		msg, err := api.Delete(ctx, sess.client, api.Expenses, id)
		if err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}
		if msg == "" {
			msg = fmt.Sprintf("Expense %d deleted", id)
		}
		fmt.Fprintln(out, cli.FormatSuccess(msg))
		return nil
	}

	return cmd
}

func visitorsAddCmd(env *rootEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Log a visitor",
		Example: `  hostelctl visitors add --name "Ravi Kumar" --phone 9876543210 --purpose "Parent visit" --tenant 12`,
		Args:    cobra.NoArgs,
	}

	cmd.Flags().String("name", "", "visitor name (required)")
	cmd.Flags().String("phone", "", "phone number")
	cmd.Flags().String("purpose", "", "reason for the visit")
	cmd.Flags().String("date", "", "visit date, YYYY-MM-DD (default: today)")
	cmd.Flags().String("in", "", "check-in time, HH:MM (default: now)")
	cmd.Flags().Int64("tenant", 0, "tenant being visited")
	cmd.Flags().Int64("room", 0, "room being visited")
	_ = cmd.MarkFlagRequired("name")

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		now := time.Now()

		date, err := dateFlag(cmd, "date", now)
		if err != nil {
			return err
		}
		checkIn, _ := cmd.Flags().GetString("in")
		checkIn = strings.TrimSpace(checkIn)
		if checkIn == "" {
			checkIn = now.Format("15:04")
		} else if _, err := time.Parse("15:04", checkIn); err != nil {
			return fmt.Errorf("--in: invalid time %q (want HH:MM)", checkIn)
		}

		visitor := model.Visitor{VisitDate: date, CheckIn: checkIn}
		visitor.VisitorName, _ = cmd.Flags().GetString("name")
		visitor.Phone, _ = cmd.Flags().GetString("phone")
		visitor.Purpose, _ = cmd.Flags().GetString("purpose")
		visitor.TenantID, _ = cmd.Flags().GetInt64("tenant")
		visitor.RoomID, _ = cmd.Flags().GetInt64("room")
		visitor.VisitorName = strings.TrimSpace(visitor.VisitorName)

		if err := api.Validate(visitor); err != nil {
			return err
		}

		sess, err := env.connect(ctx, true)
		if err != nil {
			return err
		}
		defer sess.Close()

		created, err := api.Create(ctx, sess.client, api.Visitors, visitor)
		if err != nil {
			return fmt.Errorf("failed to log visitor: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Logged visitor %d: %s at %s",
			created.SNo, created.VisitorName, created.CheckIn)))
		return nil
	}

	return cmd
}

func tenantsShowCmd(env *rootEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "show <tenant-id>",
		Short: "Show one tenant",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0], "tenant")
			if err != nil {
				return err
			}

			sess, err := env.connect(ctx, true)
			if err != nil {
				return err
			}
			defer sess.Close()

			tenant, err := api.Get[model.Tenant](ctx, sess.client, api.Tenants, id)
			if err != nil {
				return fmt.Errorf("failed to get tenant: %w", err)
			}

			lines := []string{
				cli.FormatField("Status", string(tenant.Status)),
				cli.FormatField("Phone", tenant.Phone),
				cli.FormatField("Email", tenant.Email),
				cli.FormatField("Room/Bed", strings.Trim(tenant.RoomNo+"/"+tenant.BedNo, "/")),
				cli.FormatField("Rent", listing.Money(tenant.RentAmount)),
				cli.FormatField("Pending rent", listing.Money(tenant.PendingRent)),
				cli.FormatField("Checked in", tenant.CheckInDate.String()),
				cli.FormatField("Checked out", tenant.CheckOutDate.String()),
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderBox(fmt.Sprintf("%s (#%d)", tenant.Name, tenant.SNo), strings.Join(lines, "\n")))
			if tenant.HasPendingRent() {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Rent is due"))
			}
			return nil
		},
	}
}
