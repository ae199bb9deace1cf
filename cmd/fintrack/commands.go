package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"finance-tracker/internal/dto"
	"finance-tracker/internal/export"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/session"
)

const passwordEnv = "FINANCE_PASSWORD"

type credentials struct {
	Email    string `required:"" help:"Account email."`
	Password string `help:"Account password. Defaults to FINANCE_PASSWORD."`
	OTP      string `help:"Authenticator code for accounts with MFA."`
}

func (c credentials) password() (string, error) {
	if c.Password != "" {
		return c.Password, nil
	}
	if p := os.Getenv(passwordEnv); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("no password given: use --password or set %s", passwordEnv)
}

type viewFlags struct {
	Category  string `help:"Exact category, or All." default:"All"`
	Period    string `help:"7, 30, 90, 365 or custom."`
	Start     string `help:"Custom range start (YYYY-MM-DD)."`
	End       string `help:"Custom range end (YYYY-MM-DD)."`
	Sort      string `help:"date, amount or type." default:"date"`
	Direction string `help:"asc or desc." default:"desc"`
}

func (v viewFlags) states() (ledger.FilterState, ledger.SortState, error) {
	return dto.TransactionQuery{
		Category:  v.Category,
		Period:    v.Period,
		Start:     v.Start,
		End:       v.End,
		Sort:      v.Sort,
		Direction: v.Direction,
	}.Filter()
}

type registerCmd struct {
	Email    string `required:"" help:"Account email."`
	Password string `help:"Account password. Defaults to FINANCE_PASSWORD."`
	MFA      bool   `name:"mfa" help:"Enroll an authenticator app."`
}

func (c *registerCmd) Run(a *app) error {
	password, err := credentials{Password: c.Password}.password()
	if err != nil {
		return err
	}

	resp, err := a.api.Register(context.Background(), dto.RegisterRequest{
		Email:     c.Email,
		Password:  password,
		EnableMFA: c.MFA,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, resp.Message)
	if resp.Secret != "" {
		fmt.Fprintf(a.out, "Authenticator secret: %s\n", resp.Secret)
		fmt.Fprintln(a.out, "It is shown only once.")
	}
	return nil
}

type requestResetCmd struct {
	Email string `required:"" help:"Account email."`
}

func (c *requestResetCmd) Run(a *app) error {
	resp, err := a.api.RequestPasswordReset(context.Background(), c.Email)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

type resetPasswordCmd struct {
	Token    string `required:"" help:"Reset token from the reset message."`
	Password string `help:"New password. Defaults to FINANCE_PASSWORD."`
}

func (c *resetPasswordCmd) Run(a *app) error {
	password, err := credentials{Password: c.Password}.password()
	if err != nil {
		return err
	}

	resp, err := a.api.ResetPassword(context.Background(), c.Token, password)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

type exportCmd struct {
	Credentials credentials `embed:""`
	View        viewFlags   `embed:""`
	Out         string      `short:"o" default:"-" help:"Output file, - for stdout."`
}

func (c *exportCmd) Run(a *app) error {
	return a.oneShot(c.Credentials, c.View, func(v session.View) error {
		if c.Out == "-" {
			return export.WriteCSV(a.out, v.Transactions)
		}

		f, err := os.Create(c.Out)
		if err != nil {
			return err
		}
		if err := export.WriteCSV(f, v.Transactions); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Exported %d transactions to %s\n", len(v.Transactions), c.Out)
		return nil
	})
}

type summaryCmd struct {
	Credentials credentials `embed:""`
	View        viewFlags   `embed:""`
}

func (c *summaryCmd) Run(a *app) error {
	return a.oneShot(c.Credentials, c.View, func(v session.View) error {
		printSummary(a.out, v)
		return nil
	})
}

// oneShot logs in, renders one view and unloads the session
func (a *app) oneShot(creds credentials, flags viewFlags, render func(session.View) error) error {
	filter, order, err := flags.states()
	if err != nil {
		return err
	}
	password, err := creds.password()
	if err != nil {
		return err
	}

	sess := a.newSession(nil)
	defer sess.Unload()

	if _, err := sess.Login(context.Background(), creds.Email, password, creds.OTP); err != nil {
		if errors.Is(err, session.ErrMFARequired) {
			return errors.New("this account needs --otp")
		}
		return err
	}

	view, err := sess.View(filter, order)
	if err != nil {
		return err
	}
	return render(view)
}

func printSummary(w io.Writer, v session.View) {
	t := v.Summary.Totals
	fmt.Fprintf(w, "Transactions: %d\n", len(v.Transactions))
	fmt.Fprintf(w, "Income:   %s\n", t.Income.StringFixed(2))
	fmt.Fprintf(w, "Expenses: %s\n", t.Expenses.StringFixed(2))
	fmt.Fprintf(w, "Balance:  %s\n", t.Balance.StringFixed(2))

	if len(v.Summary.Categories) > 0 {
		fmt.Fprintln(w, "By category:")
		for _, c := range v.Summary.Categories {
			fmt.Fprintf(w, "  %-15s %10s (%d)\n", c.Category, c.Total.StringFixed(2), c.Count)
		}
	}
	for _, issue := range v.Summary.Issues {
		fmt.Fprintf(w, "Warning: %s\n", issue)
	}
}
