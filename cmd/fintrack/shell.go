package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"finance-tracker/internal/client"
	"finance-tracker/internal/export"
	"finance-tracker/internal/ledger"
	"finance-tracker/internal/session"
)

const shellHelp = `Commands:
  login <email> <password> [otp]
  list [category=X] [period=7|30|90|365|custom] [start=YYYY-MM-DD] [end=YYYY-MM-DD] [sort=date|amount|type] [direction=asc|desc]
  add <income|expense> <amount> <category> <YYYY-MM-DD|today> [every=weekly|monthly|quarterly|yearly] [description...]
  delete <id>
  summary [filters as for list]
  export <file> [filters as for list]
  refresh
  logout
  quit`

type shellCmd struct{}

func (shellCmd) Run(a *app) error {
	sh := newShell(a)
	return sh.run(context.Background())
}

// syncWriter serializes writes from the prompt loop and the session's
// background expiry callback.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

type shell struct {
	sess *session.Session
	in   *bufio.Scanner
	out  io.Writer
	now  func() time.Time
}

func newShell(a *app) *shell {
	out := &syncWriter{w: a.out}
	sh := &shell{
		in:  bufio.NewScanner(a.in),
		out: out,
		now: a.now,
	}
	sh.sess = a.newSession(func(r session.Reason) {
		if notice := r.Notice(); notice != "" {
			fmt.Fprintf(out, "\n%s\n", notice)
		}
	})
	return sh
}

func (sh *shell) run(ctx context.Context) error {
	defer sh.sess.Unload()

	fmt.Fprintln(sh.out, "Type help for a list of commands.")
	for {
		sh.prompt()
		if !sh.in.Scan() {
			return sh.in.Err()
		}
		sh.sess.Activity(session.KeyPress)

		fields := strings.Fields(sh.in.Text())
		if len(fields) == 0 {
			continue
		}

		cmd, args := strings.ToLower(fields[0]), fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		if err := sh.dispatch(ctx, cmd, args); err != nil {
			fmt.Fprintf(sh.out, "Error: %s\n", describe(err))
		}
	}
}

func (sh *shell) prompt() {
	if sh.sess.Active() {
		if u, ok := sh.sess.User(); ok && u.Email != "" {
			fmt.Fprintf(sh.out, "%s> ", u.Email)
			return
		}
		fmt.Fprint(sh.out, "fintrack> ")
		return
	}
	fmt.Fprint(sh.out, "login> ")
}

func (sh *shell) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		fmt.Fprintln(sh.out, shellHelp)
		return nil
	case "login":
		return sh.login(ctx, args)
	}

	if !sh.sess.Active() {
		return session.ErrNotAuthenticated
	}

	switch cmd {
	case "list":
		return sh.list(args)
	case "add":
		return sh.add(ctx, args)
	case "delete":
		if len(args) != 1 {
			return errors.New("usage: delete <id>")
		}
		if err := sh.sess.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(sh.out, "Transaction deleted")
		return nil
	case "summary":
		v, err := sh.view(args)
		if err != nil {
			return err
		}
		printSummary(sh.out, v)
		return nil
	case "export":
		return sh.export(args)
	case "refresh":
		if err := sh.sess.Refresh(ctx); err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "%d transactions loaded\n", sh.sess.Store().Len())
		return nil
	case "logout":
		sh.sess.Logout(ctx)
		fmt.Fprintln(sh.out, "Logged out")
		return nil
	}
	return fmt.Errorf("unknown command %q, type help", cmd)
}

func (sh *shell) login(ctx context.Context, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New("usage: login <email> <password> [otp]")
	}
	var otp string
	if len(args) == 3 {
		otp = args[2]
	}

	_, err := sh.sess.Login(ctx, args[0], args[1], otp)
	if errors.Is(err, session.ErrMFARequired) {
		return errors.New("this account needs a one-time code: login <email> <password> <otp>")
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "Welcome. %d transactions loaded\n", sh.sess.Store().Len())
	return nil
}

func (sh *shell) list(args []string) error {
	v, err := sh.view(args)
	if err != nil {
		return err
	}
	if len(v.Transactions) == 0 {
		fmt.Fprintln(sh.out, "No transactions")
		return nil
	}
	printTransactions(sh.out, v.Transactions)
	return nil
}

func (sh *shell) add(ctx context.Context, args []string) error {
	if len(args) < 4 {
		return errors.New("usage: add <income|expense> <amount> <category> <date|today> [every=<type>] [description...]")
	}

	t := ledger.Transaction{
		Type:     ledger.Type(strings.ToLower(args[0])),
		Amount:   ledger.ParseAmount(args[1]),
		Category: args[2],
		Date:     sh.parseDate(args[3]),
	}

	rest := args[4:]
	if len(rest) > 0 {
		if every, ok := strings.CutPrefix(rest[0], "every="); ok {
			t.Recurrence = &ledger.Recurrence{Type: ledger.RecurrenceType(strings.ToLower(every))}
			rest = rest[1:]
		}
	}
	t.Description = strings.Join(rest, " ")

	created, err := sh.sess.Add(ctx, t)
	if err != nil {
		return err
	}

	fmt.Fprintf(sh.out, "Added %s\n", created.ID)
	if sh.sess.OverBudget(created) {
		fmt.Fprintf(sh.out, "Budget notice: this expense of %s is above your budget\n", created.Amount)
	}
	return nil
}

func (sh *shell) export(args []string) error {
	if len(args) < 1 {
		return errors.New("usage: export <file> [filters]")
	}
	v, err := sh.view(args[1:])
	if err != nil {
		return err
	}

	f, err := os.Create(args[0])
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
	fmt.Fprintf(sh.out, "Exported %d transactions to %s\n", len(v.Transactions), args[0])
	return nil
}

func (sh *shell) view(args []string) (session.View, error) {
	flags, err := parseViewArgs(args)
	if err != nil {
		return session.View{}, err
	}
	filter, order, err := flags.states()
	if err != nil {
		return session.View{}, err
	}
	return sh.sess.View(filter, order)
}

func (sh *shell) parseDate(s string) ledger.Date {
	if strings.EqualFold(s, "today") {
		return ledger.DateOf(sh.now())
	}
	return ledger.ParseDate(s)
}

// parseViewArgs reads key=value filter and sort arguments
func parseViewArgs(args []string) (viewFlags, error) {
	var v viewFlags
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return viewFlags{}, fmt.Errorf("expected key=value, got %q", arg)
		}
		switch strings.ToLower(key) {
		case "category":
			v.Category = value
		case "period":
			v.Period = value
		case "start":
			v.Start = value
		case "end":
			v.End = value
		case "sort":
			v.Sort = value
		case "direction":
			v.Direction = value
		default:
			return viewFlags{}, fmt.Errorf("unknown option %q", key)
		}
	}
	return v, nil
}

func printTransactions(w io.Writer, txs []ledger.Transaction) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTYPE\tCATEGORY\tAMOUNT\tDESCRIPTION\tREPEATS")
	for _, t := range txs {
		var repeats string
		if r := t.Recurrence; r != nil {
			repeats = fmt.Sprintf("%s, next %s", r.Type, r.NextDueDate.Label())
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Date.Label(), t.Type.Label(), t.Category, t.Amount, t.Description, repeats)
	}
	tw.Flush()
}

// describe turns backend and session errors into one readable line
func describe(err error) string {
	var apiErr *client.APIError
	var verr *ledger.ValidationError
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return "not logged in"
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &apiErr):
		return apiErr.Message
	}
	return err.Error()
}
