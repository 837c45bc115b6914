package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"text/tabwriter"

	"github.com/Majid760/xpensemate-sub000/src/api"
	"github.com/Majid760/xpensemate-sub000/src/config"
	"github.com/Majid760/xpensemate-sub000/src/events"
	"github.com/Majid760/xpensemate-sub000/src/insights"
	"github.com/Majid760/xpensemate-sub000/src/logger"
	"github.com/Majid760/xpensemate-sub000/src/models"
	"github.com/Majid760/xpensemate-sub000/src/mutation"
	"github.com/Majid760/xpensemate-sub000/src/notify"
	"github.com/Majid760/xpensemate-sub000/src/security"
	"github.com/Majid760/xpensemate-sub000/src/views"
	"github.com/shopspring/decimal"
)

var errUsage = errors.New("invalid arguments, run without arguments for usage")

func issueToken(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if config.Cfg.APITokenFile == "" {
		return errors.New("API_TOKEN_FILE is not set")
	}
	auth, err := security.NewAuthService(config.Cfg.JWTSecret)
	if err != nil {
		return err
	}
	token, err := auth.IssueToken(args[0], config.Cfg.TokenExpiry)
	if err != nil {
		return err
	}
	if err := api.NewFileTokenStore(config.Cfg.APITokenFile).Save(token); err != nil {
		return err
	}
	fmt.Printf("Token for %s saved to %s (expires in %s)\n", args[0], config.Cfg.APITokenFile, config.Cfg.TokenExpiry)
	return nil
}

func tokenSource() api.TokenSource {
	if config.Cfg.APIToken != "" {
		return api.StaticToken(config.Cfg.APIToken)
	}
	if config.Cfg.APITokenFile != "" {
		return api.NewFileTokenStore(config.Cfg.APITokenFile)
	}
	return api.StaticToken("")
}

func newClient() (*api.Client, error) {
	return api.NewClient(config.Cfg.APIBaseURL,
		api.WithTokenSource(tokenSource()),
		api.WithTimeout(config.Cfg.RequestTimeout),
		api.WithRateLimit(config.Cfg.RequestRate, config.Cfg.RequestBurst),
		api.WithUnauthorizedHandler(func(ctx context.Context, err *api.APIError) {
			logger.FromContext(ctx).Warn("Request unauthorized", "status", err.Status, "message", err.Message)
			fmt.Fprintln(os.Stderr, config.Cfg.UnauthorizedHint)
		}),
	)
}

// session holds the views of one command run, sharing a bus.
type session struct {
	client *api.Client
	bus    *events.Bus
	deps   views.Deps
}

func newSession() (*session, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	bus := events.NewBus()
	return &session{
		client: client,
		bus:    bus,
		deps: views.Deps{
			Bus:             bus,
			PerPage:         config.Cfg.PageSize,
			NotificationTTL: config.Cfg.NotificationTTL,
			OnTransition: func(t mutation.Transition) {
				logger.L.Debug("Mutation transition", "op", t.Op, "key", t.Key, "from", t.From.String(), "to", t.To.String())
			},
		},
	}, nil
}

func printNotices(e *notify.Emitter) {
	e.OnChange(func(n notify.Notification, active bool) {
		if active {
			fmt.Printf("[%s] %s\n", n.Severity, n.Message)
		}
	})
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func parsePage(args []string, i int) (int, error) {
	if len(args) <= i {
		return 1, nil
	}
	page, err := strconv.Atoi(args[i])
	if err != nil || page < 1 {
		return 0, fmt.Errorf("invalid page %q", args[i])
	}
	return page, nil
}

func runList(args []string) error {
	if len(args) < 1 {
		return errUsage
	}
	page, err := parsePage(args, 1)
	if err != nil {
		return err
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	switch args[0] {
	case "expenses":
		v, err := views.NewExpenses(api.NewRepository(s.client, api.Expenses), s.deps)
		if err != nil {
			return err
		}
		defer v.Close()
		if err := v.LoadPage(ctx, page); err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tDATE\tNAME\tCATEGORY\tAMOUNT\tGOAL")
		for _, e := range v.Records.Records() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date, e.Name, e.Category, e.Amount.StringFixed(2), e.BudgetGoalID)
		}
		fmt.Fprintf(w, "page %d, %d total\n", v.Records.Page(), v.Records.Total())
	case "budget-goals":
		v, err := views.NewBudgetGoals(api.NewRepository(s.client, api.BudgetGoals), s.deps)
		if err != nil {
			return err
		}
		defer v.Close()
		if err := v.LoadPage(ctx, page); err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tDEADLINE\tNAME\tCATEGORY\tTARGET\tPRIORITY\tSTATUS")
		for _, g := range v.Records.Records() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", g.ID, g.Date, g.Name, g.Category, g.Amount.StringFixed(2), g.Priority, g.Status)
		}
		fmt.Fprintf(w, "page %d, %d total\n", v.Records.Page(), v.Records.Total())
	case "payments":
		v, err := views.NewPayments(api.NewRepository(s.client, api.Payments), s.deps)
		if err != nil {
			return err
		}
		defer v.Close()
		if err := v.LoadPage(ctx, page); err != nil {
			return err
		}
		fmt.Fprintln(w, "ID\tDATE\tNAME\tPAYER\tTYPE\tAMOUNT")
		for _, p := range v.Records.Records() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Date, p.Name, p.PayerName, p.PaymentType, p.Amount.StringFixed(2))
		}
		fmt.Fprintf(w, "page %d, %d total\n", v.Records.Page(), v.Records.Total())
	default:
		return fmt.Errorf("unknown resource %q", args[0])
	}
	return nil
}

func runAddExpense(args []string) error {
	if len(args) < 4 || len(args) > 5 {
		return errUsage
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", args[1], err)
	}
	date, err := models.ParseDate(args[2])
	if err != nil {
		return err
	}
	exp := models.Expense{Name: args[0], Amount: amount, Date: date, Category: args[3]}
	if len(args) == 5 {
		exp.BudgetGoalID = args[4]
	}

	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	v, err := views.NewExpenses(api.NewRepository(s.client, api.Expenses), s.deps)
	if err != nil {
		return err
	}
	defer v.Close()
	printNotices(v.Notices)
	if err := v.LoadPage(ctx, 1); err != nil {
		logger.L.Warn("Could not load expenses before create", "error", err)
	}
	created, err := v.Create(ctx, exp)
	if err != nil {
		return err
	}
	fmt.Printf("created %s, %d expenses total\n", created.ID, v.Records.Total())
	return nil
}

func runSetStatus(args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	page, err := parsePage(args, 2)
	if err != nil {
		return err
	}
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	v, err := views.NewBudgetGoals(api.NewRepository(s.client, api.BudgetGoals), s.deps)
	if err != nil {
		return err
	}
	defer v.Close()
	printNotices(v.Notices)
	if err := v.LoadPage(ctx, page); err != nil {
		return err
	}
	_, err = v.SetStatus(ctx, args[0], models.GoalStatus(args[1]))
	return err
}

func runDelete(args []string) error {
	page := 1
	if len(args) >= 2 && args[1] == "-page" {
		if len(args) < 3 {
			return errUsage
		}
		p, err := parsePage(args, 2)
		if err != nil {
			return err
		}
		page = p
		args = append(args[:1:1], args[3:]...)
	}
	if len(args) < 2 {
		return errUsage
	}
	resource, ids := args[0], args[1:]

	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	type deleter interface {
		LoadPage(ctx context.Context, page int) error
		DeleteBatch(ctx context.Context, ids []string) error
		Close()
	}
	var (
		v       deleter
		notices *notify.Emitter
	)
	switch resource {
	case "expenses":
		ev, err := views.NewExpenses(api.NewRepository(s.client, api.Expenses), s.deps)
		if err != nil {
			return err
		}
		v, notices = ev, ev.Notices
	case "budget-goals":
		gv, err := views.NewBudgetGoals(api.NewRepository(s.client, api.BudgetGoals), s.deps)
		if err != nil {
			return err
		}
		v, notices = gv, gv.Notices
	case "payments":
		pv, err := views.NewPayments(api.NewRepository(s.client, api.Payments), s.deps)
		if err != nil {
			return err
		}
		v, notices = pv, pv.Notices
	default:
		return fmt.Errorf("unknown resource %q", resource)
	}
	defer v.Close()
	printNotices(notices)

	if err := v.LoadPage(ctx, page); err != nil {
		return err
	}
	return v.DeleteBatch(ctx, ids)
}

func runInsights() error {
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	panel := insights.NewPanel(insights.RepoSource{
		ExpenseRepo: api.NewRepository(s.client, api.Expenses),
		GoalRepo:    api.NewRepository(s.client, api.BudgetGoals),
		Limit:       100,
	}, s.bus)
	defer panel.Close()
	if err := panel.Refresh(ctx); err != nil {
		return err
	}

	sum := panel.Summary()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Total spent:\t%s\n", sum.Total.StringFixed(2))
	fmt.Fprintf(w, "Week over week:\t%s\n", sum.WeekOverWeek.StringFixed(2))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "GOAL\tPRIORITY\tSPENT\tTARGET\tPROGRESS")
	for _, g := range sum.Goals {
		flag := ""
		if g.Exceeded {
			flag = " (exceeded)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s%%%s\n", g.Goal.Name, g.Goal.Priority, g.Spent.StringFixed(2), g.Goal.Amount.StringFixed(2), g.Percent.StringFixed(2), flag)
	}
	fmt.Fprintln(w)
	printCategories(w, sum.ByCategory)
	return nil
}

// printCategories writes the category table sorted by name.
func printCategories(w io.Writer, byCategory map[string]decimal.Decimal) {
	fmt.Fprintln(w, "CATEGORY\tSPENT")
	for _, cat := range slices.Sorted(maps.Keys(byCategory)) {
		fmt.Fprintf(w, "%s\t%s\n", cat, byCategory[cat].StringFixed(2))
	}
}
