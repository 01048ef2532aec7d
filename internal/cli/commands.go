package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/google/subcommands"

	"zandaka/internal/core"
	"zandaka/internal/holiday"
	"zandaka/internal/services"
	"zandaka/internal/storage/memory"
)

// DefaultStateFile is the ledger file used when -state is not given.
const DefaultStateFile = "zandaka.json"

// Env is where the subcommands write and what day they think it is.
type Env struct {
	Out   io.Writer
	Err   io.Writer
	Today func() core.Date
}

// DefaultEnv writes to the standard streams and uses the local date.
func DefaultEnv() Env {
	return Env{Out: os.Stdout, Err: os.Stderr, Today: core.Today}
}

// Register adds the ledger subcommands to c.
func Register(c *subcommands.Commander, env Env) {
	if env.Today == nil {
		env.Today = core.Today
	}
	c.Register(&addCmd{env: env}, "ledger")
	c.Register(&listCmd{env: env}, "ledger")
	c.Register(&rmCmd{env: env}, "ledger")
	c.Register(&clearCmd{env: env}, "ledger")
	c.Register(&settingsCmd{env: env}, "ledger")
	c.Register(&exportCmd{env: env}, "ledger")

	c.Register(&projectCmd{env: env}, "forecast")
	c.Register(&monthlyCmd{env: env}, "forecast")
	c.Register(&plannedCmd{env: env}, "forecast")
	c.Register(&holidaysCmd{env: env}, "forecast")
}

// ledgerFlags is the -state flag every ledger command shares.
type ledgerFlags struct {
	state string
}

func (l *ledgerFlags) register(f *flag.FlagSet) {
	f.StringVar(&l.state, "state", DefaultStateFile, "Path to the ledger JSON file")
}

func (l *ledgerFlags) open(env Env) (*services.LedgerService, error) {
	store, err := memory.NewFromFile(l.state)
	if err != nil {
		return nil, err
	}
	return services.NewLedgerService(store, nil).WithClock(env.Today), nil
}

func fail(env Env, err error) subcommands.ExitStatus {
	fmt.Fprintln(env.Err, err)
	return subcommands.ExitFailure
}

func parseDateFlag(name, s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return core.Date{}, fmt.Errorf("-%s: %w", name, err)
	}
	return d, nil
}

func dateOrDash(d core.Date) string {
	if d.IsZero() {
		return "-"
	}
	return d.String()
}

type addCmd struct {
	env Env
	ledgerFlags
	date      string
	kind      string
	amount    string
	note      string
	recurring bool
	end       string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "add an entry to the ledger" }
func (*addCmd) Usage() string {
	return `zandakactl add -kind <kind> -amount <yen> [-date YYYY-MM-DD] [-note <text>] [-recurring [-end YYYY-MM-DD]]

  Kinds: income, expense, future-small, future-large, snapshot.
  Amounts accept separators and a yen sign ("¥300,000").
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	c.ledgerFlags.register(f)
	f.StringVar(&c.date, "date", "", "Date of the entry; planned expenses may omit it")
	f.StringVar(&c.kind, "kind", "", "Kind of the entry")
	f.StringVar(&c.amount, "amount", "", "Amount in yen")
	f.StringVar(&c.note, "note", "", "Free text note")
	f.BoolVar(&c.recurring, "recurring", false, "Repeat the entry every month")
	f.StringVar(&c.end, "end", "", "Last date of a recurring entry")
}

func (c *addCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	kind, err := core.ParseKind(c.kind)
	if err != nil {
		return fail(c.env, err)
	}
	date, err := parseDateFlag("date", c.date)
	if err != nil {
		return fail(c.env, err)
	}
	end, err := parseDateFlag("end", c.end)
	if err != nil {
		return fail(c.env, err)
	}
	p := core.EntryParams{
		Date:      date,
		Kind:      kind,
		Amount:    core.ToInt(c.amount),
		Note:      c.note,
		Recurring: c.recurring,
	}
	if !end.IsZero() {
		p.EndDate = &end
	}

	ledger, err := c.open(c.env)
	if err != nil {
		return fail(c.env, err)
	}
	e, err := ledger.CreateEntry(ctx, p)
	if err != nil {
		return fail(c.env, err)
	}
	fmt.Fprintln(c.env.Out, e.ID)
	return subcommands.ExitSuccess
}

type listCmd struct {
	env Env
	ledgerFlags
}

func (*listCmd) Name() string     { return "list" }
func (*listCmd) Synopsis() string { return "list the ledger entries in display order" }
func (*listCmd) Usage() string    { return "zandakactl list [-state <file>]\n" }

func (c *listCmd) SetFlags(f *flag.FlagSet) { c.ledgerFlags.register(f) }

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := c.open(c.env)
	if err != nil {
		return fail(c.env, err)
	}
	entries, err := ledger.Entries(ctx)
	if err != nil {
		return fail(c.env, err)
	}
	w := tabwriter.NewWriter(c.env.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tKIND\tAMOUNT\tREPEAT\tNOTE")
	for _, e := range entries {
		repeat := "-"
		if e.Recurring {
			repeat = "monthly"
			if e.EndDate != nil {
				repeat += " until " + e.EndDate.String()
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, dateOrDash(e.Date), e.Kind, core.FormatYen(e.Amount), repeat, e.Note)
	}
	if err := w.Flush(); err != nil {
		return fail(c.env, err)
	}
	return subcommands.ExitSuccess
}

type rmCmd struct {
	env Env
	ledgerFlags
}

func (*rmCmd) Name() string     { return "rm" }
func (*rmCmd) Synopsis() string { return "delete entries by id" }
func (*rmCmd) Usage() string    { return "zandakactl rm [-state <file>] <id>...\n" }

func (c *rmCmd) SetFlags(f *flag.FlagSet) { c.ledgerFlags.register(f) }

func (c *rmCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(c.env.Err, c.Usage())
		return subcommands.ExitUsageError
	}
	ledger, err := c.open(c.env)
	if err != nil {
		return fail(c.env, err)
	}
	for _, id := range f.Args() {
		if err := ledger.DeleteEntry(ctx, id); err != nil {
			return fail(c.env, fmt.Errorf("%s: %w", id, err))
		}
	}
	return subcommands.ExitSuccess
}

type clearCmd struct {
	env Env
	ledgerFlags
	yes bool
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "delete every entry" }
func (*clearCmd) Usage() string    { return "zandakactl clear -yes [-state <file>]\n" }

func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	c.ledgerFlags.register(f)
	f.BoolVar(&c.yes, "yes", false, "Confirm deleting every entry")
}

func (c *clearCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := c.open(c.env)
	if err != nil {
		return fail(c.env, err)
	}
	n, err := ledger.ClearEntries(ctx, c.yes)
	if err != nil {
		return fail(c.env, fmt.Errorf("%w (pass -yes)", err))
	}
	fmt.Fprintf(c.env.Out, "deleted %d entries\n", n)
	return subcommands.ExitSuccess
}

type settingsCmd struct {
	env Env
	ledgerFlags
	baseDate   string
	baseAmount string
	from       string
	to         string
	lang       string
}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "show or change the base balance and the range" }
func (*settingsCmd) Usage() string {
	return "zandakactl settings [-base-date D] [-base-amount yen] [-from D] [-to D] [-lang L]\n"
}

func (c *settingsCmd) SetFlags(f *flag.FlagSet) {
	c.ledgerFlags.register(f)
	f.StringVar(&c.baseDate, "base-date", "", "Date the base balance is known on")
	f.StringVar(&c.baseAmount, "base-amount", "", "Known balance in yen")
	f.StringVar(&c.from, "from", "", "First day of the projection range")
	f.StringVar(&c.to, "to", "", "Last day of the projection range")
	f.StringVar(&c.lang, "lang", "", "Display language")
}

func (c *settingsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var (
		patch   core.SettingsPatch
		changed bool
	)
	dates := []struct {
		name string
		in   string
		out  **core.Date
	}{
		{"base-date", c.baseDate, &patch.BaseDate},
		{"from", c.from, &patch.RangeStart},
		{"to", c.to, &patch.RangeEnd},
	}
	for _, d := range dates {
		v, err := parseDateFlag(d.name, d.in)
		if err != nil {
			return fail(c.env, err)
		}
		if !v.IsZero() {
			*d.out = &v
			changed = true
		}
	}
	if c.baseAmount != "" {
		amount := core.ToInt(c.baseAmount)
		patch.BaseAmount = &amount
		changed = true
	}
	if c.lang != "" {
		patch.Lang = &c.lang
		changed = true
	}

	ledger, err := c.open(c.env)
	if err != nil {
		return fail(c.env, err)
	}
	var s core.Settings
	if !changed {
		st, err := ledger.State(ctx)
		if err != nil {
			return fail(c.env, err)
		}
		s = st.Settings
	} else if s, err = ledger.UpdateSettings(ctx, patch); err != nil {
		return fail(c.env, err)
	}
	fmt.Fprintf(c.env.Out, "base:  %s on %s\nrange: %s .. %s\nlang:  %s\n",
		core.FormatYen(s.BaseAmount), s.BaseDate, s.RangeStart, s.RangeEnd, s.Lang)
	return subcommands.ExitSuccess
}

type exportCmd struct {
	env Env
	ledgerFlags
	output string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "write the ledger as indented JSON" }
func (*exportCmd) Usage() string {
	return `zandakactl export [-o <file>]

  Without -o the JSON goes to stdout. "-o ." writes zandaka-YYYY-MM-DD.json
  in the current directory.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	c.ledgerFlags.register(f)
	f.StringVar(&c.output, "o", "", "Output file")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := c.open(c.env)
	if err != nil {
		return fail(c.env, err)
	}
	st, err := ledger.State(ctx)
	if err != nil {
		return fail(c.env, err)
	}
	st.Entries = core.SortEntries(st.Entries)

	if c.output == "" {
		if err := st.Export(c.env.Out); err != nil {
			return fail(c.env, err)
		}
		return subcommands.ExitSuccess
	}
	path := c.output
	if path == "." {
		path = core.ExportFileName(c.env.Today())
	}
	out, err := os.Create(path)
	if err != nil {
		return fail(c.env, err)
	}
	if err := st.Export(out); err != nil {
		out.Close()
		return fail(c.env, err)
	}
	if err := out.Close(); err != nil {
		return fail(c.env, err)
	}
	fmt.Fprintf(c.env.Out, "wrote %s\n", path)
	return subcommands.ExitSuccess
}

// rangeFlags overrides the stored projection range for one run.
type rangeFlags struct {
	from string
	to   string
}

func (r *rangeFlags) register(f *flag.FlagSet) {
	f.StringVar(&r.from, "from", "", "First day of the range (default: stored setting)")
	f.StringVar(&r.to, "to", "", "Last day of the range (default: stored setting)")
}

func (r *rangeFlags) apply(st *core.State) error {
	from, err := parseDateFlag("from", r.from)
	if err != nil {
		return err
	}
	to, err := parseDateFlag("to", r.to)
	if err != nil {
		return err
	}
	if !from.IsZero() {
		st.RangeStart = from
	}
	if !to.IsZero() {
		st.RangeEnd = to
	}
	return nil
}

type projectCmd struct {
	env Env
	ledgerFlags
	rangeFlags
}

func (*projectCmd) Name() string     { return "project" }
func (*projectCmd) Synopsis() string { return "print the day-by-day balance forecast" }
func (*projectCmd) Usage() string {
	return `zandakactl project [-from D] [-to D]

  Lists every dated movement in the range with the balance after each day.
  Recurring entries falling on a weekend or holiday are moved to a business
  day: income earlier, expenses later.
`
}

func (c *projectCmd) SetFlags(f *flag.FlagSet) {
	c.ledgerFlags.register(f)
	c.rangeFlags.register(f)
}

func (c *projectCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	report, err := c.report(ctx)
	if err != nil {
		return fail(c.env, err)
	}
	fmt.Fprintf(c.env.Out, "Base %s", core.FormatYen(report.Base.Amount))
	if report.Base.Date != nil {
		fmt.Fprintf(c.env.Out, " on %s", report.Base.Date)
	}
	fmt.Fprintf(c.env.Out, ", range %s .. %s\n", report.RangeStart, report.RangeEnd)

	w := tabwriter.NewWriter(c.env.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tKIND\tAMOUNT\tNOTE\tBALANCE")
	for _, d := range report.Days {
		for i, it := range d.Items {
			balance := ""
			if i == len(d.Items)-1 {
				balance = core.FormatYen(d.BalanceAfter)
			}
			amount := core.FormatYen(it.Amount)
			if it.Kind.Sign() < 0 {
				amount = "-" + amount
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", d.Date, it.Kind, amount, it.Note, balance)
		}
	}
	if err := w.Flush(); err != nil {
		return fail(c.env, err)
	}
	return subcommands.ExitSuccess
}

func (c *projectCmd) report(ctx context.Context) (services.Report, error) {
	st, err := loadState(ctx, c.env, c.ledgerFlags)
	if err != nil {
		return services.Report{}, err
	}
	if err := c.rangeFlags.apply(&st); err != nil {
		return services.Report{}, err
	}
	return services.BuildReport(st, holiday.NewYearCache()), nil
}

func loadState(ctx context.Context, env Env, l ledgerFlags) (core.State, error) {
	ledger, err := l.open(env)
	if err != nil {
		return core.State{}, err
	}
	return ledger.State(ctx)
}

type monthlyCmd struct {
	env Env
	ledgerFlags
	rangeFlags
	recurring string
}

func (*monthlyCmd) Name() string     { return "monthly" }
func (*monthlyCmd) Synopsis() string { return "print income, expense and end balance per month" }
func (*monthlyCmd) Usage() string {
	return `zandakactl monthly [-from D] [-to D] [-recurring=true|false]

  Snapshots reset the running balance. -recurring overrides the stored
  choice of counting recurring entries.
`
}

func (c *monthlyCmd) SetFlags(f *flag.FlagSet) {
	c.ledgerFlags.register(f)
	c.rangeFlags.register(f)
	f.StringVar(&c.recurring, "recurring", "", "Count recurring entries (default: stored setting)")
}

func (c *monthlyCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	st, err := loadState(ctx, c.env, c.ledgerFlags)
	if err != nil {
		return fail(c.env, err)
	}
	if err := c.rangeFlags.apply(&st); err != nil {
		return fail(c.env, err)
	}
	if c.recurring != "" {
		include, err := strconv.ParseBool(c.recurring)
		if err != nil {
			return fail(c.env, fmt.Errorf("-recurring: %w", err))
		}
		st.ShowRecurringInMonthly = include
	}
	report := services.BuildReport(st, holiday.NewYearCache())

	w := tabwriter.NewWriter(c.env.Out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "MONTH\tINCOME\tEXPENSE\tEND BALANCE\t")
	for _, m := range report.MonthlyView {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			m.Month, core.FormatYen(m.Income), core.FormatYen(m.Expense), core.FormatYen(m.EndBalance))
	}
	if err := w.Flush(); err != nil {
		return fail(c.env, err)
	}
	return subcommands.ExitSuccess
}

type plannedCmd struct {
	env Env
	ledgerFlags
}

func (*plannedCmd) Name() string     { return "planned" }
func (*plannedCmd) Synopsis() string { return "list planned expenses and their total" }
func (*plannedCmd) Usage() string    { return "zandakactl planned [-state <file>]\n" }

func (c *plannedCmd) SetFlags(f *flag.FlagSet) { c.ledgerFlags.register(f) }

func (c *plannedCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	st, err := loadState(ctx, c.env, c.ledgerFlags)
	if err != nil {
		return fail(c.env, err)
	}
	planned := services.BuildReport(st, holiday.NewYearCache()).Planned

	w := tabwriter.NewWriter(c.env.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tKIND\tAMOUNT\tNOTE")
	for _, e := range planned.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", dateOrDash(e.Date), e.Kind, core.FormatYen(e.Amount), e.Note)
	}
	fmt.Fprintf(w, "TOTAL\t\t%s\t\n", core.FormatYen(planned.Total))
	if err := w.Flush(); err != nil {
		return fail(c.env, err)
	}
	return subcommands.ExitSuccess
}

type holidaysCmd struct {
	env  Env
	year int
}

func (*holidaysCmd) Name() string     { return "holidays" }
func (*holidaysCmd) Synopsis() string { return "list the Japanese public holidays of a year" }
func (*holidaysCmd) Usage() string    { return "zandakactl holidays [-year YYYY]\n" }

func (c *holidaysCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Year to list (default: this year)")
}

func (c *holidaysCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	year := c.year
	if year == 0 {
		year = c.env.Today().Year()
	}
	for _, d := range holiday.ForYear(year).Sorted() {
		fmt.Fprintf(c.env.Out, "%s  %s\n", d, d.Weekday().String()[:3])
	}
	return subcommands.ExitSuccess
}
