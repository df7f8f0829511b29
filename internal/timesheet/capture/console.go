// Package capture is the line-oriented capture console: it reads commands,
// applies them to a Navigator and renders the current day.
package capture

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/medflow/timesheet/internal/timesheet/domain"
	"github.com/medflow/timesheet/internal/timesheet/export"
	"github.com/medflow/timesheet/internal/timesheet/navigator"
	"github.com/medflow/timesheet/pkg/errors"
	"github.com/medflow/timesheet/pkg/i18n"
	"github.com/medflow/timesheet/pkg/logger"
	"github.com/shopspring/decimal"
)

const prompt = "timesheet> "

const helpText = `Commands:
  range <start> <end>                       confirm a date range (YYYY-MM-DD)
  shift day|night                           set the shift
  in <HH:mm> / out <HH:mm>                  set the time in / time out
  task <slot> <hours> <job> <class|-> <description...>
                                            fill a task slot (slot n+1 adds one)
  extra <hours> <job> <class|-> <description...> | extra none
                                            set or remove the extra task
  clear <slot>                              blank a task slot
  check                                     run the save gate
  next / prev                               save and advance / go back
  save                                      save the current day
  show                                      redraw the current day
  jobs                                      list the job catalog
  export                                    write the report of the visited days
  quit                                      leave
`

// Config is the report and display identity of a capture session
type Config struct {
	EmployeeName string
	CompanyName  string
	OutputDir    string
	Locale       string
	SheetName    string
}

// Console reads commands from in and writes the rendered state to out
type Console struct {
	nav    *navigator.Navigator
	cfg    Config
	in     *bufio.Scanner
	out    io.Writer
	styles styles
	l      *i18n.Localizer
	logger *logger.Logger
}

// NewConsole creates a console over nav
func NewConsole(nav *navigator.Navigator, cfg Config, in io.Reader, out io.Writer, log *logger.Logger) *Console {
	return &Console{
		nav:    nav,
		cfg:    cfg,
		in:     bufio.NewScanner(in),
		out:    out,
		styles: newStyles(out),
		l:      i18n.NewLocalizer(cfg.Locale),
		logger: log.WithComponent("capture"),
	}
}

// Run executes commands until quit or end of input
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprint(c.out, helpText)
	for {
		fmt.Fprint(c.out, prompt)
		if !c.in.Scan() {
			fmt.Fprintln(c.out)
			return c.in.Err()
		}

		quit, err := c.Execute(ctx, c.in.Text())
		if err != nil {
			c.printError(err)
		}
		if quit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}

// Execute runs one command line. quit reports whether the session should end.
func (c *Console) Execute(ctx context.Context, line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprint(c.out, helpText)
		return false, nil
	case "range":
		return false, c.confirmRange(ctx, args)
	case "shift":
		return false, c.setShift(args)
	case "in", "out":
		return false, c.setTime(cmd, args)
	case "task":
		return false, c.setTask(args)
	case "extra":
		return false, c.setExtra(args)
	case "clear":
		return false, c.clearTask(args)
	case "check":
		return false, c.check()
	case "next":
		return false, c.advance(ctx)
	case "prev":
		return false, c.retreat(ctx)
	case "save":
		return false, c.save(ctx)
	case "show":
		return false, c.show()
	case "jobs":
		RenderJobs(c.out, c.nav.Catalog().Jobs())
		return false, nil
	case "export":
		return false, c.export()
	default:
		return false, fmt.Errorf("unknown command %q, type help for the list", cmd)
	}
}

func (c *Console) confirmRange(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: range <start> <end>")
	}
	rng, err := domain.NewDateRange(args[0], args[1])
	if err != nil {
		return err
	}

	status, err := c.nav.ConfirmRange(ctx, rng)
	if status == navigator.StatusError {
		// the range stays confirmed when only the first day failed to load
		c.printError(err)
		return c.show()
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s\n", c.styles.muted.Render(fmt.Sprintf("%s confirmed, %d day(s)", rng, rng.Len())))
	return c.show()
}

func (c *Console) setShift(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: shift day|night")
	}
	shift, err := domain.ParseShift(args[0])
	if err != nil {
		return err
	}
	return c.edit(func(rec *domain.DayRecord) error {
		rec.Shift = shift
		return nil
	})
}

func (c *Console) setTime(which string, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: %s <HH:mm>", which)
	}
	t, err := domain.ParseTimeOfDay(args[0])
	if err != nil {
		return err
	}
	return c.edit(func(rec *domain.DayRecord) error {
		if which == "in" {
			rec.TimeIn = &t
		} else {
			rec.TimeOut = &t
		}
		return nil
	})
}

func (c *Console) setTask(args []string) error {
	if len(args) < 5 {
		return fmt.Errorf("usage: task <slot> <hours> <job> <class|-> <description...>")
	}
	slot, err := strconv.Atoi(args[0])
	if err != nil || slot < 1 {
		return fmt.Errorf("invalid task slot %q", args[0])
	}
	task, err := c.parseTask(args[1:])
	if err != nil {
		return err
	}
	return c.edit(func(rec *domain.DayRecord) error {
		return rec.SetTask(slot-1, task)
	})
}

func (c *Console) setExtra(args []string) error {
	if len(args) == 1 && strings.EqualFold(args[0], "none") {
		return c.edit(func(rec *domain.DayRecord) error {
			rec.SetExtraTask(nil)
			return nil
		})
	}
	if len(args) < 4 {
		return fmt.Errorf("usage: extra <hours> <job> <class|-> <description...> | extra none")
	}
	task, err := c.parseTask(args)
	if err != nil {
		return err
	}
	return c.edit(func(rec *domain.DayRecord) error {
		rec.SetExtraTask(&task)
		return nil
	})
}

func (c *Console) clearTask(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: clear <slot>")
	}
	slot, err := strconv.Atoi(args[0])
	if err != nil || slot < 1 {
		return fmt.Errorf("invalid task slot %q", args[0])
	}
	return c.edit(func(rec *domain.DayRecord) error {
		return rec.ClearTask(slot - 1)
	})
}

// parseTask reads <hours> <job> <class|-> <description...>
func (c *Console) parseTask(args []string) (domain.Task, error) {
	hours, err := decimal.NewFromString(args[0])
	if err != nil {
		return domain.Task{}, fmt.Errorf("invalid hours %q", args[0])
	}
	job, ok := c.resolveJob(args[1])
	if !ok {
		return domain.Task{}, errors.NotFound("job")
	}
	class := args[2]
	if class == export.Placeholder {
		class = ""
	}
	return domain.Task{
		Description: strings.Join(args[3:], " "),
		Hours:       decimal.NewNullDecimal(hours),
		JobID:       job.ID,
		ClassCode:   class,
	}, nil
}

// resolveJob accepts a job ID or a job number
func (c *Console) resolveJob(ref string) (domain.Job, bool) {
	catalog := c.nav.Catalog()
	if job, ok := catalog.Lookup(ref); ok {
		return job, true
	}
	for _, job := range catalog.Jobs() {
		if strings.EqualFold(job.JobNumber, ref) {
			return job, true
		}
	}
	return domain.Job{}, false
}

func (c *Console) edit(fn func(rec *domain.DayRecord) error) error {
	if err := c.nav.Edit(fn); err != nil {
		return err
	}
	return c.show()
}

func (c *Console) check() error {
	res, err := c.nav.Check()
	if err != nil {
		return err
	}
	fmt.Fprint(c.out, renderResult(c.styles, c.l, res))
	return nil
}

func (c *Console) advance(ctx context.Context) error {
	res, err := c.nav.Advance(ctx)
	if stderrors.Is(err, navigator.ErrDayIncomplete) {
		fmt.Fprint(c.out, renderResult(c.styles, c.l, res))
		return err
	}
	if err != nil {
		return err
	}
	return c.show()
}

func (c *Console) retreat(ctx context.Context) error {
	if _, err := c.nav.Retreat(ctx); err != nil {
		return err
	}
	return c.show()
}

func (c *Console) save(ctx context.Context) error {
	res, err := c.nav.Save(ctx)
	if stderrors.Is(err, navigator.ErrDayIncomplete) {
		fmt.Fprint(c.out, renderResult(c.styles, c.l, res))
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, c.styles.ok.Render("Day saved"))
	return nil
}

func (c *Console) show() error {
	day, err := c.nav.Current()
	if err != nil {
		return err
	}
	fmt.Fprint(c.out, renderDay(c.styles, c.l, day, c.nav.Catalog()))
	return nil
}

// export writes the report of every visited day of the confirmed range
func (c *Console) export() error {
	rng, ok := c.nav.Range()
	if !ok {
		return navigator.ErrNoRange
	}

	data, err := export.Generate(export.Input{
		EmployeeName: c.cfg.EmployeeName,
		CompanyName:  c.cfg.CompanyName,
		PeriodStart:  rng.Start.String(),
		PeriodEnd:    rng.End.String(),
		Records:      c.nav.Records(),
		Jobs:         c.nav.Catalog(),
		Locale:       c.l.Locale(),
		SheetName:    c.cfg.SheetName,
	})
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	path := filepath.Join(c.cfg.OutputDir, export.Filename(c.cfg.EmployeeName, rng.Start.String(), rng.End.String()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	c.logger.Info().Str("path", path).Msg("report written")
	fmt.Fprintln(c.out, c.styles.ok.Render("Report written to "+path))
	return nil
}

func (c *Console) printError(err error) {
	var msg string
	var appErr *errors.AppError
	switch {
	case stderrors.Is(err, navigator.ErrTransitionInFlight):
		msg = c.l.T("errors.busy")
	case stderrors.Is(err, navigator.ErrNoRange):
		msg = c.l.T("errors.no_range")
	case stderrors.Is(err, navigator.ErrDayIncomplete):
		msg = c.l.T("errors.day_incomplete")
	case errors.As(err, &appErr) && appErr.MessageKey != "" && appErr.MessageKey != "errors.bad_request":
		msg = appErr.Localize(i18n.WithLocale(context.Background(), c.l.Locale()))
		keys := make([]string, 0, len(appErr.Details))
		for k := range appErr.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			msg += "\n  " + appErr.Details[k]
		}
	default:
		msg = err.Error()
	}
	fmt.Fprintln(c.out, c.styles.err.Render(msg))
}
