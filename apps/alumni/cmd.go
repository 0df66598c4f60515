package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/event"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/membership"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/nav"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/session"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/services/api"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/services/notify"
)

const retryHint = "answer y to retry"

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("you are not logged in")
)

type commandLine struct {
	conf   *core.Config
	logger core.Logger
	store  session.TokenStore
	in     *bufio.Reader
	out    io.Writer

	// set up per command
	client  *apisvc.Client
	ctrl    *session.Controller
	coord   *membership.Coordinator
	events  *event.Service
	router  *nav.HistoryRouter
	watcher *session.RedirectWatcher
	notices *notifysvc.Recorder
	yes     bool
}

func newCommandLine(conf *core.Config, logger core.Logger, store session.TokenStore, in io.Reader, out io.Writer) *commandLine {
	return &commandLine{conf: conf, logger: logger, store: store, in: bufio.NewReader(in), out: out}
}

func (cli *commandLine) printUsage() {
	cli.println("Usage:")
	cli.println("  login -email EMAIL [-redirect PATH]           - log in (the password is prompted)")
	cli.println("  register -first NAME -last NAME -email EMAIL -year YYYY [-phone PHONE] [-redirect PATH]")
	cli.println("                                                - create an account")
	cli.println("  logout                                        - log out")
	cli.println("  whoami                                        - show the logged in alumnus")
	cli.println("  groups                                        - list class groups")
	cli.println("  join -group ID                                - join a class group")
	cli.println("  leave -group ID [-yes]                        - leave a class group")
	cli.println("  events [-category CAT] [-search TEXT] [-group ID] [-upcoming]")
	cli.println("                                                - list events")
	cli.println("  newevent -title TITLE -start DATETIME [...]   - create an event (admins)")
	cli.println("  rmevent -id ID                                - delete an event (admins)")
	cli.println("  open -path PATH [-email EMAIL]                - open a page, logging in first when needed")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	defer cli.teardown()

	rest := args[2:]
	switch args[1] {
	case "login":
		return cli.login(ctx, rest)
	case "register":
		return cli.register(ctx, rest)
	case "logout":
		return cli.logout(ctx, rest)
	case "whoami":
		return cli.whoami(ctx, rest)
	case "groups":
		return cli.groups(ctx, rest)
	case "join":
		return cli.join(ctx, rest)
	case "leave":
		return cli.leave(ctx, rest)
	case "events":
		return cli.listEvents(ctx, rest)
	case "newevent":
		return cli.createEvent(ctx, rest)
	case "rmevent":
		return cli.deleteEvent(ctx, rest)
	case "open":
		return cli.open(ctx, rest)
	default:
		cli.printUsage()
		return errHelp
	}
}

// setup wires the session for one command, starting on page, and restores the stored session.
func (cli *commandLine) setup(ctx context.Context, page string) {
	conf := cli.conf
	cli.notices = notifysvc.NewRecorder(notifysvc.NewConsoleNotifier(cli.out, conf.AppName, retryHint))
	cli.router = nav.NewHistoryRouter(page, func(path string) {
		cli.printf("→ %s\n", path)
	})
	cli.client = apisvc.NewClient(apisvc.Options{
		BaseURL: conf.API.BaseURL,
		Timeout: conf.API.Timeout,
		Logger:  cli.logger,
	})

	validate, translator := core.NewValidator()
	session.InitValidators(validate, translator)
	event.InitValidators(validate, translator)

	cli.ctrl = session.NewController(session.Deps{
		Store:      cli.store,
		API:        cli.client,
		Notifier:   cli.notices,
		Logger:     cli.logger,
		Router:     cli.router,
		Reauth:     session.ReauthFunc(cli.promptReauth),
		Validate:   validate,
		Translator: translator,
		Durations:  conf.Notifications,
		HomePath:   cli.paths().Home,
	})
	cli.client.SetTokenSource(cli.ctrl, func() { cli.ctrl.SessionExpired(ctx) })

	cli.coord = membership.NewCoordinator(membership.Deps{
		API:       cli.client,
		Viewer:    cli.ctrl,
		Confirmer: membership.ConfirmFunc(cli.confirm),
		Notifier:  cli.notices,
		Logger:    cli.logger,
		Durations: conf.Notifications,
	})
	cli.events = event.NewService(cli.client, validate, translator)
	cli.watcher = session.WatchRedirects(cli.ctrl, cli.router, nav.DefaultPermissions, cli.paths())

	cli.ctrl.Initialize(ctx)
}

func (cli *commandLine) teardown() {
	if cli.ctrl == nil {
		return
	}
	cli.coord.Wait()
	cli.watcher.Stop()
	cli.ctrl.Teardown()
}

func (cli *commandLine) paths() nav.Paths {
	return nav.Paths{Home: cli.conf.Routes.HomePath, Dashboard: cli.conf.Routes.DashboardPath}
}

func (cli *commandLine) promptReauth(from string) {
	cli.printf("Your session has expired. Run \"alumni login -email EMAIL -redirect %s\" to continue.\n", from)
}

// confirm asks a y/N question on the command line. -yes answers it up front.
func (cli *commandLine) confirm(_ context.Context, prompt string) bool {
	if cli.yes {
		return true
	}
	return cli.ask(prompt)
}

func (cli *commandLine) ask(prompt string) bool {
	cli.printf("%s [y/N] ", prompt)
	line, err := cli.in.ReadString('\n')
	if err != nil && line == "" {
		cli.println()
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// offerRetry runs the retry action of the latest notification for as long as the user asks for it.
func (cli *commandLine) offerRetry(ctx context.Context, err error) error {
	for err != nil {
		last, ok := cli.notices.Last()
		if !ok || last.Retry == nil || !cli.ask("Retry?") {
			return err
		}
		cli.notices.Reset()
		err = last.Retry(ctx)
	}
	return nil
}

func (cli *commandLine) readPassword(prompt string) (string, error) {
	cli.printf("%s", prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.println()
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) println(args ...interface{}) {
	_, _ = fmt.Fprintln(cli.out, args...)
}

// userMessage renders err for the person at the terminal.
func userMessage(err error) string {
	var vErr *core.ValidationError
	if errors.As(err, &vErr) && len(vErr.Fields) > 0 {
		msgs := make([]string, 0, len(vErr.Fields))
		for _, fld := range vErr.Fields {
			msgs = append(msgs, fld.Field+": "+fld.Error)
		}
		return strings.Join(msgs, "; ")
	}
	if _, ok := errors.Cause(err).(*core.APIError); ok {
		return core.MapErrorToMessage(err)
	}
	return err.Error()
}
