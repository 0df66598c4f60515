package main

import (
	"context"
	"strings"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/nav"
	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/session"
)

const loginPath = "/login"

func (cli *commandLine) login(ctx context.Context, args []string) error {
	fs := cli.flagSet("login")
	email := fs.String("email", "", "Your account email. The password will be prompted next.")
	redirect := fs.String("redirect", "", "The page to open once logged in.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.readPassword("Enter password:")
	if err != nil {
		return err
	}
	if pwd == "" {
		fs.Usage()
		return errHelp
	}

	cli.setup(ctx, loginPath)
	var opts []session.Option
	if *redirect != "" {
		opts = append(opts, session.WithRedirect(*redirect))
	}
	_, err = cli.ctrl.Login(ctx, session.Credentials{Email: *email, Password: pwd}, opts...)
	return err
}

func (cli *commandLine) register(ctx context.Context, args []string) error {
	fs := cli.flagSet("register")
	firstName := fs.String("first", "", "Your first name.")
	lastName := fs.String("last", "", "Your last name.")
	email := fs.String("email", "", "Your email. The password will be prompted next.")
	year := fs.Int("year", 0, "Your graduation year.")
	phone := fs.String("phone", "", "Your phone number, in international format (optional).")
	redirect := fs.String("redirect", "", "The page to open once registered.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *email == "" || *firstName == "" || *lastName == "" || *year == 0 {
		fs.Usage()
		return errHelp
	}
	pwd, err := cli.readPassword("Enter password:")
	if err != nil {
		return err
	}
	confirm, err := cli.readPassword("Confirm password:")
	if err != nil {
		return err
	}

	cli.setup(ctx, "/register")
	var opts []session.Option
	if *redirect != "" {
		opts = append(opts, session.WithRedirect(*redirect))
	}
	_, group, err := cli.ctrl.Register(ctx, session.NewUser{
		FirstName:       *firstName,
		LastName:        *lastName,
		Email:           *email,
		Password:        pwd,
		PasswordConfirm: confirm,
		GraduationYear:  *year,
		Phone:           *phone,
	}, opts...)
	if err != nil {
		return err
	}
	cli.ctrl.NotifyAssignedClassGroup(group)
	return nil
}

func (cli *commandLine) logout(ctx context.Context, args []string) error {
	fs := cli.flagSet("logout")
	if err := parse(fs, args); err != nil {
		return err
	}
	cli.setup(ctx, cli.paths().Home)
	cli.ctrl.Logout(ctx)
	return nil
}

func (cli *commandLine) whoami(ctx context.Context, args []string) error {
	fs := cli.flagSet("whoami")
	if err := parse(fs, args); err != nil {
		return err
	}
	cli.setup(ctx, "/profile")
	if !cli.ctrl.IsAuthenticated() {
		return errNotLoggedIn
	}
	usr, err := cli.ctrl.GetCurrentUser(ctx)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(usr.FirstName + " " + usr.LastName)
	if name == "" {
		name = usr.DisplayName()
	}
	cli.printf("%s <%s>\n", name, usr.Email)
	cli.printf("  role: %s\n", session.RoleOf(&usr))
	if usr.GraduationYear != 0 {
		cli.printf("  class of %d\n", usr.GraduationYear)
	}
	return nil
}

// open navigates to path the way the application shell does: pages the viewer may not open send
// members to their default page, and guests to the login page with the destination kept for later.
func (cli *commandLine) open(ctx context.Context, args []string) error {
	fs := cli.flagSet("open")
	path := fs.String("path", "", "The page to open, e.g. /class-groups.")
	email := fs.String("email", "", "Log in with this account first when the page needs it.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *path == "" {
		fs.Usage()
		return errHelp
	}

	cli.setup(ctx, cli.paths().Home)
	snap := cli.ctrl.Snapshot()
	switch {
	case nav.DefaultPermissions.CanAccess(snap.Role, *path):
		cli.router.Navigate(*path)
		return nil
	case snap.IsAuthenticated():
		cli.router.Navigate(cli.paths().Default(snap.Role))
		return nil
	}

	cli.ctrl.RequestRedirect(*path)
	cli.router.Navigate(loginPath)
	if *email == "" {
		cli.printf("Log in to open %s: alumni login -email EMAIL -redirect %s\n", *path, *path)
		return nil
	}
	pwd, err := cli.readPassword("Enter password:")
	if err != nil {
		return err
	}
	_, err = cli.ctrl.Login(ctx, session.Credentials{Email: *email, Password: pwd})
	return err
}
