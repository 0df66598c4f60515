package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/membership"
)

const groupsPath = "/class-groups"

func (cli *commandLine) groups(ctx context.Context, args []string) error {
	fs := cli.flagSet("groups")
	if err := parse(fs, args); err != nil {
		return err
	}
	cli.setup(ctx, groupsPath)
	if !cli.ctrl.IsAuthenticated() {
		return errNotLoggedIn
	}

	groups, err := cli.coord.List(ctx)
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		cli.println("No class groups yet.")
		return nil
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tMEMBERS\t")
	for _, g := range groups {
		mark := ""
		if st, ok := cli.coord.State(g.ID); ok && st.IsMember() {
			mark = " (member)"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s%s\t%d\t\n", g.ID, g.Name, mark, g.MemberCount)
	}
	return w.Flush()
}

func (cli *commandLine) join(ctx context.Context, args []string) error {
	fs := cli.flagSet("join")
	groupID := fs.String("group", "", "The class group id (see groups).")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *groupID == "" {
		fs.Usage()
		return errHelp
	}
	cli.setup(ctx, groupsPath)

	res, err := cli.coord.Join(ctx, *groupID)
	cli.coord.Wait()
	if err != nil {
		err = cli.offerRetry(ctx, err)
		cli.coord.Wait()
		if err != nil {
			return err
		}
		st, _ := cli.coord.State(*groupID)
		res = membership.Result{Action: membership.ActionJoin, GroupID: *groupID, MemberCount: &st.MemberCount}
	}
	cli.printMembers(res)
	return nil
}

func (cli *commandLine) leave(ctx context.Context, args []string) error {
	fs := cli.flagSet("leave")
	groupID := fs.String("group", "", "The class group id (see groups).")
	yes := fs.Bool("yes", false, "Do not ask for confirmation.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *groupID == "" {
		fs.Usage()
		return errHelp
	}
	cli.yes = *yes
	cli.setup(ctx, groupsPath)

	res, err := cli.coord.Leave(ctx, *groupID)
	cli.coord.Wait()
	if errors.Is(err, membership.ErrNotConfirmed) {
		cli.println("Cancelled.")
		return nil
	}
	if err != nil {
		err = cli.offerRetry(ctx, err)
		cli.coord.Wait()
		if err != nil {
			return err
		}
		st, _ := cli.coord.State(*groupID)
		res = membership.Result{Action: membership.ActionLeave, GroupID: *groupID, MemberCount: &st.MemberCount}
	}
	cli.printMembers(res)
	return nil
}

func (cli *commandLine) printMembers(res membership.Result) {
	if res.MemberCount != nil {
		cli.printf("%s now has %d members.\n", res.GroupID, *res.MemberCount)
	}
}
