package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core/event"
)

const (
	eventsPath      = "/events"
	adminEventsPath = "/admin/events"
	dateTimeLayout  = "2006-01-02 15:04"
)

func (cli *commandLine) listEvents(ctx context.Context, args []string) error {
	fs := cli.flagSet("events")
	category := fs.String("category", "", "Only list events of this category (reunion, networking, fundraiser, webinar, other).")
	search := fs.String("search", "", "Only list events matching this text.")
	groupID := fs.String("group", "", "Only list events of this class group.")
	upcoming := fs.Bool("upcoming", false, "Only list events that have not started yet.")
	if err := parse(fs, args); err != nil {
		return err
	}
	cli.setup(ctx, eventsPath)

	events, err := cli.events.List(ctx, event.Filter{
		Search:       *search,
		Category:     *category,
		ClassGroupID: *groupID,
		Upcoming:     *upcoming,
	})
	if err != nil {
		return err
	}
	if len(events) == 0 {
		cli.println("No events found.")
		return nil
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tDATE\tTITLE\tCATEGORY\tLOCATION\t")
	for _, evt := range events {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			evt.ID, evt.StartDate.Local().Format(dateTimeLayout), evt.Title, evt.Category, evt.Location)
	}
	return w.Flush()
}

func (cli *commandLine) createEvent(ctx context.Context, args []string) error {
	fs := cli.flagSet("newevent")
	title := fs.String("title", "", "The event title.")
	description := fs.String("description", "", "What the event is about.")
	location := fs.String("location", "", "Where the event takes place.")
	category := fs.String("category", event.CategoryOther, "reunion, networking, fundraiser, webinar or other.")
	start := fs.String("start", "", "Start date and time, as YYYY-MM-DD HH:MM (local time).")
	end := fs.String("end", "", "End date and time, as YYYY-MM-DD HH:MM (optional).")
	groupID := fs.String("group", "", "Restrict the event to this class group (optional).")
	publish := fs.Bool("publish", false, "Publish the event right away.")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *title == "" || *start == "" {
		fs.Usage()
		return errHelp
	}

	in := event.Input{
		Title:        *title,
		Description:  *description,
		Location:     *location,
		Category:     *category,
		IsPublished:  *publish,
		ClassGroupID: *groupID,
	}
	var err error
	if in.StartDate, err = time.ParseInLocation(dateTimeLayout, *start, time.Local); err != nil {
		return errors.Errorf("start must be formatted as YYYY-MM-DD HH:MM (got %q)", *start)
	}
	if *end != "" {
		if in.EndDate, err = time.ParseInLocation(dateTimeLayout, *end, time.Local); err != nil {
			return errors.Errorf("end must be formatted as YYYY-MM-DD HH:MM (got %q)", *end)
		}
	}

	cli.setup(ctx, adminEventsPath)
	if !cli.ctrl.IsAuthenticated() {
		return errNotLoggedIn
	}
	evt, err := cli.events.Create(ctx, in)
	if err != nil {
		return err
	}
	cli.printf("Created event %s (%s).\n", evt.Title, evt.ID)
	return nil
}

func (cli *commandLine) deleteEvent(ctx context.Context, args []string) error {
	fs := cli.flagSet("rmevent")
	id := fs.String("id", "", "The event id (see events).")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		fs.Usage()
		return errHelp
	}

	cli.setup(ctx, adminEventsPath)
	if !cli.ctrl.IsAuthenticated() {
		return errNotLoggedIn
	}
	if err := cli.events.Delete(ctx, *id); err != nil {
		return err
	}
	cli.printf("Deleted event %s.\n", *id)
	return nil
}
