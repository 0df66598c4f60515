package membership

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
)

var (
	// errors
	ErrAuthRequired     = errors.New("you must be logged in to change class group membership")
	ErrInvalidTarget    = errors.New("no class group was given")
	ErrOperationPending = errors.New("a membership change for this class group is already in progress")
	ErrNotConfirmed     = errors.New("leaving the class group was not confirmed")
)

const defaultRefetchTimeout = 10 * time.Second

type (
	GroupAPI interface {
		ListClassGroups(ctx context.Context) ([]ClassGroup, error)
		GetClassGroup(ctx context.Context, id string) (ClassGroup, error)
		JoinClassGroup(ctx context.Context, id string) (Change, error)
		LeaveClassGroup(ctx context.Context, id string) (Change, error)
	}

	// Viewer tells whether the current user is signed in.
	Viewer interface {
		IsAuthenticated() bool
	}

	// Confirmer asks the user to confirm a destructive action.
	Confirmer interface {
		Confirm(ctx context.Context, prompt string) bool
	}

	ConfirmFunc func(ctx context.Context, prompt string) bool

	Deps struct {
		API            GroupAPI
		Viewer         Viewer
		Confirmer      Confirmer
		Notifier       core.Notifier
		Logger         core.Logger
		Durations      core.NotificationConfig
		RefetchTimeout time.Duration
	}

	// Coordinator mediates the viewer's join and leave actions on class groups.
	Coordinator struct {
		deps Deps

		mu     sync.Mutex
		groups map[string]*entry
		wg     sync.WaitGroup
	}

	// entry identity tells apart a group that was forgotten and tracked again. version changes
	// whenever a mutation starts or a result is applied.
	entry struct {
		State
		version uint64
	}
)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

func NewCoordinator(deps Deps) *Coordinator {
	if deps.RefetchTimeout <= 0 {
		deps.RefetchTimeout = defaultRefetchTimeout
	}
	return &Coordinator{deps: deps, groups: make(map[string]*entry)}
}

// Track seeds the state of groups from a listing. Groups with a change in flight are left alone.
func (c *Coordinator) Track(groups ...ClassGroup) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, g := range groups {
		if e, ok := c.groups[g.ID]; ok && e.Pending != PendingNone {
			continue
		}
		c.groups[g.ID] = &entry{State: stateOf(g)}
	}
}

// State returns the membership state of a tracked group.
func (c *Coordinator) State(groupID string) (State, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.groups[groupID]
	if !ok {
		return State{}, false
	}
	return e.State, true
}

// Forget stops tracking a group. Results arriving for it afterwards are dropped.
func (c *Coordinator) Forget(groupID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.groups, groupID)
}

// Wait blocks until every background refetch has finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// List fetches every class group and tracks them.
func (c *Coordinator) List(ctx context.Context) ([]ClassGroup, error) {
	groups, err := c.deps.API.ListClassGroups(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing class groups")
	}
	c.Track(groups...)
	return groups, nil
}

// Refresh refetches one group and reconciles its state with the server's. A reply that raced with
// a membership change is dropped in favour of the newer local state.
func (c *Coordinator) Refresh(ctx context.Context, groupID string) (State, error) {
	if strings.TrimSpace(groupID) == "" {
		return State{}, ErrInvalidTarget
	}

	c.mu.Lock()
	seen, tracked := c.groups[groupID]
	var version uint64
	if tracked {
		version = seen.version
	}
	c.mu.Unlock()

	g, err := c.deps.API.GetClassGroup(ctx, groupID)
	if err != nil {
		return State{}, errors.Wrapf(err, "fetching class group %s", groupID)
	}
	if g.ID == "" {
		g.ID = groupID
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.groups[groupID]
	switch {
	case !ok:
		e = &entry{State: stateOf(g)}
		c.groups[groupID] = e
	case e != seen || e.version != version:
		c.logDebug("dropping stale class group snapshot", groupID)
	case e.Pending == PendingNone:
		e.State = stateOf(g)
		e.version++
	}
	return e.State, nil
}

// Join adds the viewer to a class group.
func (c *Coordinator) Join(ctx context.Context, groupID string) (Result, error) {
	if err := c.check(ctx, groupID); err != nil {
		return Result{}, err
	}
	return c.mutate(ctx, groupID, ActionJoin)
}

// Leave removes the viewer from a class group, after the user confirmed it.
func (c *Coordinator) Leave(ctx context.Context, groupID string) (Result, error) {
	if err := c.check(ctx, groupID); err != nil {
		return Result{}, err
	}
	st, _ := c.State(groupID)
	if st.Pending != PendingNone {
		return Result{}, ErrOperationPending
	}
	if c.deps.Confirmer != nil && !c.deps.Confirmer.Confirm(ctx, fmt.Sprintf("Leave %s?", displayName(st))) {
		return Result{}, ErrNotConfirmed
	}
	return c.mutate(ctx, groupID, ActionLeave)
}

// check validates the preconditions shared by Join and Leave, and tracks unknown groups.
func (c *Coordinator) check(ctx context.Context, groupID string) error {
	if c.deps.Viewer == nil || !c.deps.Viewer.IsAuthenticated() {
		c.notify(core.SeverityInfo, "Please log in to join or leave class groups.", nil)
		return ErrAuthRequired
	}
	if strings.TrimSpace(groupID) == "" {
		c.logError("membership change without a class group")
		return ErrInvalidTarget
	}
	if _, ok := c.State(groupID); ok {
		return nil
	}
	if _, err := c.Refresh(ctx, groupID); err != nil {
		// the session expiry notice covers a rejected token
		if core.Classify(err).Kind != core.KindAuthentication {
			c.notify(core.SeverityError, core.MapErrorToMessage(err), nil)
		}
		return err
	}
	return nil
}

func (c *Coordinator) mutate(ctx context.Context, groupID string, action Action) (Result, error) {
	assumed, pending, call := true, PendingJoining, c.deps.API.JoinClassGroup
	if action == ActionLeave {
		assumed, pending, call = false, PendingLeaving, c.deps.API.LeaveClassGroup
	}

	c.mu.Lock()
	e, ok := c.groups[groupID]
	if !ok {
		c.mu.Unlock()
		return Result{}, ErrInvalidTarget
	}
	if e.Pending != PendingNone {
		c.mu.Unlock()
		return Result{}, ErrOperationPending
	}
	prevCount := e.MemberCount
	e.Member = Optimistic(assumed, e.Member.Value())
	e.Pending = pending
	e.version++
	c.mu.Unlock()

	change, err := call(ctx, groupID)

	c.mu.Lock()
	if cur, ok := c.groups[groupID]; !ok || cur != e {
		c.mu.Unlock()
		c.logDebug("dropping result for untracked class group", groupID)
		if err != nil {
			return Result{}, core.Classify(err)
		}
		return Result{Action: action, GroupID: groupID, MemberCount: change.MemberCount}, nil
	}

	if err != nil {
		e.Member = e.Member.Rollback()
		e.MemberCount = prevCount
		e.Pending = PendingNone
		e.version++
		st := e.State
		c.mu.Unlock()
		return Result{}, c.failed(groupID, st, action, err)
	}

	switch {
	case change.MemberCount != nil:
		e.MemberCount = floor0(*change.MemberCount)
	case action == ActionJoin:
		e.MemberCount++
	default:
		e.MemberCount = floor0(e.MemberCount - 1)
	}
	e.Member = e.Member.Confirm(change.IsMember)
	e.Pending = PendingNone
	e.version++
	st := e.State
	c.mu.Unlock()

	msg := fmt.Sprintf("You joined %s.", displayName(st))
	if action == ActionLeave {
		msg = fmt.Sprintf("You left %s.", displayName(st))
	}
	c.notify(core.SeveritySuccess, msg, nil)
	return Result{Action: action, GroupID: groupID, MemberCount: change.MemberCount}, nil
}

// failed turns a rejected mutation into exactly one notification and schedules a refetch of the
// group's last-known-good state.
func (c *Coordinator) failed(groupID string, st State, action Action, err error) error {
	apiErr := core.Classify(err)
	defer c.refetch(groupID)

	switch apiErr.Kind {
	case core.KindConflict:
		msg := fmt.Sprintf("You are already a member of %s.", displayName(st))
		if action == ActionLeave {
			msg = fmt.Sprintf("You are not a member of %s.", displayName(st))
		}
		c.notify(core.SeverityInfo, msg, nil)
	case core.KindAuthentication:
		// the session expiry notice covers it
		c.logDebug("membership change rejected: session expired", groupID)
	default:
		var retry func(ctx context.Context) error
		if apiErr.Retryable() {
			// the user already confirmed a leave once
			retry = func(ctx context.Context) error {
				if err := c.check(ctx, groupID); err != nil {
					return err
				}
				_, err := c.mutate(ctx, groupID, action)
				return err
			}
		}
		c.notify(core.SeverityError, core.MapErrorToMessage(apiErr), retry)
		if apiErr.Kind == core.KindUnknown || apiErr.Kind == core.KindServer {
			c.logError("membership change failed", apiErr, map[string]interface{}{"groupId": groupID, "action": string(action)})
		}
	}
	return apiErr
}

// refetch reconciles a group with the server in the background.
func (c *Coordinator) refetch(groupID string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), c.deps.RefetchTimeout)
		defer cancel()

		c.mu.Lock()
		_, tracked := c.groups[groupID]
		c.mu.Unlock()
		if !tracked {
			return
		}
		if _, err := c.Refresh(ctx, groupID); err != nil {
			c.logDebug("background refetch failed", groupID, err)
		}
	}()
}

func (c *Coordinator) notify(sev core.Severity, msg string, retry func(ctx context.Context) error) {
	if c.deps.Notifier == nil {
		return
	}
	c.deps.Notifier.Notify(core.Notification{
		Severity: sev,
		Message:  msg,
		Duration: c.deps.Durations.Duration(sev),
		Retry:    retry,
	})
}

func (c *Coordinator) logDebug(msg string, args ...interface{}) {
	if c.deps.Logger != nil {
		c.deps.Logger.Debug("membership: "+msg, args...)
	}
}

func (c *Coordinator) logError(msg string, args ...interface{}) {
	if c.deps.Logger != nil {
		c.deps.Logger.Error("membership: "+msg, args...)
	}
}

func displayName(st State) string {
	return core.FirstNonEmpty(st.GroupName, "the class group")
}
