package event

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
)

type apiMock struct {
	mu      sync.Mutex
	calls   []string
	created []Input
}

var _ API = (*apiMock)(nil)

func (api *apiMock) record(call string) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.calls = append(api.calls, call)
}

func (api *apiMock) ListEvents(_ context.Context, filter Filter) ([]Event, error) {
	api.record("list " + filter.Category)
	return []Event{{ID: "e1", Title: "Homecoming", Category: filter.Category}}, nil
}

func (api *apiMock) GetEvent(_ context.Context, id string) (Event, error) {
	api.record("get " + id)
	return Event{ID: id}, nil
}

func (api *apiMock) CreateEvent(_ context.Context, in Input) (Event, error) {
	api.record("create")
	api.mu.Lock()
	api.created = append(api.created, in)
	api.mu.Unlock()
	return Event{ID: "e2", Title: in.Title, Category: in.Category, StartDate: in.StartDate}, nil
}

func (api *apiMock) UpdateEvent(_ context.Context, id string, in Input) (Event, error) {
	api.record("update " + id)
	return Event{ID: id, Title: in.Title}, nil
}

func (api *apiMock) DeleteEvent(_ context.Context, id string) error {
	api.record("delete " + id)
	return nil
}

func newTestService() (*Service, *apiMock) {
	validate, translator := core.NewValidator()
	InitValidators(validate, translator)
	api := new(apiMock)
	return NewService(api, validate, translator), api
}

func TestService(t *testing.T) {
	svc, api := newTestService()
	ctx := context.Background()
	start := time.Date(2027, time.March, 6, 19, 30, 0, 0, time.UTC)

	events, err := svc.List(ctx, Filter{Category: CategoryReunion})
	require.NoError(t, err)
	require.Len(t, events, 1)

	evt, err := svc.Create(ctx, Input{Title: " Annual Gala ", Category: "Fundraiser", StartDate: start})
	require.NoError(t, err)
	assert.Equal(t, "e2", evt.ID)
	require.Len(t, api.created, 1)
	assert.Equal(t, "Annual Gala", api.created[0].Title, "input is cleaned before it is sent")
	assert.Equal(t, CategoryFundraiser, api.created[0].Category)

	_, err = svc.Update(ctx, "e2", Input{Title: "Gala", StartDate: start})
	require.NoError(t, err)
	_, err = svc.Get(ctx, "e2")
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, "e2"))

	assert.Equal(t, []string{"list reunion", "create", "update e2", "get e2", "delete e2"}, api.calls)
}

func TestService_rejects(t *testing.T) {
	svc, api := newTestService()
	ctx := context.Background()
	start := time.Date(2027, time.March, 6, 19, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		call    func() error
		wantErr error
	}{
		{name: "get without id", call: func() error { _, err := svc.Get(ctx, " "); return err }, wantErr: ErrMissingID},
		{name: "update without id", call: func() error { _, err := svc.Update(ctx, "", Input{Title: "Gala", StartDate: start}); return err }, wantErr: ErrMissingID},
		{name: "delete without id", call: func() error { return svc.Delete(ctx, "") }, wantErr: ErrMissingID},
		{name: "create invalid", call: func() error { _, err := svc.Create(ctx, Input{StartDate: start}); return err }},
		{name: "update invalid", call: func() error {
			_, err := svc.Update(ctx, "e1", Input{Title: "Gala", StartDate: start, EndDate: start.Add(-time.Minute)})
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			_, ok := err.(*core.ValidationError)
			assert.True(t, ok, "want *core.ValidationError, got %T", err)
		})
	}
	assert.Empty(t, api.calls, "rejected input never reaches the backend")
}
