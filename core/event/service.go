package event

import (
	"context"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
)

var (
	// errors
	ErrMissingID = errors.New("an event id is required")
)

type (
	API interface {
		ListEvents(ctx context.Context, filter Filter) ([]Event, error)
		GetEvent(ctx context.Context, id string) (Event, error)
		CreateEvent(ctx context.Context, in Input) (Event, error)
		UpdateEvent(ctx context.Context, id string, in Input) (Event, error)
		DeleteEvent(ctx context.Context, id string) error
	}

	Service struct {
		api        API
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(api API, validate *validator.Validate, translator ut.Translator) *Service {
	return &Service{api: api, validate: validate, translator: translator}
}

func (svc *Service) List(ctx context.Context, filter Filter) ([]Event, error) {
	return svc.api.ListEvents(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id string) (Event, error) {
	if strings.TrimSpace(id) == "" {
		return Event{}, ErrMissingID
	}
	return svc.api.GetEvent(ctx, id)
}

func (svc *Service) Create(ctx context.Context, in Input) (Event, error) {
	if err := in.Validate(svc.validate); err != nil {
		return Event{}, core.TranslateValidation(err, svc.translator)
	}
	return svc.api.CreateEvent(ctx, in)
}

func (svc *Service) Update(ctx context.Context, id string, in Input) (Event, error) {
	if strings.TrimSpace(id) == "" {
		return Event{}, ErrMissingID
	}
	if err := in.Validate(svc.validate); err != nil {
		return Event{}, core.TranslateValidation(err, svc.translator)
	}
	return svc.api.UpdateEvent(ctx, id, in)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}
	return svc.api.DeleteEvent(ctx, id)
}
