package event

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Burgess-GLAY/psdahs-alumni-sub001/core"
)

// Categories
const (
	CategoryReunion    = "reunion"
	CategoryNetworking = "networking"
	CategoryFundraiser = "fundraiser"
	CategoryWebinar    = "webinar"
	CategoryOther      = "other"
)

type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Location     string    `json:"location,omitempty"`
	Category     string    `json:"category,omitempty"`
	StartDate    time.Time `json:"startDate"`
	EndDate      time.Time `json:"endDate,omitempty"`
	IsPublished  bool      `json:"isPublished"`
	ClassGroupID string    `json:"classGroupId,omitempty"`
	CreatedBy    string    `json:"createdBy,omitempty"`
}

// Input defines what may be provided to create or modify an Event.
type Input struct {
	Title        string    `json:"title" validate:"required,max=120"`
	Description  string    `json:"description,omitempty" validate:"max=5000"`
	Location     string    `json:"location,omitempty"`
	Category     string    `json:"category,omitempty" validate:"omitempty,oneof=reunion networking fundraiser webinar other"`
	StartDate    time.Time `json:"startDate" validate:"required"`
	EndDate      time.Time `json:"endDate,omitempty"`
	IsPublished  bool      `json:"isPublished"`
	ClassGroupID string    `json:"classGroupId,omitempty"`
}

func (in *Input) Clean() {
	in.Title = core.CleanString(in.Title)
	in.Location = core.CleanString(in.Location)
	in.Category = core.CleanString(in.Category, true /* lower */)
	in.ClassGroupID = core.CleanString(in.ClassGroupID)
}

// Validate cleans and validates in.
func (in *Input) Validate(validate *validator.Validate) error {
	in.Clean()
	return validate.Struct(in)
}

// Filter narrows an event listing.
type Filter struct {
	Search       string `query:"search"`
	Category     string `query:"category"`
	ClassGroupID string `query:"classGroupId"`
	Upcoming     bool   `query:"upcoming"`
}

// Params renders the filter as query parameters.
func (f Filter) Params() map[string]string {
	params := make(map[string]string)
	if s := core.CleanString(f.Search); s != "" {
		params["search"] = s
	}
	if f.Category != "" {
		params["category"] = f.Category
	}
	if f.ClassGroupID != "" {
		params["classGroupId"] = f.ClassGroupID
	}
	if f.Upcoming {
		params["upcoming"] = "true"
	}
	return params
}
