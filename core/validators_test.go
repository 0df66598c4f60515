package core

import (
	"testing"
	"time"
)

type validatedForm struct {
	Email    string `json:"email" validate:"required,email"`
	Year     int    `json:"graduationYear" validate:"omitempty,gradyear"`
	Redirect string `json:"redirect" validate:"omitempty,apppath"`
}

func TestInitValidators(t *testing.T) {
	NowFunc = func() time.Time { return time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC) }
	defer func() { NowFunc = time.Now }()

	validate, translator := NewValidator()

	tests := []struct {
		name       string
		form       validatedForm
		wantFields map[string]string
	}{
		{name: "valid", form: validatedForm{Email: "ama@psdahs.org", Year: 2010, Redirect: "/events"}},
		{name: "required", form: validatedForm{}, wantFields: map[string]string{"email": "this field is required"}},
		{
			name:       "bad email & year",
			form:       validatedForm{Email: "lol", Year: 1900},
			wantFields: map[string]string{"email": "email must be a valid email address", "graduationYear": "graduationYear must be a valid graduation year"},
		},
		{name: "next year allowed", form: validatedForm{Email: "a@b.co", Year: 2027}},
		{name: "year too far", form: validatedForm{Email: "a@b.co", Year: 2028}, wantFields: map[string]string{"graduationYear": "graduationYear must be a valid graduation year"}},
		{
			name:       "external redirect",
			form:       validatedForm{Email: "a@b.co", Redirect: "//evil.example"},
			wantFields: map[string]string{"redirect": "redirect must be an application path starting with '/'"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TranslateValidation(validate.Struct(tt.form), translator)
			if tt.wantFields == nil {
				if err != nil {
					t.Fatalf("validate.Struct() unexpected error = %v", err)
				}
				return
			}
			vErr, ok := err.(*ValidationError)
			if !ok {
				t.Fatalf("TranslateValidation() = %T, want *ValidationError", err)
			}
			got := make(map[string]string, len(vErr.Fields))
			for _, f := range vErr.Fields {
				got[f.Field] = f.Error
			}
			for field, msg := range tt.wantFields {
				if got[field] != msg {
					t.Errorf("field %q = %q, want %q", field, got[field], msg)
				}
			}
			if len(got) != len(tt.wantFields) {
				t.Errorf("got %d field errors %v, want %d", len(got), got, len(tt.wantFields))
			}
		})
	}
}
