package booking

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const clockLayout = "15:04"

// ErrInvalidForm wraps every booking form validation failure.
var ErrInvalidForm = errors.New("invalid booking")

// Form is the booking request an operator submits.
type Form struct {
	RoomID    string `json:"roomId" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime   string `json:"endTime" validate:"required,datetime=15:04"`
	Purpose   string `json:"purpose" validate:"required,max=500"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		f := sl.Current().Interface().(Form)
		start, errStart := time.Parse(clockLayout, f.StartTime)
		end, errEnd := time.Parse(clockLayout, f.EndTime)
		if errStart == nil && errEnd == nil && !end.After(start) {
			sl.ReportError(f.EndTime, "EndTime", "endTime", "after_start", "")
		}
	}, Form{})
	return v
}

// Validate checks the form, returning a message naming each failed field.
func (f Form) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidForm, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalidForm, strings.Join(msgs, "; "))
}

// normalized returns the form with zero-padded HH:MM times, so "9:30" is
// stored as "09:30". The form must have passed Validate.
func (f Form) normalized() Form {
	if t, err := time.Parse(clockLayout, f.StartTime); err == nil {
		f.StartTime = t.Format(clockLayout)
	}
	if t, err := time.Parse(clockLayout, f.EndTime); err == nil {
		f.EndTime = t.Format(clockLayout)
	}
	return f
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "datetime":
		return fmt.Sprintf("%s must match %s", fe.Field(), fe.Param())
	case "after_start":
		return "EndTime must be after StartTime"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	}
	return fe.Error()
}
