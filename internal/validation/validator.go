// Package validation checks request payloads before anything is written.
// Every problem found is collected into one field→message map.
package validation

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/harmoni/harmoniconnect/internal/apperr"
)

const (
	msgRequired    = "This field is required."
	msgInvalidUUID = "Must be a valid UUID."
	msgPastBooking = "Booking cannot be made for a past date."
	msgNoClient    = "This user does not have a client profile."
	msgDatetime    = "Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z]."
)

// без зоны время считается UTC
var datetimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

func parseDatetime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// References answers existence questions for foreign keys.
type References interface {
	ProviderExists(ctx context.Context, id uuid.UUID) (bool, error)
	ServiceExists(ctx context.Context, id uuid.UUID) (bool, error)
	BookingExists(ctx context.Context, id uuid.UUID) (bool, error)
	UserExists(ctx context.Context, id uuid.UUID) (bool, error)
	ReviewExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type Validator struct {
	validate *validator.Validate
	refs     References
	now      func() time.Time
}

// New builds a validator. now defaults to time.Now in UTC.
func New(refs References, now func() time.Time) *Validator {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// ошибка регистрации возможна только при пустом теге
	_ = v.RegisterValidation("phone", validatePhone)
	_ = v.RegisterValidation("decimal", validateDecimal)

	return &Validator{validate: v, refs: refs, now: now}
}

// Now returns the validator's notion of current time.
func (v *Validator) Now() time.Time { return v.now() }

var phoneRe = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// validatePhone accepts international numbers, ignoring spaces, dashes and
// parentheses.
func validatePhone(fl validator.FieldLevel) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(fl.Field().String())
	return phoneRe.MatchString(cleaned)
}

// report accumulates plain field problems and missing references separately,
// so a payload whose only problem is a dangling reference reports as
// referential.
type report struct {
	fields map[string]string
	refs   map[string]string
}

func newReport() *report {
	return &report{fields: map[string]string{}, refs: map[string]string{}}
}

func (r *report) add(field, msg string) {
	if _, ok := r.fields[field]; !ok {
		r.fields[field] = msg
	}
}

func (r *report) addRef(field, msg string) {
	if _, ok := r.refs[field]; !ok {
		r.refs[field] = msg
	}
}

func (r *report) has(field string) bool {
	_, a := r.fields[field]
	_, b := r.refs[field]
	return a || b
}

func (r *report) err() error {
	switch {
	case len(r.fields) == 0 && len(r.refs) == 0:
		return nil
	case len(r.fields) == 0:
		return apperr.Referential(r.refs)
	}
	all := make(map[string]string, len(r.fields)+len(r.refs))
	for k, m := range r.refs {
		all[k] = m
	}
	for k, m := range r.fields {
		all[k] = m
	}
	return apperr.Validation(all)
}

// structFields runs the tag rules of in and records every failure.
func (v *Validator) structFields(r *report, in any) {
	err := v.validate.Struct(in)
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		r.add("non_field_errors", err.Error())
		return
	}
	for _, fe := range verrs {
		r.add(fe.Field(), message(fe))
	}
}

// message renders a tag failure the way API clients expect it.
func message(fe validator.FieldError) string {
	if m, ok := fieldMessages[fe.Field()+"."+fe.Tag()]; ok {
		return m
	}
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "oneof":
		return fmt.Sprintf("\"%v\" is not a valid choice.", deref(fe.Value()))
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", fe.Param())
	case "email":
		return "Enter a valid email address."
	case "phone":
		return "Enter a valid phone number."
	case "decimal":
		return decimalMessage(fe)
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}

var fieldMessages = map[string]string{
	"price.gt":   "The price must be a positive number.",
	"amount.gt":  "The amount must be a positive number.",
	"rating.min": "Rating must be between 1 and 5.",
	"rating.max": "Rating must be between 1 and 5.",
}

func deref(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	return v
}

// datetime parses an ISO 8601 field. Fields that already failed a tag rule
// are skipped.
func (r *report) datetime(field, raw string) (time.Time, bool) {
	if r.has(field) || raw == "" {
		return time.Time{}, false
	}
	t, ok := parseDatetime(raw)
	if !ok {
		r.add(field, msgDatetime)
	}
	return t, ok
}

type existsFunc func(ctx context.Context, id uuid.UUID) (bool, error)

// ref parses a primary key field and checks that the row exists. Fields that
// already failed a tag rule are skipped.
func (r *report) ref(ctx context.Context, field, raw string, exists existsFunc) (uuid.UUID, error) {
	if r.has(field) || raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		r.add(field, msgInvalidUUID)
		return uuid.Nil, nil
	}
	ok, err := exists(ctx, id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("check %s reference: %w", field, err)
	}
	if !ok {
		r.addRef(field, fmt.Sprintf("Invalid pk \"%s\" - object does not exist.", raw))
		return uuid.Nil, nil
	}
	return id, nil
}
