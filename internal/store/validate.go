package store

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aanand-mishra/school-records/internal/types"
	"github.com/go-playground/validator/v10"
)

// emailPattern accepts local-part "@" domain "." tld.
var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Registration only fails on an empty tag name or nil func.
	_ = v.RegisterValidation("school_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// personInput is checked in field order, so the first error reported is the
// first violated constraint.
type personInput struct {
	ID    string `validate:"required"`
	Name  string `validate:"required"`
	Age   string `validate:"required,number"`
	Email string `validate:"required,school_email"`
}

type courseInput struct {
	ID   string `validate:"required"`
	Name string `validate:"required"`
}

// personFromFields validates f and builds the shared person fields.
func personFromFields(f types.Fields) (string, types.Person, error) {
	in := personInput{
		ID:    strings.TrimSpace(f.ID),
		Name:  strings.TrimSpace(f.Name),
		Age:   strings.TrimSpace(f.Age),
		Email: strings.TrimSpace(f.Email),
	}
	if err := check(in); err != nil {
		return "", types.Person{}, err
	}
	age, err := strconv.Atoi(in.Age)
	if err != nil {
		return "", types.Person{}, &types.ValidationError{
			Field:   "Age",
			Message: "field Age is out of range",
		}
	}
	return in.ID, types.Person{Name: in.Name, Age: age, Email: in.Email}, nil
}

func courseFromFields(f types.Fields) (types.Course, error) {
	in := courseInput{
		ID:   strings.TrimSpace(f.ID),
		Name: strings.TrimSpace(f.Name),
	}
	if err := check(in); err != nil {
		return types.Course{}, err
	}
	return types.Course{ID: in.ID, Name: in.Name}, nil
}

// check runs the struct validator and lifts the first failure into a
// *types.ValidationError.
func check(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &types.ValidationError{Message: err.Error()}
	}
	return fieldError(verrs[0])
}

func fieldError(e validator.FieldError) *types.ValidationError {
	var msg string
	switch e.ActualTag() {
	case "required":
		msg = fmt.Sprintf("field %s is required", e.Field())
	case "number":
		msg = fmt.Sprintf("field %s must be a non-negative integer", e.Field())
	case "school_email":
		msg = fmt.Sprintf("field %s must be a valid email address", e.Field())
	default:
		msg = fmt.Sprintf("field %s is invalid", e.Field())
	}
	return &types.ValidationError{Field: e.Field(), Message: msg}
}

// rejectPatch reports a patch field that does not apply to kind.
func rejectPatch(kind types.Kind, p types.Patch) error {
	bad := func(field string) error {
		return &types.ValidationError{
			Field:   field,
			Message: fmt.Sprintf("field %s does not apply to %s", field, kind),
		}
	}
	switch kind {
	case types.KindCourse:
		if p.Age != nil {
			return bad("Age")
		}
		if p.Email != nil {
			return bad("Email")
		}
	default:
		if p.Instructor != nil {
			return bad("Instructor")
		}
	}
	return nil
}

func unknownKind(kind types.Kind) error {
	return &types.ValidationError{
		Field:   "Kind",
		Message: fmt.Sprintf("unknown record kind %q", kind),
	}
}
