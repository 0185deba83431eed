// Package validator registers the clinic's custom binding tags on top of
// go-playground/validator and turns its errors into readable messages.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var (
	priorities    = map[string]bool{"urgent": true, "high": true, "normal": true, "low": true}
	reminderTypes = map[string]bool{"email": true, "sms": true, "both": true}
)

// Register adds the custom tags to v and reports fields by their JSON name.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonName)

	tags := map[string]validator.Func{
		"priority":      oneOf(priorities),
		"reminder_type": oneOf(reminderTypes),
		"ymd":           layout(dateLayout),
		"hhmm":          layout(timeLayout),
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %q validation: %w", tag, err)
		}
	}
	return nil
}

// RegisterGin installs the tags on gin's default binding engine.
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return Register(v)
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func oneOf(allowed map[string]bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return allowed[fl.Field().String()]
	}
}

// layout accepts strings that parse with l and print back unchanged, so
// "9:5" is rejected for "15:04".
func layout(l string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		t, err := time.Parse(l, s)
		return err == nil && t.Format(l) == s
	}
}

// Message flattens binding errors into one sentence per failed field.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return strings.Join(msgs, "; ")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "ymd":
		return field + " must be a date in YYYY-MM-DD format"
	case "hhmm":
		return field + " must be a time in HH:MM format"
	case "priority":
		return field + " must be one of urgent, high, normal, low"
	case "reminder_type":
		return field + " must be one of email, sms, both"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
