// Package validation wires go-playground/validator into echo.  Handlers bind
// a request struct and call c.Validate(&req); failures become a 400 with the
// first offending field named.
package validation

import (
    "errors"
    "fmt"
    "reflect"
    "strings"
    "sync"
    "time"

    "github.com/go-playground/validator/v10"
)

// DateLayout is the wire format for calendar dates (event dates, availability).
const DateLayout = "2006-01-02"

// ClockLayout is the wire format for performance start/end times.
const ClockLayout = "15:04"

var (
    validate     *validator.Validate
    validateOnce sync.Once
)

func instance() *validator.Validate {
    validateOnce.Do(func() {
        v := validator.New(validator.WithRequiredStructEnabled())
        _ = v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
            return IsDate(fl.Field().String())
        })
        _ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
            return IsClock(fl.Field().String())
        })
        v.RegisterTagNameFunc(func(f reflect.StructField) string {
            name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
            if name == "-" || name == "" {
                return f.Name
            }
            return name
        })
        validate = v
    })
    return validate
}

// IsDate reports whether s is a YYYY-MM-DD calendar date.
func IsDate(s string) bool {
    _, err := time.Parse(DateLayout, s)
    return err == nil
}

// IsClock reports whether s is an HH:MM 24-hour time.
func IsClock(s string) bool {
    _, err := time.Parse(ClockLayout, s)
    return err == nil
}

// EchoValidator implements echo.Validator.
type EchoValidator struct{}

func New() *EchoValidator { return &EchoValidator{} }

// Validate runs struct validation and flattens the result into a FieldError.
func (EchoValidator) Validate(i any) error {
    err := instance().Struct(i)
    if err == nil {
        return nil
    }
    var ve validator.ValidationErrors
    if errors.As(err, &ve) && len(ve) > 0 {
        fe := ve[0]
        return &FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()}
    }
    return err
}

// FieldError describes the first field that failed validation.
type FieldError struct {
    Field string
    Tag   string
    Param string
}

func (e *FieldError) Error() string {
    switch e.Tag {
    case "required":
        return fmt.Sprintf("%s is required", e.Field)
    case "ymd":
        return fmt.Sprintf("%s must be a date (YYYY-MM-DD)", e.Field)
    case "hhmm":
        return fmt.Sprintf("%s must be a time (HH:MM)", e.Field)
    case "email":
        return fmt.Sprintf("%s must be a valid email", e.Field)
    case "oneof":
        return fmt.Sprintf("%s must be one of: %s", e.Field, e.Param)
    case "min", "max", "gte", "lte":
        return fmt.Sprintf("%s failed %s=%s", e.Field, e.Tag, e.Param)
    default:
        return fmt.Sprintf("%s is invalid", e.Field)
    }
}
