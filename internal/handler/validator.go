package handler

import (
    "errors"
    "fmt"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"
)

// RequestValidator plugs go-playground/validator into echo (e.Validator).
// Field names in errors are taken from the json tags.
type RequestValidator struct {
    v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
    return rv.v.Struct(i)
}

// fieldErrors turns validation errors into {field: [messages]}.  It returns
// nil for errors that did not come from the validator.
func fieldErrors(err error) map[string][]string {
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) {
        return nil
    }
    out := make(map[string][]string, len(verrs))
    for _, fe := range verrs {
        out[fe.Field()] = append(out[fe.Field()], fieldMessage(fe))
    }
    return out
}

func fieldMessage(fe validator.FieldError) string {
    switch fe.Tag() {
    case "required":
        return "This field is required."
    case "email":
        return "Enter a valid email address."
    case "min":
        return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
    case "max":
        return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
    case "oneof":
        return fmt.Sprintf("Must be one of: %s.", fe.Param())
    default:
        return "Invalid value."
    }
}
