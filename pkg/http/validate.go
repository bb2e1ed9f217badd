package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// ReadAndValidateRequest binds the request into req, applies struct
// defaults, and validates. A non-nil return is ready to hand to
// BadRequestResponse.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return validationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return validationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return validationErrors(err)
	}
	return nil
}

func validationErrors(err error) interface{} {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		errs := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msg, params := describeFieldError(fe)
			errs = append(errs, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: msg,
				Params:  params,
			})
		}
		return errs
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: "ERR_UNKNOWN", Message: fmt.Sprintf("%v", he.Message)}}
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
}

// describeFieldError covers the tags the request models actually declare.
func describeFieldError(fe validator.FieldError) (string, map[string]interface{}) {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field), nil
	case "oneof":
		options := strings.Split(fe.Param(), " ")
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(options, ", ")),
			map[string]interface{}{"options": options}
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param()),
			map[string]interface{}{"min": fe.Param()}
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param()),
			map[string]interface{}{"max": fe.Param()}
	case "max":
		return fmt.Sprintf("%s must have at most %s items", field, fe.Param()),
			map[string]interface{}{"max": fe.Param()}
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag()), nil
	}
}
