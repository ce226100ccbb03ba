package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/lakedesk/lakedesk/pkg/errorbank"
)

var validate = validator.New()

// Validate runs struct tag validation and converts failures into the
// application error taxonomy.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}

	fields := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return errorbank.Unprocessable("validation failed", errorbank.WithDetails(fields))
}
