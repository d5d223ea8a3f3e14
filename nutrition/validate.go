package nutrition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

// ErrInvalidInput wraps every validation failure returned by Validate.
var ErrInvalidInput = errors.New("invalid biometrics")

// Validate checks b against the ranges the engine expects.  The engine
// itself never calls it; handlers do before invoking Calculate.
func Validate(b Biometrics) error {
	err := v.Struct(b)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field())+" ("+fe.Tag()+")")
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, ", "))
}
