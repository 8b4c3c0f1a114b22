package validation

import (
	"github.com/go-playground/validator/v10"

	"github.com/edvlasov/blog-backend/internal/apperror"
)

// Validator plugs validator/v10 into echo's Validator hook.
type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	return &Validator{validate: validator.New()}
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return apperror.NewInvalidInput("inputs are incorrect", err)
	}
	return nil
}
