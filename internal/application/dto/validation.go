package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidPayload возвращается, когда тело webhook не проходит проверку структуры
var ErrInvalidPayload = errors.New("invalid payload")

var validate = validator.New()

// Validate проверяет обязательные поля payload
func (p *CoverageWebhookPayload) Validate() error {
	if err := validate.Struct(p); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if p.Tests.Total < 0 || p.Tests.Passed < 0 || p.Tests.Failed < 0 {
		return fmt.Errorf("%w: test counts cannot be negative", ErrInvalidPayload)
	}

	return nil
}
