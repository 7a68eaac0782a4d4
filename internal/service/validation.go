package service

import (
	"fmt"

	"anonchat/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type registerRequest struct {
	Name     string `validate:"required,max=100"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,max=72"`
}

type createChatroomRequest struct {
	Name      string `validate:"required,max=100"`
	CreatorID string `validate:"required"`
}

// validateStruct runs the struct tags and folds any failure into domain.ErrInvalidInput.
func validateStruct(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}
