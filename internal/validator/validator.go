// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("public_token", validatePublicToken)
		_ = v.RegisterValidation("chat_id", validateChatID)
	}
}

// validatePublicToken checks the aggregation provider's one-time public
// token format: "public-<environment>-<identifier>".
func validatePublicToken(fl validator.FieldLevel) bool {
	token := fl.Field().String()
	if !strings.HasPrefix(token, "public-") {
		return false
	}
	return len(strings.SplitN(token, "-", 3)) == 3
}

// validateChatID checks the conversation id shape without being strict
// about UUID version.
func validateChatID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if len(id) != 36 {
		return false
	}
	for i, r := range id {
		switch i {
		case 8, 13, 18, 23:
			if r != '-' {
				return false
			}
		default:
			if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f' || r >= 'A' && r <= 'F') {
				return false
			}
		}
	}
	return true
}
