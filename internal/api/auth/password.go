package auth

import (
	"fmt"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/minecom/minedash/internal/config"
)

// PasswordTag is the binding tag of the sign-up password rule.
const PasswordTag = "password"

// RegisterPasswordValidation installs the password rule of policy on gin's validator.
func RegisterPasswordValidation(policy *config.PasswordPolicyConfig) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation(PasswordTag, func(fl validator.FieldLevel) bool {
		return strongEnough(policy, fl.Field().String())
	})
}

// strongEnough reports whether password satisfies policy. A nil or disabled
// policy accepts everything.
func strongEnough(policy *config.PasswordPolicyConfig, password string) bool {
	if policy == nil || !policy.Enabled {
		return true
	}
	if len([]rune(password)) < policy.MinLength {
		return false
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return upper && lower && digit
}
