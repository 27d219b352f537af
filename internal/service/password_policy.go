package service

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/shopfront/internal/config"
)

// ErrWeakPassword 密码不满足策略
var ErrWeakPassword = errors.New("password does not meet policy")

type passwordPolicyError struct {
	reason string
}

func (e passwordPolicyError) Error() string {
	return fmt.Sprintf("password does not meet policy: %s", e.reason)
}

func (e passwordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

func validatePassword(policy config.PasswordPolicyConfig, password string) error {
	minLength := policy.MinLength
	if minLength <= 0 {
		minLength = 8
	}
	if len(password) < minLength {
		return passwordPolicyError{reason: fmt.Sprintf("at least %d characters", minLength)}
	}

	var hasUpper, hasLower, hasNumber bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsNumber(r):
			hasNumber = true
		}
	}
	if policy.RequireUpper && !hasUpper {
		return passwordPolicyError{reason: "uppercase letter required"}
	}
	if policy.RequireLower && !hasLower {
		return passwordPolicyError{reason: "lowercase letter required"}
	}
	if policy.RequireNumber && !hasNumber {
		return passwordPolicyError{reason: "number required"}
	}
	return nil
}
