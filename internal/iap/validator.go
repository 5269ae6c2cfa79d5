/*
Copyright (c) Amazon Web Services
Distributed under the terms of the MIT license
*/

package iap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	utilerrors "k8s.io/apimachinery/pkg/util/errors"
)

// ErrInvalidToken is returned for tokens that cannot be decoded or fail validation
var ErrInvalidToken = errors.New("invalid token")

// ValidationIssue describes one failed check
type ValidationIssue struct {
	Code        string
	Description string
}

func (i ValidationIssue) Error() string {
	return i.Description
}

func newIssue(description string) ValidationIssue {
	return ValidationIssue{Code: ErrorCodeInvalidToken, Description: description}
}

// ValidationResult collects the issues reported by a Validator
type ValidationResult struct {
	Errors []ValidationIssue
}

// Success returns a result without issues
func Success() ValidationResult {
	return ValidationResult{}
}

// Failure returns a result with the given issues
func Failure(issues ...ValidationIssue) ValidationResult {
	return ValidationResult{Errors: issues}
}

// HasErrors reports whether any check failed
func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Descriptions returns the issue descriptions in evaluation order
func (r ValidationResult) Descriptions() []string {
	descriptions := make([]string, len(r.Errors))
	for i, issue := range r.Errors {
		descriptions[i] = issue.Description
	}
	return descriptions
}

// Err returns the issues as an aggregate error, or nil when validation succeeded
func (r ValidationResult) Err() error {
	errs := make([]error, len(r.Errors))
	for i, issue := range r.Errors {
		errs[i] = issue
	}
	return utilerrors.NewAggregate(errs)
}

// ValidationError is returned by decoders when a signed token fails validation
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidToken, strings.Join(e.Result.Descriptions(), "; "))
}

// Is reports ErrInvalidToken so callers can treat validation failures as invalid tokens
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidToken
}

// Unwrap exposes the individual issues
func (e *ValidationError) Unwrap() error {
	return e.Result.Err()
}

// Validator checks a decoded token
type Validator interface {
	Validate(ctx context.Context, token *Token) ValidationResult
}

// ValidatorFunc adapts a function to Validator
type ValidatorFunc func(ctx context.Context, token *Token) ValidationResult

// Validate calls f
func (f ValidatorFunc) Validate(ctx context.Context, token *Token) ValidationResult {
	return f(ctx, token)
}

// TimestampValidator checks the exp and nbf claims with a clock skew
type TimestampValidator struct {
	ClockSkew time.Duration
	Now       func() time.Time
}

// NewTimestampValidator creates a TimestampValidator with DefaultClockSkew
func NewTimestampValidator() *TimestampValidator {
	return &TimestampValidator{ClockSkew: DefaultClockSkew, Now: time.Now}
}

// Validate implements Validator
func (v *TimestampValidator) Validate(_ context.Context, token *Token) ValidationResult {
	now := time.Now()
	if v.Now != nil {
		now = v.Now()
	}

	if token.ExpiresAt != nil && now.Add(-v.ClockSkew).After(token.ExpiresAt.Time) {
		return Failure(newIssue(fmt.Sprintf("Jwt expired at %s", token.ExpiresAt.UTC().Format(time.RFC3339))))
	}
	if token.NotBefore != nil && now.Add(v.ClockSkew).Before(token.NotBefore.Time) {
		return Failure(newIssue(fmt.Sprintf("Jwt used before %s", token.NotBefore.UTC().Format(time.RFC3339))))
	}
	return Success()
}

// IssuerValidator checks that the iss claim equals the expected issuer
type IssuerValidator struct {
	issuer string
}

// NewIssuerValidator creates an IssuerValidator
func NewIssuerValidator(issuer string) *IssuerValidator {
	return &IssuerValidator{issuer: issuer}
}

// Validate implements Validator
func (v *IssuerValidator) Validate(_ context.Context, token *Token) ValidationResult {
	if token.Issuer != v.issuer {
		return Failure(newIssue(DescriptionInvalidIssuer))
	}
	return Success()
}

// DelegatingValidator runs every delegate in order and concatenates their issues.
// A failing delegate does not prevent the following ones from running.
type DelegatingValidator struct {
	delegates []Validator
}

// NewDelegatingValidator creates a DelegatingValidator; nil delegates are skipped
func NewDelegatingValidator(delegates ...Validator) *DelegatingValidator {
	v := &DelegatingValidator{}
	for _, d := range delegates {
		if d != nil {
			v.delegates = append(v.delegates, d)
		}
	}
	return v
}

// Validate implements Validator
func (v *DelegatingValidator) Validate(ctx context.Context, token *Token) ValidationResult {
	var issues []ValidationIssue
	for _, d := range v.delegates {
		issues = append(issues, d.Validate(ctx, token).Errors...)
	}
	return ValidationResult{Errors: issues}
}
