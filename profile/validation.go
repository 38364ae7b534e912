package profile

import (
	"errors"
	"sort"

	"github.com/carthy/go-auth"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// LoginRequest is the payload of POST /api/v1/auth/token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// RegistrationRequest is the payload of POST /api/v1/users.
type RegistrationRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Sex      string `json:"sexe"`
}

func (r RegistrationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.Sex, validation.Required, validation.In(string(auth.SexMale), string(auth.SexFemale))),
	)
}

// VerifyCodeRequest is the payload of PUT /api/v1/users/code.
type VerifyCodeRequest struct {
	Username string     `json:"username"`
	Reason   CodeReason `json:"reason"`
	Code     string     `json:"code"`
}

func (r VerifyCodeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Reason, validation.Required, validation.In(CodeReasonEmailVerification, CodeReasonPasswordReset)),
		validation.Field(&r.Code, validation.Required, validation.Length(5, 5), is.Digit),
	)
}

// validationError converts ozzo field errors into an auth validation error.
// Other errors are returned unchanged.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	keys := make([]string, 0, len(fieldErrs))
	for k := range fieldErrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]auth.FieldError, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, auth.FieldError{Field: k, Message: fieldErrs[k].Error()})
	}
	return auth.ValidationError("Invalid request", fields...)
}
