// Package validation holds the user rule set. The API enforces it on every
// write; the admin frontend runs the same rules on form input before it calls
// the API.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ovaphlow/pitchfork/service-user-directory/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/apperr"
)

const (
	MsgUserRequired     = "Username is required"
	MsgUserEmpty        = "Username cannot be empty"
	MsgAgeRequired      = "Age is required"
	MsgAgeNumber        = "Age must be a number"
	MsgAgeInteger       = "Age must be an integer"
	MsgAgeMin           = "Age must be at least 0"
	MsgAgeMax           = "Age cannot exceed 120"
	MsgMobileRequired   = "Mobile number is required"
	MsgMobileNumber     = "Mobile number must be a number"
	MsgMobileInteger    = "Mobile number must be an integer"
	MsgEmailRequired    = "Email is required"
	MsgEmailString      = "Email must be a string"
	MsgEmailInvalid     = "Please provide a valid email address"
	MsgUserString       = "Username must be a string"
	MsgInterestList     = "Interest must be a list of strings"
	MsgInterestRequired = "Please add at least one interest"
	MsgBodyObject       = "Request body must be a JSON object"
)

// messages is keyed by json field name, then validator tag.
var messages = map[string]map[string]string{
	"user": {
		"required": MsgUserRequired,
		"notblank": MsgUserEmpty,
	},
	"age": {
		"required": MsgAgeRequired,
		"integral": MsgAgeInteger,
		"min":      MsgAgeMin,
		"max":      MsgAgeMax,
	},
	"mobile": {
		"required": MsgMobileRequired,
		"integral": MsgMobileInteger,
		"safeint":  MsgMobileInteger,
	},
	"email": {
		"required": MsgEmailRequired,
		"email":    MsgEmailInvalid,
	},
}

// typeMessages covers values of the wrong JSON type.
var typeMessages = map[string]string{
	"user":     MsgUserString,
	"age":      MsgAgeNumber,
	"mobile":   MsgMobileNumber,
	"email":    MsgEmailString,
	"interest": MsgInterestList,
}

// maxSafeInt is the largest integer a float64 holds exactly.
const maxSafeInt = 1<<53 - 1

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "integral", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsInf(f, 0) && f == math.Trunc(f)
	})
	mustRegister(v, "safeint", func(fl validator.FieldLevel) bool {
		return math.Abs(fl.Field().Float()) <= maxSafeInt
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Validate checks c against the rule set and returns the first violation as a
// validation error. Rules run in field order: user, age, mobile, email.
func Validate(c entity.Candidate) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Wrap(apperr.Internal, err, "validator misconfigured")
	}
	fe := verrs[0]
	if msg, ok := messages[fe.Field()][fe.Tag()]; ok {
		return apperr.New(apperr.Validation, msg)
	}
	return apperr.Newf(apperr.Validation, "%s is invalid", fe.Field())
}

// patchBase holds a valid value for every field, so validating a patch merged
// onto it only reports problems in the fields the patch sets.
var patchBase = entity.User{Name: "patch", Email: "patch@users.local"}

// ValidatePatch checks the fields present in p with the same rules and order
// as Validate. It needs no stored record, so it can run before the lookup.
func ValidatePatch(p entity.Patch) error {
	base := patchBase
	return Validate(p.Merge(&base))
}

// RequireInterest is the frontend-only rule: at least one non-blank interest.
// The API accepts an empty list.
func RequireInterest(interest []string) error {
	for _, in := range interest {
		if strings.TrimSpace(in) != "" {
			return nil
		}
	}
	return apperr.New(apperr.Validation, MsgInterestRequired)
}

// Decode reads a JSON object from r into dst and translates decoding failures
// into validation errors. An empty body decodes to the zero value.
func Decode(r io.Reader, dst any) error {
	err := json.NewDecoder(r).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return DecodeError(err)
}

// DecodeError converts a json decoding error into a validation error.
func DecodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[:i]
		}
		if msg, ok := typeMessages[field]; ok {
			return apperr.Wrap(apperr.Validation, err, msg)
		}
	}
	return apperr.Wrap(apperr.Validation, err, MsgBodyObject)
}
