package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	nonstandard "github.com/go-playground/validator/v10/non-standard/validators"

	pkgerrors "github.com/rbhardware/shop-backend/pkg/errors"
	"github.com/rbhardware/shop-backend/pkg/types"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	if err := v.RegisterValidation("notblank", nonstandard.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if money, ok := field.Interface().(types.Money); ok {
			return money.InexactFloat64()
		}
		return nil
	}, types.Money{})
	return v
}

// FieldMessenger is implemented by request types whose clients expect a
// single message per failing field instead of the generic detail map.
// Returning "" falls back to "validation failed".
type FieldMessenger interface {
	ValidationMessage(field, tag string) string
}

// Struct runs the validate tags of v. The first failing field, in
// declaration order, picks the top-level message when v is a FieldMessenger.
func Struct(v any) error {
	if err := validate.Struct(v); err != nil {
		return formatValidationErrors(v, err)
	}
	return nil
}

// DecodeJSONBody decodes the request body into dest and runs its validate
// tags. Unknown fields are ignored since storefront clients post whole
// documents back.
func DecodeJSONBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid request body")
	}
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return pkgerrors.New(pkgerrors.CodeValidation, "invalid request body")
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
	}
	return Struct(dest)
}

func formatValidationErrors(dest any, err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		message := "validation failed"
		if messenger, ok := dest.(FieldMessenger); ok {
			if custom := messenger.ValidationMessage(errs[0].Field(), errs[0].Tag()); custom != "" {
				message = custom
			}
		}
		return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return "is invalid"
}
