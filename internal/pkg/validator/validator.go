package validator

import (
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)
}

// FieldErrors maps a request field (its json name, dotted for nested
// fields) to the failed validation tag.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" failed "+fe[k])
	}
	return "invalid " + strings.Join(parts, ", ")
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	fe := Struct(v)
	if fe == nil {
		return nil
	}
	var out FieldErrors
	if errors.As(fe, &out) {
		return out
	}
	return map[string]string{"_": fe.Error()}
}

// Struct validates v and returns FieldErrors, or nil when v is valid.
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(FieldErrors, len(verrs))
	for _, e := range verrs {
		out[fieldPath(e.Namespace())] = e.Tag()
	}
	return out
}

// fieldPath drops the root struct name: "Req.passengers[0].name" -> "passengers[0].name".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
