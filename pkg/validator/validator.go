package validator

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validator checks `validate` struct tags.
type Validator interface {
	Validate(interface{}) error
}

type structValidator struct {
	once     sync.Once
	validate *validator.Validate
}

// New returns a Validator whose errors name fields by their JSON keys.
func New() Validator {
	return &structValidator{}
}

func (v *structValidator) Validate(obj interface{}) error {
	v.once.Do(func() {
		v.validate = validator.New(validator.WithRequiredStructEnabled())
		v.validate.RegisterTagNameFunc(JSONFieldName)
	})
	return v.validate.Struct(obj)
}

// JSONFieldName reports a struct field by its JSON key.
func JSONFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
