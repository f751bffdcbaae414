package models

import (
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

func init() {
	Validate = validator.New()

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		_, err := ParseClock(fl.Field().String(), 0)
		return err == nil
	})
	_ = Validate.RegisterValidation("trigger_type", func(fl validator.FieldLevel) bool {
		return slices.Contains(TriggerTypes, fl.Field().String())
	})
}

// Validate checks the rule fields before it is stored.
func (r AutomationRule) Validate() error {
	return Validate.Struct(r)
}
