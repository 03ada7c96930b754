package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var genders = map[string]struct{}{"male": {}, "female": {}, "other": {}}

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules used by the request models.
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
			_, ok := genders[fl.Field().String()]
			return ok
		})
	})
}
