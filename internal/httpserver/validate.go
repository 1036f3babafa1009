package httpserver

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validate returns the shared struct validator used to check decoded
// request bodies in the coordinator and synchronizer HTTP surfaces.
func Validate() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}
