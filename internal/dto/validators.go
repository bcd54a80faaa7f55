package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/verdantlabs/carbon_registry_app/internal/core/ports/ledger"
)

// RegisterCustomValidators wires the chain-specific binding tags into gin's
// validator engine. Call once during startup, before any routes are served.
func RegisterCustomValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("chainaddr", func(fl validator.FieldLevel) bool {
		return ledger.IsValidAddress(fl.Field().String())
	})
	_ = v.RegisterValidation("txhash", func(fl validator.FieldLevel) bool {
		return ledger.IsValidTxHash(fl.Field().String())
	})
}
