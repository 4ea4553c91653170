package dto

import (
	"reflect"
	"strings"
	"sync"

	"github.com/Rafcin/openship/internal/domain/integration"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags used by request DTOs
// on gin's validator engine and reports fields by their json/form name.
// It is safe to call more than once.
//
//	link_mode      sequential | simultaneous
//	webhook_topic  a topic the ingress routes accept
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("link_mode", validateLinkMode)
		_ = v.RegisterValidation("webhook_topic", validateWebhookTopic)
	})
}

func fieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
	}
	return name
}

func validateLinkMode(fl validator.FieldLevel) bool {
	return integration.LinkMode(fl.Field().String()).IsValid()
}

func validateWebhookTopic(fl validator.FieldLevel) bool {
	_, _, err := integration.WebhookTopic(fl.Field().String()).Operation()
	return err == nil
}
