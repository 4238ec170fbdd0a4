package validator

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/nulzo/polymage/pkg/domain"
	"github.com/nulzo/polymage/pkg/model"
)

var (
	trans ut.Translator
	once  sync.Once
)

// InitValidator configures gin's validator engine: json field names in
// messages, English translations and the capability tag. Safe to call
// more than once.
func InitValidator() {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation("capability", func(fl validator.FieldLevel) bool {
			return slices.Contains(model.Capabilities, model.Capability(fl.Field().String()))
		})

		locale := en.New()
		uni := ut.New(locale, locale)
		trans, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, trans)
	})
}

// ParseValidationError converts binding errors into a field → message map,
// keyed by the nested json path.
func ParseValidationError(err error) map[string]string {
	errMap := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			ns := e.Namespace()
			if i := strings.Index(ns, "."); i != -1 {
				ns = ns[i+1:]
			}

			var msg string
			switch e.Tag() {
			case "oneof":
				msg = fmt.Sprintf("must be one of [%s]", strings.ReplaceAll(e.Param(), " ", ", "))
			case "capability":
				names := make([]string, len(model.Capabilities))
				for i, c := range model.Capabilities {
					names[i] = string(c)
				}
				msg = fmt.Sprintf("must be one of [%s]", strings.Join(names, ", "))
			default:
				if trans != nil {
					msg = e.Translate(trans)
				} else {
					msg = e.Error()
				}
			}
			errMap[ns] = msg
		}
		return errMap
	}

	errMap["body"] = "Invalid request body format. Please fix your payload."
	return errMap
}

// Problem wraps a binding error as a 400 validation problem.
func Problem(err error) *domain.Problem {
	return domain.ValidationProblem(ParseValidationError(err))
}
