package Controllers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/es"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	es_translations "github.com/go-playground/validator/v10/translations/es"
	"github.com/gofiber/fiber/v2"
)

var (
	validate   = validator.New()
	translator ut.Translator
)

func init() {
	spanish := es.New()
	uni := ut.New(spanish, spanish)
	translator, _ = uni.GetTranslator("es")
	if err := es_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}
	// report fields by their json name
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// parseAndValidate decodes the JSON body into out and validates it. When it
// returns false the error response has been written already.
func parseAndValidate(ctx *fiber.Ctx, out interface{}) (bool, error) {
	if err := ctx.BodyParser(out); err != nil {
		return false, ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cuerpo de la solicitud inválido"})
	}
	if err := validate.Struct(out); err != nil {
		return false, validationError(ctx, err)
	}
	return true, nil
}

func validationError(ctx *fiber.Ctx, err error) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Datos inválidos"})
	}
	fields := make(map[string]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = fe.Translate(translator)
	}
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":  "Validación fallida",
		"fields": fields,
	})
}
