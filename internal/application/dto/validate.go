package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/thepoolbud/poolbud-api/internal/domain"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Reportar el nombre JSON del campo en los mensajes.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// bcrypt solo admite hasta 72 bytes; "max" cuenta caracteres.
	_ = v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		return err == nil && len(fl.Field().String()) <= limit
	})
	return v
}

// Validate aplica las etiquetas `validate` y devuelve un *domain.ValidationError con el primer fallo.
func Validate(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.Invalid(err.Error())
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return domain.Invalid(fmt.Sprintf("%s es requerido", fe.Field()))
	case "email":
		return domain.Invalid(fmt.Sprintf("%s no es un email válido", fe.Field()))
	case "min":
		return domain.Invalid(fmt.Sprintf("%s debe tener al menos %s", fe.Field(), fe.Param()))
	case "max":
		return domain.Invalid(fmt.Sprintf("%s excede el máximo de %s", fe.Field(), fe.Param()))
	case "maxbytes":
		return domain.Invalid(fmt.Sprintf("%s excede el máximo de %s bytes", fe.Field(), fe.Param()))
	case "oneof":
		return domain.Invalid(fmt.Sprintf("%s debe ser uno de: %s", fe.Field(), fe.Param()))
	case "uuid":
		return domain.Invalid(fmt.Sprintf("%s debe ser un UUID", fe.Field()))
	default:
		return domain.Invalid(fmt.Sprintf("%s inválido (%s)", fe.Field(), fe.Tag()))
	}
}
