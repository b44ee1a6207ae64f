package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/Payphone-Digital/accounts/internal/constants"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	usernameRegex = regexp.MustCompile(constants.UsernamePattern)
	phoneRegex    = regexp.MustCompile(constants.PhonePattern)

	setupOnce sync.Once
)

// Register adds the custom tags and reports fields by their json name.
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRegex.MatchString(fl.Field().String())
	}); err != nil {
		return err
	}

	return v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phoneRegex.MatchString(fl.Field().String())
	})
}

// Setup registers the custom tags on gin's binding validator. Safe to call
// more than once.
func Setup() error {
	var err error
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("validation: gin binding engine is not go-playground/validator")
			return
		}
		err = Register(v)
	})
	return err
}

// New returns a standalone validator with the custom tags registered.
func New() *validator.Validate {
	v := validator.New()
	_ = Register(v)
	return v
}

// FieldErrors converts a validator error into field name -> messages. Any
// other error yields nil.
func FieldErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(map[string][]string, len(verrs))
	for _, e := range verrs {
		field := e.Field()
		msg := ""
		if custom := CustomMessage(field); custom != nil {
			msg = custom[e.Tag()]
		}
		if msg == "" {
			msg = DefaultMessage(e.Tag(), e.Param())
		}
		out[field] = append(out[field], msg)
	}
	return out
}
