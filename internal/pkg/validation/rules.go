package validation

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// PassingYearPattern matches academic years such as "2019-20"
	PassingYearPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

	// UnitCodePattern matches academic unit codes such as "ENG" or "CS2"
	UnitCodePattern = regexp.MustCompile(`^[A-Z0-9]{2,10}$`)

	// PasswordMinLength is the shortest accepted password
	PasswordMinLength = 8
)

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator with the custom rules registered
func Validator() *validator.Validate {
	once.Do(func() {
		instance = validator.New(validator.WithRequiredStructEnabled())
		Register(instance)
	})
	return instance
}

// Register adds the custom rules and JSON field naming to v
func Register(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("passingyear", func(fl validator.FieldLevel) bool {
		return IsPassingYear(fl.Field().String())
	})
	_ = v.RegisterValidation("unitcode", func(fl validator.FieldLevel) bool {
		return UnitCodePattern.MatchString(fl.Field().String())
	})
}

// RegisterWithGin installs the custom rules on gin's binding validator
func RegisterWithGin() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Register(v)
	}
}

// IsPassingYear reports whether s has the YYYY-YY shape and the second year follows the first
func IsPassingYear(s string) bool {
	if !PassingYearPattern.MatchString(s) {
		return false
	}
	// "2019-20": the short year must be the next one
	first := int(s[2]-'0')*10 + int(s[3]-'0')
	second := int(s[5]-'0')*10 + int(s[6]-'0')
	return second == (first+1)%100
}

// MaxLength reports whether s has at most n characters
func MaxLength(s string, n int) bool {
	return Validator().Var(s, "max="+strconv.Itoa(n)) == nil
}

// IsBlank reports whether s is empty after trimming whitespace
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func jsonFieldName(fld reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return fld.Name
}
