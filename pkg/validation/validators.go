package validation

import (
	"math"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	// letters, digits, spaces and . + # - / for things like "C++", "node.js", "CI/CD"
	skillRegex = regexp.MustCompile(`^[\p{L}0-9 .+#/_-]+$`)
)

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("swipe_action", SwipeAction)
	_ = v.RegisterValidation("swipe_role", SwipeRole)
	_ = v.RegisterValidation("skill", Skill)
	_ = v.RegisterValidation("no_emoji", NoEmoji)
	_ = v.RegisterValidation("finite", Finite)
}

// New returns a validator with the custom rules registered.
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// SwipeAction accepts like/dislike in any case.
func SwipeAction(fl validator.FieldLevel) bool {
	switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
	case "like", "dislike":
		return true
	}
	return false
}

// SwipeRole accepts applicant and employer plus their aliases.
func SwipeRole(fl validator.FieldLevel) bool {
	switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
	case "applicant", "candidate", "employer", "hr":
		return true
	}
	return false
}

func Skill(fl validator.FieldLevel) bool {
	val := strings.TrimSpace(fl.Field().String())
	if val == "" {
		return false
	}
	return skillRegex.MatchString(val)
}

// NoEmoji validates that a string does not contain emoji characters
func NoEmoji(fl validator.FieldLevel) bool {
	for _, r := range fl.Field().String() {
		if r > 0x1F000 {
			return false
		}
		if unicode.In(r, unicode.So, unicode.Sk) {
			return false
		}
	}
	return true
}

// Finite rejects NaN and infinities on float fields and on each element of
// float slices.
func Finite(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		f := field.Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	case reflect.Slice, reflect.Array:
		for i := 0; i < field.Len(); i++ {
			el := field.Index(i)
			if el.Kind() != reflect.Float32 && el.Kind() != reflect.Float64 {
				return false
			}
			f := el.Float()
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return false
			}
		}
		return true
	}
	return false
}
