package validators

import (
	"regexp"
	"strings"
)

var (
	localMobileRe = regexp.MustCompile(`^[6-9]\d{9}$`)
	phoneStripper = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
)

// IsMobilePhone accepts E.164 numbers and bare 10-digit mobile numbers.
func IsMobilePhone(phone string) bool {
	normalized := phoneStripper.Replace(strings.TrimSpace(phone))
	if normalized == "" {
		return false
	}
	if localMobileRe.MatchString(normalized) {
		return true
	}
	return validate.Var(normalized, "e164") == nil
}

// IsEmail reports whether value is a syntactically valid email address.
func IsEmail(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && validate.Var(value, "email") == nil
}
