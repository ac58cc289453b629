package wizard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rgehrsitz/quotego/internal/domain"
	"github.com/shopspring/decimal"
)

// Check validates one field value and returns an error message, or "" when
// the value is acceptable. Checks only run on filled fields.
type Check func(value string) string

var (
	phonePattern        = regexp.MustCompile(`^(?:\+?254|0)(?:[71]\d{8}|[2-6]\d{7})$`)
	nationalIDPattern   = regexp.MustCompile(`^\d{8}$`)
	registrationPattern = regexp.MustCompile(`^K[A-Z]{2,3} ?\d{3}[A-Z]$`)
	kraPinPattern       = regexp.MustCompile(`^[AP]\d{9}[A-Z]$`)
	passportPattern     = regexp.MustCompile(`^[A-Z]\d{8}$`)
	businessRegPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^PVT-[A-Z0-9]+/\d{4}$`),
		regexp.MustCompile(`^C\.\d+$`),
		regexp.MustCompile(`^BN/\d+$`),
	}

	validate = validator.New()
)

// KenyanPhone accepts mobile (07xx, 01xx) and landline numbers, local or
// with the 254 country code
func KenyanPhone(value string) string {
	clean := strings.NewReplacer(" ", "", "-", "").Replace(value)
	if !phonePattern.MatchString(clean) {
		return "must be a valid Kenyan phone number"
	}
	return ""
}

// KenyanNationalID accepts 8 digits that are not all the same or 12345678
func KenyanNationalID(value string) string {
	clean := strings.ReplaceAll(value, " ", "")
	if !nationalIDPattern.MatchString(clean) {
		return "must be exactly 8 digits"
	}
	if strings.Count(clean, clean[:1]) == len(clean) || clean == "12345678" {
		return "is not a valid ID number"
	}
	return ""
}

// VehicleRegistration accepts plates such as KAA 123A or KBCD123X
func VehicleRegistration(value string) string {
	if !registrationPattern.MatchString(strings.ToUpper(strings.TrimSpace(value))) {
		return "must look like KAA 123A"
	}
	return ""
}

// KRAPin accepts individual (A) and company (P) PINs
func KRAPin(value string) string {
	if !kraPinPattern.MatchString(strings.ToUpper(strings.TrimSpace(value))) {
		return "must be a letter A or P, 9 digits and a letter"
	}
	return ""
}

// Passport accepts a letter followed by 8 digits
func Passport(value string) string {
	if !passportPattern.MatchString(strings.ToUpper(strings.ReplaceAll(value, " ", ""))) {
		return "must be a letter followed by 8 digits"
	}
	return ""
}

// BusinessRegistration accepts company, incorporation and business name numbers
func BusinessRegistration(value string) string {
	clean := strings.ToUpper(strings.ReplaceAll(value, " ", ""))
	for _, p := range businessRegPatterns {
		if p.MatchString(clean) {
			return ""
		}
	}
	return "must be a company (PVT-XXX/2020), incorporation (C.123) or business name (BN/123) number"
}

// Email validates an email address
func Email(value string) string {
	v := strings.TrimSpace(value)
	if len(v) > 254 || validate.Var(v, "email") != nil {
		return "must be a valid email address"
	}
	return ""
}

// NonNegativeNumber accepts numbers with optional thousands separators
func NonNegativeNumber(value string) string {
	n, err := parseNumber(value)
	if err != nil {
		return "must be a number"
	}
	if n.IsNegative() {
		return "must not be negative"
	}
	return ""
}

// WholeNumber accepts non-negative integers
func WholeNumber(value string) string {
	n, err := parseNumber(value)
	if err != nil || n.IsNegative() || !n.Equal(n.Truncate(0)) {
		return "must be a whole number"
	}
	return ""
}

// Between accepts numbers in the closed range [min, max]
func Between(min, max int64) Check {
	lo, hi := decimal.NewFromInt(min), decimal.NewFromInt(max)
	return func(value string) string {
		n, err := parseNumber(value)
		if err != nil {
			return "must be a number"
		}
		if n.LessThan(lo) || n.GreaterThan(hi) {
			return fmt.Sprintf("must be between %d and %d", min, max)
		}
		return ""
	}
}

// AtLeast accepts numbers greater than or equal to min
func AtLeast(min int64) Check {
	lo := decimal.NewFromInt(min)
	return func(value string) string {
		n, err := parseNumber(value)
		if err != nil {
			return "must be a number"
		}
		if n.LessThan(lo) {
			return fmt.Sprintf("must be at least %d", min)
		}
		return ""
	}
}

// OneOf accepts one of the options, ignoring case
func OneOf(options ...string) Check {
	return func(value string) string {
		for _, o := range options {
			if strings.EqualFold(strings.TrimSpace(value), o) {
				return ""
			}
		}
		return fmt.Sprintf("must be one of %s", strings.Join(options, ", "))
	}
}

// Field runs checks against one field when it is filled. The first failing
// check is reported.
func Field(key string, checks ...Check) Validator {
	return func(s domain.DraftSnapshot, errs domain.FieldErrors) {
		if !s.Has(key) {
			return
		}
		for _, check := range checks {
			if msg := check(s.Field(key)); msg != "" {
				errs.Add(key, msg)
				return
			}
		}
	}
}

// RequiredWhen requires key when every condition holds
func RequiredWhen(key string, conditions ...domain.FieldCondition) Validator {
	return func(s domain.DraftSnapshot, errs domain.FieldErrors) {
		if domain.AllHold(conditions, s) && !s.Has(key) {
			errs.Add(key, fmt.Sprintf("%s is required", humanize(key)))
		}
	}
}

// NotAfterCreationYear rejects years later than the year the draft was started
func NotAfterCreationYear(key string, earliest int64) Validator {
	return func(s domain.DraftSnapshot, errs domain.FieldErrors) {
		if !s.Has(key) {
			return
		}
		Field(key, WholeNumber, Between(earliest, int64(s.CreatedAt().Year())))(s, errs)
	}
}

// PremiumKey is the error key used when the premium is missing
const PremiumKey = "premium"

// PremiumCalculated blocks a step until a premium is attached to the draft
func PremiumCalculated() Validator {
	return func(s domain.DraftSnapshot, errs domain.FieldErrors) {
		if !s.HasPremium() {
			errs.Add(PremiumKey, "calculate the premium before continuing")
		}
	}
}

// Is returns a predicate that holds when key equals one of values
func Is(key string, values ...string) Predicate {
	cond := domain.FieldCondition{Field: key, In: values}
	return func(s domain.DraftSnapshot) bool {
		return cond.Holds(s)
	}
}
