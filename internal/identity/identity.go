// Package identity validates Brazilian tax identification numbers: the
// 11-digit personal form (CPF) and the 14-digit business form (CNPJ).
//
// Validation is pure and never returns an error for bad input; the driving
// UI runs it on every keystroke, so malformed input is an expected outcome,
// not a fault. Both forms end in two check digits computed as weighted
// modulo-11 sums over the preceding digits (remainder < 2 yields 0,
// otherwise 11 minus the remainder).
package identity

import "strings"

// Kind distinguishes the two identification number forms.
type Kind string

const (
	KindPersonal Kind = "personal" // 11 digits (CPF)
	KindBusiness Kind = "business" // 14 digits (CNPJ)
)

// Status classifies a validation result.
type Status string

const (
	StatusMalformed      Status = "malformed"
	StatusChecksumFailed Status = "checksum_failed"
	StatusValid          Status = "valid"
)

const (
	personalLength = 11
	businessLength = 14
)

// Outcome is the structured result of validating a raw input string.
// Digits holds the normalized digit string only when Status is StatusValid.
type Outcome struct {
	Status Status
	Kind   Kind
	Digits string
}

// IsValid reports whether the outcome represents a valid number.
func (o Outcome) IsValid() bool { return o.Status == StatusValid }

// Validate strips formatting from raw and classifies it as a personal or
// business identification number based on digit count.
func Validate(raw string) Outcome {
	digits := stripNonDigits(raw)
	switch len(digits) {
	case personalLength:
		return validateDigits(digits, KindPersonal)
	case businessLength:
		return validateDigits(digits, KindBusiness)
	default:
		return Outcome{Status: StatusMalformed}
	}
}

// ValidatePersonal validates raw strictly as the 11-digit personal form.
// Business-length input is malformed here, not reclassified.
func ValidatePersonal(raw string) Outcome {
	digits := stripNonDigits(raw)
	if len(digits) != personalLength {
		return Outcome{Status: StatusMalformed, Kind: KindPersonal}
	}
	return validateDigits(digits, KindPersonal)
}

// ValidateBusiness validates raw strictly as the 14-digit business form.
func ValidateBusiness(raw string) Outcome {
	digits := stripNonDigits(raw)
	if len(digits) != businessLength {
		return Outcome{Status: StatusMalformed, Kind: KindBusiness}
	}
	return validateDigits(digits, KindBusiness)
}

func validateDigits(digits string, kind Kind) Outcome {
	// Sequences of one repeated digit satisfy the checksum but are known
	// invalid registrations.
	if allIdentical(digits) {
		return Outcome{Status: StatusChecksumFailed, Kind: kind}
	}

	payload := len(digits) - 2
	first := checkDigit(digits[:payload], kind)
	second := checkDigit(digits[:payload+1], kind)
	if int(digits[payload]-'0') != first || int(digits[payload+1]-'0') != second {
		return Outcome{Status: StatusChecksumFailed, Kind: kind}
	}
	return Outcome{Status: StatusValid, Kind: kind, Digits: digits}
}

// checkDigit computes one modulo-11 check digit over digits. Weights ascend
// from 2 starting at the rightmost digit; the personal form lets them grow
// unbounded while the business form wraps back to 2 after 9.
func checkDigit(digits string, kind Kind) int {
	sum := 0
	weight := 2
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight++
		if kind == KindBusiness && weight > 9 {
			weight = 2
		}
	}
	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}

func stripNonDigits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allIdentical(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}
