// Package intent holds the pure text classifiers that drive the intake
// dialogue: caller role, affirmation/negation, and phone normalization. All
// functions operate on normalized (trimmed, lowercased) Spanish text.
package intent

import (
	"strings"
	"unicode"
)

// Role is the caller's relationship with the company.
type Role string

const (
	RoleUnset      Role = ""
	RoleOwner      Role = "propietario"
	RoleTenant     Role = "inquilino"
	RoleFranchisee Role = "franquiciado"
)

// Affirmation is the outcome of a yes/no classification.
type Affirmation int

const (
	AffirmationNone Affirmation = iota
	AffirmationYes
	AffirmationNo
)

// Normalize trims surrounding whitespace and lowercases.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// roleStems maps keyword stems to roles, in match priority order. Stems rather
// than full words so inflections ("propietaria", "alquilar") still match.
var roleStems = []struct {
	stem string
	role Role
}{
	{"propiet", RoleOwner},
	{"dueñ", RoleOwner},
	{"inquil", RoleTenant},
	{"alquil", RoleTenant},
	{"franquici", RoleFranchisee},
}

// ClassifyRole recovers the caller role from free text. Returns RoleUnset when
// no stem matches.
func ClassifyRole(s string) Role {
	s = Normalize(s)
	for _, rs := range roleStems {
		if strings.Contains(s, rs.stem) {
			return rs.role
		}
	}
	return RoleUnset
}

var (
	yesPhrases = []string{" sí ", " si ", " correcto ", " vale ", " de acuerdo ", " exacto ", " afirmativo "}
	noPhrases  = []string{" no ", " negativo ", " incorrecto ", " no quiero ", " no gracias "}
)

// ClassifyAffirmation tests the utterance against small fixed yes/no phrase
// sets. Phrases are matched with boundary spaces so "noche" never reads as a
// negation. Negation wins when an utterance matches both sets.
func ClassifyAffirmation(s string) Affirmation {
	padded := " " + Normalize(s) + " "
	for _, p := range noPhrases {
		if strings.Contains(padded, p) {
			return AffirmationNo
		}
	}
	for _, p := range yesPhrases {
		if strings.Contains(padded, p) {
			return AffirmationYes
		}
	}
	return AffirmationNone
}

// ExtractPhone strips everything but digits and normalizes Spanish numbers to
// an E.164-style string. Fewer than 9 digits is rejected so the caller can be
// asked to repeat.
func ExtractPhone(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 9 {
		return "", false
	}
	if strings.HasPrefix(digits, "34") && len(digits) >= 11 {
		return "+" + digits, true
	}
	if len(digits) == 9 {
		return "+34" + digits, true
	}
	return "+" + digits, true
}

// Title uppercases the first letter of each word, the way names and city
// names are stored on the lead.
func Title(s string) string {
	fields := strings.Fields(strings.TrimSpace(s))
	for i, f := range fields {
		runes := []rune(strings.ToLower(f))
		runes[0] = unicode.ToUpper(runes[0])
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}
