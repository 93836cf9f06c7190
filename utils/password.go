package utils

import (
	"fmt"
	"strings"

	"github.com/Aashish23092/income-underwriting/dto"
)

// PasswordCandidates is the ordered list of passwords to try on a statement.
type PasswordCandidates struct {
	Primary   string
	Fallbacks []string
}

// All returns the primary password followed by the fallbacks, in try order.
func (p PasswordCandidates) All() []string {
	out := make([]string, 0, 1+len(p.Fallbacks))
	out = append(out, p.Primary)
	return append(out, p.Fallbacks...)
}

// Prefix is the only part of a password that may be logged.
func (p PasswordCandidates) Prefix() string {
	return MaskPassword(p.Primary)
}

// MaskPassword keeps the first 4 characters of a password.
func MaskPassword(pw string) string {
	if len(pw) <= 4 {
		return pw
	}
	return pw[:4] + strings.Repeat("*", len(pw)-4)
}

// DeriveStatementPasswords builds the statement password used by Indian banks
// (first four letters of the name + DDMM of birth) and its fallbacks:
// lowercase name, name alone, DDMM alone, name + birth year.
//
//	DeriveStatementPasswords(Identity{"RAJESH KUMAR SHARMA", "15/08/1985"}).Primary == "RAJE1508"
func DeriveStatementPasswords(id dto.Identity) (PasswordCandidates, error) {
	letters := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r
		}
		return -1
	}, strings.ToUpper(id.FullName))

	if len(letters) < 4 {
		return PasswordCandidates{}, dto.ErrInsufficientIdentityData.With(
			fmt.Sprintf("name has %d letters, need 4", len(letters)), nil)
	}
	name4 := letters[:4]

	dob, ok := ParseDayFirstDate(id.DateOfBirth)
	if !ok {
		return PasswordCandidates{}, dto.ErrUnparseableDate.With(
			"date of birth matches none of the accepted layouts", nil)
	}
	ddmm := dob.Format("0201")
	yyyy := fmt.Sprintf("%04d", dob.Year()%10000)

	return PasswordCandidates{
		Primary: name4 + ddmm,
		Fallbacks: []string{
			strings.ToLower(name4) + ddmm,
			name4,
			ddmm,
			name4 + yyyy,
		},
	}, nil
}
