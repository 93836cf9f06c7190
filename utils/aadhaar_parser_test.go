package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Aashish23092/income-underwriting/dto"
)

func TestParseAadhaarText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want dto.Identity
	}{
		{
			name: "card front",
			text: `
				Government of India
				RAJESH KUMAR SHARMA
				DOB: 15/08/1990
				Male
				1234 5678 9012
			`,
			want: dto.Identity{FullName: "Rajesh Kumar Sharma", DateOfBirth: "15/08/1990"},
		},
		{
			name: "noise between name and dob",
			text: `
				Unique Identification Authority of India
				Priya Nair
				~~ |
				Date of Birth - 02-01-1992
				Female
			`,
			want: dto.Identity{FullName: "Priya Nair", DateOfBirth: "02/01/1992"},
		},
		{
			name: "unlabelled date",
			text: "Anil Rao\n05.11.1988\n",
			want: dto.Identity{FullName: "Anil Rao", DateOfBirth: "05/11/1988"},
		},
		{
			name: "no date",
			text: "Government of India\nRajesh Sharma\n",
			want: dto.Identity{},
		},
		{
			name: "boilerplate only above dob",
			text: "Government of India\nDOB: 15/08/1990\n",
			want: dto.Identity{DateOfBirth: "15/08/1990"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAadhaarText(tt.text))
		})
	}
}

func TestParseAadhaarText_NameContainingBoilerplateSubstring(t *testing.T) {
	got := ParseAadhaarText("KAMALESH INDIRA\nDOB: 01/01/1980\n")
	assert.Equal(t, "Kamalesh Indira", got.FullName)
}
