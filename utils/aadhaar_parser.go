package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Aashish23092/income-underwriting/dto"
)

var (
	labelledDOBRegex = regexp.MustCompile(`(?i)(?:dob|date\s+of\s+birth|d\.o\.b)\s*[:\-]?\s*([0-9]{2}[/.\-][0-9]{2}[/.\-][0-9]{4})`)
	anyDateRegex     = regexp.MustCompile(`\b([0-9]{2}[/.\-][0-9]{2}[/.\-][0-9]{4})\b`)
	nonLetterRegex   = regexp.MustCompile(`[^A-Za-z\s]+`)
)

// Words printed on Aadhaar letters that are never part of a holder's name.
var aadhaarBoilerplate = map[string]bool{
	"government": true, "india": true, "authority": true, "unique": true,
	"identification": true, "aadhaar": true, "address": true, "enrolment": true,
	"father": true, "husband": true, "male": true, "female": true, "dob": true,
}

// ParseAadhaarText reads the holder's name and date of birth from OCR text of
// an Aadhaar card or letter. The name is taken from the lines just above the
// DOB line, which is where UIDAI prints it.
func ParseAadhaarText(text string) dto.Identity {
	lines := nonEmptyLines(text)

	dob, dobIdx := findDOB(lines)
	return dto.Identity{
		FullName:    nameAbove(lines, dobIdx),
		DateOfBirth: strings.NewReplacer("-", "/", ".", "/").Replace(dob),
	}
}

func nonEmptyLines(text string) []string {
	var lines []string
	for line := range strings.Lines(strings.ReplaceAll(text, "\r", "")) {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func findDOB(lines []string) (string, int) {
	for i, line := range lines {
		if m := labelledDOBRegex.FindStringSubmatch(line); m != nil {
			return m[1], i
		}
	}
	for i, line := range lines {
		if m := anyDateRegex.FindStringSubmatch(line); m != nil {
			return m[1], i
		}
	}
	return "", -1
}

func nameAbove(lines []string, dobIdx int) string {
	for i := dobIdx - 1; i >= 0 && dobIdx-i <= 3; i-- {
		if name := nameFromLine(lines[i]); isLikelyPersonName(name) {
			return name
		}
	}
	return ""
}

// nameFromLine keeps letters only and title-cases the first three words.
func nameFromLine(line string) string {
	parts := strings.Fields(nonLetterRegex.ReplaceAllString(line, " "))
	parts = parts[:min(len(parts), 3)]
	for i, p := range parts {
		p = strings.ToLower(p)
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func isLikelyPersonName(name string) bool {
	words := strings.Fields(name)
	if len(words) < 2 || len(words) > 4 {
		return false
	}

	for _, w := range words {
		if aadhaarBoilerplate[strings.ToLower(w)] {
			return false
		}
	}

	letters := 0
	for _, r := range name {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 4 {
		return false
	}

	for _, w := range words {
		if len(w) < 2 {
			return false
		}
	}
	return true
}
