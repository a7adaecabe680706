// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package formsubmit

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Required accepts any non-empty value.
func Required(value string, _ Values) bool {
	return value != ""
}

// MinLength accepts values with at least n characters.
func MinLength(n int) func(string, Values) bool {
	return func(value string, _ Values) bool {
		return utf8.RuneCountInString(value) >= n
	}
}

// Matches accepts values equal to the value of another field.
func Matches(other string) func(string, Values) bool {
	return func(value string, all Values) bool {
		return value == all[other]
	}
}

// Pattern accepts values matching re.
func Pattern(re *regexp.Regexp) func(string, Values) bool {
	return func(value string, _ Values) bool {
		return re.MatchString(value)
	}
}

// emailPattern is the address syntax accepted by the blog API.
var emailPattern = regexp.MustCompile(`^[a-z0-9.\-_]+@[a-z0-9\-_]+(\.[a-z0-9\-_]+){1,4}$`)

// Email accepts addresses the blog API accepts, compared in lower case.
func Email(value string, _ Values) bool {
	return emailPattern.MatchString(strings.ToLower(value))
}
