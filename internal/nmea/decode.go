// Copyright 2021 Clayton Craft <clayton@craftyguy.net>
// SPDX-License-Identifier: GPL-3.0-or-later

package nmea

import (
	"math"
	"strconv"
)

// maxFloatLen is the longest numeric field ParseFloat will look at.
const maxFloatLen = 32

// ParseInt decodes an unsigned decimal token. It returns -1 for an empty
// token or when any byte is not a digit.
func ParseInt(tok Token) int {
	if len(tok) == 0 {
		return -1
	}

	result := 0
	for _, c := range tok {
		d := c - '0'
		if d >= 10 {
			return -1
		}
		result = result*10 + int(d)
	}
	return result
}

// ParseFloat decodes the numeric prefix of tok. An empty token yields -1 and
// an overlong token yields 0. Trailing garbage after the number is ignored,
// and a token without a numeric prefix yields 0.
func ParseFloat(tok Token) float64 {
	if len(tok) == 0 {
		return -1
	}
	if len(tok) >= maxFloatLen {
		return 0
	}

	v, err := strconv.ParseFloat(string(tok[:numericPrefix(tok)]), 64)
	if err != nil {
		return 0
	}
	return v
}

// numericPrefix returns the length of the leading [+-]digits[.digits]
// [e[+-]digits] run of tok.
func numericPrefix(tok Token) int {
	i := 0
	if i < len(tok) && (tok[i] == '+' || tok[i] == '-') {
		i++
	}

	digits := 0
	for i < len(tok) && isDigit(tok[i]) {
		i++
		digits++
	}
	if i < len(tok) && tok[i] == '.' {
		i++
		for i < len(tok) && isDigit(tok[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}

	if i < len(tok) && (tok[i] == 'e' || tok[i] == 'E') {
		j := i + 1
		if j < len(tok) && (tok[j] == '+' || tok[j] == '-') {
			j++
		}
		if j < len(tok) && isDigit(tok[j]) {
			for j < len(tok) && isDigit(tok[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// ConvertDegreesMinutes converts a DDMM.MMMM or DDDMM.MMMM coordinate to
// decimal degrees. The hemisphere is left to the caller.
func ConvertDegreesMinutes(tok Token) float64 {
	val := ParseFloat(tok)
	degrees := math.Trunc(math.Floor(val) / 100)
	minutes := val - degrees*100
	return degrees + minutes/60.0
}
