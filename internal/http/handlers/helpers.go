// Package handlers contains HTTP handlers that sit outside the core
// scheduling services, such as the doctor portal.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// normalizePhoneDigits extracts just the digits from a phone number.
func normalizePhoneDigits(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}

// phoneDigitsCandidates returns the digit forms a Philippine mobile number
// may be stored under: local 0917... and international 63917... both match.
func phoneDigitsCandidates(raw string) []string {
	digits := normalizePhoneDigits(raw)
	if digits == "" {
		return nil
	}
	candidates := []string{digits}
	if len(digits) == 11 && strings.HasPrefix(digits, "0") {
		candidates = append(candidates, "63"+digits[1:])
	} else if len(digits) == 12 && strings.HasPrefix(digits, "63") {
		candidates = append(candidates, "0"+digits[2:])
	}
	return uniqueStrings(candidates)
}

func appendPhoneDigitsFilter(columnExpr string, digits []string, args *[]any, argNum *int) string {
	if len(digits) == 0 {
		return ""
	}
	placeholders := make([]string, 0, len(digits))
	for _, d := range digits {
		placeholders = append(placeholders, fmt.Sprintf("$%d", *argNum))
		*args = append(*args, d)
		*argNum++
	}
	return fmt.Sprintf(" AND %s IN (%s)", columnExpr, strings.Join(placeholders, ","))
}

func uniqueStrings(values []string) []string {
	if len(values) < 2 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
