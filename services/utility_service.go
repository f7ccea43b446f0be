package services

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ShafHaider007/expo-portal/shared"
)

// UtilityService provides text normalization and display formatting helpers
// shared by the portal views
type UtilityService struct {
	serviceMetrics *shared.ServiceMetrics
}

// NewUtilityService creates a new utility service instance
func NewUtilityService() *UtilityService {
	return &UtilityService{
		serviceMetrics: shared.NewServiceMetrics("Utility_Service"),
	}
}

var nonDigitRegex = regexp.MustCompile(`\D`)

// FormatCNIC renders a Pakistani CNIC in the standard #####-#######-# form.
// Exactly 13 digits are required; any other digit count comes back unchanged.
func (s *UtilityService) FormatCNIC(raw string) string {
	digits := nonDigitRegex.ReplaceAllString(raw, "")
	if len(digits) != 13 {
		return raw
	}
	return digits[:5] + "-" + digits[5:12] + "-" + digits[12:]
}

// FormatAmount renders an amount with comma grouping for display,
// e.g. 1000000 -> "1,000,000"
func (s *UtilityService) FormatAmount(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	whole := strconv.FormatFloat(amount, 'f', 0, 64)

	var grouped strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(digit)
	}

	if negative {
		return "-" + grouped.String()
	}
	return grouped.String()
}

// NormalizeTextContent cleans and standardizes text arriving from upstream
// payloads before display
func (s *UtilityService) NormalizeTextContent(text string) string {
	if text == "" {
		return ""
	}

	text = strings.TrimSpace(text)

	whitespaceRegex := regexp.MustCompile(`\s+`)
	text = whitespaceRegex.ReplaceAllString(text, " ")

	// Upstream amount strings occasionally carry currency prefixes
	text = strings.ReplaceAll(text, "₨", "")
	text = strings.ReplaceAll(text, "Rs.", "")
	text = strings.ReplaceAll(text, "Rs ", "")

	return strings.TrimSpace(text)
}

// ExtractNumeric pulls the first numeric value out of an upstream string,
// tolerating comma grouping. Returns 0 when nothing numeric is present.
func (s *UtilityService) ExtractNumeric(text string) float64 {
	cleaned := strings.ReplaceAll(s.NormalizeTextContent(text), ",", "")

	numberRegex := regexp.MustCompile(`-?\d+(\.\d+)?`)
	match := numberRegex.FindString(cleaned)
	if match == "" {
		return 0
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return value
}
