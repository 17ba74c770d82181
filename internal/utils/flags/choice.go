package flags

import (
	"errors"
	"fmt"
	"strings"
)

const (
	choicePlaceholderPrefixConstant   = "<"
	choicePlaceholderSuffixConstant   = ">"
	choiceSeparatorConstant           = "|"
	choiceUsageEmptyTemplateConstant  = "`%s`"
	choiceUsageFullTemplateConstant   = "`%s` %s"
	unsupportedChoiceTemplateConstant = "%w %q (expected %s)"
)

// ErrUnsupportedChoice indicates a value outside the enumerated choices.
var ErrUnsupportedChoice = errors.New("unsupported value")

// Choice is an enumerated option with a default, such as a log level or an inspector backend.
type Choice struct {
	defaultValue string
	values       []string
}

// NewChoice trims and deduplicates values. The default keeps its position in the list.
func NewChoice(defaultValue string, values []string) Choice {
	normalizedValues := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		trimmedValue := strings.TrimSpace(value)
		if len(trimmedValue) == 0 {
			continue
		}
		if _, exists := seen[trimmedValue]; exists {
			continue
		}
		seen[trimmedValue] = struct{}{}
		normalizedValues = append(normalizedValues, trimmedValue)
	}
	return Choice{defaultValue: strings.TrimSpace(defaultValue), values: normalizedValues}
}

// Default returns the default value.
func (choice Choice) Default() string {
	return choice.defaultValue
}

// Values returns the accepted values in declaration order.
func (choice Choice) Values() []string {
	return append([]string(nil), choice.values...)
}

// Usage builds a flag usage string where the default value is capitalized inside a placeholder.
func (choice Choice) Usage(description string) string {
	highlighted := make([]string, 0, len(choice.values))
	for _, value := range choice.values {
		if value == choice.defaultValue {
			value = strings.ToUpper(value)
		}
		highlighted = append(highlighted, value)
	}
	placeholder := choicePlaceholderPrefixConstant + strings.Join(highlighted, choiceSeparatorConstant) + choicePlaceholderSuffixConstant
	if len(strings.TrimSpace(description)) == 0 {
		return fmt.Sprintf(choiceUsageEmptyTemplateConstant, placeholder)
	}
	return fmt.Sprintf(choiceUsageFullTemplateConstant, placeholder, description)
}

// Validate rejects values outside the choice. Matching is exact.
func (choice Choice) Validate(value string) error {
	for _, acceptedValue := range choice.values {
		if acceptedValue == value {
			return nil
		}
	}
	return fmt.Errorf(unsupportedChoiceTemplateConstant, ErrUnsupportedChoice, value, strings.Join(choice.values, choiceSeparatorConstant))
}
