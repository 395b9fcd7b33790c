package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Payload size limits (in bytes)
const (
	MaxJSONSize      = 1 * 1024 * 1024 // 1MB - imported blueprint documents
	MaxConfigSize    = 64 * 1024       // 64KB - a single node config patch
	MaxConfigDepth   = 16
	MaxNodesPerBatch = 500
)

// String length limits
const (
	MaxIDLength          = 128
	MaxNameLength        = 256
	MaxLabelLength       = 128
	MaxDescriptionLength = 2048
	MaxCategoryLength    = 64
	MaxTagLength         = 32
	MaxTagCount          = 20
	MaxGithubFieldLength = 512
)

var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// NodeTypePattern allows lowercase alphanumerics and hyphens (erc20-stylus, x402-paywall)
	NodeTypePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	categoryPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// ErrPayloadTooLarge is wrapped by size check failures.
var ErrPayloadTooLarge = errors.New("payload too large")

// JSONSizeValidator validates JSON size limits
type JSONSizeValidator struct {
	maxSize int
}

// NewJSONSizeValidator creates a new validator with the specified max size
func NewJSONSizeValidator(maxSize int) *JSONSizeValidator {
	return &JSONSizeValidator{maxSize: maxSize}
}

// DefaultJSONValidator returns a validator with the default 1MB limit
func DefaultJSONValidator() *JSONSizeValidator {
	return NewJSONSizeValidator(MaxJSONSize)
}

// ValidateSize checks if the data size is within limits
func (v *JSONSizeValidator) ValidateSize(data []byte) error {
	if size := len(data); size > v.maxSize {
		return fmt.Errorf("%w: %d bytes exceeds maximum %d bytes", ErrPayloadTooLarge, size, v.maxSize)
	}
	return nil
}

// ValidateJSON validates both size and JSON structure
func (v *JSONSizeValidator) ValidateJSON(data []byte) error {
	if err := v.ValidateSize(data); err != nil {
		return err
	}
	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON")
	}
	return nil
}

// ValidateJSONDepth checks if JSON nesting depth is within limits
func ValidateJSONDepth(data interface{}, maxDepth int) error {
	return checkDepth(data, 0, maxDepth)
}

func checkDepth(data interface{}, currentDepth int, maxDepth int) error {
	if currentDepth > maxDepth {
		return fmt.Errorf("JSON nesting depth %d exceeds maximum %d", currentDepth, maxDepth)
	}

	switch v := data.(type) {
	case map[string]interface{}:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, value := range v {
			if err := checkDepth(value, currentDepth+1, maxDepth); err != nil {
				return err
			}
		}
	}

	return nil
}

// ValidateConfigPatch bounds the size and depth of a node config patch.
func ValidateConfigPatch(patch map[string]interface{}) error {
	data, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("config is not JSON-serializable: %w", err)
	}
	if err := NewJSONSizeValidator(MaxConfigSize).ValidateSize(data); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return ValidateJSONDepth(map[string]interface{}(patch), MaxConfigDepth)
}

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateNodeType validates a plugin type identifier
func ValidateNodeType(nodeType string) error {
	if err := ValidateString(nodeType, "type", 1, MaxIDLength, true); err != nil {
		return err
	}
	if !NodeTypePattern.MatchString(nodeType) {
		return fmt.Errorf("type must contain only lowercase letters, numbers, and hyphens")
	}
	return nil
}

// ValidateName validates a name field
func ValidateName(name, fieldName string) error {
	return ValidateString(name, fieldName, 1, MaxNameLength, true)
}

// ValidateDescription validates a description field
func ValidateDescription(description, fieldName string, required bool) error {
	return ValidateString(description, fieldName, 0, MaxDescriptionLength, required)
}

// ValidateCategory validates a category field
func ValidateCategory(category string, required bool) error {
	if err := ValidateString(category, "category", 0, MaxCategoryLength, required); err != nil {
		return err
	}

	if category != "" && !categoryPattern.MatchString(category) {
		return fmt.Errorf("category must contain only lowercase letters, numbers, and hyphens")
	}

	return nil
}

// ValidateTags validates an array of tags
func ValidateTags(tags []string) error {
	if len(tags) > MaxTagCount {
		return fmt.Errorf("too many tags (maximum %d)", MaxTagCount)
	}

	for i, tag := range tags {
		if err := ValidateString(tag, fmt.Sprintf("tag[%d]", i), 1, MaxTagLength, false); err != nil {
			return err
		}
	}

	return nil
}
