package model

import (
	"regexp"
	"strings"
	"time"
)

var settingKeyPattern = regexp.MustCompile(`^[a-z0-9_.]+$`)

type Setting struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description string    `json:"description"`
	UpdatedBy   *int64    `json:"updated_by,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SettingInput struct {
	Value       string `json:"value" binding:"required"`
	Description string `json:"description"`
}

// ValidateSettingKey checks the key format used in URLs and storage.
func ValidateSettingKey(key string) error {
	if len(key) > 100 || !settingKeyPattern.MatchString(key) {
		return invalid("key", "must match [a-z0-9_.]+ and be at most 100 characters")
	}
	return nil
}

func (in *SettingInput) Validate() error {
	in.Value = strings.TrimSpace(in.Value)
	in.Description = strings.TrimSpace(in.Description)
	return required("value", in.Value)
}
