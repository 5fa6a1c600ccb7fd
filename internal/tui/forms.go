// Package tui provides the interactive prompts commands reach for on a
// terminal. Callers check app.Interactive() first; nothing here is safe
// to run against a pipe.
package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
)

// ConfirmDangerous asks before an action that cannot be undone.
func ConfirmDangerous(message string) (bool, error) {
	var result bool
	err := huh.NewConfirm().
		Title(message).
		Description("This action cannot be undone.").
		Affirmative("Yes, I'm sure").
		Negative("Cancel").
		Value(&result).
		Run()
	if err != nil {
		return false, err
	}
	return result, nil
}

// AuthCode prompts for the authorization code copied from the provider's
// redirect page. The pasted value is trimmed; an empty paste re-prompts.
func AuthCode() (string, error) {
	var code string
	err := huh.NewInput().
		Title("Authorization code").
		Placeholder("Paste the code from the browser").
		Value(&code).
		Validate(func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("the code is required")
			}
			return nil
		}).
		Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(code), nil
}
