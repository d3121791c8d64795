package ui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"
)

// Credentials asks for whichever of email and password is still empty
func Credentials(email, password *string) error {
	var fields []huh.Field

	if strings.TrimSpace(*email) == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(email).
			Validate(required("email")))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(required("password")))
	}

	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithTheme(huh.ThemeCatppuccin()).Run()
}

// Input asks for a single value
func Input(title string, value *string, secret bool) error {
	in := huh.NewInput().Title(title).Value(value).Validate(required(strings.ToLower(title)))
	if secret {
		in = in.EchoMode(huh.EchoModePassword)
	}
	return huh.NewForm(huh.NewGroup(in)).WithTheme(huh.ThemeCatppuccin()).Run()
}

// Dominance asks which eye the games should treat as active
func Dominance(value *string) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Eye dominance").
				Options(
					huh.NewOption("Left eye active", "left-active"),
					huh.NewOption("Right eye active", "right-active"),
				).
				Value(value),
		),
	).WithTheme(huh.ThemeCatppuccin()).Run()
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(name + " is required")
		}
		return nil
	}
}
