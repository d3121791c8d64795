package ui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/redmonkez12/dichoptic/internal/client"
)

func PrintSuccess(msg string) {
	fmt.Println(successStyle.Render(msg))
}

func PrintError(msg string) {
	fmt.Println(errorStyle.Render("Error: " + msg))
}

func PrintNotice(msg string) {
	fmt.Println(subtleStyle.Render(msg))
}

func PrintProfile(p *client.Profile) {
	fmt.Println(titleStyle.Render("Signed in"))
	fmt.Printf("  Email:   %s\n", p.Email)
	fmt.Printf("  User ID: %s\n", p.ID)
	fmt.Println(subtleStyle.Render("  Access token expires " + p.ExpiresAt.Local().Format("2006-01-02 15:04:05")))
}

func PrintScores(game string, entries []client.Score) {
	fmt.Println(titleStyle.Render("Top " + game + " scores"))
	if len(entries) == 0 {
		PrintNotice("No scores yet.")
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(subtleStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("#", "Score", "Date", "Time")

	for i, e := range entries {
		t.Row(strconv.Itoa(i+1), strconv.Itoa(e.Score), e.Date, e.Time)
	}
	fmt.Println(t)
}

func PrintSettings(s client.Settings) {
	fmt.Println(titleStyle.Render("Colour filters"))
	fmt.Printf("  Left eye:  %s %s\n", swatch(s.LeftEyeColor), s.LeftEyeColor)
	fmt.Printf("  Right eye: %s %s\n", swatch(s.RightEyeColor), s.RightEyeColor)
	fmt.Printf("  Dominance: %s\n", s.EyeDominance)
	if s.UpdatedAt == nil {
		fmt.Println(subtleStyle.Render("  (defaults, not saved yet)"))
	}
}
