// SPDX-License-Identifier: Apache-2.0
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/coffer-backup/coffer/pkg/config"
)

// RenderCenteredModal renders a modal overlay centered in the terminal
func RenderCenteredModal(content string, width, height int, borderColor lipgloss.Color, modalWidth int) string {
	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(1, 2).
		Width(modalWidth).
		Render(content)

	return lipgloss.Place(
		width, height,
		lipgloss.Center, lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color("0")),
	)
}

// RenderProgressModal renders a progress modal with title, status,
// indicator, and help text
func RenderProgressModal(title, statusMessage, indicator, helpText string, width, height, modalWidth int) string {
	theme := config.CurrentTheme

	titleStyled := lipgloss.NewStyle().
		Foreground(theme.GetPrimaryColor()).
		Bold(true).
		Render(title)

	statusStyled := ""
	if statusMessage != "" {
		statusStyled = theme.SubtleStyle().Render("\n" + statusMessage)
	}

	indicatorStyled := ""
	if indicator != "" {
		indicatorStyled = "\n" + indicator
	}

	helpStyled := theme.SubtleStyle().Render("\n\nPlease wait...")
	if helpText != "" {
		helpStyled = theme.SubtleStyle().Render("\n\n" + helpText)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, titleStyled, statusStyled, indicatorStyled, helpStyled)
	return RenderCenteredModal(content, width, height, theme.GetPrimaryColor(), modalWidth)
}
