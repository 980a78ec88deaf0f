// Package common provides shared styles and utilities for the UI.
package common

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/tagracer/internal/store/notify"
)

// Icon constants
const (
	LeaderIcon   = "👑"
	OnlineIcon   = "●"
	OfflineIcon  = "○"
	ActivityIcon = "🎯"
)

// Lipgloss styles shared by the views.
var (
	DocStyle     = lipgloss.NewStyle().Margin(1, 2)
	TitleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true).Render
	BoxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	HeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	LeaderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true)
	OnlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	OfflineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	ErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	SuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	WarningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	InfoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
)

// KindStyle returns the style for a notification kind.
func KindStyle(kind notify.Kind) lipgloss.Style {
	switch kind {
	case notify.KindSuccess:
		return SuccessStyle
	case notify.KindError:
		return ErrorStyle
	case notify.KindWarning:
		return WarningStyle
	default:
		return InfoStyle
	}
}
