package ui

import "github.com/charmbracelet/lipgloss"

// Color names one palette entry.
type Color string

const (
	ColorDefault     Color = ""
	ColorGray        Color = "#969696"
	ColorWhite       Color = "#FFFFFF"
	ColorRed         Color = "#FF0000"
	ColorLightRed    Color = "#FF9696"
	ColorLightGreen  Color = "#96FF96"
	ColorGreen       Color = "#00FF00"
	ColorYellow      Color = "#FFFF00"
	ColorLightYellow Color = "#FFFF96"
	ColorLightBlue   Color = "#9696FF"
	ColorBrown       Color = "#A52A2A"
	ColorLightPurple Color = "#C896FF"
	ColorOrange      Color = "#FFA500"
	ColorLightOrange Color = "#FFC896"
)

// style returns a foreground style for c, or a plain style when colors are off.
func (u *UI) style(c Color) lipgloss.Style {
	s := u.renderer.NewStyle()
	if u.useColor && c != ColorDefault {
		s = s.Foreground(lipgloss.Color(c))
	}
	return s
}

func (u *UI) colorize(message string, c Color) string {
	if !u.useColor || c == ColorDefault {
		return message
	}
	return u.style(c).Render(message)
}
