package output

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Sand    = lipgloss.Color("#E5A00D")
	DimGray = lipgloss.Color("#6B7280")
	Green   = lipgloss.Color("#10B981")
	Red     = lipgloss.Color("#EF4444")
	Amber   = lipgloss.Color("#F59E0B")
	SkyBlue = lipgloss.Color("#3B82F6")
)

// Raw visit markers (unstyled)
const (
	PlannedChar = "●"
	VisitedChar = "✓"
)

// Styles bound to one renderer, so color detection follows the output writer
type Styles struct {
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Dim     lipgloss.Style
	Accent  lipgloss.Style
	Visited lipgloss.Style
	Planned lipgloss.Style
}

func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Success: r.NewStyle().Foreground(Green),
		Error:   r.NewStyle().Foreground(Red).Bold(true),
		Warning: r.NewStyle().Foreground(Amber),
		Dim:     r.NewStyle().Foreground(DimGray),
		Accent:  r.NewStyle().Foreground(SkyBlue),
		Visited: r.NewStyle().Foreground(Green),
		Planned: r.NewStyle().Foreground(Sand),
	}
}
