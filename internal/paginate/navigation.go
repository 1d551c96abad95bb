package paginate

import "fmt"

// NavKind identifies a navigation button
type NavKind int

const (
	NavFirst NavKind = iota
	NavPrevious
	NavIndicator
	NavNext
	NavLast
)

// indicatorThreshold is the page count above which the indicator and the
// first/last jumps are shown
const indicatorThreshold = 5

// NavButton is one button of the navigation row. Target is the 0-based page
// the button leads to; the indicator targets the current page.
type NavButton struct {
	Kind   NavKind
	Label  string
	Target int
}

// Navigation returns the navigation row for page current of total
func Navigation(current, total int) []NavButton {
	if total <= 1 {
		return nil
	}
	current = Clamp(current, total)
	long := total > indicatorThreshold

	var row []NavButton
	if long && current > 1 {
		row = append(row, NavButton{Kind: NavFirst, Label: "⏮️ First", Target: 0})
	}
	if current > 0 {
		row = append(row, NavButton{Kind: NavPrevious, Label: "⬅️ Previous", Target: current - 1})
	}
	if long {
		row = append(row, NavButton{Kind: NavIndicator, Label: Indicator(current, total), Target: current})
	}
	if current < total-1 {
		row = append(row, NavButton{Kind: NavNext, Label: "Next ➡️", Target: current + 1})
	}
	if long && current < total-2 {
		row = append(row, NavButton{Kind: NavLast, Label: "Last ⏭️", Target: total - 1})
	}
	return row
}

// Indicator renders "📄 2/7" for a 0-based current page
func Indicator(current, total int) string {
	return fmt.Sprintf("📄 %d/%d", current+1, total)
}
