package web

import (
	"strconv"
	"strings"
)

// NavItem is one link in the signed-in navbar.
type NavItem struct {
	Label  string
	Href   string
	Active bool
}

var navLinks = []NavItem{
	{Label: "Dashboard", Href: "/dashboard"},
	{Label: "Morning", Href: "/morning"},
	{Label: "History", Href: "/history"},
	{Label: "Settings", Href: "/settings"},
}

// NavItems returns the navbar links with the one matching path marked active.
// INVARIANT: at most one item is active, and only on an exact path match
func NavItems(path string) []NavItem {
	items := make([]NavItem, len(navLinks))
	for i, item := range navLinks {
		item.Active = item.Href == path
		items[i] = item
	}
	return items
}

// Initials returns the first two characters of email, upper-cased, for the avatar.
func Initials(email string) string {
	runes := []rune(strings.TrimSpace(email))
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes))
}

// formatHours renders optional sleep hours; unset shows as 0.
func formatHours(h *float64) string {
	if h == nil {
		return "0"
	}
	return strconv.FormatFloat(*h, 'f', -1, 64)
}
