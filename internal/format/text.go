// Package format holds the text helpers used to render GitHub data into
// Telegram messages.
package format

import (
	"fmt"
	"strings"
	"time"
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"_", `\_`,
	"*", `\*`,
	"`", "\\`",
	"[", `\[`,
)

// EscapeMarkdown escapes the characters Telegram's legacy Markdown treats as
// entity delimiters
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Number abbreviates large counts: 950, 1.2K, 3.4M, 1.0B
func Number(n int) string {
	f := float64(n)
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", f/1e9)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", f/1e6)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", f/1e3)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// FileSize renders a byte count as B, KB, MB, GB or TB
func FileSize(bytes int64) string {
	f := float64(bytes)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if f < 1024 {
			return fmt.Sprintf("%.1f %s", f, unit)
		}
		f /= 1024
	}
	return fmt.Sprintf("%.1f TB", f)
}

// HumanizeSince renders the age of t relative to now, e.g. "3d ago"
func HumanizeSince(t, now time.Time) string {
	if t.IsZero() {
		return "Unknown"
	}
	d := now.Sub(t)
	if d < 0 {
		d = 0
	}
	days := int(d.Hours() / 24)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case days < 1:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case days < 30:
		return fmt.Sprintf("%dd ago", days)
	case days < 365:
		return fmt.Sprintf("%dmo ago", days/30)
	default:
		return fmt.Sprintf("%dy ago", days/365)
	}
}

// Humanize is HumanizeSince relative to the current time
func Humanize(t time.Time) string {
	return HumanizeSince(t, time.Now())
}

// Bar renders a ten-cell progress bar for a percentage
func Bar(percent float64) string {
	filled := int(percent/10 + 0.5)
	if filled > 10 {
		filled = 10
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}

// Clip shortens s to at most n runes, adding "..." when cut
func Clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

var languageEmoji = map[string]string{
	"JavaScript": "🟨", "TypeScript": "🔵", "Python": "🐍", "Java": "☕",
	"C++": "⚡", "C": "🔧", "C#": "💜", "Go": "🐹", "Rust": "🦀",
	"Ruby": "💎", "PHP": "🐘", "Swift": "🍎", "Kotlin": "🟣", "HTML": "🌐",
	"CSS": "🎨", "Shell": "🐚", "Dockerfile": "🐳", "Dart": "🎯", "R": "📊",
	"Scala": "🔴", "Perl": "🐪", "Lua": "🌙", "Haskell": "🎓", "Clojure": "🍀",
	"Elixir": "💧", "Erlang": "📡", "F#": "🔷", "OCaml": "🐫",
	"Vim Script": "📝", "PowerShell": "💙", "Assembly": "⚙️", "Makefile": "🔨",
	"CMake": "🏗️",
}

// LanguageEmoji returns the icon shown next to a programming language
func LanguageEmoji(lang string) string {
	if e, ok := languageEmoji[lang]; ok {
		return e
	}
	return "📝"
}

var licenseEmoji = map[string]string{
	"MIT License":                              "✅",
	"Apache License 2.0":                       "🔓",
	"GNU General Public License v3.0":          "🆓",
	"Mozilla Public License 2.0":               "🦊",
	"The Unlicense":                            "🚫",
	"ISC License":                              "📋",
	"GNU Lesser General Public License v3.0":   "📚",
	"Creative Commons Zero v1.0 Universal":     "🎨",
	`BSD 3-Clause "New" or "Revised" License`:  "📜",
	`BSD 2-Clause "Simplified" License`:        "📄",
}

func LicenseEmoji(name string) string {
	if e, ok := licenseEmoji[name]; ok {
		return e
	}
	return "📄"
}

// Thousands renders n with comma separators, e.g. 12,345
func Thousands(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
