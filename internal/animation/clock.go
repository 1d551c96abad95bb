package animation

import "sort"

// DefaultStyle is used when a requested style is unknown
const DefaultStyle = "bounce"

// Frame is a single step of an animation
type Frame struct {
	Icon  string
	Index int
}

var styles = map[string][]string{
	"dots":     {"⏳", "⌛", "⏳", "⌛"},
	"spinner":  {"🔄", "🔃", "🔄", "🔃"},
	"pulse":    {"🔵", "🔷", "🔹", "🔷"},
	"wave":     {"🌊", "〰️", "🌊", "〰️"},
	"stars":    {"⭐", "🌟", "✨", "🌟"},
	"progress": {"▱", "▰", "▱", "▰"},
	"bounce":   {"⚡", "💥", "⚡", "💥"},
	"fire":     {"🔥", "🌋", "🔥", "🌋"},
	"rocket":   {"🚀", "✨", "🚀", "✨"},
	"magic":    {"🎭", "✨", "🎭", "✨"},
	"clock":    {"🕐", "🕑", "🕒", "🕓"},
	"heart":    {"💖", "💕", "💖", "💕"},
	"rainbow":  {"🌈", "🌟", "🌈", "🌟"},
	"tech":     {"⚙️", "🔧", "⚙️", "🔧"},
	"diamond":  {"💎", "✨", "💎", "✨"},
}

// Frames returns the icon sequence for a style, falling back to DefaultStyle.
// The returned slice is a copy and always non-empty.
func Frames(style string) []string {
	frames, ok := styles[style]
	if !ok {
		frames = styles[DefaultStyle]
	}
	out := make([]string, len(frames))
	copy(out, frames)
	return out
}

// FrameAt returns the frame shown at the given tick. Ticks wrap around the
// style's frame list, negative ticks included.
func FrameAt(style string, tick int) Frame {
	frames, ok := styles[style]
	if !ok {
		frames = styles[DefaultStyle]
	}
	i := tick % len(frames)
	if i < 0 {
		i += len(frames)
	}
	return Frame{Icon: frames[i], Index: i}
}

// Known reports whether style is a registered animation style
func Known(style string) bool {
	_, ok := styles[style]
	return ok
}

// Styles lists all registered style names in alphabetical order
func Styles() []string {
	names := make([]string, 0, len(styles))
	for name := range styles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
