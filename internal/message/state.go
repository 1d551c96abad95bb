package message

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/rivo/uniseg"
)

// TruncationMarker is appended to bodies cut down to the platform limit
const TruncationMarker = "\n\n… (truncated)"

const tipIcon = "💡"

// State wraps one editable chat message. It remembers the last content
// committed (content), the last text actually rendered on the platform
// (rendered, which may carry a transient status line) and the keyboard.
// Edits through a State are serialized.
type State struct {
	platform Platform

	mu       sync.Mutex
	handle   Handle
	content  string
	rendered string
	keyboard Keyboard
}

// NewState wraps an existing message whose current body and keyboard are known
func NewState(platform Platform, h Handle, body string, kb Keyboard) *State {
	return &State{
		platform: platform,
		handle:   h,
		content:  body,
		rendered: body,
		keyboard: kb.Clone(),
	}
}

// Handle returns the message currently wrapped
func (s *State) Handle() Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle
}

// CurrentBody returns the last known full rendered text or caption
func (s *State) CurrentBody() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rendered
}

// ContentBody returns the last committed content, without any status line
// written by CommitStatus
func (s *State) ContentBody() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

// CurrentKeyboard returns a copy of the current keyboard
func (s *State) CurrentKeyboard() Keyboard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keyboard.Clone()
}

// Rebind points the State at a different message, e.g. after the old one was
// deleted and a replacement sent
func (s *State) Rebind(h Handle, body string, kb Keyboard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handle = h
	s.content = body
	s.rendered = body
	s.keyboard = kb.Clone()
}

// Commit replaces the message body, and the keyboard unless kb is nil.
// Identical content yields ErrNotModified without reaching the platform.
func (s *State) Commit(ctx context.Context, body string, kb Keyboard) error {
	return s.commit(ctx, body, kb, false)
}

// CommitStatus rewrites only the status line of the last committed content
func (s *State) CommitStatus(ctx context.Context, line string) error {
	return s.commit(ctx, ReplaceStatusRegion(s.ContentBody(), line), nil, true)
}

func (s *State) commit(ctx context.Context, body string, kb Keyboard, transient bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if kb == nil {
		kb = s.keyboard
	}
	limit := s.handle.Kind.Limit()
	body = Truncate(body, limit)
	if body == s.rendered && kb.Equal(s.keyboard) {
		return ErrNotModified
	}

	err := s.edit(ctx, body, kb)
	if errors.Is(err, ErrTooLong) {
		body = Truncate(body, limit*3/4)
		err = s.edit(ctx, body, kb)
	}
	if err != nil && !errors.Is(err, ErrNotModified) {
		return err
	}

	s.rendered = body
	s.keyboard = kb.Clone()
	if !transient {
		s.content = body
	}
	return err
}

func (s *State) edit(ctx context.Context, body string, kb Keyboard) error {
	if s.handle.Kind == KindPhoto {
		return s.platform.EditCaption(ctx, s.handle, body, kb)
	}
	return s.platform.EditText(ctx, s.handle, body, kb)
}

// ReplaceStatusRegion returns body with its status line replaced by line.
// The status line is, in order of preference: a line already equal to line,
// the first line holding a tip marker, the last non-blank line. A body
// without non-blank lines gets line appended. All other lines are kept
// byte-identical.
func ReplaceStatusRegion(body, line string) string {
	lines := strings.Split(body, "\n")
	idx := statusIndex(lines, line)
	if idx < 0 {
		if strings.TrimSpace(body) == "" {
			return line
		}
		return body + "\n" + line
	}
	lines[idx] = line
	return strings.Join(lines, "\n")
}

func statusIndex(lines []string, line string) int {
	for i, l := range lines {
		if l == line {
			return i
		}
	}
	for i, l := range lines {
		if strings.Contains(l, tipIcon) && strings.Contains(strings.ToLower(l), "tip") {
			return i
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return i
		}
	}
	return -1
}

// Truncate cuts body so that it fits limit UTF-16 code units including
// TruncationMarker. Cuts fall on grapheme cluster boundaries.
func Truncate(body string, limit int) string {
	if Length(body) <= limit {
		return body
	}
	budget := limit - Length(TruncationMarker)
	if budget < 0 {
		budget = 0
	}

	var b strings.Builder
	used := 0
	g := uniseg.NewGraphemes(body)
	for g.Next() {
		cluster := g.Str()
		n := Length(cluster)
		if used+n > budget {
			break
		}
		b.WriteString(cluster)
		used += n
	}
	return strings.TrimRight(b.String(), " \t\n") + TruncationMarker
}

// Length counts s in UTF-16 code units, the unit Telegram limits are given in
func Length(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}
