package message

import (
	"context"
	"errors"
	"fmt"
)

// Kind distinguishes messages whose text is edited as a body from photo
// messages whose text is a caption
type Kind int

const (
	KindText Kind = iota
	KindPhoto
)

// Telegram limits, counted in UTF-16 code units
const (
	MaxTextLength    = 4096
	MaxCaptionLength = 1024
)

func (k Kind) String() string {
	if k == KindPhoto {
		return "photo"
	}
	return "text"
}

// Limit returns the maximum body length for the kind
func (k Kind) Limit() int {
	if k == KindPhoto {
		return MaxCaptionLength
	}
	return MaxTextLength
}

// Handle addresses a single message in a chat
type Handle struct {
	ChatID    int64
	MessageID int
	Kind      Kind
}

// Button is an inline keyboard button bound to an action token
type Button struct {
	Label  string
	Action string
}

// Keyboard is an ordered list of button rows. A nil Keyboard passed to
// Commit keeps the current keyboard; an empty non-nil one removes it.
type Keyboard [][]Button

// Equal reports whether both keyboards have the same rows and buttons
func (k Keyboard) Equal(other Keyboard) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if len(k[i]) != len(other[i]) {
			return false
		}
		for j := range k[i] {
			if k[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy of the keyboard
func (k Keyboard) Clone() Keyboard {
	if k == nil {
		return nil
	}
	out := make(Keyboard, len(k))
	for i, row := range k {
		out[i] = append([]Button(nil), row...)
	}
	return out
}

// Platform is the chat API surface the message layer needs
type Platform interface {
	EditText(ctx context.Context, h Handle, body string, kb Keyboard) error
	EditCaption(ctx context.Context, h Handle, caption string, kb Keyboard) error
	SendText(ctx context.Context, chatID int64, body string, kb Keyboard) (Handle, error)
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, kb Keyboard) (Handle, error)
	Delete(ctx context.Context, h Handle) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

var (
	// ErrNotModified is returned when an edit would not change the message.
	// It is never an actual failure and callers drop it.
	ErrNotModified = errors.New("message is not modified")
	// ErrMessageGone means the target was deleted or can no longer be edited
	ErrMessageGone = errors.New("message can no longer be edited")
	// ErrTooLong means the platform rejected the body length
	ErrTooLong = errors.New("message is too long")
)

// PlatformError is any rejection from the chat platform other than ErrNotModified
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// IsNotModified reports whether err is the harmless no-op edit rejection
func IsNotModified(err error) bool {
	return errors.Is(err, ErrNotModified)
}
