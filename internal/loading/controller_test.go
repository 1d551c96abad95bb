package loading

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ghexplorer/internal/animation"
	"ghexplorer/internal/message"
	"ghexplorer/internal/message/messagetest"
)

const testCadence = 5 * time.Millisecond

func newTestState(p *messagetest.Platform, body string) *message.State {
	return message.NewState(p, message.Handle{ChatID: 42, MessageID: 7}, body, nil)
}

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "⚡⚡ Loading repositories... ⚡⚡", StatusLine("⚡", "Loading repositories", 0))
	assert.Equal(t, "🔥🔥 Loading followers page 3... 🔥🔥", StatusLine("🔥", "Loading followers", 3))
	assert.Equal(t, "❌❌ Not found - Try again ❌❌", ErrorLine("Not found"))
}

func TestStart_RendersFirstFrameImmediately(t *testing.T) {
	p := messagetest.New()
	st := newTestState(p, "👤 octocat\n💡 Tip: hold on")
	c := NewController(zap.NewNop(), "fire", time.Hour)

	s := c.Start(context.Background(), st, Options{Action: "Loading profile"})
	require.Eventually(t, func() bool { return len(p.Calls()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, StatusRunning, s.Status())

	assert.Equal(t, StatusCancelled, s.Stop())
	first := animation.FrameAt("fire", 0).Icon
	assert.Equal(t, "👤 octocat\n"+StatusLine(first, "Loading profile", 0), p.Body(7))
}

func TestStop_JoinsAndIsIdempotent(t *testing.T) {
	p := messagetest.New()
	st := newTestState(p, "body")
	c := NewController(zap.NewNop(), "", testCadence)

	s := c.Start(context.Background(), st, Options{})
	require.Eventually(t, func() bool { return len(p.Calls()) >= 3 }, time.Second, time.Millisecond)

	assert.Equal(t, StatusCancelled, s.Stop())
	after := len(p.Calls())
	time.Sleep(5 * testCadence)
	assert.Equal(t, after, len(p.Calls()), "no frame may land after Stop returns")

	assert.NotPanics(t, func() {
		assert.Equal(t, StatusCancelled, s.Stop())
	})
	assert.Equal(t, "body", st.ContentBody())
}

func TestStop_NilSession(t *testing.T) {
	var s *Session
	assert.Equal(t, StatusIdle, s.Stop())
	assert.Equal(t, StatusIdle, s.Status())
}

func TestStart_DurationCompletes(t *testing.T) {
	p := messagetest.New()
	c := NewController(zap.NewNop(), "", testCadence)

	s := c.Start(context.Background(), newTestState(p, "body"), Options{Duration: 4 * testCadence})
	assert.Equal(t, StatusCompleted, s.Wait())
	assert.Equal(t, StatusCompleted, s.Stop())
}

func TestStart_ParentContextCancels(t *testing.T) {
	p := messagetest.New()
	c := NewController(zap.NewNop(), "", testCadence)
	ctx, cancel := context.WithCancel(context.Background())

	s := c.Start(ctx, newTestState(p, "body"), Options{})
	cancel()
	assert.Equal(t, StatusCancelled, s.Wait())
}

func TestStart_MessageGoneFails(t *testing.T) {
	p := messagetest.New()
	st := newTestState(p, "body")
	require.NoError(t, p.Delete(context.Background(), st.Handle()))
	c := NewController(zap.NewNop(), "", testCadence)

	s := c.Start(context.Background(), st, Options{})
	assert.Equal(t, StatusFailed, s.Wait())
	assert.Equal(t, StatusFailed, s.Stop())
}

func TestStart_PanicFails(t *testing.T) {
	p := messagetest.New()
	p.OnEdit = func(messagetest.Call) { panic("boom") }
	c := NewController(zap.NewNop(), "", testCadence)

	s := c.Start(context.Background(), newTestState(p, "body"), Options{})
	assert.Equal(t, StatusFailed, s.Wait())
}

func TestStart_EditErrorsDoNotStopLoop(t *testing.T) {
	p := messagetest.New()
	p.Fail(messagetest.OpEditText, &message.PlatformError{Op: "editMessageText", Err: errors.New("bad gateway")})
	p.Fail(messagetest.OpEditText, &message.PlatformError{Op: "editMessageText", Err: errors.New("bad gateway")})
	c := NewController(zap.NewNop(), "", testCadence)

	s := c.Start(context.Background(), newTestState(p, "body"), Options{})
	require.Eventually(t, func() bool { return len(p.Calls()) >= 2 }, time.Second, time.Millisecond)
	assert.Equal(t, StatusCancelled, s.Stop())
}

func TestStart_FramesKeepContent(t *testing.T) {
	p := messagetest.New()
	body := "📁 *golang/go*\n⭐ 120k\n💡 Tip: use /trending\nfooter"
	st := newTestState(p, body)
	c := NewController(zap.NewNop(), "clock", testCadence)

	s := c.Start(context.Background(), st, Options{Action: "Loading README", Page: 2})
	require.Eventually(t, func() bool { return len(p.Calls()) >= 5 }, time.Second, time.Millisecond)
	s.Stop()

	for _, call := range p.Calls() {
		lines := strings.Split(call.Body, "\n")
		require.Len(t, lines, 4)
		assert.Equal(t, "📁 *golang/go*", lines[0])
		assert.Equal(t, "⭐ 120k", lines[1])
		assert.Contains(t, lines[2], "Loading README page 2...")
		assert.Equal(t, "footer", lines[3])
	}
	assert.Equal(t, body, st.ContentBody())
}

func TestShowStaticFrame(t *testing.T) {
	p := messagetest.New()
	st := newTestState(p, "body")
	c := NewController(zap.NewNop(), "rocket", testCadence)

	require.NoError(t, c.ShowStaticFrame(context.Background(), st, Options{Action: "Searching"}))
	require.NoError(t, c.ShowStaticFrame(context.Background(), st, Options{Action: "Searching"}))
	assert.Len(t, p.Calls(), 1)
	assert.Equal(t, StatusLine(animation.FrameAt("rocket", 0).Icon, "Searching", 0), p.Body(7))
}
