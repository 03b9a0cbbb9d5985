package console

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bnema/persona-cast/internal/application"
	"github.com/bnema/persona-cast/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func testCast() domain.Cast {
	return domain.Cast{
		Agents: []domain.AgentProfile{
			{ID: "ava", Name: "Ava"},
			{ID: "ben"},
		},
		Channels: map[domain.ChannelID]string{"general": "console", "audit": "LOG"},
	}
}

func TestRouterWritesConsoleLines(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	router, err := NewRouter(testCast(), &out, fixedClock{now: time.Date(2026, 10, 19, 9, 5, 0, 0, time.UTC)}, nil)
	require.NoError(t, err)

	channel, err := router.Channel("ava", "general")
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelID("general"), channel.ID())

	stop, err := channel.Typing(context.Background())
	require.NoError(t, err)
	stop()

	require.NoError(t, channel.Send(context.Background(), "morning!"))

	other, err := router.Channel("ben", "general")
	require.NoError(t, err)
	require.NoError(t, other.Send(context.Background(), "hey"))

	assert.Equal(t, "09:05 #general <Ava> morning!\n09:05 #general <ben> hey\n", out.String())
}

func TestRouterLogTransportSkipsWriter(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	router, err := NewRouter(testCast(), &out, nil, nil)
	require.NoError(t, err)

	channel, err := router.Channel("ava", "audit")
	require.NoError(t, err)
	require.NoError(t, channel.Send(context.Background(), "quiet"))
	assert.Empty(t, out.String())
	assert.Equal(t, []domain.ChannelID{"audit", "general"}, router.Channels())
}

func TestRouterRejectsUnknownChannelsAndTransports(t *testing.T) {
	t.Parallel()

	router, err := NewRouter(testCast(), &bytes.Buffer{}, nil, nil)
	require.NoError(t, err)

	_, err = router.Channel("ava", "random")
	require.ErrorIs(t, err, domain.ErrUnknownChannel)

	_, err = NewRouter(domain.Cast{Channels: map[domain.ChannelID]string{"general": "irc"}}, &bytes.Buffer{}, nil, nil)
	require.Error(t, err)
	assert.ErrorContains(t, err, `unsupported transport "irc"`)
}

func TestChannelSendHonoursCancellation(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	router, err := NewRouter(testCast(), &out, nil, nil)
	require.NoError(t, err)
	channel, err := router.Channel("ava", "general")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, channel.Send(ctx, "late"), context.Canceled)
	assert.Empty(t, out.String())
}

func TestParseLine(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		line string
		want application.InboundMessage
		ok   bool
	}{
		{line: "sam: ava, coffee?", want: application.InboundMessage{Channel: "general", Author: "sam", Text: "ava, coffee?"}, ok: true},
		{line: "#music sam: new album out", want: application.InboundMessage{Channel: "music", Author: "sam", Text: "new album out"}, ok: true},
		{line: "  sam:   spaced  ", want: application.InboundMessage{Channel: "general", Author: "sam", Text: "spaced"}, ok: true},
		{line: "no colon here"},
		{line: "sam:"},
		{line: "two words: text"},
		{line: "#music"},
		{line: ""},
	}

	for _, tc := range testCases {
		got, ok := ParseLine(tc.line, "general")
		assert.Equal(t, tc.ok, ok, tc.line)
		assert.Equal(t, tc.want, got, tc.line)
	}
}
