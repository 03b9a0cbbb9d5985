package application

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bnema/persona-cast/internal/ports"
	"go.uber.org/zap"
)

const (
	DefaultMaxChunkLen = 220

	sentenceBreak = ". "
)

// PacingConfig bounds the simulated typing. Typing for a chunk of n runes lasts
// Base + min(Cap, PerRune×n) + U[JitterMin, JitterMax]; chunks are separated by
// U[PauseMin, PauseMax].
type PacingConfig struct {
	MaxChunkLen         int
	Base                time.Duration
	PerRune             time.Duration
	Cap                 time.Duration
	JitterMin           time.Duration
	JitterMax           time.Duration
	PauseMin            time.Duration
	PauseMax            time.Duration
	CoalesceProbability float64
}

func DefaultPacingConfig() PacingConfig {
	return PacingConfig{
		MaxChunkLen:         DefaultMaxChunkLen,
		Base:                800 * time.Millisecond,
		PerRune:             40 * time.Millisecond,
		Cap:                 6 * time.Second,
		JitterMin:           200 * time.Millisecond,
		JitterMax:           1200 * time.Millisecond,
		PauseMin:            600 * time.Millisecond,
		PauseMax:            1800 * time.Millisecond,
		CoalesceProbability: 0.35,
	}
}

type MessagePacer struct {
	cfg     PacingConfig
	rng     ports.Random
	sleeper ports.Sleeper
	logger  *zap.Logger
}

func NewMessagePacer(cfg PacingConfig, rng ports.Random, sleeper ports.Sleeper, logger *zap.Logger) *MessagePacer {
	if cfg.MaxChunkLen <= 0 {
		cfg.MaxChunkLen = DefaultMaxChunkLen
	}
	if rng == nil {
		rng = ports.SystemRandom{}
	}
	if sleeper == nil {
		sleeper = ports.SystemSleeper{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MessagePacer{cfg: cfg, rng: rng, sleeper: sleeper, logger: logger}
}

func (p *MessagePacer) Config() PacingConfig {
	return p.cfg
}

// Split breaks text into chunks of at most maxLen runes, preferring ". " boundaries and
// packing greedily. A segment still longer than maxLen is cut into fixed-size slices.
func Split(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = DefaultMaxChunkLen
	}

	var packed []string
	var current strings.Builder
	for _, segment := range sentenceSegments(text) {
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+utf8.RuneCountInString(segment) > maxLen {
			packed = append(packed, current.String())
			current.Reset()
		}
		current.WriteString(segment)
	}
	if current.Len() > 0 {
		packed = append(packed, current.String())
	}

	chunks := make([]string, 0, len(packed))
	for _, chunk := range packed {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		if utf8.RuneCountInString(chunk) <= maxLen {
			chunks = append(chunks, chunk)
			continue
		}
		chunks = append(chunks, chop(chunk, maxLen)...)
	}

	return chunks
}

// sentenceSegments splits after every ". " keeping the separator with the left segment.
func sentenceSegments(text string) []string {
	var segments []string
	rest := text
	for {
		idx := strings.Index(rest, sentenceBreak)
		if idx < 0 {
			break
		}
		cut := idx + len(sentenceBreak)
		segments = append(segments, rest[:cut])
		rest = rest[cut:]
	}
	if rest != "" {
		segments = append(segments, rest)
	}
	return segments
}

func chop(text string, size int) []string {
	runes := []rune(text)
	out := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}

// Split uses the configured chunk length.
func (p *MessagePacer) Split(text string) []string {
	return Split(text, p.cfg.MaxChunkLen)
}

// Coalesce may join chunks back into one message, according to CoalesceProbability.
func (p *MessagePacer) Coalesce(chunks []string) []string {
	if len(chunks) < 2 || p.cfg.CoalesceProbability <= 0 {
		return chunks
	}
	if p.rng.Float64() >= p.cfg.CoalesceProbability {
		return chunks
	}

	return []string{strings.Join(chunks, " ")}
}

// TypingDelay is the typing time for a chunk of text.
func (p *MessagePacer) TypingDelay(chunk string) time.Duration {
	perRune := time.Duration(utf8.RuneCountInString(chunk)) * p.cfg.PerRune
	return p.cfg.Base + min(p.cfg.Cap, perRune) + p.uniform(p.cfg.JitterMin, p.cfg.JitterMax)
}

func (p *MessagePacer) Pause() time.Duration {
	return p.uniform(p.cfg.PauseMin, p.cfg.PauseMax)
}

// Deliver sends chunks with simulated typing. It stops at the first failed send.
func (p *MessagePacer) Deliver(ctx context.Context, chunks []string, channel ports.ChatChannel) (int, error) {
	chunks = p.Coalesce(chunks)

	sent := 0
	for i, chunk := range chunks {
		if i > 0 {
			if err := p.sleeper.Sleep(ctx, p.Pause()); err != nil {
				return sent, err
			}
		}

		if err := p.typeFor(ctx, channel, p.TypingDelay(chunk)); err != nil {
			return sent, err
		}

		if err := channel.Send(ctx, chunk); err != nil {
			return sent, fmt.Errorf("send chunk %d/%d to %s: %w", i+1, len(chunks), channel.ID(), err)
		}
		sent++
	}

	return sent, nil
}

// Say splits and delivers text.
func (p *MessagePacer) Say(ctx context.Context, text string, channel ports.ChatChannel) (int, error) {
	return p.Deliver(ctx, p.Split(text), channel)
}

func (p *MessagePacer) typeFor(ctx context.Context, channel ports.ChatChannel, delay time.Duration) error {
	stop, err := channel.Typing(ctx)
	if err != nil {
		p.logger.Debug("typing indication unavailable", zap.String("channel", string(channel.ID())), zap.Error(err))
		stop = func() {}
	}
	defer stop()

	return p.sleeper.Sleep(ctx, delay)
}

func (p *MessagePacer) uniform(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(p.rng.Float64()*float64(hi-lo))
}
