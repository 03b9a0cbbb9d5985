package jsonfile

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
	"github.com/spf13/viper"
)

const (
	MemoryPathKey = "memory.path"

	memoryFileName = "memory.json"
)

type memoryFileSchema struct {
	Memories []memorySchema `json:"memories"`
}

type memorySchema struct {
	ID        string   `json:"id"`
	Who       string   `json:"who"`
	Summary   string   `json:"summary"`
	Tone      string   `json:"tone"`
	Tags      []string `json:"tags"`
	Weight    float64  `json:"weight"`
	Timestamp float64  `json:"timestamp"`
	Date      string   `json:"date"`
}

// MemoryRepository stores the shared memory log as {"memories": [...]}. Timestamps are
// fractional unix seconds.
type MemoryRepository struct {
	path string
	mu   *sync.RWMutex
}

var _ ports.MemoryRepository = (*MemoryRepository)(nil)

func NewMemoryRepository(cfg *viper.Viper) (*MemoryRepository, error) {
	path, err := resolvePath(cfg, MemoryPathKey, memoryFileName)
	if err != nil {
		return nil, err
	}

	return &MemoryRepository{path: path, mu: lockForPath(path)}, nil
}

func (r *MemoryRepository) Path() string {
	return r.path
}

func (r *MemoryRepository) List(ctx context.Context) ([]domain.MemoryEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var file memoryFileSchema
	if _, err := readJSON(r.path, "memory", &file); err != nil {
		return nil, err
	}

	events := make([]domain.MemoryEvent, 0, len(file.Memories))
	for _, entry := range file.Memories {
		events = append(events, fromMemorySchema(entry))
	}

	return events, nil
}

func (r *MemoryRepository) ReplaceAll(ctx context.Context, events []domain.MemoryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file := memoryFileSchema{Memories: make([]memorySchema, 0, len(events))}
	for _, event := range events {
		file.Memories = append(file.Memories, toMemorySchema(event))
	}

	return writeJSON(r.path, "memory", file)
}

func toMemorySchema(event domain.MemoryEvent) memorySchema {
	tags := event.Tags
	if tags == nil {
		tags = []string{}
	}

	var timestamp float64
	if !event.Timestamp.IsZero() {
		timestamp = float64(event.Timestamp.Unix()) + float64(event.Timestamp.Nanosecond())/float64(time.Second)
	}

	date := event.Date
	if date == "" && !event.Timestamp.IsZero() {
		date = domain.DateKey(event.Timestamp)
	}

	return memorySchema{
		ID:        string(event.ID),
		Who:       string(event.Who),
		Summary:   event.Summary,
		Tone:      event.Tone,
		Tags:      tags,
		Weight:    event.Weight,
		Timestamp: timestamp,
		Date:      date,
	}
}

func fromMemorySchema(entry memorySchema) domain.MemoryEvent {
	var timestamp time.Time
	if entry.Timestamp > 0 {
		whole := math.Floor(entry.Timestamp)
		nanos := math.Round((entry.Timestamp - whole) * float64(time.Second))
		timestamp = time.Unix(int64(whole), int64(nanos))
	}

	return domain.MemoryEvent{
		ID:        domain.MemoryID(entry.ID),
		Who:       domain.AgentID(entry.Who),
		Summary:   entry.Summary,
		Tone:      entry.Tone,
		Tags:      entry.Tags,
		Weight:    entry.Weight,
		Timestamp: timestamp,
		Date:      entry.Date,
	}
}
