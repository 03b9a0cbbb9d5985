package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bnema/persona-cast/internal/domain"
	"github.com/bnema/persona-cast/internal/ports"
	"go.uber.org/zap"
)

type TaskKey struct {
	Agent domain.AgentID
	Date  string
}

type taskState int

const (
	taskPending taskState = iota
	taskFired
	taskCancelled
)

type scheduledTask struct {
	at     time.Time
	cancel context.CancelFunc
	state  taskState
}

// TaskTable holds one-shot jobs keyed by (agent, date). A key is scheduled at most once;
// its handle stays in the table after firing or cancellation until Forget drops old dates.
type TaskTable struct {
	clock   ports.Clock
	sleeper ports.Sleeper
	logger  *zap.Logger

	mu    sync.Mutex
	tasks map[TaskKey]*scheduledTask
	wg    sync.WaitGroup
}

func NewTaskTable(clock ports.Clock, sleeper ports.Sleeper, logger *zap.Logger) *TaskTable {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	if sleeper == nil {
		sleeper = ports.SystemSleeper{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TaskTable{clock: clock, sleeper: sleeper, logger: logger, tasks: map[TaskKey]*scheduledTask{}}
}

// Schedule runs fn at the given time unless cancelled. It returns false when the key is
// already known.
func (t *TaskTable) Schedule(ctx context.Context, key TaskKey, at time.Time, fn func(context.Context)) bool {
	t.mu.Lock()
	if _, exists := t.tasks[key]; exists {
		t.mu.Unlock()
		return false
	}

	jobCtx, cancel := context.WithCancel(ctx)
	task := &scheduledTask{at: at, cancel: cancel}
	t.tasks[key] = task
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		defer cancel()

		if err := t.sleeper.Sleep(jobCtx, at.Sub(t.clock.Now())); err != nil {
			return
		}

		t.mu.Lock()
		if task.state != taskPending {
			t.mu.Unlock()
			return
		}
		task.state = taskFired
		t.mu.Unlock()

		t.logger.Debug("task fired", zap.String("agent", string(key.Agent)), zap.String("date", key.Date))
		fn(jobCtx)
	}()

	return true
}

// Cancel stops a pending job. It reports whether a pending job was cancelled.
func (t *TaskTable) Cancel(key TaskKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	task, ok := t.tasks[key]
	if !ok || task.state != taskPending {
		return false
	}
	task.state = taskCancelled
	task.cancel()
	return true
}

func (t *TaskTable) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, task := range t.tasks {
		if task.state == taskPending {
			task.state = taskCancelled
			task.cancel()
		}
	}
}

// Pending lists keys still waiting to fire, ordered by agent then date.
func (t *TaskTable) Pending() []TaskKey {
	t.mu.Lock()
	defer t.mu.Unlock()

	keys := make([]TaskKey, 0, len(t.tasks))
	for key, task := range t.tasks {
		if task.state == taskPending {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Agent == keys[j].Agent {
			return keys[i].Date < keys[j].Date
		}
		return keys[i].Agent < keys[j].Agent
	})
	return keys
}

// Forget drops finished handles dated before the given date.
func (t *TaskTable) Forget(before string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for key, task := range t.tasks {
		if key.Date < before && task.state != taskPending {
			delete(t.tasks, key)
			removed++
		}
	}
	return removed
}

// Wait blocks until every job goroutine has returned.
func (t *TaskTable) Wait() {
	t.wg.Wait()
}
