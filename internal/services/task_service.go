package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"schoolhub/internal/models"
	"schoolhub/internal/repositories"
)

const (
	TaskSendWelcomeEmail  = "send_welcome_email"
	TaskClearSessionCache = "clear_session_cache"

	// finished results are kept this long for polling
	resultTTL = time.Hour
)

var (
	ErrUnknownTask   = errors.New("unknown task")
	ErrRunnerStopped = errors.New("task runner is stopped")
)

type TaskFunc func(ctx context.Context, args []string) error

// TaskRunner executes named tasks in the background, retrying failures with
// exponential backoff, and keeps their results in memory.
type TaskRunner struct {
	maxRetries int
	baseDelay  time.Duration

	mu      sync.RWMutex
	tasks   map[string]TaskFunc
	results map[string]*models.TaskResult
	stopped bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTaskRunner(maxRetries int, baseDelay time.Duration) *TaskRunner {
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskRunner{
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		tasks:      make(map[string]TaskFunc),
		results:    make(map[string]*models.TaskResult),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (r *TaskRunner) Register(name string, fn TaskFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[name] = fn
}

// Enqueue starts the task and returns its id. The task runs asynchronously.
func (r *TaskRunner) Enqueue(name string, args ...string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return "", ErrRunnerStopped
	}
	fn, ok := r.tasks[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	r.pruneLocked(time.Now())

	res := &models.TaskResult{
		ID:        uuid.NewString(),
		Name:      name,
		State:     models.TaskPending,
		Args:      args,
		CreatedAt: time.Now(),
	}
	r.results[res.ID] = res

	r.wg.Add(1)
	go r.run(res.ID, fn, args)
	return res.ID, nil
}

func (r *TaskRunner) run(id string, fn TaskFunc, args []string) {
	defer r.wg.Done()

	for attempt := 0; ; attempt++ {
		r.setState(id, models.TaskStarted, attempt, nil)
		err := fn(r.ctx, args)
		if err == nil {
			r.setState(id, models.TaskSuccess, attempt, nil)
			return
		}
		if attempt >= r.maxRetries || r.ctx.Err() != nil {
			log.Printf("[tasks][%s] task=%s failed after %d attempts: %v", r.name(id), id, attempt+1, err)
			r.setState(id, models.TaskFailure, attempt, err)
			return
		}

		delay := r.baseDelay << attempt
		log.Printf("[tasks][%s] task=%s attempt %d failed, retrying in %s: %v", r.name(id), id, attempt+1, delay, err)
		r.setState(id, models.TaskRetry, attempt+1, err)
		select {
		case <-time.After(delay):
		case <-r.ctx.Done():
			r.setState(id, models.TaskFailure, attempt+1, r.ctx.Err())
			return
		}
	}
}

func (r *TaskRunner) name(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if res, ok := r.results[id]; ok {
		return res.Name
	}
	return "?"
}

func (r *TaskRunner) setState(id string, state models.TaskState, retries int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[id]
	if !ok {
		return
	}
	res.State = state
	res.Retries = retries
	res.Error = ""
	if err != nil {
		res.Error = err.Error()
	}
	if res.Ready() {
		now := time.Now()
		res.DoneAt = &now
	}
}

func (r *TaskRunner) pruneLocked(now time.Time) {
	for id, res := range r.results {
		if res.DoneAt != nil && now.Sub(*res.DoneAt) > resultTTL {
			delete(r.results, id)
		}
	}
}

// Result returns a snapshot of the task result.
func (r *TaskRunner) Result(id string) (*models.TaskResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[id]
	if !ok {
		return nil, false
	}
	cp := *res
	return &cp, true
}

// Every enqueues name at each interval until ctx is done.
func (r *TaskRunner) Every(ctx context.Context, interval time.Duration, name string, args ...string) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := r.Enqueue(name, args...); err != nil {
				if errors.Is(err, ErrRunnerStopped) {
					return nil
				}
				return err
			}
		}
	}
}

// Shutdown stops accepting tasks, cancels pending retries and waits for
// running tasks or ctx, whichever comes first.
func (r *TaskRunner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RegisterDefaultTasks wires the welcome email and session cleanup tasks.
func RegisterDefaultTasks(r *TaskRunner, users repositories.UserRepository, resets repositories.PasswordResetRepository, emails EmailService) {
	r.Register(TaskSendWelcomeEmail, func(ctx context.Context, args []string) error {
		if len(args) != 1 || args[0] == "" {
			return fmt.Errorf("%s expects one email argument", TaskSendWelcomeEmail)
		}
		email := args[0]
		username := ""
		if u, err := users.GetByEmail(ctx, email); err == nil && u != nil {
			username = u.Username
		}
		return emails.SendWelcomeEmail(email, username, "")
	})

	r.Register(TaskClearSessionCache, func(ctx context.Context, _ []string) error {
		now := time.Now()
		cleared, err := users.ClearExpiredRefresh(ctx, now)
		if err != nil {
			return err
		}
		resetsRemoved, err := resets.DeleteExpired(ctx, now)
		if err != nil {
			return err
		}
		if cleared > 0 || resetsRemoved > 0 {
			log.Printf("[tasks][%s] cleared %d refresh tokens, %d reset tokens", TaskClearSessionCache, cleared, resetsRemoved)
		}
		return nil
	})
}
