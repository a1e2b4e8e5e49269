package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/akarpov/rss-courier/app/cfg"
	"github.com/akarpov/rss-courier/app/feed"
	"github.com/akarpov/rss-courier/app/subscriber"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	feedConfig   *feed.Config
	httpClient   *http.Client
	parser       *feed.Parser
	store        *subscriber.Store
	ledger       *feed.Ledger
	deliverer    Deliverer
	notifier     Notifier
	userAgent    string
	sendPause    time.Duration
	interval     time.Duration
	initialDelay time.Duration
	workerCount  int
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	taskQueue    chan TaskInterface
}

func NewScheduler(feedConfig *feed.Config, httpClient *http.Client, parser *feed.Parser,
	store *subscriber.Store, ledger *feed.Ledger, deliverer Deliverer, notifier Notifier) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		feedConfig:   feedConfig,
		httpClient:   httpClient,
		parser:       parser,
		store:        store,
		ledger:       ledger,
		deliverer:    deliverer,
		notifier:     notifier,
		userAgent:    cfg.UserAgent,
		sendPause:    time.Duration(cfg.SendPause) * time.Second,
		interval:     time.Duration(feedConfig.PollInterval) * time.Second,
		initialDelay: time.Duration(feedConfig.InitialDelay) * time.Second,
		workerCount:  cfg.WorkerCount,
		ctx:          ctx,
		cancel:       cancel,
		taskQueue:    make(chan TaskInterface, 10),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		// Give the bot a moment to come up before the first poll.
		delay := time.NewTimer(s.initialDelay)
		defer delay.Stop()

		select {
		case <-s.ctx.Done():
			return
		case <-delay.C:
		}

		s.enqueueDispatchTask()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueDispatchTask()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// TriggerDispatch enqueues an immediate dispatch cycle, independent of the
// poll timer.
func (s *Scheduler) TriggerDispatch() error {
	return s.EnqueueTask(s.newDispatchTask())
}

func (s *Scheduler) newDispatchTask() *DispatchFeedTask {
	return NewDispatchFeedTask(s.feedConfig, s.httpClient, s.parser, s.store, s.ledger,
		s.deliverer, s.notifier, s.userAgent, s.sendPause)
}

func (s *Scheduler) enqueueDispatchTask() {
	if err := s.EnqueueTask(s.newDispatchTask()); err != nil {
		slog.Warn("Failed to enqueue DispatchFeedTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := s.runTask(taskCtx, task)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		// Tell the operator on the first failure; a later retry may succeed
		// silently, and an error that recurs every cycle should not spam.
		if task.GetRetryCount() == 0 {
			s.notifier.Notify(s.ctx, fmt.Sprintf("Task %s failed: %v", task.GetType(), err))
		}

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			// Tracked by wg so Stop waits for pending retries before closing
			// the task queue.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()

				timer := time.NewTimer(retryDelay)
				defer timer.Stop()

				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				case <-timer.C:
				}

				if retryErr := s.EnqueueTask(task); retryErr != nil {
					slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
			s.notifier.Notify(s.ctx, fmt.Sprintf("Task %s failed after %d retries: %v", task.GetType(), task.GetRetryCount(), err))
		}
	}
}

// runTask converts a panicking task into an error so that a programming
// mistake in one cycle cannot take down the scheduler.
func (s *Scheduler) runTask(ctx context.Context, task TaskInterface) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	return task.Execute(ctx)
}
