package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/akarpov/rss-courier/app/telegram"
)

const (
	longPollTimeout = 30 // seconds
	errorBackoff    = 5 * time.Second
)

// Listener long-polls Telegram for incoming updates and hands each one to
// the command handler. It runs independently of the dispatch scheduler; the
// two only meet at the subscriber store, which serializes access internally.
type Listener struct {
	client  *telegram.Client
	handler *Handler
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewListener(client *telegram.Client, handler *Handler) *Listener {
	ctx, cancel := context.WithCancel(context.Background())

	return &Listener{
		client:  client,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (l *Listener) Start() {
	l.wg.Add(1)
	go l.poll()
}

func (l *Listener) Stop() {
	l.cancel()
	l.wg.Wait()
}

func (l *Listener) poll() {
	defer l.wg.Done()

	var offset int64

	for {
		select {
		case <-l.ctx.Done():
			return
		default:
		}

		updates, err := l.client.GetUpdates(l.ctx, offset, longPollTimeout)
		if err != nil {
			if l.ctx.Err() != nil {
				return
			}
			slog.Warn("Failed to get updates", "error", err)

			timer := time.NewTimer(errorBackoff)
			select {
			case <-l.ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			l.handler.HandleUpdate(l.ctx, update)
		}
	}
}
