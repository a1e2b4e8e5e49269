package tasks

import (
	"context"

	"github.com/akarpov/rss-courier/app/delivery"
)

type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	TriggerDispatch() error
}

// Deliverer sends one item to one recipient; satisfied by *delivery.Deliverer.
type Deliverer interface {
	Deliver(ctx context.Context, chatID int64, title, link string) delivery.Result
}

// Notifier reports operational events to the operator; satisfied by
// *delivery.Notifier.
type Notifier interface {
	Notify(ctx context.Context, text string)
}
