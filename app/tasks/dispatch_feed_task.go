package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/akarpov/rss-courier/app/delivery"
	"github.com/akarpov/rss-courier/app/feed"
	"github.com/akarpov/rss-courier/app/subscriber"
)

// DispatchFeedTask is one dispatch cycle: reload the subscriber store, fetch
// the feed, deliver every not-yet-processed item to every matching
// subscriber, and record each item in the ledger once all subscribers for it
// have been attempted.
//
// Feed fetch and parse failures are transient: they abort the cycle without
// touching ledger or store and are reported to the operator; the next tick
// retries naturally. Errors returned from Execute are unexpected (storage
// failures) and safe to retry because ledgered items are never reprocessed.
type DispatchFeedTask struct {
	Task
	FeedConfig *feed.Config
	httpClient *http.Client
	parser     *feed.Parser
	store      *subscriber.Store
	ledger     *feed.Ledger
	deliverer  Deliverer
	notifier   Notifier
	userAgent  string
	sendPause  time.Duration
}

func NewDispatchFeedTask(feedConfig *feed.Config, httpClient *http.Client, parser *feed.Parser,
	store *subscriber.Store, ledger *feed.Ledger, deliverer Deliverer, notifier Notifier,
	userAgent string, sendPause time.Duration) *DispatchFeedTask {
	return &DispatchFeedTask{
		Task:       NewTask(TaskTypeDispatchFeed),
		FeedConfig: feedConfig,
		httpClient: httpClient,
		parser:     parser,
		store:      store,
		ledger:     ledger,
		deliverer:  deliverer,
		notifier:   notifier,
		userAgent:  userAgent,
		sendPause:  sendPause,
	}
}

func (t *DispatchFeedTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Pick up subscriber edits made by command handlers since the last cycle.
	if err := t.store.Reload(); err != nil {
		return fmt.Errorf("failed to reload subscribers: %w", err)
	}

	data, err := t.fetchFeed(ctx, t.FeedConfig.URL)
	if err != nil {
		slog.Error("Feed fetch failed, skipping cycle", "url", t.FeedConfig.URL, "error", err)
		t.notifier.Notify(ctx, fmt.Sprintf("Feed fetch failed: %v", err))
		return nil
	}

	items, err := t.parser.Run(data)
	if err != nil {
		slog.Error("Feed parse failed, skipping cycle", "url", t.FeedConfig.URL, "error", err)
		t.notifier.Notify(ctx, fmt.Sprintf("Feed parse failed: %v", err))
		return nil
	}

	newCount := 0
	deliveredCount := 0

	// The feed lists newest entries first; process oldest first so
	// subscribers receive items in chronological order.
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]

		if t.ledger.Contains(item.Link) {
			continue
		}

		deliveredCount += t.dispatchItem(ctx, item)

		// The item becomes durable only after every subscriber has been
		// attempted; a crash before this point may re-deliver it, never
		// skip it.
		if err := t.ledger.Add(item.Link); err != nil {
			return err
		}
		newCount++
	}

	if err := t.store.FlushDirty(); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "DispatchFeed",
		"duration", t.GetDuration(),
		"total", len(items),
		"new", newCount,
		"delivered", deliveredCount)

	return nil
}

// dispatchItem attempts delivery of one item to every matching subscriber
// and returns the number of successful deliveries. No delivery failure stops
// the remaining subscribers; iteration order across subscribers is
// unspecified.
func (t *DispatchFeedTask) dispatchItem(ctx context.Context, item feed.Item) int {
	delivered := 0

	for _, sub := range t.store.All() {
		if !subscriber.ShouldDeliver(sub, item.Title) {
			continue
		}

		if keyword, ok := subscriber.MatchKeyword(sub.Keywords, item.Title); ok && sub.KeywordFilterActive {
			slog.Debug("Item matched keyword", "subscriber", sub.ID, "keyword", keyword, "title", item.Title)
		}

		result := t.deliverer.Deliver(ctx, sub.ChatID, item.Title, item.Link)
		switch result.Status {
		case delivery.Delivered:
			delivered++
			t.pause(ctx)
		case delivery.RecipientMigrated:
			t.store.UpdateChatID(sub.ID, result.NewChatID)
		case delivery.SubscriberDisabled:
			t.store.Disable(sub.ID)
		case delivery.Ignored:
			// Already logged by the deliverer; dropped without retry.
		}
	}

	return delivered
}

// pause is the fixed inter-message delay keeping sends under the Bot API
// rate limit.
func (t *DispatchFeedTask) pause(ctx context.Context) {
	if t.sendPause <= 0 {
		return
	}

	timer := time.NewTimer(t.sendPause)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (t *DispatchFeedTask) fetchFeed(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.FeedConfig.FetchTimeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
