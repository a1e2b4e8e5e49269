package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akarpov/rss-courier/app/feed"
	"github.com/akarpov/rss-courier/app/subscriber"
	"github.com/akarpov/rss-courier/app/tasks"
)

type Handler struct {
	store     *subscriber.Store
	ledger    *feed.Ledger
	scheduler tasks.TaskSchedulerInterface
	feedURL   string
	version   string
	startedAt time.Time
}

func NewHandler(store *subscriber.Store, ledger *feed.Ledger, scheduler tasks.TaskSchedulerInterface,
	feedURL, version string) *Handler {
	return &Handler{
		store:     store,
		ledger:    ledger,
		scheduler: scheduler,
		feedURL:   feedURL,
		version:   version,
		startedAt: time.Now(),
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Version: h.version,
	})
}

func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, statsResponse{
		Subscribers:    h.store.Count(),
		ProcessedItems: h.ledger.Size(),
		FeedURL:        h.feedURL,
		UptimeSeconds:  int64(time.Since(h.startedAt).Seconds()),
	})
}

// ListSubscribers exposes subscriber configurations without chat IDs; the
// endpoint is for operating the service, not for deliveries.
func (h *Handler) ListSubscribers(c *gin.Context) {
	subs := h.store.All()

	response := make([]subscriberResponse, 0, len(subs))
	for _, sub := range subs {
		response = append(response, subscriberResponse{
			ID:                  sub.ID,
			Keywords:            sub.Keywords,
			Enabled:             sub.Enabled,
			KeywordFilterActive: sub.KeywordFilterActive,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       len(response),
		"subscribers": response,
	})
}

// TriggerDispatch enqueues an immediate dispatch cycle.
func (h *Handler) TriggerDispatch(c *gin.Context) {
	if err := h.scheduler.TriggerDispatch(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "dispatch enqueued"})
}
