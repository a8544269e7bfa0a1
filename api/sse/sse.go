package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/rpgcraft/cache"
	"github.com/kasuganosora/rpgcraft/game/craft"
	mw "github.com/kasuganosora/rpgcraft/middleware"
	"go.uber.org/zap"
)

const announceChannel = "announce"

// Handler streams craft events and announcements as server-sent events.
type Handler struct {
	pubsub    cache.PubSub
	logger    *zap.Logger
	keepalive time.Duration
}

// NewHandler creates a new SSE Handler.
func NewHandler(pubsub cache.PubSub, logger *zap.Logger) *Handler {
	return &Handler{pubsub: pubsub, logger: logger, keepalive: 30 * time.Second}
}

// ServeSSE handles GET /sse?token=<jwt>. It must run behind middleware.Auth.
// A client only receives craft events for its own account, plus every
// announcement.
func (h *Handler) ServeSSE(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, craft.EventChannel, announceChannel)
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
	defer unsub()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"account_id\":%d}\n\n", accountID)
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			switch msg.Channel {
			case craft.EventChannel:
				if !ownEvent(msg.Payload, accountID) {
					continue
				}
				fmt.Fprintf(c.Writer, "event: craft\ndata: %s\n\n", msg.Payload)
			default:
				fmt.Fprintf(c.Writer, "event: announce\ndata: %s\n\n", msg.Payload)
			}
			c.Writer.Flush()

		case <-ticker.C:
			// keeps proxies from timing the stream out
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}

func ownEvent(payload string, accountID int64) bool {
	var ev struct {
		AccountID int64 `json:"account_id"`
	}
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return false
	}
	return ev.AccountID == accountID
}

// Announce publishes an announcement message to all SSE subscribers.
func (h *Handler) Announce(ctx context.Context, message string) error {
	payload, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return err
	}
	return h.pubsub.Publish(ctx, announceChannel, string(payload))
}
