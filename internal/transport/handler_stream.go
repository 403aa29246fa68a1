package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/ghxstship/marketplace/internal/config"
	"github.com/ghxstship/marketplace/internal/observability"
	"github.com/ghxstship/marketplace/internal/realtime"
	"github.com/ghxstship/marketplace/model"
)

// streamMessage is one change event on the websocket feed.
type streamMessage struct {
	Type     string           `json:"type"`
	Record   model.DataRecord `json:"record,omitempty"`
	RecordID string           `json:"record_id,omitempty"`
	Message  string           `json:"message,omitempty"`
}

// handleStream upgrades to a websocket and forwards change events for one
// entity to the client. A slow client drops events rather than blocking the
// hub; the client is expected to re-list after reconnecting.
func handleStream(bridge *realtime.Bridge, cfg config.RealtimeConfig, logger *zap.Logger, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entity, ok := entityParam(r)
		if !ok {
			WriteNotFound(w, "unknown entity")
			return
		}
		rctx := model.MustRequestContext(r.Context())

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"},
		})
		if err != nil {
			logger.Warn("stream: websocket accept failed", zap.Error(err))
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		events := make(chan streamMessage, 64)
		push := func(msg streamMessage) {
			select {
			case events <- msg:
			default:
				logger.Warn("stream: client too slow, dropping event",
					zap.String("entity", string(entity)),
					zap.String("org_id", rctx.OrgID),
				)
			}
		}

		unsubscribe := bridge.Subscribe(entity, rctx.OrgID, realtime.Callbacks{
			OnInsert: func(rec model.DataRecord) {
				push(streamMessage{Type: "insert", Record: rec, RecordID: rec.ID()})
			},
			OnUpdate: func(rec model.DataRecord) {
				push(streamMessage{Type: "update", Record: rec, RecordID: rec.ID()})
			},
			OnDelete: func(id string) {
				push(streamMessage{Type: "delete", RecordID: id})
			},
			OnError: func(err error) {
				push(streamMessage{Type: "error", Message: err.Error()})
			},
		})
		defer unsubscribe()
		if metrics != nil {
			metrics.SetRealtimeSubscriptions(float64(bridge.SubscriptionCount()))
			defer func() {
				metrics.SetRealtimeSubscriptions(float64(bridge.SubscriptionCount()))
			}()
		}

		// Reader: the client sends nothing meaningful, but reading is how we
		// learn it went away.
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.Read(ctx); err != nil {
					return
				}
			}
		}()

		pingInterval := cfg.PingInterval
		if pingInterval <= 0 {
			pingInterval = 30 * time.Second
		}
		writeTimeout := cfg.WriteTimeout
		if writeTimeout <= 0 {
			writeTimeout = 5 * time.Second
		}
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case msg := <-events:
				wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
				err := wsjson.Write(wctx, conn, msg)
				wcancel()
				if err != nil {
					return
				}
			case <-ticker.C:
				wctx, wcancel := context.WithTimeout(ctx, writeTimeout)
				err := conn.Ping(wctx)
				wcancel()
				if err != nil {
					return
				}
			}
		}
	}
}
