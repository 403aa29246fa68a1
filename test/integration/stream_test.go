package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghxstship/marketplace/model"
)

type streamEvent struct {
	Type     string           `json:"type"`
	Record   model.DataRecord `json:"record"`
	RecordID string           `json:"record_id"`
	Message  string           `json:"message"`
}

func dialStream(t *testing.T, h *TestHarness, entity, token string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, h.WSURL("/api/"+entity+"/stream"), &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + token}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) streamEvent {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var event streamEvent
	require.NoError(t, wsjson.Read(ctx, conn, &event))
	return event
}

// waitForSubscription polls until the websocket handler has registered its
// hub subscription, so a change published right after dialing is not lost.
func waitForSubscription(t *testing.T, h *TestHarness) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if h.Bridge.SubscriptionCount() > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("stream subscription never registered")
}

func TestStream_receivesInsert(t *testing.T) {
	h := NewTestHarness(t)
	admin := h.GenerateToken(AdminClaims())

	conn := dialStream(t, h, "listings", admin)
	waitForSubscription(t, h)

	rec := createRecord(t, h, admin, "listings", model.DataRecord{
		"title": "Stage Deck", "type": "equipment", "status": "active",
	})

	event := readEvent(t, conn)
	assert.Equal(t, "insert", event.Type)
	assert.Equal(t, rec.ID(), event.RecordID)
	assert.Equal(t, "Stage Deck", event.Record.StringField("title"))
}

func TestStream_updateAndDelete(t *testing.T) {
	h := NewTestHarness(t)
	admin := h.GenerateToken(AdminClaims())

	rec := createRecord(t, h, admin, "listings", model.DataRecord{
		"title": "Stage Deck", "type": "equipment", "status": "active",
	})

	conn := dialStream(t, h, "listings", admin)
	waitForSubscription(t, h)

	var updated resultBody
	h.AssertJSON(t, h.PATCH("/api/listings/"+rec.ID(), model.DataRecord{
		"status": "inactive",
	}, admin), http.StatusOK, &updated)

	event := readEvent(t, conn)
	require.Equal(t, "update", event.Type)
	assert.Equal(t, "inactive", event.Record.StringField("status"))

	var deleted resultBody
	h.AssertJSON(t, h.DELETE("/api/listings/"+rec.ID(), admin), http.StatusOK, &deleted)

	event = readEvent(t, conn)
	require.Equal(t, "delete", event.Type)
	assert.Equal(t, rec.ID(), event.RecordID)
}

func TestStream_orgIsolation(t *testing.T) {
	h := NewTestHarness(t)
	org2Admin := h.GenerateToken(TestClaims{
		UserID: "admin-2",
		OrgID:  "org-2",
		Roles:  []string{"admin"},
	})
	org1Admin := h.GenerateToken(AdminClaims())

	conn := dialStream(t, h, "listings", org2Admin)
	waitForSubscription(t, h)

	// A change in another organization must not reach this subscriber.
	createRecord(t, h, org1Admin, "listings", model.DataRecord{
		"title": "Org One Asset", "type": "equipment", "status": "active",
	})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	var event streamEvent
	err := wsjson.Read(ctx, conn, &event)
	assert.Error(t, err, "expected no event for a foreign organization, got %+v", event)
}

func TestStream_disabled(t *testing.T) {
	h := NewTestHarness(t, WithoutRealtime())
	admin := h.GenerateToken(AdminClaims())

	resp := h.GET("/api/listings/stream", admin)
	h.AssertStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}
