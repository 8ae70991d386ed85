package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talkthreads/events"
)

func TestManagerRegisterBroadcastUnregister(t *testing.T) {
	m := NewManager()
	go m.Start()
	defer m.Stop()

	client := newClient(m, nil)
	client.channels["comment"] = true
	m.register <- client

	require.NoError(t, m.Publish(context.Background(), events.New(events.PostCreated, nil)))
	require.NoError(t, m.Publish(context.Background(), events.New(events.CommentCreated, map[string]string{"body": "hi"})))

	select {
	case got := <-client.send:
		var msg events.Message
		require.NoError(t, json.Unmarshal(got, &msg))
		assert.Equal(t, "comment.created", msg.Type, "post.created is filtered out")
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}

	m.unregister <- client
	_, open := <-client.send
	assert.False(t, open)
}

func TestManagerDropsSlowClient(t *testing.T) {
	m := NewManager()
	go m.Start()
	defer m.Stop()

	client := newClient(m, nil)
	client.send = make(chan []byte, 1)
	m.register <- client

	ctx := context.Background()
	require.NoError(t, m.Publish(ctx, events.New(events.TagCreated, nil)))
	require.NoError(t, m.Publish(ctx, events.New(events.TagCreated, nil)))

	assert.Eventually(t, func() bool { return m.ConnectedClients() == 0 }, time.Second, 10*time.Millisecond)
}

func TestPublishAfterStop(t *testing.T) {
	m := NewManager()
	m.Stop()
	m.Stop()

	// fill the buffer so the stopped case is the only ready one
	for i := 0; i < cap(m.broadcast); i++ {
		m.broadcast <- broadcastMsg{}
	}
	assert.ErrorIs(t, m.Publish(context.Background(), events.New(events.TagCreated, nil)), ErrStopped)
}

func readMsg(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestFeedOverWebsocket(t *testing.T) {
	m := NewManager()
	go m.Start()
	defer m.Stop()

	srv := httptest.NewServer(Handler(m))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "connected", readMsg(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, "pong", readMsg(t, conn)["type"])

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe", "channel": "post"}))
	sub := readMsg(t, conn)
	assert.Equal(t, "subscribed", sub["type"])

	ctx := context.Background()
	require.NoError(t, m.Publish(ctx, events.New(events.TagCreated, map[string]string{"name": "go"})))
	require.NoError(t, m.Publish(ctx, events.New(events.PostVoted, map[string]string{"vote": "upvote"})))

	msg := readMsg(t, conn)
	assert.Equal(t, "post.voted", msg["type"])
	assert.Equal(t, map[string]interface{}{"vote": "upvote"}, msg["payload"])
	assert.Equal(t, 1, m.ConnectedClients())
}
