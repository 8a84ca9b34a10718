package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func TestSinkBroadcast(t *testing.T) {
	sink := NewSink("")
	server := httptest.NewServer(sink.Handler())
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, err := websocket.Dial(wsURL, "", server.URL)
	require.NoError(t, err)
	defer conn.Close()

	deadline := time.Now().Add(time.Second)
	for sink.Clients() == 0 {
		require.True(t, time.Now().Before(deadline), "client not registered")
		time.Sleep(5 * time.Millisecond)
	}

	require.NoError(t, sink.Publish("dev1/rc/alert", []byte{1, 2, 3}))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var data []byte
	require.NoError(t, websocket.Message.Receive(conn, &data))
	var frame Frame
	require.NoError(t, proto.Unmarshal(data, &frame))
	require.Equal(t, "dev1/rc/alert", frame.Topic)
	require.Equal(t, []byte{1, 2, 3}, frame.Payload)

	conn.Close()
	deadline = time.Now().Add(time.Second)
	for sink.Clients() != 0 {
		require.True(t, time.Now().Before(deadline), "client not removed")
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSinkNoClients(t *testing.T) {
	require.NoError(t, NewSink("").Publish("x", []byte("y")))
}
