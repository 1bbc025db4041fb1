package sockets_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/embrake/aquilify/sockets"
	"github.com/embrake/aquilify/sockets/localbridge"
	jsonMiddleware "github.com/embrake/aquilify/sockets/middleware/json"
)

type bridgeNode struct {
	router *sockets.Router
	bridge *sockets.Bridge
	server *httptest.Server
}

func setupBridgeNode(t *testing.T, connection sockets.BridgeConnection) *bridgeNode {
	bridge := sockets.NewBridge()
	if err := bridge.SetConnection(connection); err != nil {
		t.Fatal(err)
	}

	router := sockets.NewRouter()
	router.Use(jsonMiddleware.Middleware())
	router.SetBridge(bridge)

	return &bridgeNode{
		router: router,
		bridge: bridge,
		server: httptest.NewServer(router),
	}
}

func bindRegisterRoute(router *sockets.Router) {
	router.Bind("/register", func(ctx *sockets.Context) {
		if err := ctx.Reply(testMessage{Msg: ctx.SocketID()}); err != nil {
			panic(err)
		}
	})
}

func TestBridgeSendToRemoteSocket(t *testing.T) {
	connection := localbridge.New()
	nodeA := setupBridgeNode(t, connection)
	defer nodeA.server.Close()
	nodeB := setupBridgeNode(t, connection)
	defer nodeB.server.Close()

	bindRegisterRoute(nodeA.router)

	nodeB.router.Bind("/send-to/:socketID", func(ctx *sockets.Context) {
		handle, ok := ctx.WithSocket(ctx.Param("socketID"))
		if !ok {
			t.Error("expected the remote socket to be known")
			return
		}
		if err := handle.Send(testMessage{Msg: "hello from node b"}); err != nil {
			t.Errorf("send failed: %v", err)
		}
	})

	connA, ctxA := dialWebSocket(t, nodeA.server.URL)
	defer connA.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, connA, ctxA, "reg", "/register", nil)
	_, registered := readMessage(t, connA, ctxA)
	targetSocketID := registered.Msg

	connB, ctxB := dialWebSocket(t, nodeB.server.URL)
	defer connB.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, connB, ctxB, "", "/send-to/"+targetSocketID, nil)

	_, received := readMessage(t, connA, ctxA)
	if received.Msg != "hello from node b" {
		t.Errorf("expected 'hello from node b', got %q", received.Msg)
	}
}

func TestBridgeRequestFromRemoteSocket(t *testing.T) {
	connection := localbridge.New()
	nodeA := setupBridgeNode(t, connection)
	defer nodeA.server.Close()
	nodeB := setupBridgeNode(t, connection)
	defer nodeB.server.Close()

	bindRegisterRoute(nodeA.router)

	nodeB.router.Bind("/ask/:socketID", func(ctx *sockets.Context) {
		handle, ok := ctx.WithSocket(ctx.Param("socketID"))
		if !ok {
			t.Error("expected the remote socket to be known")
			return
		}
		var answer testMessage
		if err := handle.RequestWithTimeout(testMessage{Msg: "what is the answer"}, &answer, 5*time.Second); err != nil {
			t.Errorf("request failed: %v", err)
			return
		}
		if err := ctx.Send(testMessage{Msg: "got: " + answer.Msg}); err != nil {
			t.Errorf("send failed: %v", err)
		}
	})

	connA, ctxA := dialWebSocket(t, nodeA.server.URL)
	defer connA.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, connA, ctxA, "reg", "/register", nil)
	_, registered := readMessage(t, connA, ctxA)
	targetSocketID := registered.Msg

	connB, ctxB := dialWebSocket(t, nodeB.server.URL)
	defer connB.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, connB, ctxB, "", "/ask/"+targetSocketID, nil)

	requestID, request := readMessage(t, connA, ctxA)
	if requestID == "" {
		t.Fatal("expected the relayed request to carry an id")
	}
	if request.Msg != "what is the answer" {
		t.Errorf("expected 'what is the answer', got %q", request.Msg)
	}

	writeMessage(t, connA, ctxA, requestID, "", testMessage{Msg: "42"})

	_, response := readMessage(t, connB, ctxB)
	if response.Msg != "got: 42" {
		t.Errorf("expected 'got: 42', got %q", response.Msg)
	}
}

func TestBridgeSendToLocalSocket(t *testing.T) {
	connection := localbridge.New()
	node := setupBridgeNode(t, connection)
	defer node.server.Close()

	bindRegisterRoute(node.router)

	node.router.Bind("/send-to/:socketID", func(ctx *sockets.Context) {
		handle, ok := ctx.WithSocket(ctx.Param("socketID"))
		if !ok {
			t.Error("expected the local socket to be known")
			return
		}
		if err := handle.Send(testMessage{Msg: "hello neighbour"}); err != nil {
			t.Errorf("send failed: %v", err)
		}
	})

	connA, ctxA := dialWebSocket(t, node.server.URL)
	defer connA.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, connA, ctxA, "reg", "/register", nil)
	_, registered := readMessage(t, connA, ctxA)
	targetSocketID := registered.Msg

	connB, ctxB := dialWebSocket(t, node.server.URL)
	defer connB.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, connB, ctxB, "", "/send-to/"+targetSocketID, nil)

	_, received := readMessage(t, connA, ctxA)
	if received.Msg != "hello neighbour" {
		t.Errorf("expected 'hello neighbour', got %q", received.Msg)
	}
}

func TestBridgeUnknownSocket(t *testing.T) {
	connection := localbridge.New()
	node := setupBridgeNode(t, connection)
	defer node.server.Close()

	if _, ok := node.bridge.WithSocket("no-such-socket"); ok {
		t.Error("expected an unknown socket id to resolve to nothing")
	}
	if _, ok := node.router.WithSocket("no-such-socket"); ok {
		t.Error("expected an unknown socket id to resolve to nothing")
	}
}

func TestBridgeSocketRemovedOnClose(t *testing.T) {
	connection := localbridge.New()
	nodeA := setupBridgeNode(t, connection)
	defer nodeA.server.Close()
	nodeB := setupBridgeNode(t, connection)
	defer nodeB.server.Close()

	bindRegisterRoute(nodeA.router)

	connA, ctxA := dialWebSocket(t, nodeA.server.URL)

	writeMessage(t, connA, ctxA, "reg", "/register", nil)
	_, registered := readMessage(t, connA, ctxA)
	targetSocketID := registered.Msg

	if _, ok := nodeB.bridge.WithSocket(targetSocketID); !ok {
		t.Fatal("expected the socket to be announced to node b")
	}

	connA.Close(websocket.StatusNormalClosure, "")

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := nodeB.bridge.WithSocket(targetSocketID); !ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected the socket close to be announced to node b")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
