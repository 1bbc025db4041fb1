package sockets_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/embrake/aquilify/sockets"
	jsonMiddleware "github.com/embrake/aquilify/sockets/middleware/json"
)

type testMessage struct {
	Msg string `json:"msg"`
}

func setupRouter() (*sockets.Router, *httptest.Server) {
	router := sockets.NewRouter()
	router.Use(jsonMiddleware.Middleware())
	server := httptest.NewServer(router)
	return router, server
}

func dialWebSocket(t *testing.T, serverURL string) (*websocket.Conn, context.Context) {
	ctx := context.Background()
	conn, _, err := websocket.Dial(ctx, serverURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	return conn, ctx
}

func writeMessage(t *testing.T, conn *websocket.Conn, ctx context.Context, id, path string, data any) {
	msg := map[string]any{}
	if id != "" {
		msg["id"] = id
	}
	if path != "" {
		msg["path"] = path
	}
	if data != nil {
		msg["data"] = data
	}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, msgBytes); err != nil {
		t.Fatal(err)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn, ctx context.Context) (id string, data testMessage) {
	_, msgBytes, err := conn.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var env struct {
		ID   string      `json:"id"`
		Data testMessage `json:"data"`
	}
	if err := json.Unmarshal(msgBytes, &env); err != nil {
		t.Fatalf("unmarshal failed: %v, got: %s", err, string(msgBytes))
	}
	return env.ID, env.Data
}

func TestRouterSimpleHandler(t *testing.T) {
	router, server := setupRouter()
	defer server.Close()

	router.Bind("/echo", func(ctx *sockets.Context) {
		var req testMessage
		if err := ctx.Unmarshal(&req); err != nil {
			t.Errorf("unmarshal failed: %v", err)
			return
		}
		if err := ctx.Send(testMessage{Msg: "Echo: " + req.Msg}); err != nil {
			t.Errorf("send failed: %v", err)
		}
	})

	conn, ctx := dialWebSocket(t, server.URL)
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, conn, ctx, "", "/echo", testMessage{Msg: "Hello"})
	_, response := readMessage(t, conn, ctx)

	if response.Msg != "Echo: Hello" {
		t.Errorf("expected 'Echo: Hello', got %q", response.Msg)
	}
}

func TestRouterMiddleware(t *testing.T) {
	router, server := setupRouter()
	defer server.Close()

	router.Use(func(ctx *sockets.Context) {
		ctx.Set("greeting", "Hello World")
		ctx.Next()
	})

	router.Bind("/greet", func(ctx *sockets.Context) {
		greeting := ctx.MustGet("greeting").(string)
		if err := ctx.Send(testMessage{Msg: greeting}); err != nil {
			t.Errorf("send failed: %v", err)
		}
	})

	conn, ctx := dialWebSocket(t, server.URL)
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, conn, ctx, "", "/greet", nil)
	_, response := readMessage(t, conn, ctx)

	if response.Msg != "Hello World" {
		t.Errorf("expected 'Hello World', got %q", response.Msg)
	}
}

func TestRouterRouteParams(t *testing.T) {
	router, server := setupRouter()
	defer server.Close()

	router.Bind("/users/:id", func(ctx *sockets.Context) {
		if err := ctx.Send(testMessage{Msg: "user " + ctx.Param("id")}); err != nil {
			t.Errorf("send failed: %v", err)
		}
	})

	conn, ctx := dialWebSocket(t, server.URL)
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, conn, ctx, "", "/users/42", nil)
	_, response := readMessage(t, conn, ctx)

	if response.Msg != "user 42" {
		t.Errorf("expected 'user 42', got %q", response.Msg)
	}
}

func TestRouterReplyEchoesID(t *testing.T) {
	router, server := setupRouter()
	defer server.Close()

	router.Bind("/ping", func(ctx *sockets.Context) {
		if err := ctx.Reply(testMessage{Msg: "pong"}); err != nil {
			t.Errorf("reply failed: %v", err)
		}
	})

	conn, ctx := dialWebSocket(t, server.URL)
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, conn, ctx, "client-request-1", "/ping", nil)
	id, response := readMessage(t, conn, ctx)

	if id != "client-request-1" {
		t.Errorf("expected the reply to carry the request id, got %q", id)
	}
	if response.Msg != "pong" {
		t.Errorf("expected 'pong', got %q", response.Msg)
	}
}

func TestRouterRequestFromServer(t *testing.T) {
	router, server := setupRouter()
	defer server.Close()

	router.Bind("/question", func(ctx *sockets.Context) {
		var answer testMessage
		if err := ctx.Request(testMessage{Msg: "what is the answer"}, &answer); err != nil {
			t.Errorf("request failed: %v", err)
			return
		}
		if err := ctx.Send(testMessage{Msg: "got: " + answer.Msg}); err != nil {
			t.Errorf("send failed: %v", err)
		}
	})

	conn, ctx := dialWebSocket(t, server.URL)
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, conn, ctx, "", "/question", nil)

	requestID, request := readMessage(t, conn, ctx)
	if requestID == "" {
		t.Fatal("expected the server request to carry an id")
	}
	if request.Msg != "what is the answer" {
		t.Errorf("expected 'what is the answer', got %q", request.Msg)
	}

	writeMessage(t, conn, ctx, requestID, "", testMessage{Msg: "42"})

	_, response := readMessage(t, conn, ctx)
	if response.Msg != "got: 42" {
		t.Errorf("expected 'got: 42', got %q", response.Msg)
	}
}

func TestRouterRequestTimeout(t *testing.T) {
	router, server := setupRouter()
	defer server.Close()

	router.Bind("/slow", func(ctx *sockets.Context) {
		err := ctx.RequestWithTimeout(testMessage{Msg: "anyone there"}, nil, 50*time.Millisecond)
		if !errors.Is(err, sockets.ErrRequestTimeout) {
			t.Errorf("expected ErrRequestTimeout, got %v", err)
		}
		if err := ctx.Send(testMessage{Msg: "timed out"}); err != nil {
			t.Errorf("send failed: %v", err)
		}
	})

	conn, ctx := dialWebSocket(t, server.URL)
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, conn, ctx, "", "/slow", nil)

	// the outbound request, which we deliberately never answer
	readMessage(t, conn, ctx)

	_, response := readMessage(t, conn, ctx)
	if response.Msg != "timed out" {
		t.Errorf("expected 'timed out', got %q", response.Msg)
	}
}

func TestRouterLifecycleHooks(t *testing.T) {
	router, server := setupRouter()
	defer server.Close()

	opened := make(chan struct{}, 1)
	closed := make(chan sockets.CloseSource, 1)

	router.UseOpen(func(ctx *sockets.Context) {
		ctx.SetOnSocket("connectedAt", time.Now())
		opened <- struct{}{}
	})

	router.Bind("/check", func(ctx *sockets.Context) {
		if _, ok := ctx.GetFromSocket("connectedAt"); !ok {
			t.Error("expected connectedAt to be set by the open hook")
		}
		if err := ctx.Send(testMessage{Msg: "ok"}); err != nil {
			t.Errorf("send failed: %v", err)
		}
	})

	router.UseClose(func(ctx *sockets.Context) {
		closed <- ctx.CloseSource()
	})

	conn, ctx := dialWebSocket(t, server.URL)

	select {
	case <-opened:
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for the open hook")
	}

	writeMessage(t, conn, ctx, "", "/check", nil)
	readMessage(t, conn, ctx)

	conn.Close(websocket.StatusNormalClosure, "")

	select {
	case source := <-closed:
		if source != sockets.ClientCloseSource {
			t.Errorf("expected a client close, got %v", source)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for the close hook")
	}
}

func TestRouterServerInitiatedClose(t *testing.T) {
	router, server := setupRouter()
	defer server.Close()

	closed := make(chan sockets.Status, 1)

	router.Bind("/goodbye", func(ctx *sockets.Context) {
		ctx.CloseWithStatus(sockets.StatusNormalClosure, "goodbye")
	})

	router.UseClose(func(ctx *sockets.Context) {
		if ctx.CloseSource() != sockets.ServerCloseSource {
			t.Errorf("expected a server close, got %v", ctx.CloseSource())
		}
		if ctx.CloseReason() != "goodbye" {
			t.Errorf("expected reason 'goodbye', got %q", ctx.CloseReason())
		}
		closed <- ctx.CloseStatus()
	})

	conn, ctx := dialWebSocket(t, server.URL)
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, conn, ctx, "", "/goodbye", nil)

	select {
	case status := <-closed:
		if status != sockets.StatusNormalClosure {
			t.Errorf("expected a normal closure, got %v", status)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for the close hook")
	}
}

func TestRouterSocketID(t *testing.T) {
	router, server := setupRouter()
	defer server.Close()

	router.Bind("/whoami", func(ctx *sockets.Context) {
		if err := ctx.Send(testMessage{Msg: ctx.SocketID()}); err != nil {
			t.Errorf("send failed: %v", err)
		}
	})

	conn, ctx := dialWebSocket(t, server.URL)
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, conn, ctx, "", "/whoami", nil)
	_, first := readMessage(t, conn, ctx)
	writeMessage(t, conn, ctx, "", "/whoami", nil)
	_, second := readMessage(t, conn, ctx)

	if first.Msg == "" {
		t.Error("expected a socket id")
	}
	if first.Msg != second.Msg {
		t.Errorf("expected a stable socket id, got %q then %q", first.Msg, second.Msg)
	}
}

func TestRouterSubRouterMount(t *testing.T) {
	router, server := setupRouter()
	defer server.Close()

	apiRouter := sockets.NewRouter()
	apiRouter.Bind("/api/ping", func(ctx *sockets.Context) {
		if err := ctx.Send(testMessage{Msg: "pong"}); err != nil {
			t.Errorf("send failed: %v", err)
		}
	})

	router.Use("/api", apiRouter)

	conn, ctx := dialWebSocket(t, server.URL)
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, conn, ctx, "", "/api/ping", nil)
	_, response := readMessage(t, conn, ctx)

	if response.Msg != "pong" {
		t.Errorf("expected 'pong', got %q", response.Msg)
	}
}

func TestRouterScopedMiddleware(t *testing.T) {
	router, server := setupRouter()
	defer server.Close()

	router.Use("/secure", func(ctx *sockets.Context) {
		ctx.Set("secured", true)
		ctx.Next()
	})

	router.Bind("/secure/data", func(ctx *sockets.Context) {
		if _, ok := ctx.Get("secured"); !ok {
			t.Error("expected the scoped middleware to have run")
		}
		if err := ctx.Send(testMessage{Msg: "secure"}); err != nil {
			t.Errorf("send failed: %v", err)
		}
	})

	router.Bind("/open/data", func(ctx *sockets.Context) {
		if _, ok := ctx.Get("secured"); ok {
			t.Error("expected the scoped middleware to be skipped")
		}
		if err := ctx.Send(testMessage{Msg: "open"}); err != nil {
			t.Errorf("send failed: %v", err)
		}
	})

	conn, ctx := dialWebSocket(t, server.URL)
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, conn, ctx, "", "/secure/data", nil)
	readMessage(t, conn, ctx)
	writeMessage(t, conn, ctx, "", "/open/data", nil)
	readMessage(t, conn, ctx)
}

func TestRouterLookup(t *testing.T) {
	router := sockets.NewRouter()

	handler := func(ctx *sockets.Context) {}
	router.Bind("/users/:id", handler)

	pattern, ok := router.Lookup(handler)
	if !ok {
		t.Fatal("expected to find the handler")
	}
	if pattern.String() != "/users/:id" {
		t.Errorf("expected '/users/:id', got %q", pattern.String())
	}

	if _, ok := router.Lookup(func(ctx *sockets.Context) {}); ok {
		t.Error("expected lookup of an unbound handler to fail")
	}
}

func TestRouterRouteDescriptors(t *testing.T) {
	router := sockets.NewRouter()

	router.PublicBind("/users/:id", func(ctx *sockets.Context) {})
	router.Bind("/internal", func(ctx *sockets.Context) {})

	descriptors := router.RouteDescriptors()
	if len(descriptors) != 1 {
		t.Fatalf("expected 1 descriptor, got %d", len(descriptors))
	}
	if descriptors[0].Pattern.String() != "/users/:id" {
		t.Errorf("expected '/users/:id', got %q", descriptors[0].Pattern.String())
	}

	bytes, err := json.Marshal(descriptors[0])
	if err != nil {
		t.Fatal(err)
	}
	var decoded sockets.RouteDescriptor
	if err := json.Unmarshal(bytes, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Pattern.String() != "/users/:id" {
		t.Errorf("expected '/users/:id', got %q", decoded.Pattern.String())
	}
}

func TestRouterSetOrigins(t *testing.T) {
	router, server := setupRouter()
	defer server.Close()

	router.SetOrigins([]string{"https://example.com"})

	router.Bind("/test", func(ctx *sockets.Context) {
		if err := ctx.Send(testMessage{Msg: "hello"}); err != nil {
			t.Errorf("send failed: %v", err)
		}
	})

	dialCtx := context.Background()
	conn, _, err := websocket.Dial(dialCtx, server.URL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"https://example.com"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	writeMessage(t, conn, dialCtx, "", "/test", nil)
	_, response := readMessage(t, conn, dialCtx)
	if response.Msg != "hello" {
		t.Errorf("expected 'hello', got %q", response.Msg)
	}

	if _, _, err := websocket.Dial(dialCtx, server.URL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Origin": []string{"https://evil.example.net"}},
	}); err == nil {
		t.Error("expected the handshake to fail for a disallowed origin")
	}
}

func TestRouterRejectsNonUpgradeRequests(t *testing.T) {
	_, server := setupRouter()
	defer server.Close()

	res, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	if res.StatusCode != 400 {
		t.Errorf("expected status 400, got %d", res.StatusCode)
	}
}

func TestRouterInvalidHandlerPanics(t *testing.T) {
	router := sockets.NewRouter()

	defer func() {
		if recover() == nil {
			t.Error("expected a panic for an invalid handler type")
		}
	}()

	router.Bind("/bad", "not a handler")
}
