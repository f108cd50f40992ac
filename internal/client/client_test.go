package client

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"refractor/internal/model"
	"refractor/internal/relay"
)

const testOrigin = "http://localhost:8080"

// newRelayServer リレー本体をhttptestで起動してws URLを返す
func newRelayServer(t *testing.T) (*relay.Relay, string) {
	t.Helper()

	r := relay.New([]string{testOrigin})
	server := httptest.NewServer(http.HandlerFunc(r.HandleWebSocket))
	t.Cleanup(server.Close)

	return r, strings.Replace(server.URL, "http://", "ws://", 1)
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()

	c := New(Config{URL: url, Origin: testOrigin, BaseDelay: 20 * time.Millisecond})
	t.Cleanup(c.Disconnect)
	return c
}

// waitFor 条件成立までポーリング
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// TestConnectOpensSession 接続でOpenに遷移し、リレーにセッションが登録される
func TestConnectOpensSession(t *testing.T) {
	r, url := newRelayServer(t)

	c := newTestClient(t, url)

	var connected atomic.Int32
	c.Subscribe(model.TypeConnection, func(env model.Envelope) {
		connected.Add(1)
	})

	c.Connect()

	if !waitFor(t, 2*time.Second, func() bool { return c.State() == StateOpen }) {
		t.Fatalf("Expected Open state, got %v", c.State())
	}
	if !waitFor(t, 2*time.Second, func() bool { return connected.Load() == 1 }) {
		t.Errorf("Expected 1 connection envelope, got %d", connected.Load())
	}
	if got := r.ClientCount(); got != 1 {
		t.Errorf("Expected 1 registered session, got %d", got)
	}
}

// TestConnectIdempotent Open中・Connecting中のConnectは何もしない
func TestConnectIdempotent(t *testing.T) {
	r, url := newRelayServer(t)

	c := newTestClient(t, url)
	c.Connect()
	c.Connect()

	if !waitFor(t, 2*time.Second, func() bool { return c.State() == StateOpen }) {
		t.Fatalf("Expected Open state, got %v", c.State())
	}

	c.Connect()
	time.Sleep(100 * time.Millisecond)

	if got := r.ClientCount(); got != 1 {
		t.Errorf("Repeated Connect must not open extra sessions, got %d", got)
	}
}

// TestSendRequiresOpen Openでなければ送信失敗（falseを返すだけ）
func TestSendRequiresOpen(t *testing.T) {
	c := newTestClient(t, "ws://localhost:1/ws/comments")

	if c.Send(map[string]string{"type": "ping"}) {
		t.Error("Send on a disconnected client should return false")
	}
	if c.SendComment("Bob", "hi") {
		t.Error("SendComment on a disconnected client should return false")
	}
}

// TestTypedAndWildcardSubscriptions typedと"all"の両方に配送される
func TestTypedAndWildcardSubscriptions(t *testing.T) {
	_, url := newRelayServer(t)

	sender := newTestClient(t, url)
	receiver := newTestClient(t, url)

	var typed, all atomic.Int32
	receiver.Subscribe(model.TypeNewComment, func(env model.Envelope) {
		typed.Add(1)
	})
	receiver.Subscribe(model.TypeAll, func(env model.Envelope) {
		all.Add(1)
	})

	sender.Connect()
	receiver.Connect()
	if !waitFor(t, 2*time.Second, func() bool {
		return sender.State() == StateOpen && receiver.State() == StateOpen
	}) {
		t.Fatal("Clients failed to open")
	}

	if !sender.SendComment("Bob", "hi") {
		t.Fatal("SendComment should succeed while open")
	}

	if !waitFor(t, 2*time.Second, func() bool { return typed.Load() == 1 }) {
		t.Errorf("Expected 1 typed delivery, got %d", typed.Load())
	}
	// "all"はconnectionエンベロープとnew_commentの両方を受ける
	if !waitFor(t, 2*time.Second, func() bool { return all.Load() >= 2 }) {
		t.Errorf("Expected wildcard to see connection and new_comment, got %d", all.Load())
	}
}

// TestTypelessFrameReachesWildcard typeタグのないフレームは"all"にだけ届く
func TestTypelessFrameReachesWildcard(t *testing.T) {
	_, url := newRelayServer(t)

	sender := newTestClient(t, url)
	receiver := newTestClient(t, url)

	var typed, all atomic.Int32
	var payload atomic.Value
	receiver.Subscribe(model.TypeNewComment, func(env model.Envelope) {
		typed.Add(1)
	})
	receiver.Subscribe(model.TypeAll, func(env model.Envelope) {
		if env.Type == "" {
			payload.Store(string(env.Raw))
		}
		all.Add(1)
	})

	sender.Connect()
	receiver.Connect()
	if !waitFor(t, 2*time.Second, func() bool {
		return sender.State() == StateOpen && receiver.State() == StateOpen
	}) {
		t.Fatal("Clients failed to open")
	}

	if !sender.Send(map[string]string{"payload": "no type tag"}) {
		t.Fatal("Send should succeed while open")
	}

	// connectionエンベロープ + 中継されたフレーム
	if !waitFor(t, 2*time.Second, func() bool { return all.Load() >= 2 }) {
		t.Fatalf("Expected wildcard to see the typeless frame, got %d", all.Load())
	}
	raw, _ := payload.Load().(string)
	if raw != `{"payload":"no type tag"}` {
		t.Errorf("Typeless frame not delivered verbatim: %s", raw)
	}
	if typed.Load() != 0 {
		t.Errorf("Typed listeners must not fire for typeless frames, got %d", typed.Load())
	}
}

// TestUnsubscribe 解除後は配送されない
func TestUnsubscribe(t *testing.T) {
	_, url := newRelayServer(t)

	c := newTestClient(t, url)

	var calls atomic.Int32
	sub := c.Subscribe(model.TypeNewComment, func(env model.Envelope) {
		calls.Add(1)
	})
	c.Unsubscribe(sub)
	c.Unsubscribe(sub) // 二重解除は無害

	c.Connect()
	if !waitFor(t, 2*time.Second, func() bool { return c.State() == StateOpen }) {
		t.Fatal("Client failed to open")
	}

	c.SendComment("Bob", "hi")
	time.Sleep(200 * time.Millisecond)

	if calls.Load() != 0 {
		t.Errorf("Unsubscribed handler must not fire, got %d calls", calls.Load())
	}
}

// TestListenerPanicIsolation あるリスナーのpanicが他のリスナーの配送を妨げない
func TestListenerPanicIsolation(t *testing.T) {
	_, url := newRelayServer(t)

	c := newTestClient(t, url)

	var survivor, wildcard atomic.Int32
	c.Subscribe(model.TypeNewComment, func(env model.Envelope) {
		panic("broken listener")
	})
	c.Subscribe(model.TypeNewComment, func(env model.Envelope) {
		survivor.Add(1)
	})
	c.Subscribe(model.TypeAll, func(env model.Envelope) {
		if env.Type == model.TypeNewComment {
			wildcard.Add(1)
		}
	})

	c.Connect()
	if !waitFor(t, 2*time.Second, func() bool { return c.State() == StateOpen }) {
		t.Fatal("Client failed to open")
	}

	c.SendComment("Bob", "boom")

	if !waitFor(t, 2*time.Second, func() bool { return survivor.Load() == 1 }) {
		t.Errorf("Surviving listener should still be notified, got %d", survivor.Load())
	}
	if !waitFor(t, 2*time.Second, func() bool { return wildcard.Load() == 1 }) {
		t.Errorf("Wildcard listener should still be notified, got %d", wildcard.Load())
	}
}

// TestWhenReadyImmediate Open済みなら即時にnil
func TestWhenReadyImmediate(t *testing.T) {
	_, url := newRelayServer(t)

	c := newTestClient(t, url)
	c.Connect()
	if !waitFor(t, 2*time.Second, func() bool { return c.State() == StateOpen }) {
		t.Fatal("Client failed to open")
	}

	select {
	case err := <-c.WhenReady():
		if err != nil {
			t.Errorf("Expected nil from WhenReady on open client, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("WhenReady should resolve immediately when already open")
	}
}

// TestWhenReadyQueued Connecting中の待機はOpen時に解決される
func TestWhenReadyQueued(t *testing.T) {
	_, url := newRelayServer(t)

	c := newTestClient(t, url)
	c.Connect()
	ready := c.WhenReady()

	select {
	case err := <-ready:
		if err != nil {
			t.Errorf("Expected nil once open, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Queued WhenReady should resolve when the connection opens")
	}
}

// TestWhenReadyIdle 未接続クライアントの待機は即座に失敗する
func TestWhenReadyIdle(t *testing.T) {
	c := newTestClient(t, "ws://localhost:1/ws/comments")

	select {
	case err := <-c.WhenReady():
		if !errors.Is(err, ErrNotConnected) {
			t.Errorf("Expected ErrNotConnected, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("WhenReady on an idle client should reject immediately")
	}
}

// TestBackoffExhaustion リトライは上限で打ち切られ、以後のWhenReadyは即棄却
func TestBackoffExhaustion(t *testing.T) {
	// WebSocketアップグレードを常に拒否するサーバー
	var dials atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		http.Error(w, "no upgrade here", http.StatusInternalServerError)
	}))
	defer server.Close()

	base := 20 * time.Millisecond
	c := New(Config{
		URL:         strings.Replace(server.URL, "http://", "ws://", 1),
		Origin:      testOrigin,
		MaxAttempts: 3,
		BaseDelay:   base,
	})
	defer c.Disconnect()

	start := time.Now()
	c.Connect()
	ready := c.WhenReady()

	if !waitFor(t, 5*time.Second, c.Exhausted) {
		t.Fatal("Client should exhaust its retry budget")
	}

	// 初回 + リトライ3回
	if got := dials.Load(); got != 4 {
		t.Errorf("Expected 4 dial attempts (1 + 3 retries), got %d", got)
	}

	// 遅延は attempt × base の単調非減少列（1+2+3）×base以上かかるはず
	if elapsed := time.Since(start); elapsed < 6*base {
		t.Errorf("Retries finished too fast for linear backoff: %v", elapsed)
	}

	select {
	case err := <-ready:
		if !errors.Is(err, ErrRetryExhausted) {
			t.Errorf("Expected ErrRetryExhausted for queued waiter, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Pending WhenReady should be rejected on exhaustion")
	}

	// 枯渇後のWhenReadyも即棄却
	if err := <-c.WhenReady(); !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted after exhaustion, got %v", err)
	}

	if c.State() != StateDisconnected {
		t.Errorf("Exhausted client should be Disconnected, got %v", c.State())
	}
}

// TestDisconnectCancelsReconnect 手動切断でリトライタイマーが止まり、試行回数もリセットされる
func TestDisconnectCancelsReconnect(t *testing.T) {
	var dials atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		http.Error(w, "no upgrade here", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(Config{
		URL:       strings.Replace(server.URL, "http://", "ws://", 1),
		Origin:    testOrigin,
		BaseDelay: 50 * time.Millisecond,
	})

	c.Connect()
	if !waitFor(t, 2*time.Second, func() bool { return dials.Load() >= 1 && c.State() == StateClosed }) {
		t.Fatal("Expected a failed dial with a retry pending")
	}

	c.Disconnect()
	c.Disconnect() // 冪等

	// 進行中だったダイヤルが着地するのを待ってから計測
	time.Sleep(100 * time.Millisecond)
	settled := dials.Load()
	time.Sleep(200 * time.Millisecond)

	if got := dials.Load(); got != settled {
		t.Errorf("Retry timer should be cancelled by Disconnect, dials grew %d→%d", settled, got)
	}
	if c.State() != StateDisconnected {
		t.Errorf("Expected Disconnected after manual disconnect, got %v", c.State())
	}
	if c.Exhausted() {
		t.Error("Manual disconnect must reset exhaustion")
	}
}

// TestReconnectAfterFailures 失敗が続いても上限内に成功すればOpenへ戻り、カウンターはリセット
func TestReconnectAfterFailures(t *testing.T) {
	r := relay.New([]string{testOrigin})

	var dials atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		// 最初の2回はアップグレードを拒否、以降は本物のリレーへ
		if dials.Add(1) <= 2 {
			http.Error(w, "temporarily down", http.StatusServiceUnavailable)
			return
		}
		r.HandleWebSocket(w, req)
	}))
	defer server.Close()

	c := New(Config{
		URL:       strings.Replace(server.URL, "http://", "ws://", 1),
		Origin:    testOrigin,
		BaseDelay: 20 * time.Millisecond,
	})
	defer c.Disconnect()

	c.Connect()

	if !waitFor(t, 5*time.Second, func() bool { return c.State() == StateOpen }) {
		t.Fatalf("Client should recover once the server comes back, state %v", c.State())
	}
	if c.Exhausted() {
		t.Error("Successful reconnect must clear exhaustion")
	}
	if got := r.ClientCount(); got != 1 {
		t.Errorf("Expected exactly 1 session after recovery, got %d", got)
	}
}
