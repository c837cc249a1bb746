package ipc

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func testEndpoint(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "bus.sock")
}

// acceptOne accepts a single connection in the background.
func acceptOne(t *testing.T, l *Listener) <-chan *Conn {
	t.Helper()
	ch := make(chan *Conn, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			t.Errorf("Accept: %v", err)
			close(ch)
			return
		}
		ch <- conn
	}()
	return ch
}

func TestProfileActivationScenario(t *testing.T) {
	path := testEndpoint(t)

	listener, err := Listen(path, nil)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()
	accepted := acceptOne(t, listener)

	client, err := Dial(path, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()

	server := <-accepted
	defer server.Close()

	// Runner-side state driven by received messages.
	active := ""

	if err := client.Send(ActivateProfile{Name: "Valorant"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	msg, err := server.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if m, ok := msg.(ActivateProfile); ok {
		active = m.Name
	}
	if active != "Valorant" {
		t.Fatalf("active profile = %q, want Valorant", active)
	}

	if err := client.Send(DeactivateProfile{}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	msg, err = server.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if _, ok := msg.(DeactivateProfile); ok {
		active = ""
	}
	if active != "" {
		t.Errorf("active profile = %q, want none", active)
	}
}

func TestSecondBindReturnsAlreadyRunning(t *testing.T) {
	path := testEndpoint(t)

	first, err := Listen(path, nil)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer first.Close()

	if _, err := Listen(path, nil); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Listen = %v, want ErrAlreadyRunning", err)
	}

	// The first listener is unaffected.
	accepted := acceptOne(t, first)
	client, err := Dial(path, nil)
	if err != nil {
		t.Fatalf("Dial after rejected bind: %v", err)
	}
	defer client.Close()

	server := <-accepted
	defer server.Close()

	if err := client.Send(OpenSettings{}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg, err := server.Receive(); err != nil || msg.Kind() != KindOpenSettings {
		t.Errorf("Receive = %v, %v; want OpenSettings", msg, err)
	}
}

func TestAcceptSkipsConnectionsClosedBeforeTraffic(t *testing.T) {
	path := testEndpoint(t)

	listener, err := Listen(path, nil)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()

	// A peer that connects and disappears without sending a frame must
	// not surface from Accept in place of a real client.
	raw, err := net.Dial("unix", path)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	raw.Close()

	accepted := acceptOne(t, listener)
	client, err := Dial(path, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()
	if err := client.Send(OpenSettings{}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	server := <-accepted
	defer server.Close()
	if msg, err := server.Receive(); err != nil || msg.Kind() != KindOpenSettings {
		t.Errorf("Receive = %v, %v; want OpenSettings", msg, err)
	}
}

func TestStaleEndpointIsRebound(t *testing.T) {
	path := testEndpoint(t)

	// Leftover file from a crashed process: nothing is listening on it.
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	listener, err := Listen(path, nil)
	if err != nil {
		t.Fatalf("Listen over stale endpoint: %v", err)
	}
	listener.Close()
}

func TestDialWithoutListener(t *testing.T) {
	if _, err := Dial(testEndpoint(t), nil); !errors.Is(err, ErrNotListening) {
		t.Errorf("Dial = %v, want ErrNotListening", err)
	}
}

func TestDialRetryWaitsForListener(t *testing.T) {
	path := testEndpoint(t)

	go func() {
		time.Sleep(150 * time.Millisecond)
		listener, err := Listen(path, nil)
		if err != nil {
			t.Errorf("Listen: %v", err)
			return
		}
		listener.Accept()
	}()

	policy := RetryPolicy{Attempts: 10, Initial: 50 * time.Millisecond, Max: 200 * time.Millisecond}
	conn, err := DialRetry(context.Background(), path, policy, nil)
	if err != nil {
		t.Fatalf("DialRetry: %v", err)
	}
	conn.Close()
}

func TestDialRetryExhaustsBudget(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, Initial: 10 * time.Millisecond, Max: 20 * time.Millisecond}
	if _, err := DialRetry(context.Background(), testEndpoint(t), policy, nil); !errors.Is(err, ErrNotListening) {
		t.Errorf("DialRetry = %v, want ErrNotListening", err)
	}
}

func TestDialRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := RetryPolicy{Attempts: 100, Initial: 10 * time.Millisecond}
	if _, err := DialRetry(ctx, testEndpoint(t), policy, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("DialRetry = %v, want context.Canceled", err)
	}
}

func TestReceiveAfterPeerClose(t *testing.T) {
	path := testEndpoint(t)

	listener, err := Listen(path, nil)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()
	accepted := acceptOne(t, listener)

	client, err := Dial(path, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	server := <-accepted
	server.Close()

	if _, err := client.Receive(); !errors.Is(err, ErrDisconnected) {
		t.Errorf("Receive = %v, want ErrDisconnected", err)
	}
	client.Close()
}

func TestConcurrentSendersDoNotInterleave(t *testing.T) {
	path := testEndpoint(t)

	listener, err := Listen(path, nil)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()
	accepted := acceptOne(t, listener)

	client, err := Dial(path, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()
	server := <-accepted
	defer server.Close()

	const senders, perSender = 8, 25
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				if err := client.Send(ActivateProfile{Name: "stress"}); err != nil {
					t.Errorf("Send: %v", err)
					return
				}
			}
		}()
	}

	for i := 0; i < senders*perSender; i++ {
		msg, err := server.Receive()
		if err != nil {
			t.Fatalf("Receive %d: %v", i, err)
		}
		m, ok := msg.(ActivateProfile)
		if !ok || m.Name != "stress" {
			t.Fatalf("message %d corrupted: %#v", i, msg)
		}
	}
	wg.Wait()
}
