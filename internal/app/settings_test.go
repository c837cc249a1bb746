package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dshills/gamebridge/internal/config"
	"github.com/dshills/gamebridge/internal/ipc"
	"github.com/dshills/gamebridge/internal/profile"
	"github.com/google/uuid"
)

type fakeSettingsUI struct {
	mu        sync.Mutex
	calls     []string
	flyouts   int
	fronts    int
	activated string
	finished  int
	quits     int
}

func (f *fakeSettingsUI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	switch call {
	case "show":
		f.flyouts++
	case "front":
		f.fronts++
	case "finished":
		f.finished++
	case "quit":
		f.quits++
	}
}

func (f *fakeSettingsUI) ShowFlyout()   { f.record("show") }
func (f *fakeSettingsUI) HideFlyout()   { f.record("hide") }
func (f *fakeSettingsUI) BringToFront() { f.record("front") }
func (f *fakeSettingsUI) ProfileActivated(name string) {
	f.record("activated")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activated = name
}
func (f *fakeSettingsUI) ProfileDeactivated()           { f.record("deactivated") }
func (f *fakeSettingsUI) OverlayToggled()               { f.record("overlay") }
func (f *fakeSettingsUI) MacroFinished(uuid.UUID, bool) { f.record("finished") }
func (f *fakeSettingsUI) Quit()                         { f.record("quit") }

func (f *fakeSettingsUI) state() (int, int, string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flyouts, f.fronts, f.activated, f.quits
}

func (f *fakeSettingsUI) callSeq() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// startSettings runs the client and returns the runner-side connection.
func startSettings(t *testing.T, cfg config.Config, s *Settings) *ipc.Conn {
	t.Helper()

	listener, err := ipc.Listen(ipc.Endpoint(cfg.EndpointName), nil)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("settings client did not shut down")
		}
	})

	server, err := listener.Accept()
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	t.Cleanup(func() { server.Close() })
	return server
}

func TestSettingsForwardsActivation(t *testing.T) {
	cfg := testConfig(t)
	seedProfiles(t, cfg, "Valorant")

	s := NewSettings(cfg, nil)
	server := startSettings(t, cfg, s)

	waitFor(t, "client connect", s.Connected)

	if err := s.ActivateProfile("Valorant"); err != nil {
		t.Fatalf("ActivateProfile: %v", err)
	}
	msg, err := server.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	m, ok := msg.(ipc.ActiveProfileChanged)
	if !ok || m.Name != "Valorant" {
		t.Errorf("received %#v, want ActiveProfileChanged Valorant", msg)
	}

	s.DeactivateProfile()
	msg, err = server.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if m, ok := msg.(ipc.ActiveProfileChanged); !ok || m.Name != "" {
		t.Errorf("received %#v, want cleared ActiveProfileChanged", msg)
	}
}

func TestSettingsNotifiesProfileListChanges(t *testing.T) {
	cfg := testConfig(t)
	s := NewSettings(cfg, nil)
	server := startSettings(t, cfg, s)
	waitFor(t, "client connect", s.Connected)

	if err := s.Profiles.Add(profile.New("Apex")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.NotifyProfilesChanged(); err != nil {
		t.Fatalf("NotifyProfilesChanged: %v", err)
	}

	msg, err := server.Receive()
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	m, ok := msg.(ipc.ProfilesUpdated)
	if !ok || len(m.Profiles) != 1 || m.Profiles[0].Name != "Apex" {
		t.Errorf("received %#v, want one-profile ProfilesUpdated", msg)
	}

	// The save also reached disk for the runner's file watcher.
	onDisk := profile.NewStore(cfg.ProfilesPath, nil)
	if _, err := onDisk.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(onDisk.List()) != 1 {
		t.Errorf("profiles on disk = %d, want 1", len(onDisk.List()))
	}
}

func TestSettingsHandlesRunnerMessages(t *testing.T) {
	cfg := testConfig(t)
	seedProfiles(t, cfg, "CS2")

	ui := &fakeSettingsUI{}
	s := NewSettings(cfg, nil, WithSettingsUI(ui))
	server := startSettings(t, cfg, s)
	waitFor(t, "client connect", s.Connected)

	for _, msg := range []ipc.Message{
		ipc.ShowFlyout{},
		ipc.OpenSettings{},
		ipc.ActivateProfile{Name: "CS2"},
		ipc.MacroFinished{MacroID: uuid.New(), Passes: 2},
		ipc.Exit{},
	} {
		if err := server.Send(msg); err != nil {
			t.Fatalf("Send %s: %v", msg.Kind(), err)
		}
	}

	waitFor(t, "messages handled", func() bool {
		flyouts, fronts, activated, quits := ui.state()
		ui.mu.Lock()
		finished := ui.finished
		ui.mu.Unlock()
		return flyouts == 1 && fronts == 1 && activated == "CS2" && finished == 1 && quits == 1
	})
}

// Messages must reach the UI in the order the runner sent them, even
// though handling hops from the reader onto the dispatch queue.
func TestSettingsHandlesMessagesInOrder(t *testing.T) {
	cfg := testConfig(t)

	ui := &fakeSettingsUI{}
	s := NewSettings(cfg, nil, WithSettingsUI(ui))
	server := startSettings(t, cfg, s)
	waitFor(t, "client connect", s.Connected)

	want := []string{"show", "hide", "overlay", "show", "front"}
	for _, msg := range []ipc.Message{
		ipc.ShowFlyout{},
		ipc.HideFlyout{},
		ipc.ToggleOverlay{},
		ipc.ShowFlyout{},
		ipc.BringMainToFront{},
	} {
		if err := server.Send(msg); err != nil {
			t.Fatalf("Send %s: %v", msg.Kind(), err)
		}
	}

	waitFor(t, "all messages handled", func() bool {
		return len(ui.callSeq()) == len(want)
	})
	got := ui.callSeq()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call %d = %q, want %q (sequence %v)", i, got[i], want[i], got)
		}
	}
}

func TestSettingsDegradesToLocalOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.ConnectAttempts = 2
	cfg.ConnectBackoffMS = 10
	seedProfiles(t, cfg, "Valorant")

	s := NewSettings(cfg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Give the retry budget time to exhaust, then keep working locally.
	time.Sleep(200 * time.Millisecond)
	if s.Connected() {
		t.Fatal("client reports connected with no listener")
	}
	if err := s.ActivateProfile("Valorant"); err != nil {
		t.Fatalf("local ActivateProfile: %v", err)
	}
	if p, ok := s.Profiles.Active(); !ok || p.Name != "Valorant" {
		t.Errorf("active = %+v, %v", p, ok)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Error("settings client did not shut down")
	}
}
