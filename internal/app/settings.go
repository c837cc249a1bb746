package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/gamebridge/internal/config"
	"github.com/dshills/gamebridge/internal/dispatch"
	"github.com/dshills/gamebridge/internal/ipc"
	"github.com/dshills/gamebridge/internal/logging"
	"github.com/dshills/gamebridge/internal/profile"
	"github.com/google/uuid"
)

// SettingsUI is what the settings client drives when runner messages
// arrive. Calls are made from the dispatch queue's consumer, never from
// the connection's reader goroutine.
type SettingsUI interface {
	ShowFlyout()
	HideFlyout()
	BringToFront()
	ProfileActivated(name string)
	ProfileDeactivated()
	OverlayToggled()
	MacroFinished(id uuid.UUID, cancelled bool)
	Quit()
}

type nopSettingsUI struct{}

func (nopSettingsUI) ShowFlyout()                   {}
func (nopSettingsUI) HideFlyout()                   {}
func (nopSettingsUI) BringToFront()                 {}
func (nopSettingsUI) ProfileActivated(string)       {}
func (nopSettingsUI) ProfileDeactivated()           {}
func (nopSettingsUI) OverlayToggled()               {}
func (nopSettingsUI) MacroFinished(uuid.UUID, bool) {}
func (nopSettingsUI) Quit()                         {}

// Settings is the settings-process side of the bus: a client that
// retries the connect with backoff and degrades to local-only mode when
// the runner never shows up or the connection drops.
type Settings struct {
	cfg      config.Config
	log      *logging.Logger
	ui       SettingsUI
	Profiles *profile.Store
	Queue    *dispatch.Queue

	mu   sync.Mutex
	conn *ipc.Conn

	wg sync.WaitGroup
}

// SettingsOption configures optional collaborators.
type SettingsOption func(*Settings)

// WithSettingsUI sets the UI surface.
func WithSettingsUI(ui SettingsUI) SettingsOption {
	return func(s *Settings) {
		if ui != nil {
			s.ui = ui
		}
	}
}

// NewSettings assembles the settings client.
func NewSettings(cfg config.Config, log *logging.Logger, opts ...SettingsOption) *Settings {
	if log == nil {
		log = logging.Null
	}
	s := &Settings{
		cfg:      cfg,
		log:      log.WithComponent("settings"),
		ui:       nopSettingsUI{},
		Profiles: profile.NewStore(cfg.ProfilesPath, log),
		Queue:    dispatch.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run connects to the runner and serves incoming messages until the
// context is cancelled. When the retry budget is exhausted the client
// keeps running in local-only mode: profile edits still work and are
// picked up by the runner's file watcher.
func (s *Settings) Run(ctx context.Context) error {
	if skipped, err := s.Profiles.Load(); err != nil {
		return err
	} else if skipped > 0 {
		s.log.Warn("%d corrupt profile entries skipped", skipped)
	}

	if err := s.Queue.Start(); err != nil {
		return fmt.Errorf("starting dispatch queue: %w", err)
	}

	policy := ipc.RetryPolicy{
		Attempts: s.cfg.ConnectAttempts,
		Initial:  s.cfg.ConnectBackoff(),
		Max:      s.cfg.ConnectBackoffMax(),
	}
	conn, err := ipc.DialRetry(ctx, ipc.Endpoint(s.cfg.EndpointName), policy, s.log)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.stopQueue()
			return err
		}
		s.log.Warn("runner unreachable, running local-only: %v", err)
	} else {
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		s.wg.Add(1)
		go s.readLoop(conn)
	}

	<-ctx.Done()

	s.mu.Lock()
	conn = s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn != nil {
		if err := conn.Send(ipc.Shutdown{}); err != nil {
			s.log.Debug("shutdown notice: %v", err)
		}
		conn.Close()
	}

	// The reader posts onto the queue; it must be gone before the queue
	// closes its task channel.
	s.wg.Wait()
	s.stopQueue()
	return nil
}

func (s *Settings) stopQueue() {
	if err := s.Queue.Stop(context.Background()); err != nil {
		s.log.Error("stopping dispatch queue: %v", err)
	}
}

// Connected reports whether the runner link is up.
func (s *Settings) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Send forwards a message to the runner. Returns ipc.ErrDisconnected in
// local-only mode.
func (s *Settings) Send(msg ipc.Message) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	if conn == nil {
		return ipc.ErrDisconnected
	}
	return conn.Send(msg)
}

// NotifyProfilesChanged saves the store and announces the new list.
func (s *Settings) NotifyProfilesChanged() error {
	if err := s.Profiles.Save(); err != nil {
		return err
	}

	list := s.Profiles.List()
	summaries := make([]ipc.ProfileSummary, len(list))
	for i, p := range list {
		summaries[i] = ipc.ProfileSummary{ID: p.ID, Name: p.Name}
	}
	if err := s.Send(ipc.ProfilesUpdated{Profiles: summaries}); err != nil {
		// Local-only: the runner's file watcher picks the save up.
		s.log.Debug("profiles update not sent: %v", err)
	}
	return nil
}

// ActivateProfile asks the runner to switch profiles, falling back to
// the local store when disconnected.
func (s *Settings) ActivateProfile(name string) error {
	if _, err := s.Profiles.Activate(name); err != nil {
		return err
	}
	if err := s.Send(ipc.ActiveProfileChanged{Name: name}); err != nil {
		s.log.Debug("activation not sent: %v", err)
	}
	s.ui.ProfileActivated(name)
	return nil
}

// DeactivateProfile clears the active profile everywhere.
func (s *Settings) DeactivateProfile() {
	s.Profiles.Deactivate()
	if err := s.Send(ipc.ActiveProfileChanged{}); err != nil {
		s.log.Debug("deactivation not sent: %v", err)
	}
	s.ui.ProfileDeactivated()
}

// readLoop is the single reader for the runner connection. Each message
// is marshaled onto the dispatch queue so UI state is only touched on
// its consumer.
func (s *Settings) readLoop(conn *ipc.Conn) {
	defer s.wg.Done()

	for {
		msg, err := conn.Receive()
		if err != nil {
			if errors.Is(err, ipc.ErrUnknownMessage) {
				s.log.Warn("%v", err)
				continue
			}
			s.mu.Lock()
			if s.conn == conn {
				s.conn = nil
			}
			s.mu.Unlock()
			s.log.Warn("runner link lost, continuing local-only")
			return
		}
		if err := s.Queue.Post(func() { s.handleMessage(msg) }); err != nil {
			s.log.Error("dispatching %s: %v", msg.Kind(), err)
		}
	}
}

func (s *Settings) handleMessage(msg ipc.Message) {
	switch m := msg.(type) {
	case ipc.ShowFlyout:
		s.ui.ShowFlyout()
	case ipc.HideFlyout:
		s.ui.HideFlyout()
	case ipc.BringMainToFront, ipc.OpenSettings:
		s.ui.BringToFront()
	case ipc.ActivateProfile:
		if _, err := s.Profiles.Activate(m.Name); err != nil {
			s.log.Warn("activating profile %q: %v", m.Name, err)
			return
		}
		s.ui.ProfileActivated(m.Name)
	case ipc.DeactivateProfile:
		s.Profiles.Deactivate()
		s.ui.ProfileDeactivated()
	case ipc.ToggleOverlay:
		s.ui.OverlayToggled()
	case ipc.MacroFinished:
		s.ui.MacroFinished(m.MacroID, m.Cancelled)
	case ipc.Exit:
		s.ui.Quit()
	default:
		s.log.Debug("ignoring %s", msg.Kind())
	}
}
