// Package app wires the components into the two process roles: the
// runner, which owns the tray, hook, and bus endpoint, and the settings
// client. Incoming bus messages and click intents are marshaled through
// the dispatch queue so UI-owned state is only touched on its loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dshills/gamebridge/internal/capture"
	"github.com/dshills/gamebridge/internal/click"
	"github.com/dshills/gamebridge/internal/config"
	"github.com/dshills/gamebridge/internal/dispatch"
	"github.com/dshills/gamebridge/internal/ipc"
	"github.com/dshills/gamebridge/internal/logging"
	"github.com/dshills/gamebridge/internal/macro"
	"github.com/dshills/gamebridge/internal/playback"
	"github.com/dshills/gamebridge/internal/profile"
	"github.com/dshills/gamebridge/internal/shortcut"
	"github.com/google/uuid"
)

// TrayUI is the runner's local tray surface, used directly when no
// settings process is connected.
type TrayUI interface {
	SetTooltip(text string)
	ToggleFlyout()
	ShowMenu()
}

// OverlayRenderer draws the crosshair overlay.
type OverlayRenderer interface {
	Show(imagePath string, x, y int) error
	Hide() error
}

// nopTray and nopOverlay keep the runner functional headless.
type nopTray struct{}

func (nopTray) SetTooltip(string) {}
func (nopTray) ToggleFlyout()     {}
func (nopTray) ShowMenu()         {}

type nopOverlay struct{}

func (nopOverlay) Show(string, int, int) error { return nil }
func (nopOverlay) Hide() error                 { return nil }

// Runner is the tray-owning process: it binds the bus endpoint, owns
// the click disambiguator, shortcut registry, capture session, playback
// engine, and the profile and macro stores.
type Runner struct {
	cfg config.Config
	log *logging.Logger

	Macros   *macro.Store
	Profiles *profile.Store
	Registry *shortcut.Registry
	Session  *capture.Session
	Engine   *playback.Engine
	Queue    *dispatch.Queue
	Clicks   *click.Disambiguator

	tray    TrayUI
	overlay OverlayRenderer

	listener *ipc.Listener
	watcher  *profile.Watcher

	mu             sync.Mutex
	conns          []*ipc.Conn
	overlayVisible bool

	wg sync.WaitGroup
}

// RunnerOption configures optional collaborators.
type RunnerOption func(*Runner)

// WithTray sets the local tray surface.
func WithTray(t TrayUI) RunnerOption {
	return func(r *Runner) {
		if t != nil {
			r.tray = t
		}
	}
}

// WithOverlay sets the overlay renderer.
func WithOverlay(o OverlayRenderer) RunnerOption {
	return func(r *Runner) {
		if o != nil {
			r.overlay = o
		}
	}
}

// NewRunner assembles the runner around the given tap, synthesizer, and
// OS hotkey hook.
func NewRunner(cfg config.Config, tap capture.Tap, synth playback.Synthesizer, registrar shortcut.OSRegistrar, hold playback.HoldState, log *logging.Logger, opts ...RunnerOption) *Runner {
	if log == nil {
		log = logging.Null
	}

	r := &Runner{
		cfg:      cfg,
		log:      log.WithComponent("runner"),
		Macros:   macro.NewStore(),
		Profiles: profile.NewStore(cfg.ProfilesPath, log),
		Queue:    dispatch.New(),
		tray:     nopTray{},
		overlay:  nopOverlay{},
	}
	for _, opt := range opts {
		opt(r)
	}

	r.Registry = shortcut.NewRegistry(registrar, log)
	r.Session = capture.NewSession(tap, r.Macros, log,
		capture.WithGapFloor(cfg.CaptureGapFloor()),
		capture.WithCoalesceFloor(cfg.CaptureCoalesceFloor()),
	)

	engineOpts := []playback.Option{
		playback.WithNotify(r.onPlaybackDone),
	}
	if hold != nil {
		engineOpts = append(engineOpts, playback.WithHoldState(hold))
	}
	r.Engine = playback.NewEngine(synth, log, engineOpts...)

	r.Clicks = click.New(cfg.ClickWindow(), r.onIntent)

	return r
}

// Run binds the endpoint and serves until the context is cancelled.
// Returns ipc.ErrAlreadyRunning when another runner owns the endpoint.
func (r *Runner) Run(ctx context.Context) error {
	if skipped, err := r.Profiles.Load(); err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	} else if skipped > 0 {
		r.log.Warn("%d corrupt profile entries skipped", skipped)
	}
	r.seedMacros()

	listener, err := ipc.Listen(ipc.Endpoint(r.cfg.EndpointName), r.log)
	if err != nil {
		return err
	}
	r.listener = listener

	watcher, err := profile.NewWatcher(r.Profiles, r.log,
		profile.WithReloadHook(func(skipped int) {
			if skipped > 0 {
				r.log.Warn("%d corrupt entries skipped on reload", skipped)
			}
			r.seedMacros()
		}),
	)
	if err != nil {
		r.log.Warn("profile watcher unavailable: %v", err)
	} else {
		r.watcher = watcher
	}

	if err := r.Queue.Start(); err != nil {
		listener.Close()
		return fmt.Errorf("starting dispatch queue: %w", err)
	}

	r.wg.Add(1)
	go r.acceptLoop()

	<-ctx.Done()
	r.shutdown()
	return nil
}

func (r *Runner) shutdown() {
	r.listener.Close()

	r.mu.Lock()
	conns := r.conns
	r.conns = nil
	r.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}

	if r.watcher != nil {
		r.watcher.Close()
	}
	if _, active := r.Session.Active(); active {
		if _, err := r.Session.Stop(); err != nil {
			r.log.Error("stopping recording: %v", err)
		}
	}
	r.Engine.Cancel()
	r.Engine.Wait()
	r.Clicks.Reset()
	r.Registry.Clear()

	// Reader goroutines post onto the queue; they must be gone before
	// the queue closes its task channel.
	r.wg.Wait()
	if err := r.Queue.Stop(context.Background()); err != nil {
		r.log.Error("stopping dispatch queue: %v", err)
	}
}

// acceptLoop admits settings clients and starts one reader per
// connection.
func (r *Runner) acceptLoop() {
	defer r.wg.Done()

	for {
		conn, err := r.listener.Accept()
		if err != nil {
			return
		}

		r.mu.Lock()
		r.conns = append(r.conns, conn)
		r.mu.Unlock()

		r.wg.Add(1)
		go r.readLoop(conn)
	}
}

// readLoop is the single reader for one connection. Each message is
// marshaled onto the dispatch queue.
func (r *Runner) readLoop(conn *ipc.Conn) {
	defer r.wg.Done()
	defer r.dropConn(conn)

	for {
		msg, err := conn.Receive()
		if err != nil {
			if errors.Is(err, ipc.ErrUnknownMessage) {
				r.log.Warn("%v", err)
				continue
			}
			return
		}
		if err := r.Queue.Post(func() { r.handleMessage(msg) }); err != nil {
			r.log.Error("dispatching %s: %v", msg.Kind(), err)
		}
	}
}

func (r *Runner) dropConn(conn *ipc.Conn) {
	conn.Close()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.conns {
		if c == conn {
			r.conns = append(r.conns[:i], r.conns[i+1:]...)
			break
		}
	}
}

// handleMessage runs on the dispatch loop.
func (r *Runner) handleMessage(msg ipc.Message) {
	switch m := msg.(type) {
	case ipc.ActivateProfile:
		r.activateProfile(m.Name)
	case ipc.ActiveProfileChanged:
		if m.Name == "" {
			r.deactivateProfile()
		} else {
			r.activateProfile(m.Name)
		}
	case ipc.DeactivateProfile:
		r.deactivateProfile()
	case ipc.ToggleOverlay:
		r.toggleOverlay()
	case ipc.OverlayVisibilityChanged:
		r.setOverlayVisible(m.Visible)
	case ipc.ProfilesUpdated:
		if skipped, err := r.Profiles.Load(); err != nil {
			r.log.Error("reloading profiles: %v", err)
			return
		} else if skipped > 0 {
			r.log.Warn("%d corrupt profile entries skipped", skipped)
		}
		r.seedMacros()
	case ipc.BringMainToFront:
		r.tray.ToggleFlyout()
	case ipc.Shutdown, ipc.Exit:
		r.log.Info("peer announced shutdown")
	default:
		r.log.Debug("ignoring %s", msg.Kind())
	}
}

func (r *Runner) activateProfile(name string) {
	p, err := r.Profiles.Activate(name)
	if err != nil {
		r.log.Warn("activating profile %q: %v", name, err)
		return
	}
	r.tray.SetTooltip(p.Name)
	if r.overlayVisibleLocked() && p.Overlay.ImagePath != "" {
		if err := r.overlay.Show(p.Overlay.ImagePath, p.Overlay.X, p.Overlay.Y); err != nil {
			r.log.Error("showing overlay: %v", err)
		}
	}
	r.log.Info("profile %q active", p.Name)
}

func (r *Runner) deactivateProfile() {
	r.Profiles.Deactivate()
	r.tray.SetTooltip("no active profile")
	if err := r.overlay.Hide(); err != nil {
		r.log.Error("hiding overlay: %v", err)
	}
	r.log.Info("profile deactivated")
}

func (r *Runner) toggleOverlay() {
	r.setOverlayVisible(!r.overlayVisibleLocked())
}

func (r *Runner) setOverlayVisible(visible bool) {
	r.mu.Lock()
	r.overlayVisible = visible
	r.mu.Unlock()

	if !visible {
		if err := r.overlay.Hide(); err != nil {
			r.log.Error("hiding overlay: %v", err)
		}
		return
	}
	if p, ok := r.Profiles.Active(); ok && p.Overlay.ImagePath != "" {
		if err := r.overlay.Show(p.Overlay.ImagePath, p.Overlay.X, p.Overlay.Y); err != nil {
			r.log.Error("showing overlay: %v", err)
		}
	}
}

func (r *Runner) overlayVisibleLocked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlayVisible
}

// onIntent handles a disambiguated tray click. Intents are forwarded to
// the settings process when one is connected; on a dead connection the
// runner falls back to handling them locally instead of dropping input.
func (r *Runner) onIntent(intent click.Intent) {
	if err := r.Queue.Post(func() { r.handleIntent(intent) }); err != nil {
		r.log.Error("dispatching click intent: %v", err)
	}
}

func (r *Runner) handleIntent(intent click.Intent) {
	switch intent {
	case click.IntentSingle:
		if r.broadcast(ipc.ShowFlyout{}) == 0 {
			r.tray.ToggleFlyout()
		}
	case click.IntentDouble:
		if r.broadcast(ipc.OpenSettings{}) == 0 {
			r.log.Info("no settings process connected")
		}
	case click.IntentRight:
		r.tray.ShowMenu()
	}
}

// OnChord handles a global hotkey press: toggle a playing macro, start
// one, or switch profiles.
func (r *Runner) OnChord(c shortcut.Chord) {
	binding, ok := r.Registry.Lookup(c)
	if !ok {
		return
	}

	switch binding.Kind {
	case shortcut.TargetMacro:
		if r.Engine.IsPlaying() {
			r.Engine.Toggle()
			return
		}
		def, err := r.Macros.Get(binding.Target)
		if err != nil {
			r.log.Error("macro for chord %s: %v", c, err)
			return
		}
		if err := r.Engine.Play(def); err != nil {
			r.log.Warn("playing macro %q: %v", def.Name, err)
		}
	case shortcut.TargetProfile:
		p, err := r.Profiles.Get(binding.Target)
		if err != nil {
			r.log.Error("profile for chord %s: %v", c, err)
			return
		}
		if err := r.Queue.Post(func() { r.activateProfile(p.Name) }); err != nil {
			r.log.Error("dispatching profile switch: %v", err)
		}
	}
}

func (r *Runner) onPlaybackDone(res playback.Result) {
	if res.Err != nil {
		r.log.Error("macro %s aborted after %d passes: %v", res.MacroID, res.Passes, res.Err)
		return
	}
	r.log.Info("macro %s finished (%d passes, cancelled=%v)", res.MacroID, res.Passes, res.Cancelled)
	r.broadcast(ipc.MacroFinished{MacroID: res.MacroID, Passes: res.Passes, Cancelled: res.Cancelled})
}

// broadcast sends the message to every connected client and returns how
// many sends succeeded. Dead connections are dropped.
func (r *Runner) broadcast(msg ipc.Message) int {
	r.mu.Lock()
	conns := make([]*ipc.Conn, len(r.conns))
	copy(conns, r.conns)
	r.mu.Unlock()

	sent := 0
	for _, c := range conns {
		if err := c.Send(msg); err != nil {
			r.log.Warn("send %s: %v", msg.Kind(), err)
			r.dropConn(c)
			continue
		}
		sent++
	}
	return sent
}

// RemoveProfile deletes a profile and all of its macros.
func (r *Runner) RemoveProfile(id uuid.UUID) error {
	removed, err := r.Macros.RemoveProfile(id)
	if err != nil {
		return err
	}
	if removed > 0 {
		r.log.Info("removed %d macros with profile %s", removed, id)
	}
	if err := r.Profiles.Remove(id); err != nil {
		return err
	}
	return r.SaveProfiles()
}

// StartRecording arms the capture session for the macro.
func (r *Runner) StartRecording(id uuid.UUID) error {
	return r.Session.Start(id)
}

// StopRecording disarms the capture session and persists the recorded
// events with the macro's profile.
func (r *Runner) StopRecording() (int, error) {
	count, err := r.Session.Stop()
	if err != nil {
		return 0, err
	}
	if err := r.SaveProfiles(); err != nil {
		r.log.Error("persisting recorded macro: %v", err)
	}
	return count, nil
}

// SaveProfiles snapshots the runtime macro store into each profile and
// writes everything to disk.
func (r *Runner) SaveProfiles() error {
	for _, p := range r.Profiles.List() {
		if err := r.Profiles.SetMacros(p.ID, r.Macros.List(p.ID)); err != nil {
			return fmt.Errorf("syncing macros for %q: %w", p.Name, err)
		}
	}
	return r.Profiles.Save()
}

// seedMacros mirrors the persisted macro sets into the runtime store.
// Deferred while a recording is armed; StopRecording persists and the
// next reload converges.
func (r *Runner) seedMacros() {
	var defs []macro.Definition
	for _, p := range r.Profiles.List() {
		defs = append(defs, p.Macros...)
	}
	if err := r.Macros.Reset(defs); err != nil {
		r.log.Warn("macro reload deferred: %v", err)
	}
}
