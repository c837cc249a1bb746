package ipc

import (
	"errors"
	"net"
	"testing"

	"github.com/google/uuid"
)

// pipeConns returns two connected bus ends backed by an in-memory pipe.
func pipeConns() (*Conn, *Conn) {
	a, b := net.Pipe()
	return newConn(a, nil), newConn(b, nil)
}

func TestMessageRoundTrip(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name string
		msg  Message
	}{
		{"activate profile", ActivateProfile{Name: "Valorant"}},
		{"profiles updated", ProfilesUpdated{Profiles: []ProfileSummary{
			{ID: id, Name: "FPS"},
			{Name: "unsaved"},
		}}},
		{"active profile cleared", ActiveProfileChanged{}},
		{"overlay visibility", OverlayVisibilityChanged{Visible: true}},
		{"macro finished", MacroFinished{MacroID: id, Passes: 3, Cancelled: true}},
		{"exit has no payload", Exit{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := pipeConns()
			defer a.Close()
			defer b.Close()

			errCh := make(chan error, 1)
			go func() { errCh <- a.Send(tt.msg) }()

			got, err := b.Receive()
			if err != nil {
				t.Fatalf("Receive: %v", err)
			}
			if sendErr := <-errCh; sendErr != nil {
				t.Fatalf("Send: %v", sendErr)
			}
			if got.Kind() != tt.msg.Kind() {
				t.Fatalf("kind = %s, want %s", got.Kind(), tt.msg.Kind())
			}

			switch want := tt.msg.(type) {
			case ActivateProfile:
				if got.(ActivateProfile) != want {
					t.Errorf("got %+v, want %+v", got, want)
				}
			case ProfilesUpdated:
				gotP := got.(ProfilesUpdated)
				if len(gotP.Profiles) != len(want.Profiles) {
					t.Fatalf("profiles = %d, want %d", len(gotP.Profiles), len(want.Profiles))
				}
				for i := range want.Profiles {
					if gotP.Profiles[i] != want.Profiles[i] {
						t.Errorf("profile %d = %+v, want %+v", i, gotP.Profiles[i], want.Profiles[i])
					}
				}
			case OverlayVisibilityChanged:
				if got.(OverlayVisibilityChanged) != want {
					t.Errorf("got %+v, want %+v", got, want)
				}
			case MacroFinished:
				if got.(MacroFinished) != want {
					t.Errorf("got %+v, want %+v", got, want)
				}
			}
		})
	}
}

func TestUnknownKindLeavesConnectionUsable(t *testing.T) {
	a, b := pipeConns()
	defer a.Close()
	defer b.Close()

	go func() {
		writeFrame(a.nc, Kind(0xEE), nil)
		a.Send(ToggleOverlay{})
	}()

	if _, err := b.Receive(); !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("Receive = %v, want ErrUnknownMessage", err)
	}
	msg, err := b.Receive()
	if err != nil {
		t.Fatalf("Receive after unknown kind: %v", err)
	}
	if msg.Kind() != KindToggleOverlay {
		t.Errorf("kind = %s, want ToggleOverlay", msg.Kind())
	}
}

func TestKindString(t *testing.T) {
	if got := KindActivateProfile.String(); got != "ActivateProfile" {
		t.Errorf("String() = %q", got)
	}
	if got := Kind(0xEE).String(); got != "Kind(0xee)" {
		t.Errorf("String() = %q", got)
	}
}
