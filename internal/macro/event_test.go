package macro

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dshills/gamebridge/internal/input/key"
	"github.com/dshills/gamebridge/internal/shortcut"
	"github.com/google/uuid"
)

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name    string
		event   Event
		wantErr bool
	}{
		{"key down", KeyDown(key.CodeA), false},
		{"key up", KeyUp(key.CodeF12), false},
		{"mouse button", MouseButton(ButtonRight, EdgeUp), false},
		{"cursor move negative", CursorMove(-10, -20), false},
		{"delay", Delay(100), false},
		{"zero delay", Delay(0), false},
		{"negative delay", Delay(-1), true},
		{"key event without key", Event{Kind: KindKeyDown}, true},
		{"button without edge", Event{Kind: KindMouseButton, Button: ButtonLeft}, true},
		{"unknown kind", Event{Kind: 99}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidEvent) {
				t.Errorf("Validate() = %v, want ErrInvalidEvent", err)
			}
		})
	}
}

func TestCanonicalButtonEvents(t *testing.T) {
	events := CanonicalButtonEvents()
	if len(events) != 6 {
		t.Fatalf("len = %d, want 6", len(events))
	}
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			t.Errorf("%v: %v", ev, err)
		}
	}
	// Left down must come first; the editor menu relies on the order.
	if events[0].Button != ButtonLeft || events[0].Edge != EdgeDown {
		t.Errorf("first canonical event = %v", events[0])
	}
}

func TestEventJSONUsesNames(t *testing.T) {
	data, err := json.Marshal(KeyDown(key.CodeA))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"kind":"key_down","key":"A"}`
	if string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	var ev Event
	if err := json.Unmarshal([]byte(`{"kind":"mouse_button","button":"middle","edge":"up"}`), &ev); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if ev != MouseButton(ButtonMiddle, EdgeUp) {
		t.Errorf("Unmarshal = %+v", ev)
	}

	if err := json.Unmarshal([]byte(`{"kind":"teleport"}`), &ev); err == nil {
		t.Error("Unmarshal of unknown kind succeeded")
	}
}

func TestCycleModeNormalize(t *testing.T) {
	var zero CycleMode
	if got := zero.Normalize(); got.Kind != CycleFixed || got.Count != 1 {
		t.Errorf("Normalize(zero) = %+v, want fixed count 1", got)
	}

	if got := FixedCount(0); got.Count != 1 {
		t.Errorf("FixedCount(0).Count = %d, want 1", got.Count)
	}
	if got := FixedCount(5); got.Count != 5 {
		t.Errorf("FixedCount(5).Count = %d, want 5", got.Count)
	}
}

func TestCycleModeValidate(t *testing.T) {
	if err := FixedCount(3).Validate(); err != nil {
		t.Errorf("FixedCount(3): %v", err)
	}
	if err := UntilKeyReleased().Validate(); err != nil {
		t.Errorf("UntilKeyReleased: %v", err)
	}
	if err := (CycleMode{Kind: CycleFixed, Count: 0}).Validate(); err == nil {
		t.Error("fixed count 0 validated")
	}
	if err := (CycleMode{Kind: 9}).Validate(); err == nil {
		t.Error("unknown cycle kind validated")
	}
}

func TestDefinitionValidate(t *testing.T) {
	profile := uuid.New()

	def := NewDefinition("valid", profile)
	if err := def.Validate(); err != nil {
		t.Errorf("valid definition: %v", err)
	}

	noName := NewDefinition("", profile)
	if err := noName.Validate(); !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("empty name = %v, want ErrInvalidDefinition", err)
	}

	long := NewDefinition(string(make([]byte, 51)), profile)
	if err := long.Validate(); !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("long name = %v, want ErrInvalidDefinition", err)
	}

	bareShortcut := NewDefinition("bare", profile)
	bareShortcut.Shortcut = &shortcut.Chord{Key: key.CodeA}
	if err := bareShortcut.Validate(); !errors.Is(err, ErrInvalidDefinition) {
		t.Errorf("bare shortcut = %v, want ErrInvalidDefinition", err)
	}

	badEvent := NewDefinition("bad event", profile)
	badEvent.Events = []Event{Delay(-5)}
	if err := badEvent.Validate(); !errors.Is(err, ErrInvalidEvent) {
		t.Errorf("bad event = %v, want ErrInvalidEvent", err)
	}
}
