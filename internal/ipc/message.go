package ipc

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Kind is the wire discriminant tag carried by every frame.
type Kind byte

// kindPing marks a connection opened only to check endpoint liveness
// during a bind. The listener discards ping connections before Accept
// returns; a ping never decodes into a Message.
const kindPing Kind = 0x00

// Runner → settings messages.
const (
	KindShowFlyout Kind = 0x01 + iota
	KindHideFlyout
	KindBringMainToFront
	KindActivateProfile
	KindDeactivateProfile
	KindToggleOverlay
	KindOpenSettings
	KindExit
	KindMacroFinished
)

// Settings → runner messages.
const (
	KindProfilesUpdated Kind = 0x11 + iota
	KindActiveProfileChanged
	KindOverlayVisibilityChanged
	KindShutdown
)

var kindNames = map[Kind]string{
	KindShowFlyout:               "ShowFlyout",
	KindHideFlyout:               "HideFlyout",
	KindBringMainToFront:         "BringMainToFront",
	KindActivateProfile:          "ActivateProfile",
	KindDeactivateProfile:        "DeactivateProfile",
	KindToggleOverlay:            "ToggleOverlay",
	KindOpenSettings:             "OpenSettings",
	KindExit:                     "Exit",
	KindMacroFinished:            "MacroFinished",
	KindProfilesUpdated:          "ProfilesUpdated",
	KindActiveProfileChanged:     "ActiveProfileChanged",
	KindOverlayVisibilityChanged: "OverlayVisibilityChanged",
	KindShutdown:                 "Shutdown",
}

// String returns the message name for the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(0x%02x)", byte(k))
}

// Message is one bus message. Each variant belongs to one direction by
// convention, but the transport itself is direction-agnostic: either
// side of a connection may send any variant.
type Message interface {
	Kind() Kind
}

// ShowFlyout asks the UI to show the tray flyout.
type ShowFlyout struct{}

// HideFlyout asks the UI to hide the tray flyout.
type HideFlyout struct{}

// BringMainToFront asks the running instance to focus its main window.
// Sent by a second process instance before it exits.
type BringMainToFront struct{}

// ActivateProfile requests activation of the named profile.
type ActivateProfile struct {
	Name string `json:"name"`
}

// DeactivateProfile requests deactivation of the active profile.
type DeactivateProfile struct{}

// ToggleOverlay flips crosshair overlay visibility.
type ToggleOverlay struct{}

// OpenSettings asks the settings process to present its window.
type OpenSettings struct{}

// Exit asks the peer to shut down.
type Exit struct{}

// MacroFinished announces that macro playback ended, so the settings UI
// can release its playing indicator.
type MacroFinished struct {
	MacroID   uuid.UUID `json:"macro_id"`
	Passes    int       `json:"passes"`
	Cancelled bool      `json:"cancelled,omitempty"`
}

// ProfileSummary is the wire form of a profile in ProfilesUpdated.
type ProfileSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProfilesUpdated announces the current profile list after an edit.
type ProfilesUpdated struct {
	Profiles []ProfileSummary `json:"profiles"`
}

// ActiveProfileChanged announces the new active profile. An empty Name
// means no profile is active. Fire-and-forget: the sender is the source
// of truth and resends on the next change.
type ActiveProfileChanged struct {
	Name string `json:"name,omitempty"`
}

// OverlayVisibilityChanged announces overlay visibility.
type OverlayVisibilityChanged struct {
	Visible bool `json:"visible"`
}

// Shutdown announces that the sender is exiting.
type Shutdown struct{}

func (ShowFlyout) Kind() Kind               { return KindShowFlyout }
func (HideFlyout) Kind() Kind               { return KindHideFlyout }
func (BringMainToFront) Kind() Kind         { return KindBringMainToFront }
func (ActivateProfile) Kind() Kind          { return KindActivateProfile }
func (DeactivateProfile) Kind() Kind        { return KindDeactivateProfile }
func (ToggleOverlay) Kind() Kind            { return KindToggleOverlay }
func (OpenSettings) Kind() Kind             { return KindOpenSettings }
func (Exit) Kind() Kind                     { return KindExit }
func (MacroFinished) Kind() Kind            { return KindMacroFinished }
func (ProfilesUpdated) Kind() Kind          { return KindProfilesUpdated }
func (ActiveProfileChanged) Kind() Kind     { return KindActiveProfileChanged }
func (OverlayVisibilityChanged) Kind() Kind { return KindOverlayVisibilityChanged }
func (Shutdown) Kind() Kind                 { return KindShutdown }

// encodePayload marshals the message body. Variants with no fields
// produce an empty payload.
func encodePayload(m Message) ([]byte, error) {
	switch m.(type) {
	case ShowFlyout, HideFlyout, BringMainToFront, DeactivateProfile,
		ToggleOverlay, OpenSettings, Exit, Shutdown:
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", m.Kind(), err)
	}
	return data, nil
}

// decodeMessage reconstructs a message from its tag and payload.
func decodeMessage(kind Kind, payload []byte) (Message, error) {
	switch kind {
	case KindShowFlyout:
		return ShowFlyout{}, nil
	case KindHideFlyout:
		return HideFlyout{}, nil
	case KindBringMainToFront:
		return BringMainToFront{}, nil
	case KindActivateProfile:
		var m ActivateProfile
		return m, json.Unmarshal(payload, &m)
	case KindDeactivateProfile:
		return DeactivateProfile{}, nil
	case KindToggleOverlay:
		return ToggleOverlay{}, nil
	case KindOpenSettings:
		return OpenSettings{}, nil
	case KindExit:
		return Exit{}, nil
	case KindMacroFinished:
		var m MacroFinished
		return m, json.Unmarshal(payload, &m)
	case KindProfilesUpdated:
		var m ProfilesUpdated
		return m, json.Unmarshal(payload, &m)
	case KindActiveProfileChanged:
		var m ActiveProfileChanged
		return m, json.Unmarshal(payload, &m)
	case KindOverlayVisibilityChanged:
		var m OverlayVisibilityChanged
		return m, json.Unmarshal(payload, &m)
	case KindShutdown:
		return Shutdown{}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownMessage, byte(kind))
	}
}
