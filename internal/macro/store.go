// Package macro defines macro event sequences and the store that owns
// them. Edit operations preserve event ordering; the entry under an armed
// capture session is writable only by that session.
package macro

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dshills/gamebridge/internal/shortcut"
	"github.com/google/uuid"
)

// Store holds macro definitions in memory, keyed by id.
type Store struct {
	mu     sync.RWMutex
	macros map[uuid.UUID]*Definition

	// recording is the id of the macro an armed capture session owns,
	// or uuid.Nil. Edit operations on that macro are rejected until the
	// session ends.
	recording uuid.UUID
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		macros: make(map[uuid.UUID]*Definition),
	}
}

// Add inserts a macro definition. The stored copy does not alias the
// caller's event slice.
func (s *Store) Add(def Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.macros[def.ID]; ok {
		return fmt.Errorf("%s: %w", def.ID, ErrMacroExists)
	}
	stored := def.clone()
	s.macros[def.ID] = &stored
	return nil
}

// Reset replaces the whole macro set, e.g. after the persisted profiles
// are reloaded. Rejected while a recording is armed so the capture
// session's target is never swapped out from under it.
func (s *Store) Reset(defs []Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recording != uuid.Nil {
		return ErrRecordingConflict
	}
	macros := make(map[uuid.UUID]*Definition, len(defs))
	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return err
		}
		stored := def.clone()
		macros[def.ID] = &stored
	}
	s.macros = macros
	return nil
}

// Get returns a deep copy of the macro.
func (s *Store) Get(id uuid.UUID) (Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.macros[id]
	if !ok {
		return Definition{}, fmt.Errorf("%s: %w", id, ErrMacroNotFound)
	}
	return def.clone(), nil
}

// Remove deletes a macro. A macro under an armed capture session cannot
// be removed.
func (s *Store) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.macros[id]; !ok {
		return fmt.Errorf("%s: %w", id, ErrMacroNotFound)
	}
	if s.recording == id {
		return ErrRecordingConflict
	}
	delete(s.macros, id)
	return nil
}

// RemoveProfile deletes every macro owned by the profile. If any of them
// is being recorded, nothing is removed.
func (s *Store) RemoveProfile(profileID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, def := range s.macros {
		if def.ProfileID == profileID && s.recording == id {
			return 0, ErrRecordingConflict
		}
	}

	removed := 0
	for id, def := range s.macros {
		if def.ProfileID == profileID {
			delete(s.macros, id)
			removed++
		}
	}
	return removed, nil
}

// List returns copies of the profile's macros sorted by name.
// A nil profile id lists every macro.
func (s *Store) List(profileID uuid.UUID) []Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Definition, 0, len(s.macros))
	for _, def := range s.macros {
		if profileID != uuid.Nil && def.ProfileID != profileID {
			continue
		}
		result = append(result, def.clone())
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// EventCount returns the number of events in a macro.
func (s *Store) EventCount(id uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.macros[id]
	if !ok {
		return 0, fmt.Errorf("%s: %w", id, ErrMacroNotFound)
	}
	return len(def.Events), nil
}

// SetCycleMode updates a macro's repeat policy.
func (s *Store) SetCycleMode(id uuid.UUID, mode CycleMode) error {
	if err := mode.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.macros[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrMacroNotFound)
	}
	def.Cycle = mode
	return nil
}

// SetShortcut updates a macro's trigger chord. A nil chord clears it.
func (s *Store) SetShortcut(id uuid.UUID, chord *shortcut.Chord) error {
	if chord != nil {
		if err := chord.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	def, ok := s.macros[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrMacroNotFound)
	}
	if chord == nil {
		def.Shortcut = nil
		return nil
	}
	c := *chord
	def.Shortcut = &c
	return nil
}

// InsertBefore inserts an event at position index, shifting every event
// at or after index one position later. index may equal the sequence
// length, which appends.
func (s *Store) InsertBefore(id uuid.UUID, index int, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.editableLocked(id)
	if err != nil {
		return err
	}
	if index < 0 || index > len(def.Events) {
		return fmt.Errorf("index %d of %d: %w", index, len(def.Events), ErrIndexOutOfRange)
	}

	def.Events = append(def.Events, Event{})
	copy(def.Events[index+1:], def.Events[index:])
	def.Events[index] = ev
	return nil
}

// InsertAfter inserts an event immediately after position index.
func (s *Store) InsertAfter(id uuid.UUID, index int, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.editableLocked(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(def.Events) {
		return fmt.Errorf("index %d of %d: %w", index, len(def.Events), ErrIndexOutOfRange)
	}

	def.Events = append(def.Events, Event{})
	copy(def.Events[index+2:], def.Events[index+1:])
	def.Events[index+1] = ev
	return nil
}

// InsertDelay inserts a pause of the given whole milliseconds at
// position index.
func (s *Store) InsertDelay(id uuid.UUID, index int, ms int64) error {
	return s.InsertBefore(id, index, Delay(ms))
}

// InsertXY inserts a cursor move to absolute screen coordinates at
// position index. Coordinates are supplied by the caller; they are
// never captured.
func (s *Store) InsertXY(id uuid.UUID, index int, x, y int) error {
	return s.InsertBefore(id, index, CursorMove(x, y))
}

// ReplaceAt replaces the event at position index.
func (s *Store) ReplaceAt(id uuid.UUID, index int, ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.editableLocked(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(def.Events) {
		return fmt.Errorf("index %d of %d: %w", index, len(def.Events), ErrIndexOutOfRange)
	}

	def.Events[index] = ev
	return nil
}

// DeleteAt removes the event at position index, shifting later events
// one position earlier.
func (s *Store) DeleteAt(id uuid.UUID, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	def, err := s.editableLocked(id)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(def.Events) {
		return fmt.Errorf("index %d of %d: %w", index, len(def.Events), ErrIndexOutOfRange)
	}

	def.Events = append(def.Events[:index], def.Events[index+1:]...)
	return nil
}

// BeginRecording marks the macro as owned by a capture session and
// clears its event sequence. Only one macro may be recorded at a time.
func (s *Store) BeginRecording(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recording != uuid.Nil {
		return ErrRecordingConflict
	}
	def, ok := s.macros[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrMacroNotFound)
	}

	def.Events = def.Events[:0]
	s.recording = id
	return nil
}

// AppendRecorded appends a captured event to the macro being recorded.
func (s *Store) AppendRecorded(ev Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recording == uuid.Nil {
		return fmt.Errorf("no recording active: %w", ErrMacroNotFound)
	}
	def := s.macros[s.recording]
	def.Events = append(def.Events, ev)
	return nil
}

// EndRecording releases the recording mark.
func (s *Store) EndRecording(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recording != id {
		return fmt.Errorf("%s is not being recorded: %w", id, ErrMacroNotFound)
	}
	s.recording = uuid.Nil
	return nil
}

// Recording returns the id of the macro under capture, if any.
func (s *Store) Recording() (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recording, s.recording != uuid.Nil
}

// editableLocked returns the macro if it exists and is not under an
// armed capture session. Callers hold s.mu.
func (s *Store) editableLocked(id uuid.UUID) (*Definition, error) {
	def, ok := s.macros[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrMacroNotFound)
	}
	if s.recording == id {
		return nil, ErrRecordingConflict
	}
	return def, nil
}
