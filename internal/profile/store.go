package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/gamebridge/internal/logging"
	"github.com/dshills/gamebridge/internal/macro"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Store is the in-memory profile set backed by a JSON file. All methods
// are safe for concurrent use.
type Store struct {
	path string
	log  *logging.Logger

	mu       sync.Mutex
	profiles map[uuid.UUID]Profile
	active   uuid.UUID
}

// NewStore creates a store persisting to path. Call Load before use.
func NewStore(path string, log *logging.Logger) *Store {
	if log == nil {
		log = logging.Null
	}
	return &Store{
		path:     path,
		log:      log.WithComponent("profile"),
		profiles: make(map[uuid.UUID]Profile),
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the profiles file and replaces the in-memory set. A
// missing file yields an empty store. Corrupt entries are skipped and
// counted; skipped reports how many. The active profile survives a
// reload if its id is still present.
func (s *Store) Load() (skipped int, err error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read profiles: %w", err)
	}

	loaded := make(map[uuid.UUID]Profile)
	gjson.GetBytes(data, "profiles").ForEach(func(_, entry gjson.Result) bool {
		p, badMacros, perr := parseProfile(entry)
		if perr != nil {
			skipped++
			s.log.Warn("skipping corrupt profile entry: %v", perr)
			return true
		}
		if badMacros > 0 {
			skipped += badMacros
			s.log.Warn("skipping %d corrupt macro entries in profile %q", badMacros, p.Name)
		}
		loaded[p.ID] = p
		return true
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = loaded
	if _, ok := loaded[s.active]; !ok {
		s.active = uuid.Nil
	}
	s.log.Info("loaded %d profiles (%d skipped)", len(loaded), skipped)
	return skipped, nil
}

// parseProfile validates one persisted entry. A bad profile field
// poisons only that entry; a bad macro poisons only that macro, and
// badMacros reports how many were dropped.
func parseProfile(entry gjson.Result) (p Profile, badMacros int, err error) {
	if !entry.IsObject() {
		return Profile{}, 0, fmt.Errorf("not an object: %s", entry.Raw)
	}
	id, err := uuid.Parse(entry.Get("id").String())
	if err != nil {
		return Profile{}, 0, fmt.Errorf("bad id: %w", err)
	}
	p = Profile{
		ID:   id,
		Name: entry.Get("name").String(),
		Overlay: Overlay{
			ImagePath: entry.Get("overlay.image_path").String(),
			X:         int(entry.Get("overlay.x").Int()),
			Y:         int(entry.Get("overlay.y").Int()),
		},
	}

	entry.Get("macros").ForEach(func(_, raw gjson.Result) bool {
		def, merr := parseMacro(raw, id)
		if merr != nil {
			badMacros++
			return true
		}
		p.Macros = append(p.Macros, def)
		return true
	})

	if err := p.Validate(); err != nil {
		return Profile{}, 0, fmt.Errorf("%w: %q", err, p.Name)
	}
	return p, badMacros, nil
}

// parseMacro decodes one nested macro entry. The enclosing profile is
// authoritative for ownership regardless of what the entry claims.
func parseMacro(raw gjson.Result, owner uuid.UUID) (macro.Definition, error) {
	var def macro.Definition
	if err := json.Unmarshal([]byte(raw.Raw), &def); err != nil {
		return macro.Definition{}, fmt.Errorf("bad macro: %w", err)
	}
	def.ProfileID = owner
	def.Cycle = def.Cycle.Normalize()
	if err := def.Validate(); err != nil {
		return macro.Definition{}, fmt.Errorf("bad macro %q: %w", def.Name, err)
	}
	return def, nil
}

// Save writes the current set to the backing file atomically.
func (s *Store) Save() error {
	s.mu.Lock()
	profiles := s.sortedLocked()
	s.mu.Unlock()

	doc := []byte(`{"profiles":[]}`)
	var err error
	for _, p := range profiles {
		if doc, err = sjson.SetBytes(doc, "profiles.-1", p); err != nil {
			return fmt.Errorf("encode profile %q: %w", p.Name, err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create profiles dir: %w", err)
	}
	if err := os.WriteFile(tmp, doc, 0o644); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace profiles: %w", err)
	}
	return nil
}

// Add stores a new profile. Names are unique, case-insensitively.
func (s *Store) Add(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.ID]; ok {
		return ErrProfileExists
	}
	for _, existing := range s.profiles {
		if strings.EqualFold(existing.Name, p.Name) {
			return fmt.Errorf("%w: %q", ErrProfileExists, p.Name)
		}
	}
	s.profiles[p.ID] = p
	return nil
}

// Update replaces an existing profile.
func (s *Store) Update(p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[p.ID]; !ok {
		return ErrProfileNotFound
	}
	for _, existing := range s.profiles {
		if existing.ID != p.ID && strings.EqualFold(existing.Name, p.Name) {
			return fmt.Errorf("%w: %q", ErrProfileExists, p.Name)
		}
	}
	s.profiles[p.ID] = p
	return nil
}

// SetMacros replaces the persisted macro set of a profile. Called
// before Save so edits held by the runtime macro store reach disk.
func (s *Store) SetMacros(id uuid.UUID, defs []macro.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return ErrProfileNotFound
	}
	p.Macros = defs
	if err := p.Validate(); err != nil {
		return err
	}
	s.profiles[id] = p
	return nil
}

// Remove deletes a profile and, with it, its persisted macros. Removing
// the active profile deactivates it.
func (s *Store) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return ErrProfileNotFound
	}
	delete(s.profiles, id)
	if s.active == id {
		s.active = uuid.Nil
	}
	return nil
}

// Get returns a profile by id.
func (s *Store) Get(id uuid.UUID) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[id]
	if !ok {
		return Profile{}, ErrProfileNotFound
	}
	return p, nil
}

// GetByName returns a profile by name, case-insensitively.
func (s *Store) GetByName(name string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.profiles {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
}

// List returns all profiles sorted by name.
func (s *Store) List() []Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedLocked()
}

func (s *Store) sortedLocked() []Profile {
	out := make([]Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Activate marks the named profile active.
func (s *Store) Activate(name string) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.profiles {
		if strings.EqualFold(p.Name, name) {
			s.active = p.ID
			return p, nil
		}
	}
	return Profile{}, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
}

// Deactivate clears the active profile.
func (s *Store) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = uuid.Nil
}

// Active returns the active profile, if any.
func (s *Store) Active() (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.profiles[s.active]
	return p, ok
}
