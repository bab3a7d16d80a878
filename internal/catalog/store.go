package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"roomassist/internal/model"
)

// Store keeps the room catalog in memory, backed by a JSON file.
// Reads during query processing operate on snapshots (see Rooms), so only
// the admin append flow takes the write lock.
type Store struct {
	mu    sync.Mutex
	path  string
	rooms []model.Room
}

// Load reads the catalog from the given JSON file.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var rooms []model.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	seen := make(map[string]bool, len(rooms))
	for _, r := range rooms {
		if r.Name == "" {
			return nil, fmt.Errorf("catalog contains a room with an empty name")
		}
		if seen[r.Name] {
			return nil, fmt.Errorf("catalog contains duplicate room name %q", r.Name)
		}
		seen[r.Name] = true
	}

	return &Store{path: path, rooms: rooms}, nil
}

// Rooms returns a snapshot copy of all room records.
func (s *Store) Rooms() []model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Room, len(s.rooms))
	copy(out, s.rooms)
	return out
}

// Len returns the number of catalog entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// HasName reports whether a room with the given name exists.
func (s *Store) HasName(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.rooms {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Append adds a new room and persists the catalog file. The room name must
// not collide with an existing entry.
func (s *Store) Append(room model.Room) (model.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxID := 0
	for _, r := range s.rooms {
		if r.Name == room.Name {
			return model.Room{}, fmt.Errorf("room name %q already exists", room.Name)
		}
		if r.ID > maxID {
			maxID = r.ID
		}
	}
	room.ID = maxID + 1
	if room.MaxOccupancy < 1 {
		room.MaxOccupancy = 1
	}

	rooms := append(append([]model.Room{}, s.rooms...), room)
	if err := s.save(rooms); err != nil {
		return model.Room{}, err
	}
	s.rooms = rooms
	return room, nil
}

// Styles returns the distinct non-empty style values in order of first
// appearance. Recomputed per call; the catalog stays small.
func Styles(rooms []model.Room) []string {
	styles := []string{}
	seen := make(map[string]bool)
	for _, r := range rooms {
		if r.Style == "" || seen[r.Style] {
			continue
		}
		seen[r.Style] = true
		styles = append(styles, r.Style)
	}
	return styles
}

func (s *Store) save(rooms []model.Room) error {
	data, err := json.MarshalIndent(rooms, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	return nil
}
