// Package recording tracks per-room recording sessions. A session is
// a badger-backed event log whose entries are sealed with the room key
// before they touch disk. Media encoding never happens here, only the
// timeline of what the room did while the tape was rolling.
package recording

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"huddle/domain"
	"huddle/errors"
	"huddle/repositories"
)

// Entry is one recorded room event, stored sealed.
type Entry struct {
	Kind string    `json:"kind"`
	At   time.Time `json:"at"`
	Data any       `json:"data"`
}

type session struct {
	meta repositories.RecordingMeta
	seq  uint64
}

type Manager struct {
	mu     sync.Mutex
	active map[domain.RoomID]*session

	repo repositories.IRecordingRepository
	keys *Keyring
	log  *slog.Logger
}

func NewManager(repo repositories.IRecordingRepository, keys *Keyring, log *slog.Logger) *Manager {
	return &Manager{
		active: make(map[domain.RoomID]*session),
		repo:   repo,
		keys:   keys,
		log:    log,
	}
}

// Start opens a session for the room. The current participant list is
// sealed as the opening entry so a replay knows who was present.
func (m *Manager) Start(room domain.RoomID, by domain.Principal, participants []domain.Participant) (repositories.RecordingMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.active[room]; ok {
		return repositories.RecordingMeta{}, errors.ErrRecordingActive
	}

	meta := repositories.RecordingMeta{
		ID:            uuid.New(),
		Room:          room.String(),
		StartedBy:     by.UserID,
		StartedByName: by.Name,
		StartedAt:     time.Now().UTC(),
	}
	if err := m.repo.SaveMeta(meta); err != nil {
		return repositories.RecordingMeta{}, err
	}

	s := &session{meta: meta}
	m.active[room] = s

	names := lo.Map(participants, func(p domain.Participant, _ int) string { return p.Name })
	if err := m.append(room, s, Entry{Kind: "participants", At: meta.StartedAt, Data: names}); err != nil {
		m.log.Warn("could not seal opening entry", "room_id", room, "error", err)
	}

	m.log.Info("recording started", "room_id", room, "recording_id", meta.ID, "by", by.UserID)
	return meta, nil
}

// Stop closes the room session and persists the final meta with the
// entry count and stop time.
func (m *Manager) Stop(room domain.RoomID, by domain.Principal) (repositories.RecordingMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.active[room]
	if !ok {
		return repositories.RecordingMeta{}, errors.ErrNoActiveRecording
	}
	delete(m.active, room)

	s.meta.StoppedAt = time.Now().UTC()
	s.meta.Entries = s.seq
	if err := m.repo.SaveMeta(s.meta); err != nil {
		return repositories.RecordingMeta{}, err
	}

	m.log.Info("recording stopped",
		"room_id", room,
		"recording_id", s.meta.ID,
		"by", by.UserID,
		"entries", s.seq,
		"duration", s.meta.StoppedAt.Sub(s.meta.StartedAt).String(),
	)
	return s.meta, nil
}

// Append seals one event into the room session. Rooms without an
// active session are skipped silently: the caller feeds every room
// event through here and only recorded rooms keep them.
func (m *Manager) Append(room domain.RoomID, kind string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.active[room]
	if !ok {
		return nil
	}
	return m.append(room, s, Entry{Kind: kind, At: time.Now().UTC(), Data: data})
}

func (m *Manager) append(room domain.RoomID, s *session, entry Entry) error {
	plain, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	sealed, err := m.keys.Seal(room, plain)
	if err != nil {
		return err
	}
	if err := m.repo.AppendEntry(s.meta.ID, s.seq, sealed); err != nil {
		return err
	}
	s.seq++
	return nil
}

// Active reports whether the room is currently being recorded.
func (m *Manager) Active(room domain.RoomID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.active[room]
	return ok
}

// Entries reads a recording back and opens every entry with the room
// key. Only works while the process still holds that key.
func (m *Manager) Entries(id uuid.UUID, room domain.RoomID) ([]Entry, error) {
	sealed, err := m.repo.ReadEntries(id)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(sealed))
	for _, blob := range sealed {
		plain, err := m.keys.Open(room, blob)
		if err != nil {
			return nil, err
		}
		var entry Entry
		if err := json.Unmarshal(plain, &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
