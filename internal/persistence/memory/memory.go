// Package memory provides an in-process persistence.Store used by tests and
// single-node development setups.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/roombook/internal/persistence"
	"github.com/example/roombook/internal/scheduler"
)

var errReadOnly = errors.New("memory: write attempted in read-only transaction")

// Store keeps all records in maps guarded by a single lock. Each read-write
// transaction works on a copy of the state and swaps it in on commit.
type Store struct {
	mu    sync.RWMutex
	state *state
	now   func() time.Time
}

type roomRecord struct {
	room persistence.Room
	seq  int64
}

type dayRecord struct {
	day persistence.Day
	seq int64
}

type state struct {
	seq   int64
	users map[string]persistence.User
	rooms map[string]roomRecord
	days  map[string]dayRecord
}

// New returns an empty Store. now stamps UpdatedAt fields; nil means time.Now.
func New(now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		state: &state{
			users: make(map[string]persistence.User),
			rooms: make(map[string]roomRecord),
			days:  make(map[string]dayRecord),
		},
		now: now,
	}
}

// Close releases resources held by the store. No-op for the in-memory implementation.
func (s *Store) Close() error {
	return nil
}

// WithTransaction runs fn against a private copy of the state and commits it when fn succeeds.
func (s *Store) WithTransaction(ctx context.Context, fn persistence.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	working := s.state.clone()
	if err := fn(ctx, &tx{state: working, now: s.now}); err != nil {
		return err
	}
	s.state = working
	return nil
}

// WithReadOnlyTransaction runs fn against the committed state.
func (s *Store) WithReadOnlyTransaction(ctx context.Context, fn persistence.TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return fn(ctx, &tx{state: s.state, now: s.now, readOnly: true})
}

type tx struct {
	state    *state
	now      func() time.Time
	readOnly bool
}

func (t *tx) Users() persistence.UserRepository { return users{t} }
func (t *tx) Rooms() persistence.RoomRepository { return rooms{t} }
func (t *tx) Days() persistence.DayRepository   { return days{t} }

func (t *tx) writable() error {
	if t.readOnly {
		return errReadOnly
	}
	return nil
}

func (t *tx) nextSeq() int64 {
	t.state.seq++
	return t.state.seq
}

// --- users ---

type users struct{ t *tx }

func (r users) CreateUser(ctx context.Context, user persistence.User) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	st := r.t.state
	if _, ok := st.users[user.ID]; ok {
		return fmt.Errorf("memory: user %s: %w", user.ID, persistence.ErrDuplicate)
	}
	if user.Username != "" {
		if err := st.ensureUniqueUsername(user.ID, user.Username); err != nil {
			return err
		}
	}
	user.OwnedRoomIDs = nil
	st.users[user.ID] = cloneUser(user)
	return nil
}

func (r users) GetUser(ctx context.Context, id string) (persistence.User, error) {
	user, ok := r.t.state.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return r.t.state.withOwnedRooms(user), nil
}

func (r users) FindUserByUsername(ctx context.Context, username string) (persistence.User, error) {
	matches := make([]persistence.User, 0, 1)
	for _, user := range r.t.state.users {
		if username != "" && user.Username == username {
			matches = append(matches, user)
		}
	}
	user, err := expectOne(matches)
	if err != nil {
		return persistence.User{}, err
	}
	return r.t.state.withOwnedRooms(user), nil
}

func (r users) UpdateUsername(ctx context.Context, id, username string) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	st := r.t.state
	user, ok := st.users[id]
	if !ok {
		return persistence.ErrNotFound
	}
	if username != "" {
		if err := st.ensureUniqueUsername(id, username); err != nil {
			return err
		}
	}
	user.Username = username
	user.UpdatedAt = r.t.now()
	st.users[id] = user
	return nil
}

// --- rooms ---

type rooms struct{ t *tx }

func (r rooms) CreateRoom(ctx context.Context, room persistence.Room) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	st := r.t.state
	if _, ok := st.rooms[room.ID]; ok {
		return fmt.Errorf("memory: room %s: %w", room.ID, persistence.ErrDuplicate)
	}
	for _, existing := range st.rooms {
		if existing.room.Name == room.Name {
			return fmt.Errorf("memory: room name %q: %w", room.Name, persistence.ErrDuplicate)
		}
	}
	if _, ok := st.users[room.OwnerUserID]; !ok {
		return fmt.Errorf("memory: owner %s: %w", room.OwnerUserID, persistence.ErrForeignKeyViolation)
	}
	room.DayIDs = nil
	st.rooms[room.ID] = roomRecord{room: cloneRoom(room), seq: r.t.nextSeq()}
	return nil
}

func (r rooms) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	rec, ok := r.t.state.rooms[id]
	if !ok {
		return persistence.Room{}, persistence.ErrNotFound
	}
	return r.t.state.withDays(rec.room), nil
}

func (r rooms) FindRoomByName(ctx context.Context, name string) (persistence.Room, error) {
	matches := make([]persistence.Room, 0, 1)
	for _, rec := range r.t.state.rooms {
		if rec.room.Name == name {
			matches = append(matches, rec.room)
		}
	}
	room, err := expectOne(matches)
	if err != nil {
		return persistence.Room{}, err
	}
	return r.t.state.withDays(room), nil
}

// ListRooms returns all rooms ordered by name.
func (r rooms) ListRooms(ctx context.Context) ([]persistence.Room, error) {
	st := r.t.state
	out := make([]persistence.Room, 0, len(st.rooms))
	for _, rec := range st.rooms {
		out = append(out, st.withDays(rec.room))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (r rooms) DeleteRoom(ctx context.Context, id string) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	st := r.t.state
	if _, ok := st.rooms[id]; !ok {
		return persistence.ErrNotFound
	}
	for dayID, rec := range st.days {
		if rec.day.RoomID == id {
			delete(st.days, dayID)
		}
	}
	delete(st.rooms, id)
	return nil
}

// --- days ---

type days struct{ t *tx }

func (r days) CreateDay(ctx context.Context, day persistence.Day) error {
	if err := r.t.writable(); err != nil {
		return err
	}
	st := r.t.state
	if _, ok := st.days[day.ID]; ok {
		return fmt.Errorf("memory: day %s: %w", day.ID, persistence.ErrDuplicate)
	}
	if _, ok := st.rooms[day.RoomID]; !ok {
		return fmt.Errorf("memory: room %s: %w", day.RoomID, persistence.ErrForeignKeyViolation)
	}
	for _, rec := range st.days {
		if rec.day.RoomID == day.RoomID && rec.day.Date == day.Date {
			return fmt.Errorf("memory: day %s for room %s: %w", day.Date, day.RoomID, persistence.ErrDuplicate)
		}
	}
	if err := st.ensureOwnersExist(day.Bookings); err != nil {
		return err
	}
	st.days[day.ID] = dayRecord{day: cloneDay(day), seq: r.t.nextSeq()}
	return nil
}

func (r days) GetDay(ctx context.Context, id string) (persistence.Day, error) {
	rec, ok := r.t.state.days[id]
	if !ok {
		return persistence.Day{}, persistence.ErrNotFound
	}
	return cloneDay(rec.day), nil
}

func (r days) FindDay(ctx context.Context, roomID string, date scheduler.Date) (persistence.Day, error) {
	matches := make([]persistence.Day, 0, 1)
	for _, rec := range r.t.state.days {
		if rec.day.RoomID == roomID && rec.day.Date == date {
			matches = append(matches, rec.day)
		}
	}
	day, err := expectOne(matches)
	if err != nil {
		return persistence.Day{}, err
	}
	return cloneDay(day), nil
}

func (r days) ListDaysForRoom(ctx context.Context, roomID string) ([]persistence.Day, error) {
	recs := r.t.state.sortedDays(func(day persistence.Day) bool { return day.RoomID == roomID })
	out := make([]persistence.Day, 0, len(recs))
	for _, rec := range recs {
		out = append(out, cloneDay(rec.day))
	}
	return out, nil
}

// ListDays returns ledgers ordered by date, then creation order.
func (r days) ListDays(ctx context.Context, filter persistence.DayFilter) ([]persistence.Day, error) {
	recs := r.t.state.sortedDays(func(day persistence.Day) bool {
		return filter.Date == nil || day.Date == *filter.Date
	})
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].day.Date.Before(recs[j].day.Date)
	})
	out := make([]persistence.Day, 0, len(recs))
	for _, rec := range recs {
		out = append(out, cloneDay(rec.day))
	}
	return out, nil
}

func (r days) SaveBookings(ctx context.Context, dayID string, expectedVersion int64, bookings []persistence.Booking) (int64, error) {
	if err := r.t.writable(); err != nil {
		return 0, err
	}
	st := r.t.state
	rec, ok := st.days[dayID]
	if !ok {
		return 0, persistence.ErrNotFound
	}
	if rec.day.Version != expectedVersion {
		return 0, fmt.Errorf("memory: day %s at version %d, expected %d: %w", dayID, rec.day.Version, expectedVersion, persistence.ErrStaleVersion)
	}
	if err := st.ensureOwnersExist(bookings); err != nil {
		return 0, err
	}
	rec.day.Bookings = cloneBookings(bookings)
	rec.day.Version++
	st.days[dayID] = rec
	return rec.day.Version, nil
}

// --- helpers ---

func expectOne[T any](matches []T) (T, error) {
	var zero T
	switch len(matches) {
	case 0:
		return zero, persistence.ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return zero, persistence.ErrAmbiguousResult
	}
}

func (st *state) clone() *state {
	out := &state{
		seq:   st.seq,
		users: make(map[string]persistence.User, len(st.users)),
		rooms: make(map[string]roomRecord, len(st.rooms)),
		days:  make(map[string]dayRecord, len(st.days)),
	}
	for id, user := range st.users {
		out.users[id] = cloneUser(user)
	}
	for id, rec := range st.rooms {
		out.rooms[id] = roomRecord{room: cloneRoom(rec.room), seq: rec.seq}
	}
	for id, rec := range st.days {
		out.days[id] = dayRecord{day: cloneDay(rec.day), seq: rec.seq}
	}
	return out
}

func (st *state) ensureUniqueUsername(id, username string) error {
	for existingID, user := range st.users {
		if existingID == id {
			continue
		}
		if user.Username == username {
			return fmt.Errorf("memory: username %q: %w", username, persistence.ErrDuplicate)
		}
	}
	return nil
}

func (st *state) ensureOwnersExist(bookings []persistence.Booking) error {
	for _, booking := range bookings {
		if _, ok := st.users[booking.OwnerUserID]; !ok {
			return fmt.Errorf("memory: booking owner %s: %w", booking.OwnerUserID, persistence.ErrForeignKeyViolation)
		}
	}
	return nil
}

func (st *state) withOwnedRooms(user persistence.User) persistence.User {
	owned := make([]roomRecord, 0)
	for _, rec := range st.rooms {
		if rec.room.OwnerUserID == user.ID {
			owned = append(owned, rec)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].seq < owned[j].seq })

	out := cloneUser(user)
	out.OwnedRoomIDs = make([]string, 0, len(owned))
	for _, rec := range owned {
		out.OwnedRoomIDs = append(out.OwnedRoomIDs, rec.room.ID)
	}
	return out
}

func (st *state) withDays(room persistence.Room) persistence.Room {
	recs := st.sortedDays(func(day persistence.Day) bool { return day.RoomID == room.ID })
	out := cloneRoom(room)
	out.DayIDs = make([]string, 0, len(recs))
	for _, rec := range recs {
		out.DayIDs = append(out.DayIDs, rec.day.ID)
	}
	return out
}

func (st *state) sortedDays(keep func(persistence.Day) bool) []dayRecord {
	out := make([]dayRecord, 0)
	for _, rec := range st.days {
		if keep(rec.day) {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}

func cloneUser(user persistence.User) persistence.User {
	user.Username = strings.Clone(user.Username)
	user.OwnedRoomIDs = append([]string(nil), user.OwnedRoomIDs...)
	return user
}

func cloneRoom(room persistence.Room) persistence.Room {
	room.DayIDs = append([]string(nil), room.DayIDs...)
	return room
}

func cloneDay(day persistence.Day) persistence.Day {
	day.Bookings = cloneBookings(day.Bookings)
	return day
}

func cloneBookings(bookings []persistence.Booking) []persistence.Booking {
	out := make([]persistence.Booking, len(bookings))
	copy(out, bookings)
	return out
}
