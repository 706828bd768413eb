package users

import (
	"context"
	"sort"
)

// mockStore is an in-memory Store that snapshots state per transaction
// and restores it when fn fails.
type mockStore struct {
	users  map[int64]User
	nextID int64

	// Error injection
	txError     error
	listError   error
	getError    error
	insertError error
	updateError error
	deleteError error
	commitError error

	commits   int
	rollbacks int
}

func newMockStore() *mockStore {
	return &mockStore{users: make(map[int64]User), nextID: 1}
}

func (m *mockStore) EnsureSchema(ctx context.Context) error { return nil }

func (m *mockStore) WithTx(ctx context.Context, fn func(context.Context, Session) error) error {
	if m.txError != nil {
		return m.txError
	}
	snapshot := make(map[int64]User, len(m.users))
	for id, u := range m.users {
		snapshot[id] = u
	}
	nextID := m.nextID

	err := fn(ctx, &mockSession{mock: m})
	if err == nil {
		err = m.commitError
	}
	if err != nil {
		m.users = snapshot
		m.nextID = nextID
		m.rollbacks++
		return err
	}
	m.commits++
	return nil
}

func (m *mockStore) emailTaken(email string, except int64) bool {
	for id, u := range m.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

type mockSession struct {
	mock *mockStore
}

func (s *mockSession) ListUsers(ctx context.Context) ([]User, error) {
	if s.mock.listError != nil {
		return nil, s.mock.listError
	}
	var out []User
	for _, u := range s.mock.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *mockSession) GetUser(ctx context.Context, id int64) (User, error) {
	if s.mock.getError != nil {
		return User{}, s.mock.getError
	}
	u, ok := s.mock.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (s *mockSession) InsertUser(ctx context.Context, in CreateInput) (User, error) {
	if s.mock.insertError != nil {
		return User{}, s.mock.insertError
	}
	if s.mock.emailTaken(in.Email, 0) {
		return User{}, &duplicateError{cause: errDriverUnique}
	}
	u := User{ID: s.mock.nextID, FirstName: in.FirstName, LastName: in.LastName, Email: in.Email}
	s.mock.users[u.ID] = u
	s.mock.nextID++
	return u, nil
}

func (s *mockSession) UpdateUser(ctx context.Context, user User) (User, error) {
	if s.mock.updateError != nil {
		return User{}, s.mock.updateError
	}
	if _, ok := s.mock.users[user.ID]; !ok {
		return User{}, ErrNotFound
	}
	if s.mock.emailTaken(user.Email, user.ID) {
		return User{}, &duplicateError{cause: errDriverUnique}
	}
	s.mock.users[user.ID] = user
	return user, nil
}

func (s *mockSession) DeleteUser(ctx context.Context, id int64) error {
	if _, ok := s.mock.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.mock.users, id)
	if s.mock.deleteError != nil {
		return s.mock.deleteError
	}
	return nil
}
