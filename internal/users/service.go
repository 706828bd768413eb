package users

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
)

// Session is one transactional unit of work against the users table.
type Session interface {
	ListUsers(ctx context.Context) ([]User, error)
	GetUser(ctx context.Context, id int64) (User, error)
	InsertUser(ctx context.Context, in CreateInput) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// Store opens sessions. WithTx commits when fn returns nil and rolls back otherwise.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, Session) error) error
	EnsureSchema(ctx context.Context) error
}

// OperationObserver receives one call per finished service operation.
type OperationObserver interface {
	ObserveOperation(operation, outcome string)
}

// Option customises a Service.
type Option func(*Service)

// WithObserver reports operation outcomes to o.
func WithObserver(o OperationObserver) Option {
	return func(s *Service) {
		s.observer = o
	}
}

// Service handles user business logic.
type Service struct {
	store    Store
	validate *validator.Validate
	observer OperationObserver
}

// NewService builds Service instance.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, validate: newValidator()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all users ordered by id.
func (s *Service) List(ctx context.Context) (users []User, err error) {
	defer func() { s.observe("list", err) }()
	err = s.store.WithTx(ctx, func(ctx context.Context, sess Session) error {
		var err error
		users, err = sess.ListUsers(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []User{}
	}
	return users, nil
}

// Find looks a user up by id.
func (s *Service) Find(ctx context.Context, id int64) (user User, err error) {
	defer func() { s.observe("read", err) }()
	err = s.store.WithTx(ctx, func(ctx context.Context, sess Session) error {
		var err error
		user, err = s.find(ctx, sess, id)
		return err
	})
	return user, err
}

// Read returns the user with the given id.
func (s *Service) Read(ctx context.Context, id int64) (User, error) {
	return s.Find(ctx, id)
}

// Create validates and inserts a new user.
func (s *Service) Create(ctx context.Context, in CreateInput) (user User, err error) {
	defer func() { s.observe("create", err) }()
	in = normalizeCreate(in)
	if err := s.validateCreate(in); err != nil {
		return User{}, err
	}
	var created User
	err = s.store.WithTx(ctx, func(ctx context.Context, sess Session) error {
		var err error
		created, err = sess.InsertUser(ctx, in)
		return err
	})
	if err != nil {
		return User{}, translate(err)
	}
	return created, nil
}

// Update overwrites the fields present in the input.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (user User, err error) {
	defer func() { s.observe("update", err) }()
	in = normalizeUpdate(in)
	if err := s.validateUpdate(in); err != nil {
		return User{}, err
	}
	var updated User
	err = s.store.WithTx(ctx, func(ctx context.Context, sess Session) error {
		user, err := s.find(ctx, sess, id)
		if err != nil {
			return err
		}
		if in.IsEmpty() {
			updated = user
			return nil
		}
		in.apply(&user)
		updated, err = sess.UpdateUser(ctx, user)
		return err
	})
	if err != nil {
		return User{}, translate(notFound(err, id))
	}
	return updated, nil
}

// Delete removes a user and returns the row as it was before deletion.
func (s *Service) Delete(ctx context.Context, id int64) (user User, err error) {
	defer func() { s.observe("delete", err) }()
	var snapshot User
	err = s.store.WithTx(ctx, func(ctx context.Context, sess Session) error {
		user, err := s.find(ctx, sess, id)
		if err != nil {
			return err
		}
		if err := sess.DeleteUser(ctx, id); err != nil {
			return err
		}
		snapshot = user
		return nil
	})
	if err != nil {
		return User{}, notFound(err, id)
	}
	return snapshot, nil
}

func (s *Service) observe(operation string, err error) {
	if s.observer == nil {
		return
	}
	s.observer.ObserveOperation(operation, outcome(err))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrValidation):
		return "validation"
	default:
		return "error"
	}
}

func (s *Service) find(ctx context.Context, sess Session, id int64) (User, error) {
	user, err := sess.GetUser(ctx, id)
	if err != nil {
		return User{}, notFound(err, id)
	}
	return user, nil
}

// notFound upgrades a bare ErrNotFound from a store into a *NotFoundError.
func notFound(err error, id int64) error {
	var nf *NotFoundError
	if errors.Is(err, ErrNotFound) && !errors.As(err, &nf) {
		return &NotFoundError{ID: id}
	}
	return err
}

// translate turns a storage unique violation into the domain validation error.
func translate(err error) error {
	if errors.Is(err, ErrDuplicateEmail) {
		return duplicateEmailError()
	}
	return err
}
