package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/roster/internal/platform/httpx"
	"github.com/odyssey-erp/roster/internal/shared"
)

const (
	idempotencyScope = "users.create"
	releaseTimeout   = 2 * time.Second
)

// API exposes the user operations as JSON under /api/users.
type API struct {
	logger      *slog.Logger
	service     *Service
	idempotency *shared.IdempotencyStore
}

// NewAPI builds API instance. A nil idempotency store disables Idempotency-Key handling.
func NewAPI(logger *slog.Logger, service *Service, idempotency *shared.IdempotencyStore) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{logger: logger, service: service, idempotency: idempotency}
}

// MountRoutes registers JSON routes.
func (a *API) MountRoutes(r chi.Router) {
	r.Get("/", a.list)
	r.Post("/", a.create)
	r.Get("/{id}", a.read)
	r.Patch("/{id}", a.update)
	r.Delete("/{id}", a.delete)
}

func (a *API) list(w http.ResponseWriter, r *http.Request) {
	users, err := a.service.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, users)
}

func (a *API) create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	key := r.Header.Get(shared.IdempotencyHeader)
	if a.idempotency != nil && key != "" {
		if err := a.idempotency.Claim(r.Context(), idempotencyScope, key); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
				return
			}
			a.fail(w, r, err)
			return
		}
	}
	user, err := a.service.Create(r.Context(), in)
	if err != nil {
		if a.idempotency != nil && key != "" {
			a.releaseKey(r.Context(), key)
		}
		a.fail(w, r, err)
		return
	}
	w.Header().Set("Location", "/api/users/"+strconv.FormatInt(user.ID, 10))
	httpx.JSON(w, http.StatusCreated, user)
}

func (a *API) read(w http.ResponseWriter, r *http.Request) {
	id, ok := apiUserID(w, r)
	if !ok {
		return
	}
	user, err := a.service.Read(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (a *API) update(w http.ResponseWriter, r *http.Request) {
	id, ok := apiUserID(w, r)
	if !ok {
		return
	}
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	user, err := a.service.Update(r.Context(), id, in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (a *API) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := apiUserID(w, r)
	if !ok {
		return
	}
	user, err := a.service.Delete(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

// releaseKey frees a claimed key after a failed create, even when the request
// context is already cancelled.
func (a *API) releaseKey(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := a.idempotency.Release(ctx, idempotencyScope, key); err != nil {
		a.logger.Warn("release idempotency key", slog.Any("error", err))
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !isClientError(err) {
		a.logger.Error("users api", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func apiUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return 0, false
	}
	if id <= 0 {
		httpx.RespondError(w, &NotFoundError{ID: id})
		return 0, false
	}
	return id, true
}

func isClientError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation)
}
