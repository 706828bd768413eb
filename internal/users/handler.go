package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/roster/internal/shared"
	"github.com/odyssey-erp/roster/internal/view"
)

const (
	tplList = "pages/users/list.html"
	tplShow = "pages/users/show.html"
	tplForm = "pages/users/form.html"
)

// Handler manages user management pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers user routes under /users.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Index)
	r.Post("/", h.createUser)
	r.Get("/create", h.showCreateForm)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.showUser)
		r.Post("/", h.updateUser)
		r.Get("/edit", h.showEditForm)
		r.Post("/delete", h.deleteUser)
	})
}

type formErrors map[string]string

type formValues struct {
	FirstName string
	LastName  string
	Email     string
}

type listPageData struct {
	Users  []User
	Errors formErrors
}

type formPageData struct {
	Heading string
	Action  string
	Submit  string
	Form    formValues
	Errors  formErrors
}

type showPageData struct {
	User User
}

// Index renders the user list.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		h.render(w, r, http.StatusInternalServerError, tplList, "Users", listPageData{Errors: formErrors{"general": shared.UserSafeMessage(err)}})
		return
	}
	h.render(w, r, http.StatusOK, tplList, "Users", listPageData{Users: users})
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, tplForm, "New user", createPage(formValues{}, formErrors{}))
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := CreateInput{
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
		Email:     r.PostFormValue("email"),
	}
	if _, err := h.service.Create(r.Context(), in); err != nil {
		form := formValues{FirstName: in.FirstName, LastName: in.LastName, Email: in.Email}
		h.renderFormError(w, r, err, "New user", createPage(form, nil))
		return
	}
	h.redirectWithFlash(w, r, "/users", shared.FlashSuccess, "User created")
}

func (h *Handler) showUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	user, err := h.service.Read(r.Context(), id)
	if err != nil {
		h.fail(w, err, "read user failed", id)
		return
	}
	h.render(w, r, http.StatusOK, tplShow, user.FirstName+" "+user.LastName, showPageData{User: user})
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	user, err := h.service.Read(r.Context(), id)
	if err != nil {
		h.fail(w, err, "read user failed", id)
		return
	}
	form := formValues{FirstName: user.FirstName, LastName: user.LastName, Email: user.Email}
	h.render(w, r, http.StatusOK, tplForm, "Edit user", editPage(id, form, formErrors{}))
}

func (h *Handler) updateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	in := UpdateInput{
		FirstName: postedField(r, "first_name"),
		LastName:  postedField(r, "last_name"),
		Email:     postedField(r, "email"),
	}
	if _, err := h.service.Update(r.Context(), id, in); err != nil {
		if errors.Is(err, ErrValidation) {
			form := formValues{
				FirstName: r.PostFormValue("first_name"),
				LastName:  r.PostFormValue("last_name"),
				Email:     r.PostFormValue("email"),
			}
			h.renderFormError(w, r, err, "Edit user", editPage(id, form, nil))
			return
		}
		h.fail(w, err, "update user failed", id)
		return
	}
	h.redirectWithFlash(w, r, "/users", shared.FlashSuccess, "User updated")
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	if _, err := h.service.Delete(r.Context(), id); err != nil {
		h.fail(w, err, "delete user failed", id)
		return
	}
	h.redirectWithFlash(w, r, "/users", shared.FlashSuccess, "User deleted")
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return 0, false
	}
	if id <= 0 {
		http.Error(w, "User not found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, err error, msg string, id int64) {
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	h.logger.Error(msg, slog.Any("error", err), slog.Int64("id", id))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) renderFormError(w http.ResponseWriter, r *http.Request, err error, title string, page formPageData) {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		h.logger.Error("save user failed", slog.Any("error", err))
		page.Errors = formErrors{"general": shared.UserSafeMessage(err)}
		h.render(w, r, http.StatusInternalServerError, tplForm, title, page)
		return
	}
	page.Errors = formErrors{}
	for field, msg := range verr.Fields {
		page.Errors[field] = msg
	}
	if verr.Message != "" {
		page.Errors["general"] = verr.Message
	}
	h.render(w, r, http.StatusBadRequest, tplForm, title, page)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, template, title string, data any) {
	sess := shared.SessionFromContext(r.Context())
	var csrfToken string
	var flash *shared.FlashMessage
	if sess != nil {
		token, err := h.csrf.EnsureToken(r.Context(), sess)
		if err != nil {
			h.logger.Error("ensure csrf token", slog.Any("error", err), slog.String("path", r.URL.Path))
		}
		csrfToken = token
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: title, CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Data: data}
	if err := h.templates.Render(w, status, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err), slog.String("template", template))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func createPage(form formValues, errs formErrors) formPageData {
	return formPageData{Heading: "Create user", Action: "/users", Submit: "Create", Form: form, Errors: errs}
}

func editPage(id int64, form formValues, errs formErrors) formPageData {
	return formPageData{
		Heading: "Edit user",
		Action:  "/users/" + strconv.FormatInt(id, 10),
		Submit:  "Save",
		Form:    form,
		Errors:  errs,
	}
}

// postedField returns nil when the form omitted the field entirely.
func postedField(r *http.Request, name string) *string {
	values, ok := r.PostForm[name]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}
