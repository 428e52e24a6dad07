package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/starfederation/datastar-go/datastar"
	"golang.org/x/text/language"

	"github.com/msomdec/contact-book/internal/domain"
	"github.com/msomdec/contact-book/internal/projection"
	"github.com/msomdec/contact-book/internal/service"
)

// ContactHandler handles contact CRUD and the paged list view.
type ContactHandler struct {
	contacts *service.ContactService
	pageSize int
	locale   language.Tag
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(contacts *service.ContactService, pageSize int, locale language.Tag) *ContactHandler {
	if pageSize <= 0 {
		pageSize = projection.DefaultPageSize
	}
	return &ContactHandler{contacts: contacts, pageSize: pageSize, locale: locale}
}

// viewSignals is the list state the browser keeps between requests.
type viewSignals struct {
	SortBy  string `json:"sortBy"`
	SortDir string `json:"sortDir"`
	Page    int    `json:"page"`
}

func (h *ContactHandler) project(owner string, sort projection.Sort, page int) projection.Page {
	return projection.Project(h.contacts.ListForOwner(owner), owner, projection.Params{
		Sort:     sort,
		Page:     page,
		PageSize: h.pageSize,
		Locale:   h.locale,
	})
}

// queryView reads sort, dir and page from the query string.
func queryView(r *http.Request) (projection.Sort, int, error) {
	q := r.URL.Query()
	sort, err := projection.ParseSort(q.Get("sort"), q.Get("dir"))
	if err != nil {
		return projection.Sort{}, 0, err
	}
	page := 1
	if v := q.Get("page"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			page = parsed
		}
	}
	return sort, page, nil
}

// HandleList returns one page of the user's contacts.
// GET /api/contacts?sort=order|name&dir=asc|desc&page=N
// Response: PageDTO
func (h *ContactHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	sort, page, err := queryView(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toPageDTO(h.project(user.Email, sort, page), page, sort))
}

// HandleCreate adds a contact at the end of the user's list.
// POST /api/contacts
// Request:  {"name":"...","phoneNumber":"..."}
// Response: {"contact": {...}, "page": N} where N is the page the contact landed on.
func (h *ContactHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	var req struct {
		Name        string `json:"name"`
		PhoneNumber string `json:"phoneNumber"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	c, err := h.contacts.AddContact(r.Context(), user.Email, req.Name, req.PhoneNumber)
	if err != nil {
		writeServiceError(w, "add contact", err)
		return
	}

	total := len(h.contacts.ListForOwner(user.Email))
	writeJSON(w, http.StatusCreated, map[string]any{
		"contact": toContactDTO(c),
		"page":    projection.PageAfterAdd(total, h.pageSize),
	})
}

// HandleGet returns a single contact owned by the user.
// GET /api/contacts/{id}
func (h *ContactHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	c, err := h.contacts.GetContact(r.PathValue("id"))
	if err != nil || c.UserID != user.Email {
		writeError(w, http.StatusNotFound, "Contact not found.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"contact": toContactDTO(c),
	})
}

// HandleUpdate edits a contact. A non-zero order moves it to that rank.
// PUT /api/contacts/{id}
// Request:  {"name":"...","phoneNumber":"...","order":N}
// Response: {"contact": {...}}
func (h *ContactHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	var req struct {
		Name        string `json:"name"`
		PhoneNumber string `json:"phoneNumber"`
		Order       int    `json:"order"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	c, err := h.contacts.UpdateContact(r.Context(), r.PathValue("id"), domain.ContactUpdate{
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		Order:       req.Order,
	})
	if err != nil {
		writeServiceError(w, "update contact", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"contact": toContactDTO(c),
	})
}

// HandleDelete removes a contact. Unknown ids succeed without change.
// DELETE /api/contacts/{id}?sort=&dir=&page=N
// Response: {"page": N} adjusted when the delete emptied the current page.
func (h *ContactHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	sort, page, err := queryView(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.contacts.DeleteContact(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, "delete contact", err)
		return
	}

	remaining := len(h.project(user.Email, sort, page).Items)
	writeJSON(w, http.StatusOK, map[string]int{
		"page": projection.PageAfterDelete(page, remaining),
	})
}

// HandleView patches the current page into the browser's signals.
// GET /api/contacts/view (datastar)
func (h *ContactHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	h.patchView(w, r, nil)
}

// HandleSort applies a column click and patches the re-sorted page.
// POST /api/contacts/sort/{key} (datastar)
func (h *ContactHandler) HandleSort(w http.ResponseWriter, r *http.Request) {
	key := projection.SortKey(r.PathValue("key"))
	if key != projection.SortByOrder && key != projection.SortByName {
		writeError(w, http.StatusBadRequest, "Unknown sort column.")
		return
	}
	h.patchView(w, r, func(s projection.Sort) projection.Sort { return s.Toggle(key) })
}

func (h *ContactHandler) patchView(w http.ResponseWriter, r *http.Request, change func(projection.Sort) projection.Sort) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated.")
		return
	}

	var signals viewSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid signals.")
		return
	}
	sort, err := projection.ParseSort(signals.SortBy, signals.SortDir)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if change != nil {
		sort = change(sort)
	}
	page := max(signals.Page, 1)

	sse := datastar.NewSSE(w, r)
	if err := sse.MarshalAndPatchSignals(toPageDTO(h.project(user.Email, sort, page), page, sort)); err != nil {
		slog.Error("patch contact view", "error", err)
	}
}
