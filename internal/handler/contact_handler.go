package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-contacts-api/internal/model"
	"go-contacts-api/internal/repository"
	"go-contacts-api/internal/service"
	"go-contacts-api/internal/validation"
	"go-contacts-api/pkg/apierror"
)

type ContactHandler struct {
	service   *service.ContactService
	validator *validation.Validator
}

func NewContactHandler(service *service.ContactService, validator *validation.Validator) *ContactHandler {
	return &ContactHandler{service: service, validator: validator}
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload model.CreateContactRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		writeError(w, r, err)
		return
	}

	contact, err := h.service.Create(r.Context(), actorFromRequest(r), payload)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, r, http.StatusCreated, "Contact %s created", contact, nil, contact.Name)
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := h.listQuery(r, false)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, meta, err := h.service.List(r.Context(), actorFromRequest(r), query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeContacts(w, r, items, meta)
}

// SearchByPhone lists contacts matching the exact phone query parameter, or
// all visible contacts when it is absent.
func (h *ContactHandler) SearchByPhone(w http.ResponseWriter, r *http.Request) {
	query, err := h.listQuery(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items, meta, err := h.service.Search(r.Context(), actorFromRequest(r), query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeContacts(w, r, items, meta)
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := contactID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var payload model.UpdateContactRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.validator.Struct(payload); err != nil {
		writeError(w, r, err)
		return
	}

	contact, err := h.service.Update(r.Context(), actorFromRequest(r), id, payload.Patch())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeMessage(w, r, http.StatusOK, "Contact %s updated", contact, nil, contact.Name)
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := contactID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), actorFromRequest(r), id); err != nil {
		writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ContactHandler) listQuery(r *http.Request, withPhone bool) (model.ContactQuery, error) {
	values := r.URL.Query()

	page, err := parseIntOrDefault(values.Get("page"), 1)
	if err != nil {
		return model.ContactQuery{}, apierror.Validation("Page must be a number", "page")
	}
	limit, err := parseIntOrDefault(values.Get("limit"), repository.DefaultContactLimit)
	if err != nil {
		return model.ContactQuery{}, apierror.Validation("Limit must be a number", "limit")
	}

	req := model.ListContactsRequest{
		Page:   page,
		Limit:  limit,
		SortBy: strings.TrimSpace(values.Get("sortBy")),
		Order:  model.SortOrderDesc,
	}
	if req.SortBy == "" {
		req.SortBy = repository.DefaultContactSort
	}
	if strings.EqualFold(strings.TrimSpace(values.Get("order")), model.SortOrderAsc) {
		req.Order = model.SortOrderAsc
	}
	if withPhone {
		req.Phone = strings.TrimSpace(values.Get("phone"))
	}

	if err := h.validator.Struct(req); err != nil {
		return model.ContactQuery{}, err
	}
	return req.Query(), nil
}

func writeContacts(w http.ResponseWriter, r *http.Request, items []model.Contact, meta model.Meta) {
	if len(items) == 0 {
		writeMessage(w, r, http.StatusOK, "No contacts found", []model.Contact{}, &meta)
		return
	}
	writeSuccess(w, http.StatusOK, items, &meta)
}

func contactID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.Validation("invalid contact id", raw)
	}
	return id, nil
}
