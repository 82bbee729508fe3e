package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go-contacts-api/internal/model"
	"go-contacts-api/internal/repository"
	"go-contacts-api/internal/service"
	"go-contacts-api/pkg/apierror"
)

type AuditHandler struct {
	service *service.AuditService
}

func NewAuditHandler(service *service.AuditService) *AuditHandler {
	return &AuditHandler{service: service}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := parseIntOrDefault(query.Get("page"), 1)
	if err != nil {
		writeError(w, r, apierror.Validation("Page must be a number", "page"))
		return
	}
	if page > model.MaxPage {
		writeError(w, r, apierror.Validation(fmt.Sprintf("Page must be at most %d", model.MaxPage), "page"))
		return
	}
	limit, err := parseIntOrDefault(query.Get("limit"), repository.DefaultAuditLimit)
	if err != nil {
		writeError(w, r, apierror.Validation("Limit must be a number", "limit"))
		return
	}

	var actorID int64
	if raw := strings.TrimSpace(query.Get("actorId")); raw != "" {
		actorID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, r, apierror.Validation("actorId must be a number", raw))
			return
		}
	}

	items, meta, err := h.service.Query(r.Context(), model.AuditQuery{
		Action:   strings.TrimSpace(query.Get("action")),
		ActorID:  actorID,
		Status:   strings.TrimSpace(query.Get("status")),
		Resource: strings.TrimSpace(query.Get("resource")),
		From:     strings.TrimSpace(query.Get("from")),
		To:       strings.TrimSpace(query.Get("to")),
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.AuditListData{Items: items}, &meta)
}
