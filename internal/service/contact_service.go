package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go-contacts-api/internal/access"
	"go-contacts-api/internal/event"
	"go-contacts-api/internal/model"
	"go-contacts-api/pkg/apierror"
)

type ContactStore interface {
	Create(ctx context.Context, c *model.Contact) error
	FindByID(ctx context.Context, id int64) (model.Contact, error)
	Update(ctx context.Context, id int64, patch model.ContactPatch) (model.Contact, error)
	Delete(ctx context.Context, id int64) error
	Query(ctx context.Context, query model.ContactQuery) ([]model.Contact, model.Meta, error)
}

type ContactService struct {
	contacts ContactStore
	audit    *AuditService
	bus      event.Bus
}

func NewContactService(contacts ContactStore, audit *AuditService, bus event.Bus) *ContactService {
	return &ContactService{contacts: contacts, audit: audit, bus: bus}
}

// Create stores a contact owned by the caller.
func (s *ContactService) Create(ctx context.Context, actor model.AuditActor, req model.CreateContactRequest) (model.Contact, error) {
	if err := access.Authorize(actor.Principal(), access.ActionContactCreate, nil); err != nil {
		return model.Contact{}, err
	}

	role, ok := model.ParseRole(req.Role)
	if !ok {
		return model.Contact{}, apierror.Validation("role must be USER or ADMIN", "role")
	}

	contact := model.Contact{
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:  strings.TrimSpace(req.Phone),
		Role:   role,
		UserID: actor.UserID,
	}
	if contact.Name == "" || contact.Email == "" || contact.Phone == "" {
		return model.Contact{}, apierror.Validation("name, email and phone are required", "")
	}

	if err := s.contacts.Create(ctx, &contact); err != nil {
		s.audit.Log(ctx, "contact.create", actor, model.AuditStatusFailure, "", nil, nil, "internal error")
		return model.Contact{}, err
	}

	s.audit.Log(ctx, "contact.create", actor, model.AuditStatusSuccess, contactResource(contact.ID), nil, contact, "")
	s.publish(event.TypeContactCreated, actor, contact)
	return contact, nil
}

// List returns a page of contacts visible to the caller.
func (s *ContactService) List(ctx context.Context, actor model.AuditActor, query model.ContactQuery) ([]model.Contact, model.Meta, error) {
	query.Phone = ""
	return s.query(ctx, actor, access.ActionContactList, query)
}

// Search is List with an optional exact phone filter.
func (s *ContactService) Search(ctx context.Context, actor model.AuditActor, query model.ContactQuery) ([]model.Contact, model.Meta, error) {
	return s.query(ctx, actor, access.ActionContactSearch, query)
}

func (s *ContactService) query(ctx context.Context, actor model.AuditActor, action access.Action, query model.ContactQuery) ([]model.Contact, model.Meta, error) {
	caller := actor.Principal()
	if err := access.Authorize(caller, action, nil); err != nil {
		return nil, model.Meta{}, err
	}

	query.OwnerID = access.ScopeFor(caller, action)
	return s.contacts.Query(ctx, query)
}

// Update applies patch to a contact the caller owns, or any contact for admins.
func (s *ContactService) Update(ctx context.Context, actor model.AuditActor, id int64, patch model.ContactPatch) (model.Contact, error) {
	patch = trimPatch(patch)
	for _, v := range []*string{patch.Name, patch.Email, patch.Phone} {
		if v != nil && *v == "" {
			return model.Contact{}, apierror.Validation("fields cannot be blank", "")
		}
	}

	before, err := s.authorizeExisting(ctx, actor, access.ActionContactUpdate, id)
	if err != nil {
		s.logFailure(ctx, "contact.update", actor, id, err)
		return model.Contact{}, err
	}

	if patch.IsEmpty() {
		return before, nil
	}

	after, err := s.contacts.Update(ctx, id, patch)
	if err != nil {
		err = contactStoreError(err)
		s.logFailure(ctx, "contact.update", actor, id, err)
		return model.Contact{}, err
	}

	s.audit.Log(ctx, "contact.update", actor, model.AuditStatusSuccess, contactResource(id), before, after, "")
	s.publish(event.TypeContactUpdated, actor, after)
	return after, nil
}

func (s *ContactService) Delete(ctx context.Context, actor model.AuditActor, id int64) error {
	before, err := s.authorizeExisting(ctx, actor, access.ActionContactDelete, id)
	if err != nil {
		s.logFailure(ctx, "contact.delete", actor, id, err)
		return err
	}

	if err := s.contacts.Delete(ctx, id); err != nil {
		err = contactStoreError(err)
		s.logFailure(ctx, "contact.delete", actor, id, err)
		return err
	}

	s.audit.Log(ctx, "contact.delete", actor, model.AuditStatusSuccess, contactResource(id), before, nil, "")
	s.publish(event.TypeContactDeleted, actor, before)
	return nil
}

// authorizeExisting loads the contact before checking ownership, so a missing
// contact is NotFound regardless of who asks.
func (s *ContactService) authorizeExisting(ctx context.Context, actor model.AuditActor, action access.Action, id int64) (model.Contact, error) {
	contact, err := s.contacts.FindByID(ctx, id)
	if err != nil {
		return model.Contact{}, contactStoreError(err)
	}

	if err := access.Authorize(actor.Principal(), action, &contact.UserID); err != nil {
		return model.Contact{}, err
	}

	return contact, nil
}

func (s *ContactService) publish(typ event.Type, actor model.AuditActor, contact model.Contact) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{
		Type:    typ,
		Payload: contact,
		ActorID: actor.UserID,
		OwnerID: contact.UserID,
	})
}

func (s *ContactService) logFailure(ctx context.Context, action string, actor model.AuditActor, id int64, err error) {
	status, message := statusOf(err)
	s.audit.Log(ctx, action, actor, status, contactResource(id), nil, nil, message)
}

func contactStoreError(err error) error {
	if errors.Is(err, model.ErrContactNotFound) {
		return apierror.Wrap(apierror.KindNotFound, err, "contact not found")
	}
	return err
}

func trimPatch(patch model.ContactPatch) model.ContactPatch {
	trim := func(v *string) *string {
		if v == nil {
			return nil
		}
		t := strings.TrimSpace(*v)
		return &t
	}
	patch.Name = trim(patch.Name)
	patch.Email = trim(patch.Email)
	patch.Phone = trim(patch.Phone)
	if patch.Email != nil {
		lower := strings.ToLower(*patch.Email)
		patch.Email = &lower
	}
	return patch
}

func contactResource(id int64) string {
	return "contact:" + strconv.FormatInt(id, 10)
}
