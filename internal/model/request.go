package model

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type CreateContactRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,phone"`
	Role  string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

type UpdateContactRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1"`
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone" validate:"omitempty,phone"`
}

func (r UpdateContactRequest) Patch() ContactPatch {
	return ContactPatch{Name: r.Name, Email: r.Email, Phone: r.Phone}
}

// ListContactsRequest carries the query string of the list and search endpoints.
type ListContactsRequest struct {
	Phone  string `json:"phone" validate:"omitempty,phone"`
	Page   int    `json:"page" validate:"gte=1,lte=1000000"`
	Limit  int    `json:"limit" validate:"gte=1,lte=100"`
	SortBy string `json:"sortBy" validate:"oneof=id name email phone role createdAt updatedAt"`
	Order  string `json:"order" validate:"oneof=asc desc"`
}

func (r ListContactsRequest) Query() ContactQuery {
	return ContactQuery{Phone: r.Phone, Page: r.Page, Limit: r.Limit, SortBy: r.SortBy, Order: r.Order}
}
