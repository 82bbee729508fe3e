package model

import "time"

type Contact struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      Role      `json:"role"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContactPatch holds the optional fields of an update; nil leaves a column unchanged.
type ContactPatch struct {
	Name  *string
	Email *string
	Phone *string
}

func (p ContactPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil
}

const (
	SortOrderAsc  = "asc"
	SortOrderDesc = "desc"
)

// ContactQuery is the store-level query. OwnerID, when set, restricts rows to
// that owner and is applied inside the query so totals reflect it.
type ContactQuery struct {
	OwnerID *int64
	Phone   string
	Page    int
	Limit   int
	SortBy  string
	Order   string
}
