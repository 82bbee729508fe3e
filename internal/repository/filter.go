package repository

import (
	"fmt"
	"math"
	"strings"

	"go-contacts-api/internal/model"
)

// filter accumulates AND-ed WHERE conditions with numbered placeholders.
type filter struct {
	conds []string
	args  []any
}

// add appends a condition; format receives the placeholder number as its only verb.
func (f *filter) add(format string, arg any) {
	f.args = append(f.args, arg)
	f.conds = append(f.conds, fmt.Sprintf(format, len(f.args)))
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(f.conds, " AND ")
}

// page returns the LIMIT/OFFSET suffix and the args it binds. An offset too
// large for an int is pinned to math.MaxInt so the page comes back empty.
func (f *filter) page(page int, limit int) (string, []any) {
	offset, ok := model.PageOffset(page, limit)
	if !ok {
		offset = math.MaxInt
	}
	n := len(f.args)
	args := append(append([]any{}, f.args...), limit, offset)
	return fmt.Sprintf("LIMIT $%d OFFSET $%d", n+1, n+2), args
}
