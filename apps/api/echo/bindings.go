package echoapi

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core"
)

var orderingParam = "ordering"

// whitelistOrderings are the entry fields a whitelist listing can be sorted on.
var whitelistOrderings = []string{"email", "role", "schoolId", "section", "updatedAt"}

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads `?ordering=role,-updatedAt`; a leading "-" sorts descending.
// Fields outside `allowed` are rejected.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) error {
	val := strings.TrimSpace(ctx.QueryParam(orderingParam))
	if val == "" {
		return nil
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		if !isAllowed(field, allowed) {
			msg := fmt.Sprintf("cannot order by %q", field)
			return core.NewValidationError(errors.New(msg), core.FieldError{Field: orderingParam, Error: msg})
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return nil
}

func isAllowed(field string, allowed []string) bool {
	for _, a := range allowed {
		if a == field {
			return true
		}
	}
	return false
}
