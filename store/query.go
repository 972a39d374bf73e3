package store

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// buildListQuery assembles the owner-scoped task listing. Ordering is
// newest first with id as a tiebreak so pages are stable when several
// tasks share a creation instant.
func buildListQuery(owner uuid.UUID, f Filter) (string, []any) {
	var b strings.Builder
	args := []any{owner}

	b.WriteString("SELECT " + taskColumns + " FROM tasks WHERE user_id = $1")

	if f.Search != "" {
		args = append(args, likePattern(f.Search))
		fmt.Fprintf(&b, " AND title LIKE $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		fmt.Fprintf(&b, " AND status = $%d", len(args))
	}

	b.WriteString(" ORDER BY created_at DESC, id DESC")

	args = append(args, f.PageSize)
	fmt.Fprintf(&b, " LIMIT $%d", len(args))
	args = append(args, (f.Page-1)*f.PageSize)
	fmt.Fprintf(&b, " OFFSET $%d", len(args))

	return b.String(), args
}

// likePattern wraps a search term for a substring LIKE match, escaping
// the LIKE metacharacters so they match literally.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(search) + "%"
}
