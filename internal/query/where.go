package query

import (
	"fmt"
	"strings"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Where accumulates AND-ed conditions with positional pgx placeholders.
type Where struct {
	conds []string
	args  []any
}

func NewWhere() *Where {
	return &Where{}
}

func (w *Where) next(v any) string {
	w.args = append(w.args, v)
	return fmt.Sprintf("$%d", len(w.args))
}

// Eq adds "col = $n".
func (w *Where) Eq(col string, v any) *Where {
	w.conds = append(w.conds, col+" = "+w.next(v))
	return w
}

// EqIf adds "col = $n" when v is non-empty.
func (w *Where) EqIf(col, v string) *Where {
	if v == "" {
		return w
	}
	return w.Eq(col, v)
}

// Cond adds a condition whose single %s is replaced by the placeholder of v,
// e.g. Cond("p.paid_at >= %s", from).
func (w *Where) Cond(format string, v any) *Where {
	w.conds = append(w.conds, fmt.Sprintf(format, w.next(v)))
	return w
}

// In adds "col IN ($n, ...)". An empty set matches nothing.
func (w *Where) In(col string, vals ...any) *Where {
	if len(vals) == 0 {
		w.conds = append(w.conds, "FALSE")
		return w
	}
	ph := make([]string, len(vals))
	for i, v := range vals {
		ph[i] = w.next(v)
	}
	w.conds = append(w.conds, col+" IN ("+strings.Join(ph, ", ")+")")
	return w
}

// Search adds a case-insensitive contains match of q across cols, all
// sharing one placeholder. Wildcards in q match literally.
func (w *Where) Search(q string, cols ...string) *Where {
	q = strings.TrimSpace(q)
	if q == "" || len(cols) == 0 {
		return w
	}
	ph := w.next("%" + likeEscaper.Replace(q) + "%")
	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = col + " ILIKE " + ph
	}
	w.conds = append(w.conds, "("+strings.Join(parts, " OR ")+")")
	return w
}

// SQL returns "" or "WHERE ...".
func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(w.conds, " AND ")
}

func (w *Where) Args() []any {
	return w.args
}

// Limit appends LIMIT/OFFSET placeholders for p and returns the clause.
func (w *Where) Limit(p ListParams) string {
	return "LIMIT " + w.next(p.PageSize) + " OFFSET " + w.next(p.Offset())
}
