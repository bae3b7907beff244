package store

import (
	"fmt"
	"strings"
)

// Builder assembles a SQL statement with Postgres positional arguments.
// Push appends literal SQL; Bind appends the next $n placeholder and
// records its argument.
type Builder struct {
	sb   strings.Builder
	args []any
}

// NewBuilder starts a statement from an initial SQL fragment.
func NewBuilder(sql string) *Builder {
	b := &Builder{}
	b.sb.WriteString(sql)
	return b
}

// Push appends literal SQL.
func (b *Builder) Push(sql string) *Builder {
	b.sb.WriteString(sql)
	return b
}

// Pushf appends formatted literal SQL. Only identifiers from the static
// taxonomy registry may be interpolated; values always go through Bind.
func (b *Builder) Pushf(format string, a ...any) *Builder {
	fmt.Fprintf(&b.sb, format, a...)
	return b
}

// Bind appends the next positional placeholder and records arg.
func (b *Builder) Bind(arg any) *Builder {
	b.args = append(b.args, arg)
	fmt.Fprintf(&b.sb, "$%d", len(b.args))
	return b
}

// SQL returns the assembled statement text.
func (b *Builder) SQL() string {
	return b.sb.String()
}

// Args returns the bound arguments in placeholder order.
func (b *Builder) Args() []any {
	return b.args
}
