package typecheck

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pg-lang-server/pgls/pkg/diagnostic"
)

// TypeResolver answers the declared Postgres type name for a parameter, by
// name (for ParamNamed/ParamQuotedNamed) or by 1-based position (for
// ParamPositional). An empty return means the type is unknown.
type TypeResolver interface {
	TypeOf(p Param) string
}

// StaticTypes is the simplest TypeResolver: a fixed name->type and
// position->type map, as the caller would build from a function signature.
type StaticTypes struct {
	ByName     map[string]string
	ByPosition map[int]string
}

func (s StaticTypes) TypeOf(p Param) string {
	if p.Kind == ParamPositional {
		return s.ByPosition[p.Index]
	}
	return s.ByName[p.Name]
}

// Mapping records where one parameter's synthetic literal landed in the
// rewritten text, so a database error position can be mapped back.
type Mapping struct {
	Param         Param
	Type          string
	RewrittenSpan diagnostic.Span
}

// Rewrite replaces every parameter in stmtText with a safe literal of its
// resolved type (see SafeLiteral: an untyped NULL when the type is
// unknown, NULL::<type> for a type it has no literal for), returning the
// rewritten text and the range mapping needed to translate a database
// error position back to the original text.
func Rewrite(stmtText string, params []Param, types TypeResolver) (string, []Mapping) {
	sorted := make([]Param, len(params))
	copy(sorted, params)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Span.Start < sorted[j].Span.Start })

	var b strings.Builder
	var mappings []Mapping
	cursor := 0
	for _, p := range sorted {
		b.WriteString(stmtText[cursor:p.Span.Start])
		typeName := types.TypeOf(p)
		literal := SafeLiteral(typeName)
		start := b.Len()
		b.WriteString(literal)
		mappings = append(mappings, Mapping{
			Param:         p,
			Type:          typeName,
			RewrittenSpan: diagnostic.Span{Start: start, End: b.Len()},
		})
		cursor = p.Span.End
	}
	b.WriteString(stmtText[cursor:])
	return b.String(), mappings
}

// SafeLiteral returns a literal of pgType that can stand in for a
// parameter without changing the statement's parseability. An empty
// (unknown) type falls back to an untyped NULL, which Postgres accepts in
// any expression position; a type name not listed here becomes
// NULL::<type>.
func SafeLiteral(pgType string) string {
	switch strings.ToLower(pgType) {
	case "":
		return "NULL"
	case "int2", "smallint", "int4", "int", "integer", "int8", "bigint", "serial", "bigserial":
		return "0"
	case "float4", "real", "float8", "double precision", "numeric", "decimal":
		return "0"
	case "bool", "boolean":
		return "false"
	case "text", "varchar", "character varying", "char", "bpchar", "name":
		return "''"
	case "uuid":
		return "'00000000-0000-0000-0000-000000000000'::uuid"
	case "date":
		return "'1970-01-01'::date"
	case "timestamp", "timestamptz", "timestamp with time zone", "timestamp without time zone":
		return "'1970-01-01T00:00:00'::" + pgType
	case "json", "jsonb":
		return "'null'::" + pgType
	default:
		return fmt.Sprintf("NULL::%s", pgType)
	}
}

// MapOffset translates a 0-based offset into the rewritten text back to a
// span in the original text: if the offset falls inside a replaced
// literal, the original parameter's span and mapping are returned;
// otherwise the offset is shifted by the cumulative length delta of every
// replacement before it.
func MapOffset(offset int, mappings []Mapping) (diagnostic.Span, *Mapping) {
	delta := 0
	for i := range mappings {
		m := &mappings[i]
		if m.RewrittenSpan.Contains(offset) || offset == m.RewrittenSpan.End && offset == m.RewrittenSpan.Start {
			return m.Param.Span, m
		}
		if offset < m.RewrittenSpan.Start {
			break
		}
		rewrittenLen := m.RewrittenSpan.End - m.RewrittenSpan.Start
		origLen := m.Param.Span.End - m.Param.Span.Start
		delta += rewrittenLen - origLen
	}
	orig := offset - delta
	return diagnostic.Span{Start: orig, End: orig + 1}, nil
}
