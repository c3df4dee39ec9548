// Package completion turns a cursor position inside a statement's
// tree-sitter CST into a ranked list of completion items, scored against
// the schema cache and the statement's own already-mentioned relations.
package completion

import (
	"context"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pg-lang-server/pgls/pkg/cst"
	"github.com/pg-lang-server/pgls/pkg/schema"
	"github.com/pg-lang-server/pgls/pkg/workspace"
)

// Kind is the category of a completion candidate, carried through to the
// LSP CompletionItemKind the caller maps it onto.
type Kind int

const (
	KindKeyword Kind = iota
	KindSchema
	KindTable
	KindColumn
	KindFunction
)

// Item is one ranked completion candidate.
type Item struct {
	Label       string
	Kind        Kind
	Description string
	Score       float64
}

var keywords = []string{
	"select", "from", "where", "join", "left", "right", "inner", "outer",
	"on", "group", "by", "order", "having", "limit", "offset", "insert",
	"into", "values", "update", "set", "delete", "returning", "with",
	"as", "and", "or", "not", "null", "distinct", "union", "all",
}

// systemSchemas are penalised in scoring since a user is rarely completing
// into them on purpose.
var systemSchemas = map[string]bool{
	"pg_catalog": true, "information_schema": true, "pg_toast": true,
}

// Context is the tree-sitter-derived cursor context completion scores
// against.
type Context struct {
	Prefix            string          // token text already typed under the cursor
	MentionedRelations map[string]bool // table/alias names already present in the statement
	IsInvocation      bool            // cursor sits where a function call is expected, e.g. "count("
	SchemaPrefix      string          // schema/alias name immediately before the cursor, if any
}

// BuildContext derives a Context from source at offset using its
// tree-sitter CST, walking up from the innermost node to collect sibling
// identifiers as mentioned relations.
func BuildContext(root *sitter.Node, source []byte, offset uint32) Context {
	ctx := Context{MentionedRelations: map[string]bool{}}
	node := cst.NodeAtOffset(root, offset)
	if node == nil {
		return ctx
	}

	if node.StartByte() <= offset && offset <= node.EndByte() {
		ctx.Prefix = string(source[node.StartByte():min(offset, node.EndByte())])
	}

	if prev := node.PrevSibling(); prev != nil && prev.Type() == "." {
		if beforeDot := prev.PrevSibling(); beforeDot != nil {
			ctx.SchemaPrefix = string(source[beforeDot.StartByte():beforeDot.EndByte()])
		}
	}

	collectRelations(node, source, ctx.MentionedRelations)

	if next := node.NextSibling(); next != nil && next.Type() == "(" {
		ctx.IsInvocation = true
	}
	return ctx
}

func collectRelations(node *sitter.Node, source []byte, out map[string]bool) {
	n := node
	for n != nil {
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child != nil && (child.Type() == "identifier" || child.Type() == "object_reference") {
				out[strings.ToLower(string(source[child.StartByte():child.EndByte()]))] = true
			}
		}
		n = n.Parent()
	}
}

func min(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}

// Complete scores every candidate from cache (and keywords) against ctx,
// returning items sorted by descending score.
func Complete(ctx context.Context, cursorCtx Context, cache *schema.Cache) []Item {
	var items []Item

	for _, kw := range keywords {
		if score, ok := fuzzyScore(kw, cursorCtx.Prefix); ok {
			items = append(items, Item{Label: kw, Kind: KindKeyword, Score: score})
		}
	}

	if cache == nil {
		sortItems(items)
		return items
	}

	seenSchemas := map[string]bool{}
	for _, t := range cache.Tables {
		if !seenSchemas[t.SchemaName] {
			seenSchemas[t.SchemaName] = true
			if score, ok := fuzzyScore(t.SchemaName, cursorCtx.Prefix); ok {
				items = append(items, Item{Label: t.SchemaName, Kind: KindSchema, Score: schemaBonus(t.SchemaName, score)})
			}
		}

		if cursorCtx.SchemaPrefix != "" && !strings.EqualFold(cursorCtx.SchemaPrefix, t.SchemaName) && !cursorCtx.MentionedRelations[strings.ToLower(t.SchemaName)] {
			continue
		}
		if score, ok := fuzzyScore(t.Name, cursorCtx.Prefix); ok {
			items = append(items, Item{
				Label: t.Name, Kind: KindTable,
				Description: t.SchemaName + "." + t.Name,
				Score:       relationBonus(t.Name, cursorCtx, schemaBonus(t.SchemaName, score)),
			})
		}
		for _, col := range t.Columns {
			if score, ok := fuzzyScore(col.Name, cursorCtx.Prefix); ok {
				bonus := score
				if cursorCtx.MentionedRelations[strings.ToLower(t.Name)] {
					bonus += 0.5
				}
				items = append(items, Item{Label: col.Name, Kind: KindColumn, Description: t.Name + "." + col.Name, Score: bonus})
			}
		}
	}

	for _, fn := range cache.Functions {
		if score, ok := fuzzyScore(fn.Name, cursorCtx.Prefix); ok {
			bonus := schemaBonus(fn.SchemaName, score)
			if cursorCtx.IsInvocation {
				bonus += 0.5
			}
			items = append(items, Item{Label: fn.Name, Kind: KindFunction, Description: fn.SchemaName + "." + fn.Name, Score: bonus})
		}
	}

	sortItems(items)
	return items
}

func relationBonus(name string, ctx Context, score float64) float64 {
	if ctx.MentionedRelations[strings.ToLower(name)] {
		score += 0.3
	}
	return score
}

func schemaBonus(schemaName string, score float64) float64 {
	switch {
	case systemSchemas[schemaName]:
		return score - 1
	case schemaName == "public":
		return score + 0.1
	default:
		return score
	}
}

// fuzzyScore reports whether candidate is a plausible match for prefix and,
// if so, a score weighted toward exact and prefix matches over a bare
// substring match. An empty prefix matches everything at a low score, so
// an unfiltered completion request still returns every candidate.
func fuzzyScore(candidate, prefix string) (float64, bool) {
	if prefix == "" {
		return 0.1, true
	}
	c := strings.ToLower(candidate)
	p := strings.ToLower(prefix)
	switch {
	case c == p:
		return 2, true
	case strings.HasPrefix(c, p):
		return 1.5, true
	case strings.Contains(c, p):
		return 1, true
	default:
		return 0, false
	}
}

func sortItems(items []Item) {
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
}

// StatementAt selects the statement whose range contains offset, tolerant
// of trailing whitespace: exactly one statement strictly containing
// offset, or the one statement offset sits at most trailing whitespace
// past; a child (nested function body) statement overrides its parent.
// No statement is selected when offset sits after a statement's closing
// ';'.
func StatementAt(doc *workspace.Document, offset int) (workspace.Statement, bool) {
	text := doc.Text()
	var best workspace.Statement
	found := false
	for _, s := range doc.Statements() {
		inside := offset >= s.Span.Start && offset < s.Span.End
		trailing := offset >= s.Span.End && offset <= len(text) &&
			strings.TrimSpace(text[s.Span.End:offset]) == ""
		if s.ID.Kind() == workspace.KindChild {
			trailing = offset == s.Span.End
		}
		atEnd := trailing && text[s.Span.End-1] != ';'
		if !inside && !atEnd {
			continue
		}
		if !found || s.ID.IsChildOf(best.ID) {
			best, found = s, true
		}
	}
	return best, found
}
