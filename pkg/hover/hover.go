// Package hover renders Markdown documentation for the schema object under
// an editor cursor, scored against the statement's context the same way
// pkg/completion scores completion candidates, then narrowed by a gap
// filter so only the clearly-best candidates are shown.
package hover

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pg-lang-server/pgls/pkg/completion"
	"github.com/pg-lang-server/pgls/pkg/schema"
)

// gapThreshold is the fractional drop-off at which the gap filter stops
// admitting further candidates.
const gapThreshold = 0.30

// Candidate is one schema object whose documentation could be shown for
// the hovered token.
type Candidate struct {
	Headline string // e.g. "public.users.id"
	Body     string
	Footer   string
	score    float64
}

// Render returns the Markdown hover content for token, or "" if no
// candidate matches.
func Render(token string, ctx completion.Context, cache *schema.Cache) string {
	candidates := score(token, ctx, cache)
	candidates = gapFilter(candidates)
	if len(candidates) == 0 {
		return ""
	}

	var b strings.Builder
	for i, c := range candidates {
		if i > 0 {
			b.WriteString("\n\n---\n\n")
		}
		fmt.Fprintf(&b, "`%s`\n\n%s", c.Headline, c.Body)
		if c.Footer != "" {
			fmt.Fprintf(&b, "\n\n%s", c.Footer)
		}
	}
	return b.String()
}

func score(token string, ctx completion.Context, cache *schema.Cache) []Candidate {
	if cache == nil || token == "" {
		return nil
	}
	token = strings.ToLower(token)

	var out []Candidate
	for _, t := range cache.Tables {
		for _, col := range t.Columns {
			if strings.ToLower(col.Name) != token {
				continue
			}
			s := 1.0
			if ctx.MentionedRelations[strings.ToLower(t.Name)] {
				s += 0.5
			}
			if t.SchemaName == "public" {
				s += 0.1
			}
			if col.IsPrimaryKey {
				s += 0.3
			}
			out = append(out, Candidate{
				Headline: fmt.Sprintf("%s.%s.%s", t.SchemaName, t.Name, col.Name),
				Body:     columnBody(col),
				Footer:   columnFooter(col),
				score:    s,
			})
		}
		if strings.ToLower(t.Name) == token {
			s := 1.0
			if t.SchemaName == "public" {
				s += 0.1
			}
			out = append(out, Candidate{
				Headline: fmt.Sprintf("%s.%s", t.SchemaName, t.Name),
				Body:     fmt.Sprintf("%s, %d column(s)", t.Kind.String(), len(t.Columns)),
				score:    s,
			})
		}
	}
	return out
}

func columnBody(col schema.Column) string {
	nullability := "NOT NULL"
	if col.IsNullable {
		nullability = "NULL"
	}
	flags := nullability
	if col.IsPrimaryKey {
		flags += ", primary key"
	}
	if col.IsUnique {
		flags += ", unique"
	}
	body := fmt.Sprintf("%s, %s", col.TypeName, flags)
	if col.Comment != nil && *col.Comment != "" {
		body += "\n\n" + *col.Comment
	}
	return body
}

func columnFooter(col schema.Column) string {
	if col.DefaultExpr == nil || *col.DefaultExpr == "" {
		return ""
	}
	return fmt.Sprintf("default: `%s`", *col.DefaultExpr)
}

// gapFilter keeps the top-scored candidate and every following candidate
// within gapThreshold of the previous kept score, stopping at the first
// larger drop.
func gapFilter(candidates []Candidate) []Candidate {
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].score > candidates[j].score })

	kept := []Candidate{candidates[0]}
	prev := candidates[0].score
	for _, c := range candidates[1:] {
		if prev == 0 {
			break
		}
		drop := (prev - c.score) / prev
		if drop > gapThreshold {
			break
		}
		kept = append(kept, c)
		prev = c.score
	}
	return kept
}
