// Package workspace implements the incremental document model: versioned
// text buffers, the statement splitter, change diffing, and the
// AnalysedFileContext that accumulates while a file's statements are walked
// top to bottom.
package workspace

import (
	"hash/fnv"
)

// Kind discriminates the two shapes a StatementID can take.
type Kind int

const (
	// KindRoot identifies a top-level statement.
	KindRoot Kind = iota
	// KindChild identifies a statement nested inside another: a
	// dollar-quoted run (such as a function body) inside a root statement.
	KindChild
)

// StatementID identifies one statement within a document. It has two
// shapes: Root{content_hash} for top-level statements, and
// Child{parent: StatementID} for nested statements. Equality is by
// shape plus content hash.
type StatementID struct {
	kind   Kind
	hash   uint64
	parent *StatementID
}

// NewRootID builds a root statement id from its text content.
func NewRootID(content string) StatementID {
	return StatementID{kind: KindRoot, hash: contentHash(content)}
}

// NewChildID builds a child statement id nested under parent, identified by
// its own content (so that editing just the child body changes the child's
// id without disturbing the parent's).
func NewChildID(parent StatementID, content string) StatementID {
	p := parent
	return StatementID{kind: KindChild, hash: contentHash(content), parent: &p}
}

// Kind reports whether the id is a root or child id.
func (id StatementID) Kind() Kind { return id.kind }

// Hash returns the id's content hash.
func (id StatementID) Hash() uint64 { return id.hash }

// Parent returns the id's parent and true if id is a Child id.
func (id StatementID) Parent() (StatementID, bool) {
	if id.kind != KindChild || id.parent == nil {
		return StatementID{}, false
	}
	return *id.parent, true
}

// Equal reports whether id and other identify the same statement: same
// shape and same content hash, and (for children) equal parents.
func (id StatementID) Equal(other StatementID) bool {
	if id.kind != other.kind || id.hash != other.hash {
		return false
	}
	if id.kind != KindChild {
		return true
	}
	if id.parent == nil || other.parent == nil {
		return id.parent == other.parent
	}
	return id.parent.Equal(*other.parent)
}

// IsChildOf reports whether id is a Child id whose parent equals parent.
func (id StatementID) IsChildOf(parent StatementID) bool {
	p, ok := id.Parent()
	return ok && p.Equal(parent)
}

// String renders a short, stable, debugging-only representation.
func (id StatementID) String() string {
	if id.kind == KindRoot {
		return hashString(id.hash)
	}
	parent := "?"
	if id.parent != nil {
		parent = id.parent.String()
	}
	return parent + ">" + hashString(id.hash)
}

func contentHash(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

const hexDigits = "0123456789abcdef"

func hashString(h uint64) string {
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[h&0xf]
		h >>= 4
	}
	return string(buf)
}
