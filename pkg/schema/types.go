// Package schema holds the SchemaCache: the snapshot of live database
// metadata (tables, columns, functions, policies, triggers, types, roles,
// extensions) that lint rules and the typechecker consult instead of
// touching the database on every request.
package schema

import "time"

// ClassKind is the pg_class.relkind of the table a column belongs to.
type ClassKind byte

const (
	ClassOrdinaryTable  ClassKind = 'r'
	ClassView           ClassKind = 'v'
	ClassMaterialized   ClassKind = 'm'
	ClassForeignTable   ClassKind = 'f'
	ClassPartitionedTable ClassKind = 'p'
)

func (k ClassKind) String() string {
	switch k {
	case ClassOrdinaryTable:
		return "table"
	case ClassView:
		return "view"
	case ClassMaterialized:
		return "materialized_view"
	case ClassForeignTable:
		return "foreign_table"
	case ClassPartitionedTable:
		return "partitioned_table"
	default:
		return "unknown"
	}
}

// Column is one column of a table, view, or foreign table.
type Column struct {
	Name         string
	TableName    string
	TableOID     uint32
	ClassKind    ClassKind
	Number       int16
	SchemaName   string
	TypeOID      uint32
	TypeName     string
	IsNullable   bool
	IsPrimaryKey bool
	IsUnique     bool
	DefaultExpr  *string
	Comment      *string
}

// Table is one relation pgls can reference in completions, hovers, and
// lint rules.
type Table struct {
	OID        uint32
	Name       string
	SchemaName string
	Kind       ClassKind
	Comment    *string
	Columns    []Column
}

// Behavior is a function's volatility category.
type Behavior int

const (
	BehaviorVolatile Behavior = iota
	BehaviorStable
	BehaviorImmutable
)

func (b Behavior) String() string {
	switch b {
	case BehaviorImmutable:
		return "IMMUTABLE"
	case BehaviorStable:
		return "STABLE"
	default:
		return "VOLATILE"
	}
}

// ProcKind distinguishes the four things pg_proc can describe.
type ProcKind byte

const (
	ProcFunction  ProcKind = 'f'
	ProcProcedure ProcKind = 'p'
	ProcAggregate ProcKind = 'a'
	ProcWindow    ProcKind = 'w'
)

// Function is one entry of pg_proc, including the PL/pgSQL or SQL bodies
// plpgsqlcheck and the typechecker need.
type Function struct {
	OID        uint32
	Name       string
	SchemaName string
	Kind       ProcKind
	Behavior   Behavior
	Language   string
	ArgTypes   []uint32
	ArgNames   []string
	ReturnType uint32
	IsSetOf    bool
	Body       *string
}

// PolicyCommand is the command a row-level-security policy applies to.
type PolicyCommand int

const (
	PolicySelect PolicyCommand = iota
	PolicyInsert
	PolicyUpdate
	PolicyDelete
	PolicyAll
)

// ParsePolicyCommand maps pg_policy.polcmd's single-character code.
func ParsePolicyCommand(code string) PolicyCommand {
	switch code {
	case "r":
		return PolicySelect
	case "a":
		return PolicyInsert
	case "w":
		return PolicyUpdate
	case "d":
		return PolicyDelete
	default:
		return PolicyAll
	}
}

// Policy is a row-level-security policy on a table.
type Policy struct {
	Name                  string
	TableName             string
	SchemaName            string
	IsPermissive          bool
	Command               PolicyCommand
	RoleNames             []string
	SecurityQualification *string
	WithCheck             *string
}

// TriggerTiming is when a trigger fires relative to its event.
type TriggerTiming int

const (
	TriggerBefore TriggerTiming = iota
	TriggerAfter
	TriggerInsteadOf
)

// TriggerEvent is one DML event a trigger can fire on; a trigger may fire
// on more than one.
type TriggerEvent int

const (
	TriggerInsert TriggerEvent = iota
	TriggerDelete
	TriggerUpdate
	TriggerTruncate
)

// Trigger is one entry of pg_trigger.
type Trigger struct {
	Name        string
	TableName   string
	SchemaName  string
	Timing      TriggerTiming
	Events      []TriggerEvent
	AffectsRow  bool // false means statement-level
	FunctionOID uint32
}

// Type is one entry of pg_type pgls knows how to resolve in hovers and
// typecheck error remapping.
type Type struct {
	OID        uint32
	Name       string
	SchemaName string
	IsEnum     bool
	EnumLabels []string
}

// Role is one entry of pg_roles.
type Role struct {
	Name        string
	IsSuperuser bool
	CanLogin    bool
}

// Extension is one installed extension.
type Extension struct {
	Name    string
	Version string
	Schema  string
}

// Cache is an immutable snapshot of everything pgls knows about a
// database at one point in time. Loader.Load produces a fresh one; the
// previous snapshot keeps serving requests until the new one is ready, so
// readers never observe a partially populated Cache.
type Cache struct {
	Tables      []Table
	Functions   []Function
	Policies    []Policy
	Triggers    []Trigger
	Types       []Type
	Roles       []Role
	Extensions  []Extension
	Version     string
	LoadedAt    time.Time
}

// TableByName finds a table by schema-qualified name ("public.accounts"),
// defaulting to the "public" schema if name is unqualified.
func (c *Cache) TableByName(name string) (Table, bool) {
	schemaName, tableName := splitQualified(name)
	for _, t := range c.Tables {
		if t.Name == tableName && t.SchemaName == schemaName {
			return t, true
		}
	}
	return Table{}, false
}

// FunctionsByName returns every overload of name ("public.my_func" or
// "my_func"), since Postgres allows function overloading by argument
// types.
func (c *Cache) FunctionsByName(name string) []Function {
	schemaName, fnName := splitQualified(name)
	var out []Function
	for _, f := range c.Functions {
		if f.Name == fnName && f.SchemaName == schemaName {
			out = append(out, f)
		}
	}
	return out
}

// MajorVersion parses the leading integer of c.Version ("16.3" -> 16, true).
// Returns false if Version wasn't loaded or doesn't start with a number.
func (c *Cache) MajorVersion() (int, bool) {
	i := 0
	for i < len(c.Version) && c.Version[i] >= '0' && c.Version[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n := 0
	for _, ch := range c.Version[:i] {
		n = n*10 + int(ch-'0')
	}
	return n, true
}

func splitQualified(name string) (schemaName, rest string) {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			return name[:i], name[i+1:]
		}
	}
	return "public", name
}
