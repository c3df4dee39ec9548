package schema

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/errgroup"
)

// Querier is the subset of pgxpool.Pool the loader needs. Depending on
// this instead of the concrete pool type lets tests substitute
// pgxmock.PgxPoolIface.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Loader loads a fresh Cache from a live database. It runs its
// sub-queries concurrently over one pool, bounded by the pool's own
// connection limit.
type Loader struct {
	pool Querier
	log  *slog.Logger
}

// NewLoader returns a Loader reading from pool.
func NewLoader(pool Querier, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{pool: pool, log: log}
}

// Load queries every catalog this package models and assembles a new
// Cache. A failure in any one query fails the whole load: a half-updated
// cache is worse than serving the previous one a little longer, which is
// why Workspace keeps swapping in whole Caches rather than mutating one in
// place.
func (l *Loader) Load(ctx context.Context) (*Cache, error) {
	cache := &Cache{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		cache.Version, err = l.loadVersion(ctx)
		return err
	})
	g.Go(func() (err error) {
		cache.Tables, err = l.loadTables(ctx)
		return err
	})
	g.Go(func() (err error) {
		cache.Functions, err = l.loadFunctions(ctx)
		return err
	})
	g.Go(func() (err error) {
		cache.Policies, err = l.loadPolicies(ctx)
		return err
	})
	g.Go(func() (err error) {
		cache.Triggers, err = l.loadTriggers(ctx)
		return err
	})
	g.Go(func() (err error) {
		cache.Types, err = l.loadTypes(ctx)
		return err
	})
	g.Go(func() (err error) {
		cache.Roles, err = l.loadRoles(ctx)
		return err
	})
	g.Go(func() (err error) {
		cache.Extensions, err = l.loadExtensions(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.log.DebugContext(ctx, "schema cache refreshed",
		"tables", len(cache.Tables),
		"functions", len(cache.Functions),
		"policies", len(cache.Policies),
		"triggers", len(cache.Triggers))
	return cache, nil
}

func (l *Loader) loadVersion(ctx context.Context) (string, error) {
	var version string
	err := l.pool.QueryRow(ctx, `show server_version`).Scan(&version)
	return version, err
}

const tablesQuery = `
select c.oid, c.relname, n.nspname, c.relkind,
       a.attname, a.attnum, a.atttypid, t.typname,
       not a.attnotnull as is_nullable,
       coalesce(pk.is_pk, false) as is_primary_key,
       coalesce(uq.is_unique, false) as is_unique,
       pg_get_expr(d.adbin, d.adrelid) as default_expr
from pg_catalog.pg_class c
join pg_catalog.pg_namespace n on n.oid = c.relnamespace
join pg_catalog.pg_attribute a on a.attrelid = c.oid and a.attnum > 0 and not a.attisdropped
join pg_catalog.pg_type t on t.oid = a.atttypid
left join pg_catalog.pg_attrdef d on d.adrelid = c.oid and d.adnum = a.attnum
left join lateral (
  select true as is_pk
  from pg_catalog.pg_index i
  where i.indrelid = c.oid and i.indisprimary and a.attnum = any(i.indkey)
) pk on true
left join lateral (
  select true as is_unique
  from pg_catalog.pg_index i
  where i.indrelid = c.oid and i.indisunique and a.attnum = any(i.indkey)
) uq on true
where c.relkind in ('r', 'v', 'm', 'f', 'p')
  and n.nspname not in ('pg_catalog', 'information_schema', 'pg_toast')
order by n.nspname, c.relname, a.attnum`

func (l *Loader) loadTables(ctx context.Context) ([]Table, error) {
	rows, err := l.pool.Query(ctx, tablesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byOID := make(map[uint32]*Table)
	var order []uint32
	for rows.Next() {
		var (
			oid         uint32
			relname     string
			nspname     string
			relkind     string
			attname     string
			attnum      int16
			atttypid    uint32
			typname     string
			isNullable  bool
			isPK        bool
			isUnique    bool
			defaultExpr *string
		)
		if err := rows.Scan(&oid, &relname, &nspname, &relkind, &attname, &attnum, &atttypid,
			&typname, &isNullable, &isPK, &isUnique, &defaultExpr); err != nil {
			return nil, err
		}
		kind := ClassKind(relkind[0])
		table, ok := byOID[oid]
		if !ok {
			table = &Table{OID: oid, Name: relname, SchemaName: nspname, Kind: kind}
			byOID[oid] = table
			order = append(order, oid)
		}
		table.Columns = append(table.Columns, Column{
			Name:         attname,
			TableName:    relname,
			TableOID:     oid,
			ClassKind:    kind,
			Number:       attnum,
			SchemaName:   nspname,
			TypeOID:      atttypid,
			TypeName:     typname,
			IsNullable:   isNullable,
			IsPrimaryKey: isPK,
			IsUnique:     isUnique,
			DefaultExpr:  defaultExpr,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]Table, 0, len(order))
	for _, oid := range order {
		out = append(out, *byOID[oid])
	}
	return out, nil
}

const functionsQuery = `
select p.oid, p.proname, n.nspname, p.prokind, p.provolatile, l.lanname,
       p.proargtypes::oid[], coalesce(p.proargnames, '{}'::text[]),
       p.prorettype, p.proretset, p.prosrc
from pg_catalog.pg_proc p
join pg_catalog.pg_namespace n on n.oid = p.pronamespace
join pg_catalog.pg_language l on l.oid = p.prolang
where n.nspname not in ('pg_catalog', 'information_schema')
order by n.nspname, p.proname`

func (l *Loader) loadFunctions(ctx context.Context) ([]Function, error) {
	rows, err := l.pool.Query(ctx, functionsQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Function
	for rows.Next() {
		var (
			oid        uint32
			proname    string
			nspname    string
			prokind    string
			provol     string
			lanname    string
			argTypes   []uint32
			argNames   []string
			rettype    uint32
			retset     bool
			body       string
		)
		if err := rows.Scan(&oid, &proname, &nspname, &prokind, &provol, &lanname,
			&argTypes, &argNames, &rettype, &retset, &body); err != nil {
			return nil, err
		}
		out = append(out, Function{
			OID:        oid,
			Name:       proname,
			SchemaName: nspname,
			Kind:       ProcKind(prokind[0]),
			Behavior:   parseBehavior(provol),
			Language:   lanname,
			ArgTypes:   argTypes,
			ArgNames:   argNames,
			ReturnType: rettype,
			IsSetOf:    retset,
			Body:       &body,
		})
	}
	return out, rows.Err()
}

func parseBehavior(provolatile string) Behavior {
	switch provolatile {
	case "i":
		return BehaviorImmutable
	case "s":
		return BehaviorStable
	default:
		return BehaviorVolatile
	}
}

const policiesQuery = `
select pol.polname, c.relname, n.nspname, pol.polpermissive, pol.polcmd,
       coalesce(array(select rolname from pg_roles where oid = any(pol.polroles)), '{}'::text[]),
       pg_get_expr(pol.polqual, pol.polrelid),
       pg_get_expr(pol.polwithcheck, pol.polrelid)
from pg_catalog.pg_policy pol
join pg_catalog.pg_class c on c.oid = pol.polrelid
join pg_catalog.pg_namespace n on n.oid = c.relnamespace
order by n.nspname, c.relname, pol.polname`

func (l *Loader) loadPolicies(ctx context.Context) ([]Policy, error) {
	rows, err := l.pool.Query(ctx, policiesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Policy
	for rows.Next() {
		var (
			name, table, schemaName string
			permissive              bool
			cmd                     string
			roles                   []string
			qual, withCheck         *string
		)
		if err := rows.Scan(&name, &table, &schemaName, &permissive, &cmd, &roles, &qual, &withCheck); err != nil {
			return nil, err
		}
		out = append(out, Policy{
			Name:                  name,
			TableName:             table,
			SchemaName:            schemaName,
			IsPermissive:          permissive,
			Command:               ParsePolicyCommand(cmd),
			RoleNames:             roles,
			SecurityQualification: qual,
			WithCheck:             withCheck,
		})
	}
	return out, rows.Err()
}

const triggersQuery = `
select t.tgname, c.relname, n.nspname, t.tgtype, t.tgfoid
from pg_catalog.pg_trigger t
join pg_catalog.pg_class c on c.oid = t.tgrelid
join pg_catalog.pg_namespace n on n.oid = c.relnamespace
where not t.tgisinternal
order by n.nspname, c.relname, t.tgname`

func (l *Loader) loadTriggers(ctx context.Context) ([]Trigger, error) {
	rows, err := l.pool.Query(ctx, triggersQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Trigger
	for rows.Next() {
		var (
			name, table, schemaName string
			tgtype                  int16
			fnOID                   uint32
		)
		if err := rows.Scan(&name, &table, &schemaName, &tgtype, &fnOID); err != nil {
			return nil, err
		}
		out = append(out, Trigger{
			Name:        name,
			TableName:   table,
			SchemaName:  schemaName,
			Timing:      triggerTiming(tgtype),
			Events:      triggerEvents(tgtype),
			AffectsRow:  tgtype&0b0000_0001 != 0,
			FunctionOID: fnOID,
		})
	}
	return out, rows.Err()
}

func triggerTiming(tgtype int16) TriggerTiming {
	switch {
	case tgtype&0b0100_0000 != 0:
		return TriggerInsteadOf
	case tgtype&0b0000_0010 != 0:
		return TriggerBefore
	default:
		return TriggerAfter
	}
}

func triggerEvents(tgtype int16) []TriggerEvent {
	var events []TriggerEvent
	if tgtype&0b0000_0100 != 0 {
		events = append(events, TriggerInsert)
	}
	if tgtype&0b0000_1000 != 0 {
		events = append(events, TriggerDelete)
	}
	if tgtype&0b0001_0000 != 0 {
		events = append(events, TriggerUpdate)
	}
	if tgtype&0b0010_0000 != 0 {
		events = append(events, TriggerTruncate)
	}
	return events
}

const typesQuery = `
select t.oid, t.typname, n.nspname, t.typtype = 'e' as is_enum,
       coalesce(array(
         select enumlabel from pg_catalog.pg_enum e
         where e.enumtypid = t.oid order by e.enumsortorder
       ), '{}'::text[])
from pg_catalog.pg_type t
join pg_catalog.pg_namespace n on n.oid = t.typnamespace
where n.nspname not in ('pg_catalog', 'information_schema')
order by n.nspname, t.typname`

func (l *Loader) loadTypes(ctx context.Context) ([]Type, error) {
	rows, err := l.pool.Query(ctx, typesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Type
	for rows.Next() {
		var ty Type
		if err := rows.Scan(&ty.OID, &ty.Name, &ty.SchemaName, &ty.IsEnum, &ty.EnumLabels); err != nil {
			return nil, err
		}
		out = append(out, ty)
	}
	return out, rows.Err()
}

func (l *Loader) loadRoles(ctx context.Context) ([]Role, error) {
	rows, err := l.pool.Query(ctx, `select rolname, rolsuper, rolcanlogin from pg_catalog.pg_roles order by rolname`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.Name, &r.IsSuperuser, &r.CanLogin); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (l *Loader) loadExtensions(ctx context.Context) ([]Extension, error) {
	rows, err := l.pool.Query(ctx, `
select e.extname, e.extversion, n.nspname
from pg_catalog.pg_extension e
join pg_catalog.pg_namespace n on n.oid = e.extnamespace
order by e.extname`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Extension
	for rows.Next() {
		var e Extension
		if err := rows.Scan(&e.Name, &e.Version, &e.Schema); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
