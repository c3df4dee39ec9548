package workspace

// TransactionState tracks the subset of a session's transaction state that
// safety rules need, accumulated statement by statement as a file is
// walked top to bottom. It is deliberately narrow: pgls lints a file
// assuming its statements run in one migration transaction, not a live
// session, so only the facts that change rule outcomes are tracked.
type TransactionState struct {
	// LockTimeoutSet is true once a `SET lock_timeout = ...` statement has
	// been seen.
	LockTimeoutSet bool
	// CreatedObjects holds the qualified names of objects created earlier in
	// the same file (tables, indexes, ...), so a rule can tell "ADD COLUMN
	// on a table this migration just created" apart from one on an
	// existing table.
	CreatedObjects map[string]bool
	// HoldingAccessExclusive is true once a statement has been seen that
	// takes an ACCESS EXCLUSIVE lock and no matching COMMIT/ROLLBACK has
	// been observed yet.
	HoldingAccessExclusive bool
}

// NewTransactionState returns an empty transaction state.
func NewTransactionState() TransactionState {
	return TransactionState{CreatedObjects: make(map[string]bool)}
}

// Clone returns a deep copy, so a rule evaluating one statement can't
// mutate the context other statements see.
func (t TransactionState) Clone() TransactionState {
	out := TransactionState{
		LockTimeoutSet:         t.LockTimeoutSet,
		HoldingAccessExclusive: t.HoldingAccessExclusive,
		CreatedObjects:         make(map[string]bool, len(t.CreatedObjects)),
	}
	for k, v := range t.CreatedObjects {
		out.CreatedObjects[k] = v
	}
	return out
}

// AnalysedFileContext is the running context a file's statements are
// analysed against: the statements seen so far and the transaction state
// they imply. The analyser framework builds one of these per file and
// advances it after each statement.
type AnalysedFileContext struct {
	PreviousStatements []Statement
	TransactionState   TransactionState
}

// NewAnalysedFileContext returns an empty context for the start of a file.
func NewAnalysedFileContext() *AnalysedFileContext {
	return &AnalysedFileContext{TransactionState: NewTransactionState()}
}

// Advance records that stmt has now been analysed, appending it to
// PreviousStatements. Callers that detect transaction-relevant effects
// (SET lock_timeout, CREATE TABLE, ACCESS EXCLUSIVE DDL, COMMIT) should
// mutate ctx.TransactionState before calling Advance for the next
// statement.
func (ctx *AnalysedFileContext) Advance(stmt Statement) {
	ctx.PreviousStatements = append(ctx.PreviousStatements, stmt)
}
