package pipeline

// State is a step of the linear run state machine. Every run walks the
// states in order and never re-enters one.
type State string

const (
	StateInit               State = "INIT"
	StateArgsValidated      State = "ARGS_VALIDATED"
	StateReferencesResolved State = "REFERENCES_RESOLVED"
	StateStaged             State = "STAGED"
	StateCompared           State = "COMPARED"
	StateSnapshotUpdated    State = "SNAPSHOT_UPDATED"
	StateToolsEnsured       State = "TOOLS_ENSURED"
	StateGenerated          State = "GENERATED"
	StateSimulated          State = "SIMULATED"
	StateDone               State = "DONE"
)
