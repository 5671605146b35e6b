package multigit

import "context"

// ChangeRecord is emitted once per qualifying branch per poll.
type ChangeRecord struct {
	Revision string   // the new tag name
	Author   string   // comma-joined sorted unique contributor names
	When     int64    // latest revision commit time in the tagged range
	Files    []string // sorted unique changed paths
	Comments string   // multi-revision summary
	Project  string
	Branch   string
}

// Sink is the opaque change-source collaborator the orchestrator reports
// to once per successfully applied tag. The concrete sink (a build
// master's change database, a message queue, ...) lives outside this
// module's scope; the core only depends on this interface.
type Sink interface {
	RecordChange(ctx context.Context, record ChangeRecord) error
}
