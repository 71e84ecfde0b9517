package shellz

import "github.com/zoobzio/capitan"

// Signal constants for shellz lifecycle events. Signals follow the pattern:
// <subsystem>.<event>.
const (
	// Scope signals.
	SignalScopeCreated    capitan.Signal = "scope.created"
	SignalScopeDeclared   capitan.Signal = "scope.declared"
	SignalScopeRedeclared capitan.Signal = "scope.redeclared"
	SignalScopeStopped    capitan.Signal = "scope.stopped"

	// Stream signals.
	SignalStreamOpened capitan.Signal = "stream.opened"
	SignalStreamClosed capitan.Signal = "stream.closed"

	// Job / pipeline signals.
	SignalStageSpawned  capitan.Signal = "job.stage.spawned"
	SignalStageFinished capitan.Signal = "job.stage.finished"
	SignalStageFailed   capitan.Signal = "job.stage.failed"
	SignalJobCompleted  capitan.Signal = "job.completed"

	// Serializer signals.
	SignalScopeSerialized   capitan.Signal = "scope.serialized"
	SignalScopeDeserialized capitan.Signal = "scope.deserialized"
)

// Common field keys using capitan's primitive key types, so structured
// fields never require custom struct serialization.
var (
	// Common fields.
	FieldName      = capitan.NewStringKey("name")       // Scope/stage/job name
	FieldError     = capitan.NewStringKey("error")       // Error message
	FieldTimestamp = capitan.NewFloat64Key("timestamp") // Unix timestamp

	// Scope fields.
	FieldScopeID  = capitan.NewStringKey("scope_id")
	FieldParentID = capitan.NewStringKey("parent_id")
	FieldReadonly = capitan.NewStringKey("is_readonly") // "true" / "false"
	FieldLoop     = capitan.NewStringKey("is_loop")     // "true" / "false"

	// Stream fields.
	FieldColumnCount = capitan.NewIntKey("column_count")
	FieldAsync       = capitan.NewStringKey("async") // "true" / "false"

	// Job / pipeline fields.
	FieldJobName    = capitan.NewStringKey("job_name")
	FieldStageIndex = capitan.NewIntKey("stage_index")
	FieldStageCount = capitan.NewIntKey("stage_count")
	FieldDuration   = capitan.NewFloat64Key("duration") // Seconds

	// Serializer fields.
	FieldElementCount = capitan.NewIntKey("element_count")
)
