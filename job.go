package shellz

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/tracez"
)

// Tracing keys for per-stage spans, recorded through github.com/zoobzio/tracez
// alongside the capitan signals (spec.md §4.6's per-stage observability).
var (
	jobStageSpan       = tracez.Key("job.stage")
	jobStageTagJob     = tracez.Tag("job.name")
	jobStageTagIndex   = tracez.Tag("job.stage.index")
	jobStageTagCommand = tracez.Tag("job.stage.command")
	jobStageTagError   = tracez.Tag("job.stage.error")
)

// StageSpec is one pre-resolved pipeline stage: a Command plus the already
// -compiled Arguments it runs with, and the schema of the rows it writes to
// its Output (spec.md §4.6). Arguments are resolved once, at compile time —
// a stage does not re-evaluate its arguments per input row.
type StageSpec struct {
	Command      Command
	Arguments    []Value
	OutputSchema []ColumnType
}

// Job is an ordered list of stages wired by typed row channels, one
// goroutine per stage, exactly the shape spec.md §4.6 describes (and
// grounded, in concurrency style, on the goroutine+WaitGroup+error-channel
// pattern pipz's worker pool uses).
type Job struct {
	Name    string
	Stages  []StageSpec
	Mode    StreamMode
	Metrics *Metrics
	Tracer  *tracez.Tracer
}

// NewJob builds a Job. metrics may be nil, in which case a private registry
// is created so every job always has somewhere to record counters.
func NewJob(name string, stages []StageSpec, mode StreamMode, metrics *Metrics) *Job {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Job{Name: name, Stages: stages, Mode: mode, Metrics: metrics, Tracer: tracez.New()}
}

// JobJoinHandle resolves once every stage goroutine has finished, carrying
// the first error any stage returned (spec.md §4.6, "first-error-wins").
type JobJoinHandle struct {
	done chan struct{}
	err  error
}

// Wait blocks until the job's stages have all finished and returns the
// aggregate result.
func (h *JobJoinHandle) Wait() error {
	<-h.done
	return h.err
}

// SpawnAndExecute allocates the internal channel pairs between stages,
// builds each stage's ExecutionContext, and launches one goroutine per
// stage. head is the InputStream feeding the first stage; pass nil if the
// first stage produces without reading input (e.g. a source command). It
// returns the stream the last stage writes to — readable immediately,
// concurrently with the stages still running — and a JobJoinHandle that
// becomes ready once every stage has finished.
func (j *Job) SpawnAndExecute(ctx context.Context, env Env, printer Printer, head *InputStream) (*InputStream, *JobJoinHandle, error) {
	if len(j.Stages) == 0 {
		return nil, nil, ArgumentError("a job must have at least one stage")
	}

	streams := make([]*InputStream, len(j.Stages)+1)
	senders := make([]RowSender, len(j.Stages))
	streams[0] = head
	for i, stage := range j.Stages {
		sender, next := NewRowChannel(stage.OutputSchema, j.Mode)
		senders[i] = sender
		streams[i+1] = next
	}

	handle := &JobJoinHandle{done: make(chan struct{})}
	var wg sync.WaitGroup
	errCh := make(chan error, len(j.Stages))
	start := Clock.Now()

	for i, stage := range j.Stages {
		wg.Add(1)
		go j.runStage(ctx, i, stage, streams[i], senders[i], env, printer, errCh, &wg)
	}

	go func() {
		wg.Wait()
		close(errCh)
		var first error
		for err := range errCh {
			if err != nil && first == nil {
				first = err
			}
		}
		handle.err = first
		elapsed := Clock.Since(start)
		j.Metrics.joinLatency(float64(elapsed.Milliseconds()))
		capitan.Info(ctx, SignalJobCompleted,
			FieldJobName.Field(j.Name),
			FieldStageCount.Field(len(j.Stages)),
			FieldDuration.Field(elapsed.Seconds()),
		)
		close(handle.done)
	}()

	return streams[len(streams)-1], handle, nil
}

func (j *Job) runStage(ctx context.Context, index int, stage StageSpec, input *InputStream, output RowSender, env Env, printer Printer, errCh chan<- error, wg *sync.WaitGroup) {
	defer wg.Done()
	defer output.Close()

	capitan.Info(ctx, SignalStageSpawned,
		FieldJobName.Field(j.Name),
		FieldStageIndex.Field(index),
		FieldStageCount.Field(len(j.Stages)),
	)
	j.Metrics.stageSpawned()

	valueSender, _ := NewValueChannel()
	defer valueSender.Close()

	ec := &ExecutionContext{
		Arguments: stage.Arguments,
		Input:     input,
		Output:    output.withOnSend(j.Metrics.rowProcessed),
		ValueOut:  valueSender,
		Env:       env,
		Printer:   printer,
	}

	ctx, span := j.Tracer.StartSpan(ctx, jobStageSpan)
	span.SetTag(jobStageTagJob, j.Name)
	span.SetTag(jobStageTagIndex, strconv.Itoa(index))
	span.SetTag(jobStageTagCommand, stage.Command.CommandName())
	defer span.Finish()

	start := Clock.Now()

	// A panicking Command must not crash the process or unwind past this
	// goroutine's top frame — it reports to errCh like any other stage
	// failure instead (spec.md §4.8). Registered last so it runs first on
	// unwind, ahead of wg.Done(), the same order errCh is fed in the
	// ordinary error path below.
	defer func() {
		if r := recover(); r != nil {
			err := GenericError(fmt.Sprintf("stage %d (%s) panicked: %v", index, stage.Command.CommandName(), r))
			span.SetTag(jobStageTagError, err.Error())
			capitan.Warn(ctx, SignalStageFailed,
				FieldJobName.Field(j.Name),
				FieldStageIndex.Field(index),
				FieldError.Field(err.Error()),
				FieldDuration.Field(Clock.Since(start).Seconds()),
			)
			j.Metrics.stageFailed()
			errCh <- err
		}
	}()

	err := stage.Command.Invoke(ctx, ec)
	if err != nil {
		span.SetTag(jobStageTagError, err.Error())
		capitan.Warn(ctx, SignalStageFailed,
			FieldJobName.Field(j.Name),
			FieldStageIndex.Field(index),
			FieldError.Field(err.Error()),
			FieldDuration.Field(Clock.Since(start).Seconds()),
		)
		j.Metrics.stageFailed()
		errCh <- err
		return
	}

	capitan.Info(ctx, SignalStageFinished,
		FieldJobName.Field(j.Name),
		FieldStageIndex.Field(index),
		FieldDuration.Field(Clock.Since(start).Seconds()),
	)
	j.Metrics.stageFinished()
}

// StageDefinition is a not-yet-compiled stage: a Command plus the argument
// Definitions that resolve to its Arguments at compile time.
type StageDefinition struct {
	Command      Command
	Arguments    []Definition
	OutputSchema []ColumnType
}

// JobDefinition compiles each stage's arguments, spawns the pipeline, and
// compiles to a TableStream value wrapping the last stage's output
// (spec.md §4.5's JobDefinition).
type JobDefinition struct {
	Name    string
	Stages  []StageDefinition
	Mode    StreamMode
	Metrics *Metrics
}

func buildStageSpecs(stages []StageDefinition, deps *DependencyList, env Env, printer Printer) ([]StageSpec, error) {
	out := make([]StageSpec, len(stages))
	for i, sd := range stages {
		args, err := compileAll(sd.Arguments, deps, env, printer)
		if err != nil {
			return nil, err
		}
		out[i] = StageSpec{Command: sd.Command, Arguments: args, OutputSchema: sd.OutputSchema}
	}
	return out, nil
}

func (d JobDefinition) Compile(deps *DependencyList, env Env, printer Printer) (Value, error) {
	stages, err := buildStageSpecs(d.Stages, deps, env, printer)
	if err != nil {
		return Value{}, err
	}
	job := NewJob(d.Name, stages, d.Mode, d.Metrics)
	out, handle, err := job.SpawnAndExecute(context.Background(), env, printer, nil)
	if err != nil {
		return Value{}, err
	}
	deps.Track(out)
	deps.TrackHandle(handle)
	return NewTableStreamValue(NewTableStream(out)), nil
}

// MaterializedJobDefinition spawns the same pipeline as JobDefinition but
// drains it into an in-memory Table, stopping at end-of-stream or the first
// error — including an error raised by a stage itself, surfaced through the
// job's JobJoinHandle after the drain completes (spec.md §4.5).
type MaterializedJobDefinition struct {
	Job JobDefinition
}

func (d MaterializedJobDefinition) Compile(deps *DependencyList, env Env, printer Printer) (Value, error) {
	stages, err := buildStageSpecs(d.Job.Stages, deps, env, printer)
	if err != nil {
		return Value{}, err
	}
	job := NewJob(d.Job.Name, stages, d.Job.Mode, d.Job.Metrics)
	out, handle, err := job.SpawnAndExecute(context.Background(), env, printer, nil)
	if err != nil {
		return Value{}, err
	}
	ts := NewTableStream(out)
	table, materializeErr := ts.Materialize()
	joinErr := handle.Wait()
	if materializeErr != nil {
		return Value{}, materializeErr
	}
	if joinErr != nil {
		return Value{}, joinErr
	}
	return NewTableValue(table), nil
}
