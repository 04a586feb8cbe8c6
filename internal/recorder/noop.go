package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSignal(_ *SignalEvaluation) error { return nil }
func (n *NoopRecorder) RecordWorkflow(_ *WorkflowRun) error    { return nil }
func (n *NoopRecorder) RecordAutoPilot(_ *AutoPilotRun) error  { return nil }
func (n *NoopRecorder) RecordBacktest(_ *BacktestRun) error    { return nil }
func (n *NoopRecorder) Close() error                           { return nil }
