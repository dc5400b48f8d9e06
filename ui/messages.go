package ui

// TUI Message Types for pipeline step communication
type StepStartedMsg struct {
	Index int
}

type StepCompletedMsg struct {
	Index  int
	Detail string // short result shown next to the step, e.g. the archive name
	Error  error
}

type StepProgressMsg struct {
	Index    int
	Progress float64 // 0.0 to 1.0
}

type PipelineDoneMsg struct {
	Error error
}
