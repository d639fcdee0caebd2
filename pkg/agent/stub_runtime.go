package agent

import (
	"context"
	"fmt"
)

// StubRuntime is a canned-response Runtime used in tests and local
// development when no real model backend is configured. Grounded on
// tarsy's pkg/agent/tool_executor.go StubToolExecutor.
type StubRuntime struct {
	FinalOutput string
	TurnCount   int
	Err         error
}

// NewStubRuntime returns a StubRuntime that reports a single-turn success.
func NewStubRuntime() *StubRuntime {
	return &StubRuntime{FinalOutput: "stub run complete", TurnCount: 1}
}

// Run returns the stub's canned result, ignoring the spec and input.
func (s *StubRuntime) Run(_ context.Context, spec AgentSpec, _ string, maxTurns int, _ RunConfig) (RunResult, error) {
	if s.Err != nil {
		return RunResult{}, fmt.Errorf("stub runtime for agent %q: %w", spec.Name, s.Err)
	}
	turns := s.TurnCount
	if turns > maxTurns {
		turns = maxTurns
	}
	return RunResult{FinalOutput: s.FinalOutput, TurnCount: turns}, nil
}
