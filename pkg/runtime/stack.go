package runtime

// CallStack is the LIFO list of execution contexts for one run
type CallStack struct {
	frames []*ExecutionContext
	max    int
	trace  *Trace
	nextID int
}

// NewCallStack creates a stack holding at most max contexts
func NewCallStack(max int, trace *Trace) *CallStack {
	return &CallStack{
		max:   max,
		trace: trace,
	}
}

// Depth is the number of contexts on the stack
func (s *CallStack) Depth() int {
	return len(s.frames)
}

// Max is the configured maximum depth
func (s *CallStack) Max() int {
	return s.max
}

// Top returns the running context, nil when empty
func (s *CallStack) Top() *ExecutionContext {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Frames lists contexts from bottom (global) to top
func (s *CallStack) Frames() []*ExecutionContext {
	return append([]*ExecutionContext(nil), s.frames...)
}

// Push makes ec the running context. At the maximum depth nothing is
// pushed and a StackOverflow is returned.
func (s *CallStack) Push(ec *ExecutionContext) error {
	if len(s.frames) >= s.max {
		err := newError(StackOverflow, ec.Name, "Maximum call stack size exceeded (%d)", s.max)
		err.Depth = len(s.frames)
		return err
	}
	s.nextID++
	ec.ID = s.nextID
	s.frames = append(s.frames, ec)
	s.emit(EventPush, ec)
	return nil
}

// Pop removes ec, which must be the running context
func (s *CallStack) Pop(ec *ExecutionContext) error {
	top := s.Top()
	if top != ec {
		return newError(InternalError, ec.Name, "pop of %s while %s is running", ec, top)
	}
	if err := ec.transition(StatePopped); err != nil {
		return err
	}
	s.emit(EventPop, ec)
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
	return nil
}

// discard drops every frame without POP events, used after a fatal error
// so the trace stays truncated at the failure
func (s *CallStack) discard() {
	s.frames = nil
}

func (s *CallStack) emit(kind EventKind, ec *ExecutionContext) {
	if s.trace == nil {
		return
	}
	s.trace.record(&TraceEvent{
		Kind:        kind,
		Context:     ec.Name,
		ContextKind: ec.Kind,
		Depth:       len(s.frames),
	})
}
