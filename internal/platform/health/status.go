package health

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// State 定义了系统健康状态的枚举类型
type State int

const (
	StateHealthy State = iota
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// Status 线程安全地保存最近一次检查的结论
type Status struct {
	mu      sync.RWMutex
	state   State
	failing []string
	log     *zap.Logger
}

// NewStatus starts out healthy; the first check corrects it if needed.
func NewStatus(log *zap.Logger) *Status {
	if log == nil {
		log = zap.NewNop()
	}
	return &Status{state: StateHealthy, log: log}
}

func (s *Status) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Failing returns the components that failed the last check.
func (s *Status) Failing() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.failing...)
}

// Assess 根据各组件的检查结果更新状态，并记录状态切换
func (s *Status) Assess(results map[string]error) State {
	var failing []string
	for name, err := range results {
		if err != nil {
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)

	next := StateHealthy
	if len(failing) > 0 {
		next = StateDegraded
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state = next
	s.failing = failing

	switch {
	case prev == StateHealthy && next == StateDegraded:
		fields := []zap.Field{zap.Strings("failing", failing)}
		for _, name := range failing {
			fields = append(fields, zap.NamedError(name, results[name]))
		}
		s.log.Warn("health: system degraded", fields...)
	case prev == StateDegraded && next == StateHealthy:
		s.log.Info("health: system recovered")
	}
	return next
}
