package providers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// TaskType identifies an intelligence check
type TaskType string

const (
	TaskWhois           TaskType = "whois"
	TaskSSL             TaskType = "ssl"
	TaskOSINT           TaskType = "osint"
	TaskMalware         TaskType = "malware"
	TaskTruecaller      TaskType = "truecaller"
	TaskBreachCheck     TaskType = "breach_check"
	TaskProfileAnalysis TaskType = "profile_analysis"
	TaskReverseSearch   TaskType = "reverse_search"
	TaskContentAnalysis TaskType = "content_analysis"
)

// ErrUnknownTaskType is returned when no provider serves a task type
var ErrUnknownTaskType = errors.New("unknown task type")

// Input is the identifier under analysis
type Input struct {
	Value     string
	InputType string
}

// Result is the raw JSON object a provider produces
type Result map[string]interface{}

// Provider runs one kind of intelligence check
type Provider interface {
	Type() TaskType
	Run(ctx context.Context, input Input) (Result, error)
}

// Registry maps task types to providers
type Registry struct {
	mu        sync.RWMutex
	providers map[TaskType]Provider
}

// NewRegistry creates a registry holding providers
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[TaskType]Provider, len(providers))}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the provider for p.Type()
func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Type()] = p
}

// Get returns the provider for a task type
func (r *Registry) Get(taskType TaskType) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[taskType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTaskType, taskType)
	}
	return p, nil
}

// Types returns the registered task types sorted by name
func (r *Registry) Types() []TaskType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]TaskType, 0, len(r.providers))
	for t := range r.providers {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
