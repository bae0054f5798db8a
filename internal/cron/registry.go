package cron

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Job is a unit of maintenance work run once per cron tick.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs in registration order. Names must be unique since
// they label metrics and log lines.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

// NewRegistry registers each job in order and fails on the first invalid one.
func NewRegistry(jobs ...Job) (*Registry, error) {
	r := &Registry{names: map[string]struct{}{}}
	for _, job := range jobs {
		if err := r.Register(job); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(job Job) error {
	if job == nil {
		return errors.New("cron job is nil")
	}
	name := job.Name()
	if name == "" {
		return errors.New("cron job name is required")
	}
	if r.names == nil {
		r.names = map[string]struct{}{}
	}
	if _, dup := r.names[name]; dup {
		return fmt.Errorf("cron job %q already registered", name)
	}
	r.names[name] = struct{}{}
	r.jobs = append(r.jobs, job)
	return nil
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	out := make([]Job, len(r.jobs))
	copy(out, r.jobs)
	return out
}

// Names returns the registered job names sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.names))
	for name := range r.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Len() int { return len(r.jobs) }
