package cron

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type namedJob string

func (n namedJob) Name() string { return string(n) }
func (n namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsOrderAndNames(t *testing.T) {
	reg, err := NewRegistry(namedJob("stale_sessions"), namedJob("history_retention"))
	require.NoError(t, err)

	jobs := reg.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "stale_sessions", jobs[0].Name())
	assert.Equal(t, []string{"history_retention", "stale_sessions"}, reg.Names())

	// Jobs hands out a copy.
	jobs[0] = namedJob("mutated")
	assert.Equal(t, "stale_sessions", reg.Jobs()[0].Name())
}

func TestRegistryRejectsInvalidJobs(t *testing.T) {
	_, err := NewRegistry(namedJob("a"), namedJob("a"))
	assert.ErrorContains(t, err, "already registered")

	_, err = NewRegistry(nil)
	assert.Error(t, err)

	var reg Registry
	assert.Error(t, reg.Register(namedJob("")))
	require.NoError(t, reg.Register(namedJob("ok")))
	assert.Equal(t, 1, reg.Len())
}
