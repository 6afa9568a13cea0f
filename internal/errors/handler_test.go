package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jzx17/eventcore/pkg/types"
)

func TestFailFast(t *testing.T) {
	s := NewFailFast()
	assert.Equal(t, "FailFast", s.Name())

	err := errors.New("dispatch failed")
	assert.Same(t, err, s.Handle(err))
	assert.NoError(t, s.Handle(nil))
}

func TestContinueOnError(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := NewContinueOnError(zap.New(core))
	assert.Equal(t, "ContinueOnError", s.Name())

	de := types.NewDispatchError(3, types.KindCall, errors.New("handler panic"))
	assert.NoError(t, s.Handle(de))

	entries := logs.FilterMessage("ignored dispatch failure").All()
	assert.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(3), fields["worker_id"])
}

func TestContinueOnError_NilLogger(t *testing.T) {
	s := NewContinueOnError(nil)
	assert.NoError(t, s.Handle(errors.New("silenced")))
}

func TestAsHandler(t *testing.T) {
	handler := AsHandler(NewContinueOnError(nil))
	assert.NoError(t, handler(errors.New("swallowed")))

	handler = AsHandler(NewFailFast())
	err := errors.New("surfaced")
	assert.Same(t, err, handler(err))
}
