package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_NotAWorker(t *testing.T) {
	ctx := context.Background()

	assert.Nil(t, FromContext(ctx))
	assert.Equal(t, -1, IDFromContext(ctx))
}

func TestFromContext_Roundtrip(t *testing.T) {
	w := newTestWorker(7, 16)
	ctx := WithWorker(context.Background(), w)

	assert.Same(t, w, FromContext(ctx))
	assert.Equal(t, 7, IDFromContext(ctx))
}
