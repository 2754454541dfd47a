package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", "v", 0))
	var got string
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrNotFound)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Close())
}
