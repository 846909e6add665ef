package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	ctx := context.Background()

	rec.Publish(ctx, SessionRoom(1), EventItemAdded, "a")
	rec.Publish(ctx, SessionRoom(1), EventTotalsUpdated, "b")

	assert.Equal(t, []string{EventItemAdded, EventTotalsUpdated}, rec.Types())
	assert.Equal(t, "session:1", rec.Events()[1].Room)

	rec.Reset()
	assert.Empty(t, rec.Events())
}
