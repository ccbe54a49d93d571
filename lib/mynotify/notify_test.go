package mynotify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MarcGrol/shopfront/lib/mylog"
)

func TestCollector(t *testing.T) {
	c := context.TODO()

	t.Run("Drain empties", func(t *testing.T) {
		// given
		col := NewCollector(NewLogNotifier(mylog.New("test")))
		col.Notify(c, Notification{Level: LevelError, Subject: "A", Message: "quantity restored"})
		col.Notify(c, Notification{Level: LevelInfo, Subject: "B", Message: "added"})

		// when
		drained := col.Drain()

		// then
		assert.Len(t, drained, 2)
		assert.Equal(t, "quantity restored", drained[0].Message)
		assert.Empty(t, col.Drain())
	})

	t.Run("Forwards", func(t *testing.T) {
		// given
		inner := NewCollector(nil)
		outer := NewCollector(inner)

		// when
		outer.Notify(c, Notification{Level: LevelInfo, Message: "hello"})

		// then
		assert.Len(t, inner.Drain(), 1)
	})
}
