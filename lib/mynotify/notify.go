// Package mynotify carries user-visible notifications from background work to whoever renders them.
package mynotify

import (
	"context"
	"sync"

	"github.com/MarcGrol/shopfront/lib/mylog"
)

type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

type Notification struct {
	Level   Level
	Subject string
	Message string
}

type Notifier interface {
	Notify(c context.Context, n Notification)
}

type logNotifier struct {
	logger mylog.Logger
}

// NewLogNotifier only writes notifications to the log.
func NewLogNotifier(logger mylog.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Notify(c context.Context, notification Notification) {
	severity := mylog.SeverityInfo
	if notification.Level == LevelError {
		severity = mylog.SeverityWarn
	}
	n.logger.Log(c, notification.Subject, severity, "%s", notification.Message)
}

// Collector keeps notifications until they are drained, and forwards them to next when set.
type Collector struct {
	sync.Mutex
	next          Notifier
	notifications []Notification
}

func NewCollector(next Notifier) *Collector {
	return &Collector{next: next}
}

func (col *Collector) Notify(c context.Context, n Notification) {
	col.Lock()
	col.notifications = append(col.notifications, n)
	col.Unlock()

	if col.next != nil {
		col.next.Notify(c, n)
	}
}

// Drain returns all collected notifications and forgets them.
func (col *Collector) Drain() []Notification {
	col.Lock()
	defer col.Unlock()

	drained := col.notifications
	col.notifications = nil
	return drained
}
