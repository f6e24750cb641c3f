package monitor

import (
	"os"

	"github.com/fsnotify/fsnotify"
)

// Kind classifies a ChangeEvent.
type Kind string

const (
	KindCreated  Kind = "created"
	KindModified Kind = "modified"
	KindDeleted  Kind = "deleted"
	KindMoved    Kind = "moved"
)

// ChangeEvent is one file-system change below the monitored root. Path is
// absolute as reported by the watcher.
type ChangeEvent struct {
	Path  string
	Kind  Kind
	IsDir bool
}

// Gone reports whether the path no longer exists under its old name.
func (c ChangeEvent) Gone() bool { return c.Kind == KindDeleted || c.Kind == KindMoved }

// changeFromFsnotify translates a watcher event. Permission-only changes
// carry no content change and are dropped. When several ops are combined
// the most destructive one wins.
func changeFromFsnotify(ev fsnotify.Event) (ChangeEvent, bool) {
	ce := ChangeEvent{Path: ev.Name}
	switch {
	case ev.Has(fsnotify.Remove):
		ce.Kind = KindDeleted
	case ev.Has(fsnotify.Rename):
		ce.Kind = KindMoved
	case ev.Has(fsnotify.Create):
		ce.Kind = KindCreated
		if info, err := os.Stat(ev.Name); err == nil {
			ce.IsDir = info.IsDir()
		}
	case ev.Has(fsnotify.Write):
		ce.Kind = KindModified
	default:
		return ChangeEvent{}, false
	}
	return ce, true
}
