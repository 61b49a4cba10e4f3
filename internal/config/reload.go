package config

import (
	"github.com/dshills/keyweave/internal/config/watcher"
)

// ReloadFunc receives the result of reloading a changed keyboard file.
// Exactly one of kb and err is non-nil.
type ReloadFunc func(kb *Keyboard, err error)

// Watch reloads the keyboard at path whenever it changes and passes the
// result to fn. A removed file is reported as a load error. The returned
// watcher must be closed by the caller.
func (l *Loader) Watch(path string, fn ReloadFunc, opts ...watcher.Option) (*watcher.Watcher, error) {
	opts = append([]watcher.Option{watcher.WithLogger(l.log)}, opts...)
	w, err := watcher.New(opts...)
	if err != nil {
		return nil, err
	}

	w.OnChange(func(ev watcher.Event) {
		l.log.WithField("path", ev.Path).WithField("op", ev.Op).Info("keyboard file changed")
		kb, err := l.Load(path)
		if err != nil {
			fn(nil, err)
			return
		}
		fn(kb, nil)
	})

	if err := w.Watch(path); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}
