package nodecfg

import (
	"github.com/fsnotify/fsnotify"

	"github.com/nervosnetwork/ckb-go/internal/logging"
)

// WatchConfigFile logs changes to the TOML config file at path. It does
// not hot-reload Config; an operator changing config.toml still needs
// to restart the node, the same way the teacher's keystore watcher only
// notifies rather than re-applies account state in place.
func WatchConfigFile(path string, log *logging.Logger) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}
	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				log.Info("config file changed on disk, restart to apply", "path", ev.Name, "op", ev.Op.String())
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error("config watcher error", "err", err)
			}
		}
	}()
	return w, nil
}
