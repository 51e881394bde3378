package config

import (
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// WatchTarget calls apply whenever the config file changes the special
// jackpot target. Only a config file that was actually read is watched.
func WatchTarget(v *viper.Viper, log logrus.FieldLogger, apply func(int64)) bool {
	path := v.ConfigFileUsed()
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		return false
	}

	last := v.GetInt64(KeyTarget)
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		target := v.GetInt64(KeyTarget)
		if target == last {
			return
		}
		if target < 0 {
			log.Warnf("ignoring negative %s %d from %s", KeyTarget, target, e.Name)
			return
		}
		log.WithField("file", e.Name).Infof("target special jackpot changed %d -> %d", last, target)
		last = target
		apply(target)
	})
	v.WatchConfig()
	return true
}
