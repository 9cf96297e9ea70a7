package config

import (
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// OriginsHolder serves the CORS origin allow-list. The list starts from the
// PORTAL_ALLOWED_ORIGINS environment value and can be overridden by a
// portal.yml file, which is watched for changes. API keys and the permission
// table are intentionally not reloadable this way: authorization changes must
// go through a redeploy.
type OriginsHolder struct {
	current atomic.Value // holds []string
}

// NewOriginsHolder builds the holder from portal.yml when present, falling
// back to the environment-seeded list.
func NewOriginsHolder(cfg Config) (*OriginsHolder, error) {
	v := viper.New()

	v.SetConfigName("portal")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/sessales")
	v.AddConfigPath(".")

	holder := &OriginsHolder{}
	holder.current.Store(normalizeOrigins(cfg.AllowedOrigins))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		return holder, nil
	}

	if origins := v.GetStringSlice("cors.allowedOrigins"); len(origins) > 0 {
		holder.current.Store(normalizeOrigins(origins))
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		origins := v.GetStringSlice("cors.allowedOrigins")
		if len(origins) == 0 {
			log.Printf("[portal-config] reload ignored, empty cors.allowedOrigins in %s", e.Name)
			return
		}
		holder.current.Store(normalizeOrigins(origins))
		log.Printf("[portal-config] cors allow-list reloaded from %s", e.Name)
	})

	return holder, nil
}

// Get returns the current allow-list snapshot.
func (h *OriginsHolder) Get() []string {
	return h.current.Load().([]string)
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(strings.TrimSuffix(o, "/"))
		if o == "" {
			continue
		}
		out = append(out, o)
	}
	return out
}
