package session

import (
	"github.com/rendezvous-app/webclient/pkg/feed"
	"github.com/rendezvous-app/webclient/pkg/livechannel"
	"github.com/rendezvous-app/webclient/pkg/readsync"
)

// Config groups the per-component settings loaded from the environment.
type Config struct {
	Role string `env:"NOTIFY_ROLE" envDefault:"customer"`
	Live livechannel.Config
	Sync readsync.Config
	Feed feed.Config
}
