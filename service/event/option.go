package event

import (
	"log/slog"

	"github.com/viant/afs"
	"github.com/viant/txshield/service/messaging/fs"
	"github.com/viant/txshield/service/messaging/memory"
)

type Option func(s *Service)

// WithFsQueueConfig sets the per-stream file system queue configuration
func WithFsQueueConfig(newConfig func(name string) fs.Config) Option {
	return func(s *Service) {
		s.fsNewQueueConfig = newConfig
	}
}

// WithMemoryQueueConfig sets the per-stream memory queue configuration
func WithMemoryQueueConfig(newConfig func(name string) memory.Config) Option {
	return func(s *Service) {
		s.memNewQueueConfig = newConfig
	}
}

// WithFs sets the storage service used by the fs vendor
func WithFs(fs afs.Service) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}
