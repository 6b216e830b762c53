package server

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/efls/pkg/log"
)

// Server defines the common interface for everything the bridge runs
// (the reconciler loop, the vehicle link, the protocol servers).
type Server interface {
	Start(ctx context.Context) error
}

// Manager manages the lifecycle of all bridge components.
type Manager struct {
	servers []Server
}

// NewManager creates a manager for servers. Nil entries belong to disabled
// components and are skipped.
func NewManager(servers ...Server) *Manager {
	m := &Manager{}
	for _, s := range servers {
		if s != nil {
			m.servers = append(m.servers, s)
		}
	}
	return m
}

// Start launches all servers in parallel and waits for termination. The
// first failure cancels the others.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range m.servers {
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Info("All servers starting...", "count", len(m.servers))
	return g.Wait()
}
