// Package bridge assembles the EFLS bridge application.
package bridge

import (
	"context"

	"github.com/autopeer-io/efls/internal/bridge/exchange"
	"github.com/autopeer-io/efls/internal/bridge/server"
	"github.com/autopeer-io/efls/pkg/log"
)

// Bridge is the main application struct of efls-bridge.
type Bridge struct {
	serverManager *server.Manager

	// Set depending on the exchange backend.
	bucket  *exchange.Bucket
	watcher *exchange.File
}

// Run prepares the exchange backend and blocks until ctx is done or a
// component fails.
func (b *Bridge) Run(ctx context.Context) error {
	log.Info("Starting EFLS Bridge...")

	if b.bucket != nil {
		if err := b.bucket.CheckBucket(ctx); err != nil {
			return err
		}
	}

	return b.serverManager.Start(ctx)
}
