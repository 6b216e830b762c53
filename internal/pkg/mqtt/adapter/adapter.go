// Package adapter converts typed message handlers into raw MQTT payload handlers.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
)

// HandlerFunc processes the raw payload of one MQTT message.
type HandlerFunc func(ctx context.Context, payload []byte) error

// JSONHandler decodes the payload into T before calling fn.
func JSONHandler[T any](fn func(ctx context.Context, msg *T) error) HandlerFunc {
	return func(ctx context.Context, payload []byte) error {
		msg := new(T)
		if err := json.Unmarshal(payload, msg); err != nil {
			return fmt.Errorf("failed to decode %T: %w", msg, err)
		}
		return fn(ctx, msg)
	}
}
