//go:build !windows

package player

import (
	"context"
	"fmt"
	"net"

	"github.com/PizzaHomicide/hlsplay/internal/log"
)

// Connect establishes a connection with MPV for Unix systems
func (c *MPVIPCClient) Connect(ctx context.Context) error {
	log.Debug("Connecting to Unix socket", "path", c.socketPath)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to MPV socket: %w", err)
	}

	c.conn = conn
	go c.readEvents()
	return nil
}
