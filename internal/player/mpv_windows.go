//go:build windows

package player

import (
	"context"
	"fmt"
	"time"

	"github.com/PizzaHomicide/hlsplay/internal/log"
	"gopkg.in/natefinch/npipe.v2"
)

// Connect establishes a connection with MPV for Windows
func (c *MPVIPCClient) Connect(ctx context.Context) error {
	log.Debug("Connecting to Windows named pipe", "path", c.socketPath)

	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	conn, err := npipe.DialTimeout(c.socketPath, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to MPV pipe: %w", err)
	}

	c.conn = conn
	go c.readEvents()
	return nil
}
