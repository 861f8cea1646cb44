package controller

import (
	"context"

	"github.com/sharetube/syncroom/internal/repository/connection"
)

func (c controller) send(ctx context.Context, client *connection.Client, output *Output) {
	if err := client.Send(output); err != nil {
		c.logger.DebugContext(ctx, "failed to send message", "type", output.Type, "to", client.ID(), "error", err)
	}
}

// broadcast sends output to every listed connection that is still open.
func (c controller) broadcast(ctx context.Context, connIDs []string, output *Output) {
	for _, connID := range connIDs {
		client, err := c.connRepo.Get(connID)
		if err != nil {
			c.logger.DebugContext(ctx, "skipping broadcast recipient", "to", connID, "error", err)
			continue
		}

		c.send(ctx, client, output)
	}
}
