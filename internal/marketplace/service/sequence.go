package service

import (
	"fmt"

	"github.com/bwmarrin/snowflake"

	"charitydrive/internal/marketplace/ports"
)

type snowflakeSequencer struct {
	node *snowflake.Node
}

// NewSnowflakeSequencer issues time-ordered receipts unique across up to
// 1024 nodes.
func NewSnowflakeSequencer(node int64) (ports.Sequencer, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", node, err)
	}
	return &snowflakeSequencer{node: n}, nil
}

func (s *snowflakeSequencer) Next() int64 {
	return s.node.Generate().Int64()
}
