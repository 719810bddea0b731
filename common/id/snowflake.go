// Package id hands out time-ordered int64 identifiers. Each process calls
// Init once with its own node ID before generating; server and worker run
// with distinct node IDs so their IDs never collide.
package id

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init sets up the generator for this process. Later calls are no-ops.
func Init(nodeID int64) error {
	var err error
	once.Do(func() {
		node, err = snowflake.NewNode(nodeID)
		if err != nil {
			err = fmt.Errorf("creating snowflake node %d: %w", nodeID, err)
		}
	})
	return err
}

// New returns the next ID. Init must have been called first.
func New() int64 {
	return node.Generate().Int64()
}
