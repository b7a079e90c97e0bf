// Package id generates time-ordered identifiers for contract versions.
package id

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	node *snowflake.Node
	mu   sync.Mutex
)

// Init sets the snowflake node id. Calling it again replaces the node.
func Init(nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return err
	}
	mu.Lock()
	node = n
	mu.Unlock()
	return nil
}

// New returns a new identifier with the given prefix, e.g. "cv_3f9k2l1x0a".
// If Init was never called, node 0 is used.
func New(prefix string) string {
	mu.Lock()
	if node == nil {
		// node 0 is always within range
		node, _ = snowflake.NewNode(0)
	}
	n := node
	mu.Unlock()
	return prefix + n.Generate().Base36()
}
