package cluster

import (
	"time"

	"go.uber.org/zap"

	"github.com/gridstore/gridstore-go/conn"
)

// monitor is the background recovery loop. Each sweep drains the
// offline queue, probes every dequeued node with a liveness ping and
// either reinstates it into the strategy's active set or holds it in a
// still-dead batch that is requeued after the sweep. The loop then
// waits one poll interval before the next sweep and exits as soon as
// shutdown is observed.
func (c *Cluster) monitor() {
	defer close(c.monitorDone)
	for {
		c.probeOffline()
		select {
		case <-c.monitorStop:
			return
		case <-time.After(c.opts.PollInterval):
		}
	}
}

func (c *Cluster) probeOffline() {
	var stillDead []*Node
	for {
		if c.disposing.Load() {
			return
		}
		n, ok := c.offline.tryDequeue()
		if !ok {
			break
		}
		if err := c.probe(n); err != nil {
			c.logger.Debug("node still unreachable",
				zap.String("node", n.Name()), zap.Error(err))
			stillDead = append(stillDead, n)
			continue
		}
		c.reactivate(n)
	}
	if c.disposing.Load() {
		return
	}
	for _, n := range stillDead {
		c.offline.enqueue(n)
	}
}

// probe performs a no-payload ping round trip against the node.
func (c *Cluster) probe(n *Node) error {
	var pingErr error
	if err := n.Run(func(cn *conn.Conn) error {
		pingErr = cn.Ping()
		return pingErr
	}); err != nil {
		return err
	}
	return pingErr
}
