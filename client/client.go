// Package client is the typed data-access surface of the GridStore
// client. Every operation is a unit of work handed to the cluster
// core, which supplies connection acquisition, retry and failover.
package client

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/gridstore/gridstore-go/cluster"
	"github.com/gridstore/gridstore-go/conn"
	"github.com/gridstore/gridstore-go/metrics"
)

const maxKeyLen = 1<<16 - 1

// Client issues GridStore operations through a cluster.
type Client struct {
	cluster *cluster.Cluster
	metrics *metrics.ClientMetrics
}

// New wraps a cluster in the data-access surface.
func New(c *cluster.Cluster) *Client {
	return &Client{cluster: c, metrics: metrics.Default()}
}

// Ping round-trips a liveness probe through any active node.
func (c *Client) Ping() error {
	defer c.observe("ping", time.Now())
	res := cluster.Execute(c.cluster, func(cn *conn.Conn) cluster.Result[struct{}] {
		if err := cn.Ping(); err != nil {
			return commFailure[struct{}](err)
		}
		return cluster.Success(struct{}{})
	})
	return c.outcome("ping", res.Err)
}

// Get fetches the value stored under key.
func (c *Client) Get(key string) ([]byte, error) {
	defer c.observe("get", time.Now())
	res := cluster.Execute(c.cluster, func(cn *conn.Conn) cluster.Result[[]byte] {
		code, payload, err := cn.Exchange(conn.MsgGet, []byte(key))
		if err != nil {
			return commFailure[[]byte](err)
		}
		switch code {
		case conn.MsgGetResp:
			return cluster.Success(payload)
		case conn.MsgErr:
			return cluster.Failure[[]byte](cluster.KindServerError, string(payload), false)
		default:
			return unexpectedCode[[]byte](code)
		}
	})
	return res.Value, c.outcome("get", res.Err)
}

// Put stores value under key.
func (c *Client) Put(key string, value []byte) error {
	defer c.observe("put", time.Now())
	payload, err := encodeKeyValue(key, value)
	if err != nil {
		return err
	}
	res := cluster.Execute(c.cluster, func(cn *conn.Conn) cluster.Result[struct{}] {
		code, body, err := cn.Exchange(conn.MsgPut, payload)
		if err != nil {
			return commFailure[struct{}](err)
		}
		switch code {
		case conn.MsgPutResp:
			return cluster.Success(struct{}{})
		case conn.MsgErr:
			return cluster.Failure[struct{}](cluster.KindServerError, string(body), false)
		default:
			return unexpectedCode[struct{}](code)
		}
	})
	return c.outcome("put", res.Err)
}

// Delete removes the value stored under key.
func (c *Client) Delete(key string) error {
	defer c.observe("delete", time.Now())
	res := cluster.Execute(c.cluster, func(cn *conn.Conn) cluster.Result[struct{}] {
		code, body, err := cn.Exchange(conn.MsgDel, []byte(key))
		if err != nil {
			return commFailure[struct{}](err)
		}
		switch code {
		case conn.MsgDelResp:
			return cluster.Success(struct{}{})
		case conn.MsgErr:
			return cluster.Failure[struct{}](cluster.KindServerError, string(body), false)
		default:
			return unexpectedCode[struct{}](code)
		}
	})
	return c.outcome("delete", res.Err)
}

// Scan starts a streaming key scan for the given prefix. The returned
// Scanner holds its connection until Close (or stream end), so callers
// must always close it.
func (c *Client) Scan(prefix string) (*Scanner, error) {
	defer c.observe("scan", time.Now())
	res := cluster.ExecuteStream(c.cluster, func(cn *conn.Conn, release conn.Release) cluster.Result[*Scanner] {
		if err := cn.Send(conn.MsgScan, []byte(prefix)); err != nil {
			release(err)
			return commFailure[*Scanner](err)
		}
		return cluster.Success(&Scanner{conn: cn, release: release})
	})
	return res.Value, c.outcome("scan", res.Err)
}

func (c *Client) observe(op string, start time.Time) {
	c.metrics.RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// outcome records the request counter and converts the typed error,
// avoiding a non-nil interface around a nil *cluster.Error.
func (c *Client) outcome(op string, err *cluster.Error) error {
	if err == nil {
		c.metrics.RequestsTotal.WithLabelValues(op, "success").Inc()
		return nil
	}
	c.metrics.RequestsTotal.WithLabelValues(op, err.Kind.String()).Inc()
	return err
}

func commFailure[T any](err error) cluster.Result[T] {
	return cluster.Failure[T](cluster.KindCommunicationError, err.Error(), true)
}

func unexpectedCode[T any](code byte) cluster.Result[T] {
	return cluster.Failure[T](cluster.KindCommunicationError,
		fmt.Sprintf("unexpected response code 0x%02x", code), true)
}

// encodeKeyValue frames a put payload as key length, key, value.
func encodeKeyValue(key string, value []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("key must not be empty")
	}
	if len(key) > maxKeyLen {
		return nil, fmt.Errorf("key length %d exceeds %d", len(key), maxKeyLen)
	}
	buf := make([]byte, 2+len(key)+len(value))
	binary.BigEndian.PutUint16(buf, uint16(len(key)))
	copy(buf[2:], key)
	copy(buf[2+len(key):], value)
	return buf, nil
}
