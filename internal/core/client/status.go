package client

import (
	"github.com/Shopify/zk"

	"github.com/yndnr/zkmesh-go/internal/eventhandler"
	"github.com/yndnr/zkmesh-go/internal/telemetry/metric"
	"github.com/yndnr/zkmesh-go/internal/threadpool"
)

// Status is a point-in-time snapshot of the client.
type Status struct {
	ID        string             `json:"id" yaml:"id"`
	State     string             `json:"state" yaml:"state"`
	PID       int                `json:"pid" yaml:"pid"`
	Servers   []string           `json:"servers" yaml:"servers"`
	Connected bool               `json:"connected" yaml:"connected"`
	Session   string             `json:"session_state" yaml:"session_state"`
	SessionID int64              `json:"session_id" yaml:"session_id"`
	Server    string             `json:"server,omitempty" yaml:"server,omitempty"`
	Pool      threadpool.Stats   `json:"pool" yaml:"pool"`
	Events    eventhandler.Stats `json:"events" yaml:"events"`
}

// Status returns a snapshot of the client.
func (c *Client) Status() Status {
	unlock := c.acquire()
	state := c.state
	conn := c.conn
	unlock()

	st := Status{
		ID:      c.ID(),
		State:   state.String(),
		PID:     c.owner.Load().PID,
		Servers: append([]string(nil), c.cfg.Servers...),
		Session: zk.StateDisconnected.String(),
		Pool:    c.pool.Stats(),
		Events:  c.events.Stats(),
	}
	if conn != nil {
		session := conn.State()
		st.Session = session.String()
		st.Connected = session == zk.StateHasSession
		if dp, ok := conn.(DataPlane); ok {
			st.SessionID = dp.SessionID()
			st.Server = dp.Server()
		}
	}
	return st
}

// MetricStats implements metric.StatsSource.
func (c *Client) MetricStats() metric.Stats {
	st := c.Status()
	return metric.Stats{
		Connected:       st.Connected,
		SessionID:       st.SessionID,
		PoolRunning:     st.Pool.Running,
		WatchedPaths:    st.Events.WatchedPaths,
		EventsDelivered: st.Events.Delivered,
		EventsDropped:   st.Events.Dropped,
	}
}
