package zkconn

import (
	"fmt"

	"github.com/Shopify/zk"
)

// Get returns the data and stat of path.
func (c *Conn) Get(path string) ([]byte, *zk.Stat, error) {
	conn, err := c.current()
	if err != nil {
		return nil, nil, err
	}
	data, stat, err := conn.Get(path)
	if err != nil {
		return nil, nil, fmt.Errorf("get %s: %w", path, err)
	}
	return data, stat, nil
}

// GetW is Get plus a data watch. The watch fires through the connection's
// event callback as well as the returned channel.
func (c *Conn) GetW(path string) ([]byte, *zk.Stat, <-chan zk.Event, error) {
	conn, err := c.current()
	if err != nil {
		return nil, nil, nil, err
	}
	data, stat, ch, err := conn.GetW(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("get %s: %w", path, err)
	}
	return data, stat, ch, nil
}

// Children lists the children of path.
func (c *Conn) Children(path string) ([]string, *zk.Stat, error) {
	conn, err := c.current()
	if err != nil {
		return nil, nil, err
	}
	children, stat, err := conn.Children(path)
	if err != nil {
		return nil, nil, fmt.Errorf("children %s: %w", path, err)
	}
	return children, stat, nil
}

// ChildrenW is Children plus a child watch.
func (c *Conn) ChildrenW(path string) ([]string, *zk.Stat, <-chan zk.Event, error) {
	conn, err := c.current()
	if err != nil {
		return nil, nil, nil, err
	}
	children, stat, ch, err := conn.ChildrenW(path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("children %s: %w", path, err)
	}
	return children, stat, ch, nil
}

// Exists reports whether path exists.
func (c *Conn) Exists(path string) (bool, *zk.Stat, error) {
	conn, err := c.current()
	if err != nil {
		return false, nil, err
	}
	ok, stat, err := conn.Exists(path)
	if err != nil {
		return false, nil, fmt.Errorf("exists %s: %w", path, err)
	}
	return ok, stat, nil
}

// ExistsW is Exists plus a watch that fires on creation, deletion or data
// change.
func (c *Conn) ExistsW(path string) (bool, *zk.Stat, <-chan zk.Event, error) {
	conn, err := c.current()
	if err != nil {
		return false, nil, nil, err
	}
	ok, stat, ch, err := conn.ExistsW(path)
	if err != nil {
		return false, nil, nil, fmt.Errorf("exists %s: %w", path, err)
	}
	return ok, stat, ch, nil
}

// Set writes data to path if its version matches. Version -1 matches any.
func (c *Conn) Set(path string, data []byte, version int32) (*zk.Stat, error) {
	conn, err := c.current()
	if err != nil {
		return nil, err
	}
	stat, err := conn.Set(path, data, version)
	if err != nil {
		return nil, fmt.Errorf("set %s: %w", path, err)
	}
	return stat, nil
}

// Create creates path. A nil acl means world:anyone with all permissions.
func (c *Conn) Create(path string, data []byte, flags int32, acl []zk.ACL) (string, error) {
	conn, err := c.current()
	if err != nil {
		return "", err
	}
	if acl == nil {
		acl = zk.WorldACL(zk.PermAll)
	}
	created, err := conn.Create(path, data, flags, acl)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	return created, nil
}

// Delete removes path if its version matches. Version -1 matches any.
func (c *Conn) Delete(path string, version int32) error {
	conn, err := c.current()
	if err != nil {
		return err
	}
	if err := conn.Delete(path, version); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}
