package command

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Shopify/zk"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/zkmesh-go/internal/core/client"
	"github.com/yndnr/zkmesh-go/internal/core/domain"
	"github.com/yndnr/zkmesh-go/internal/eventhandler"
)

type fakeNode struct {
	data     []byte
	children []string
	stat     zk.Stat
}

type fakeData struct {
	client.DataPlane
	nodes map[string]fakeNode
}

func (d *fakeData) Get(path string) ([]byte, *zk.Stat, error) {
	n, ok := d.nodes[path]
	if !ok {
		return nil, nil, zk.ErrNoNode
	}
	return n.data, &n.stat, nil
}

func (d *fakeData) Children(path string) ([]string, *zk.Stat, error) {
	n, ok := d.nodes[path]
	if !ok {
		return nil, nil, zk.ErrNoNode
	}
	return n.children, &n.stat, nil
}

func (d *fakeData) Exists(path string) (bool, *zk.Stat, error) {
	n, ok := d.nodes[path]
	if !ok {
		return false, nil, nil
	}
	return true, &n.stat, nil
}

func (d *fakeData) ExistsW(path string) (bool, *zk.Stat, <-chan zk.Event, error) {
	ok, stat, err := d.Exists(path)
	return ok, stat, make(chan zk.Event, 1), err
}

type fakeSession struct {
	data   *fakeData
	status client.Status

	mu       sync.Mutex
	watchers map[string]eventhandler.Callback
	armed    chan string
	closed   bool
	done     chan struct{}
	flags    *GlobalFlags
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		data: &fakeData{nodes: map[string]fakeNode{
			"/": {children: []string{"zookeeper", "app"}},
			"/app": {
				data:     []byte("hello"),
				children: []string{"b", "a"},
				stat:     zk.Stat{Version: 3, NumChildren: 2, DataLength: 5, EphemeralOwner: 255},
			},
		}},
		status:   client.Status{State: "running", Connected: true, SessionID: 7, Servers: []string{"zk1:2181"}},
		watchers: make(map[string]eventhandler.Callback),
		armed:    make(chan string, 16),
		done:     make(chan struct{}),
	}
}

func (s *fakeSession) Register(path string, fn eventhandler.Callback) eventhandler.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchers[path] = fn
	return eventhandler.Subscription{ID: domain.NewID(), Path: path}
}

func (s *fakeSession) RegisterSession(eventhandler.Callback) eventhandler.Subscription {
	return eventhandler.Subscription{ID: domain.NewID()}
}

func (s *fakeSession) Unregister(eventhandler.Subscription) bool { return true }

func (s *fakeSession) Data() (client.DataPlane, error) {
	return &armingData{fakeData: s.data, armed: s.armed}, nil
}

func (s *fakeSession) Status() client.Status { return s.status }

func (s *fakeSession) Done() <-chan struct{} { return s.done }

func (s *fakeSession) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.done)
	}
	return nil
}

func (s *fakeSession) callback(path string) eventhandler.Callback {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watchers[path]
}

// armingData reports each armed watch.
type armingData struct {
	*fakeData
	armed chan string
}

func (d *armingData) ExistsW(path string) (bool, *zk.Stat, <-chan zk.Event, error) {
	ok, stat, ch, err := d.fakeData.ExistsW(path)
	d.armed <- path
	return ok, stat, ch, err
}

// runApp runs the CLI against s and returns stdout.
func runApp(t *testing.T, ctx context.Context, s *fakeSession, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp(func(_ *cli.Context, flags *GlobalFlags) (Session, error) {
		s.flags = flags
		return s, nil
	})
	app.Writer = &out
	app.ErrWriter = &errOut

	full := append([]string{"zkmesh-cli", "--config", filepath.Join(t.TempDir(), "cli.yaml")}, args...)
	err := app.RunContext(ctx, full)
	return out.String(), err
}
