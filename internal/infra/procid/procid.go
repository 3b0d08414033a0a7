package procid

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/process"
)

// Identity is a (PID, creation time) pair.
type Identity struct {
	PID int
	// CreateTime is the process start time in milliseconds since the epoch.
	// Zero when the platform does not report it.
	CreateTime int64
}

// String implements fmt.Stringer.
func (id Identity) String() string {
	return fmt.Sprintf("pid=%d created=%d", id.PID, id.CreateTime)
}

// Of looks up the identity of the process with the given PID.
func Of(pid int) (Identity, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return Identity{}, fmt.Errorf("lookup process %d: %w", pid, err)
	}
	created, err := p.CreateTime()
	if err != nil {
		return Identity{PID: pid}, nil
	}
	return Identity{PID: pid, CreateTime: created}, nil
}

// Current returns the identity of the calling process. It never fails:
// when the creation time cannot be read only the PID is filled in.
func Current() Identity {
	pid := os.Getpid()
	id, err := Of(pid)
	if err != nil {
		return Identity{PID: pid}
	}
	return id
}

// SameProcess reports whether id and other describe the same process.
// Creation times are only compared when both sides know them.
func (id Identity) SameProcess(other Identity) bool {
	if id.PID != other.PID {
		return false
	}
	if id.CreateTime == 0 || other.CreateTime == 0 {
		return true
	}
	return id.CreateTime == other.CreateTime
}
