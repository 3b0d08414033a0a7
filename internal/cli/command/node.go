package command

import (
	"fmt"
	"sort"
	"time"

	"github.com/Shopify/zk"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/zkmesh-go/internal/cli/output"
)

// Stat is the display form of zk.Stat.
type Stat struct {
	Czxid          int64     `json:"czxid" yaml:"czxid"`
	Mzxid          int64     `json:"mzxid" yaml:"mzxid"`
	Pzxid          int64     `json:"pzxid" yaml:"pzxid"`
	Ctime          time.Time `json:"ctime" yaml:"ctime"`
	Mtime          time.Time `json:"mtime" yaml:"mtime"`
	Version        int32     `json:"version" yaml:"version"`
	Cversion       int32     `json:"cversion" yaml:"cversion"`
	Aversion       int32     `json:"aversion" yaml:"aversion"`
	EphemeralOwner string    `json:"ephemeral_owner" yaml:"ephemeral_owner"`
	DataLength     int32     `json:"data_length" yaml:"data_length"`
	NumChildren    int32     `json:"num_children" yaml:"num_children"`
}

func newStat(s *zk.Stat) Stat {
	if s == nil {
		return Stat{}
	}
	return Stat{
		Czxid:          s.Czxid,
		Mzxid:          s.Mzxid,
		Pzxid:          s.Pzxid,
		Ctime:          time.UnixMilli(s.Ctime).UTC(),
		Mtime:          time.UnixMilli(s.Mtime).UTC(),
		Version:        s.Version,
		Cversion:       s.Cversion,
		Aversion:       s.Aversion,
		EphemeralOwner: fmt.Sprintf("0x%x", s.EphemeralOwner),
		DataLength:     s.DataLength,
		NumChildren:    s.NumChildren,
	}
}

// Node is a znode with its data.
type Node struct {
	Path string `json:"path" yaml:"path"`
	Data string `json:"data" yaml:"data"`
	Stat Stat   `json:"stat" yaml:"stat"`
}

// Listing is the children of a znode.
type Listing struct {
	Path     string   `json:"path" yaml:"path"`
	Children []string `json:"children" yaml:"children"`
}

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print the data of a znode",
		ArgsUsage: "PATH",
		Action:    getAction,
	}
}

func getAction(c *cli.Context) error {
	path, err := requirePath(c)
	if err != nil {
		return err
	}
	return withSession(c, func(s Session, flags *GlobalFlags) error {
		dp, err := s.Data()
		if err != nil {
			return err
		}
		data, stat, err := dp.Get(path)
		if err != nil {
			return nodeError(path, err)
		}
		if flags.Output == output.FormatTable {
			_, err := fmt.Fprintln(c.App.Writer, string(data))
			return err
		}
		return output.NewFormatter(flags.Output).Format(c.App.Writer, Node{
			Path: path,
			Data: string(data),
			Stat: newStat(stat),
		})
	})
}

// ListCommand returns the ls command.
func ListCommand() *cli.Command {
	return &cli.Command{
		Name:      "ls",
		Usage:     "List the children of a znode",
		ArgsUsage: "PATH",
		Action:    listAction,
	}
}

func listAction(c *cli.Context) error {
	path, err := requirePath(c)
	if err != nil {
		return err
	}
	return withSession(c, func(s Session, flags *GlobalFlags) error {
		dp, err := s.Data()
		if err != nil {
			return err
		}
		children, _, err := dp.Children(path)
		if err != nil {
			return nodeError(path, err)
		}
		sort.Strings(children)

		if flags.Output == output.FormatTable {
			table := &output.Table{}
			table.SetHeaders("NAME")
			for _, name := range children {
				table.AddRow(name)
			}
			return table.Render(c.App.Writer)
		}
		if children == nil {
			children = []string{}
		}
		return output.NewFormatter(flags.Output).Format(c.App.Writer, Listing{Path: path, Children: children})
	})
}

// StatCommand returns the stat command.
func StatCommand() *cli.Command {
	return &cli.Command{
		Name:      "stat",
		Usage:     "Show the stat of a znode",
		ArgsUsage: "PATH",
		Action:    statAction,
	}
}

func statAction(c *cli.Context) error {
	path, err := requirePath(c)
	if err != nil {
		return err
	}
	return withSession(c, func(s Session, flags *GlobalFlags) error {
		dp, err := s.Data()
		if err != nil {
			return err
		}
		exists, stat, err := dp.Exists(path)
		if err != nil {
			return nodeError(path, err)
		}
		if !exists {
			return nodeError(path, zk.ErrNoNode)
		}
		return output.NewFormatter(flags.Output).Format(c.App.Writer, newStat(stat))
	})
}
