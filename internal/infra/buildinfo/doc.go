// Package buildinfo reports the version of the running binary.
//
// Version, Commit and BuildTime are injected with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/zkmesh-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Fields left at their defaults are filled from the module build info that
// the Go toolchain embeds, including the version of the ZooKeeper client
// library linked into the binary.
package buildinfo
