// Package main provides the entry point for zkmesh-cli.
//
// zkmesh-cli opens a session per command against a ZooKeeper ensemble:
//
//	zkmesh-cli -s zk1:2181 get /services/api
//	zkmesh-cli -s zk1:2181 -o json ls /services
//	zkmesh-cli --profile prod watch /services/api
//	zkmesh-cli status
//	zkmesh-cli shell
//
// Profiles and defaults live in ~/.zkmesh/cli.yaml.
package main
