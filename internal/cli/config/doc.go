// Package config holds zkmesh-cli preferences (~/.zkmesh/cli.yaml).
//
// The file stores named server profiles plus default output format and
// connect timeout. Flags always win over the file.
package config
