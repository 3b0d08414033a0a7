// Package output formats zkmesh-cli results.
//
//   - formatter.go: Formatter interface, format parsing and Print
//   - table.go: aligned tables; nested structs flatten to dotted fields
//   - json.go: indented JSON
//   - yaml.go: YAML via gopkg.in/yaml.v3
//   - spinner.go: progress animation while a session is established
package output
