// Command binderd runs the binder IPC dispatcher with its admin and
// introspection API.
package main
