/*
File Name:  service.go
Package:    config

Service describes one application-level service a node advertises:
a name, the port it listens on, and optionally the Host of the server
providing it (when the service is hosted elsewhere than the node itself).
*/

package config

import "github.com/Azoozya/toktok/wire"

// Service is one advertised service entry of a Config.
type Service struct {
	Name   string     `json:"name"`
	Port   uint16     `json:"port"`
	Server *wire.Host `json:"server"`
}

// NewService constructs a Service. server may be nil.
func NewService(name string, port uint16, server *wire.Host) Service {
	return Service{Name: name, Port: port, Server: server}
}
