/*
File Name:  config.go
Package:    config

Config is the JSON document a node loads at startup: which addresses to
bind, which gateway to join through, which peers and services are already
known, and a signature over all of the above proving who last edited it.
*/

package config

import (
	"encoding/json"
	"errors"
	"net"
	"os"

	"github.com/Azoozya/toktok/keypair"
	"github.com/Azoozya/toktok/netio"
	"github.com/Azoozya/toktok/wire"
	"golang.org/x/crypto/ssh"
)

// Sentinel errors, one per distinct failure the file/network/signature
// pipeline can produce.
var (
	ErrFileReading          = errors.New("config: could not read file")
	ErrFileWriting          = errors.New("config: could not write file")
	ErrDeserializing        = errors.New("config: could not parse JSON")
	ErrSerializing          = errors.New("config: could not produce JSON")
	ErrBindingRx            = errors.New("config: could not bind receive socket")
	ErrBindingTx            = errors.New("config: could not bind send socket")
	ErrUnableToReadSignature = errors.New("config: stored signature is malformed")
	ErrInvalidSignature     = errors.New("config: signature is missing or does not verify")
)

// Config is serialized to and parsed from JSON exactly as declared here;
// field order matters because Sign/Verify operate on the canonical JSON
// encoding with Signature nulled out.
type Config struct {
	Server   *wire.Host         `json:"server"`
	Gateway  wire.Host          `json:"gateway"`
	Rx       wire.Host          `json:"rx"`
	Tx       *wire.Host         `json:"tx"`
	Clients  map[string]wire.Host `json:"clients"`
	Services []Service          `json:"services"`

	// Signature is the signing key's raw signature bytes, or nil when the
	// document is unsigned. Verification reconstructs the ssh.Signature
	// from these bytes and the verifying key's own algorithm, per the SSH
	// signature contract.
	Signature []byte `json:"signature"`
}

// New constructs an unsigned Config.
func New(server *wire.Host, gateway, rx wire.Host, tx *wire.Host) *Config {
	return &Config{
		Server:  server,
		Gateway: gateway,
		Rx:      rx,
		Tx:      tx,
	}
}

// FromFile reads and parses a Config from filename.
func FromFile(filename string) (*Config, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, ErrFileReading
	}

	var c Config
	if err := json.Unmarshal(content, &c); err != nil {
		return nil, ErrDeserializing
	}
	return &c, nil
}

// IntoFile serializes the Config to filename as JSON.
func (c *Config) IntoFile(filename string) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return ErrSerializing
	}
	if err := os.WriteFile(filename, raw, 0o600); err != nil {
		return ErrFileWriting
	}
	return nil
}

// IntoNetwork binds the sockets described by the Config (rx, and tx if
// distinct) and returns a ready-to-use Network.
func (c *Config) IntoNetwork() (*netio.Network, error) {
	rxConn, err := net.ListenUDP("udp", c.Rx.UDPAddr())
	if err != nil {
		return nil, ErrBindingRx
	}

	var txConn *net.UDPConn
	if c.Tx != nil && !c.Tx.Equal(c.Rx) {
		txConn, err = net.ListenUDP("udp", c.Tx.UDPAddr())
		if err != nil {
			rxConn.Close()
			return nil, ErrBindingTx
		}
	}

	return netio.New(rxConn, txConn, c.Gateway, c.Server), nil
}

// canonicalBytes returns the JSON encoding of the Config used as the
// signed message: identical to the stored document except Signature is
// cleared first (serialized as null).
func (c *Config) canonicalBytes() ([]byte, error) {
	clone := *c
	clone.Signature = nil
	return json.Marshal(&clone)
}

// Sign computes a signature over the Config's canonical bytes (with any
// existing signature cleared) using key, and stores its raw bytes. On
// failure the Config's previous signature, if any, is left untouched.
func (c *Config) Sign(key keypair.KeyPair) error {
	previousSig := c.Signature
	c.Signature = nil

	data, err := c.canonicalBytes()
	if err != nil {
		c.Signature = previousSig
		return ErrSerializing
	}

	sig, err := key.Sign(data)
	if err != nil {
		c.Signature = previousSig
		return ErrInvalidSignature
	}

	c.Signature = sig.Blob
	return nil
}

// Verify checks the Config's stored signature against key's public key
// over the Config's canonical bytes. The ssh.Signature is reconstructed
// from the stored bytes and key's own algorithm, matching the wire
// contract that only the raw signature bytes are persisted.
func (c *Config) Verify(key keypair.KeyPair) error {
	if c.Signature == nil {
		return ErrInvalidSignature
	}

	sig := &ssh.Signature{Format: key.Algorithm(), Blob: c.Signature}

	data, err := c.canonicalBytes()
	if err != nil {
		return ErrUnableToReadSignature
	}

	if err := key.Verify(data, sig); err != nil {
		return ErrInvalidSignature
	}
	return nil
}
