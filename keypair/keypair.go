/*
File Name:  keypair.go
Package:    keypair

KeyPair wraps an SSH-format Ed25519 key, public-only or public+private, and
is the node's identity: it signs outgoing configuration and verifies
configuration signed by others.
*/

package keypair

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"errors"

	"golang.org/x/crypto/ssh"
)

// Sentinel errors, one per distinct failure the original key handling
// distinguishes.
var (
	ErrParsing                 = errors.New("keypair: could not parse key material")
	ErrWriting                 = errors.New("keypair: could not write key material")
	ErrNoPrivateKey            = errors.New("keypair: no private key present")
	ErrNoPublicKey             = errors.New("keypair: no public key present")
	ErrNoPassphraseProvided    = errors.New("keypair: key is encrypted but no passphrase was provided")
	ErrWrongPassphraseProvided = errors.New("keypair: passphrase did not decrypt the key")
	ErrSigning                 = errors.New("keypair: signing failed")
	ErrInvalidSignature        = errors.New("keypair: signature verification failed")
)

// KeyPair holds a public key and, optionally, the raw private key material
// needed to sign and to re-serialize to OpenSSH form. A KeyPair built from
// a public key alone can only verify.
type KeyPair struct {
	public  ssh.PublicKey
	signer  ssh.Signer
	private ed25519.PrivateKey
}

// Generate creates a fresh Ed25519 KeyPair.
func Generate() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, err
	}

	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return KeyPair{}, ErrSigning
	}

	return KeyPair{public: signer.PublicKey(), signer: signer, private: priv}, nil
}

// FromPublicKey builds a verify-only KeyPair.
func FromPublicKey(pub ssh.PublicKey) KeyPair {
	return KeyPair{public: pub}
}

// HasPrivateKey reports whether this KeyPair can sign.
func (k KeyPair) HasPrivateKey() bool {
	return k.signer != nil
}

// PublicKey returns the wrapped public key.
func (k KeyPair) PublicKey() ssh.PublicKey {
	return k.public
}

// Algorithm returns the SSH key type string, e.g. "ssh-ed25519".
func (k KeyPair) Algorithm() string {
	return k.public.Type()
}

// Sign signs message with the wrapped private key. It fails with
// ErrNoPrivateKey if this KeyPair is verify-only.
func (k KeyPair) Sign(message []byte) (*ssh.Signature, error) {
	if k.signer == nil {
		return nil, ErrNoPrivateKey
	}

	sig, err := k.signer.Sign(rand.Reader, message)
	if err != nil {
		return nil, ErrSigning
	}
	return sig, nil
}

// Verify checks that sig is a valid signature of message under this
// KeyPair's public key.
func (k KeyPair) Verify(message []byte, sig *ssh.Signature) error {
	if k.public == nil {
		return ErrNoPublicKey
	}
	if err := k.public.Verify(message, sig); err != nil {
		return ErrInvalidSignature
	}
	return nil
}

// FromOpenSSH loads a KeyPair from an OpenSSH-format key file's raw bytes.
// It first tries to parse data as a public key (authorized_keys line
// form); failing that, as a private key, decrypting with passphrase if the
// key is encrypted.
func FromOpenSSH(data []byte, passphrase []byte) (KeyPair, error) {
	if pub, _, _, _, err := ssh.ParseAuthorizedKey(data); err == nil {
		return FromPublicKey(pub), nil
	}

	signer, err := ssh.ParsePrivateKey(data)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if !errors.As(err, &missing) {
			return KeyPair{}, ErrParsing
		}

		if len(passphrase) == 0 {
			return KeyPair{}, ErrNoPassphraseProvided
		}

		signer, err = ssh.ParsePrivateKeyWithPassphrase(data, passphrase)
		if err != nil {
			return KeyPair{}, ErrWrongPassphraseProvided
		}
	}

	// The raw private key bytes are not recovered from a parsed signer;
	// a KeyPair loaded from disk can sign and verify but IntoOpenSSH
	// requires a KeyPair built fresh with Generate.
	return KeyPair{public: signer.PublicKey(), signer: signer}, nil
}

// IntoOpenSSH serializes the KeyPair's private key to OpenSSH PEM form,
// encrypted with passphrase if non-empty. It fails with ErrNoPrivateKey if
// this KeyPair was not built with Generate or otherwise holds no raw
// private key material.
func (k KeyPair) IntoOpenSSH(passphrase []byte) ([]byte, error) {
	if k.private == nil {
		return nil, ErrNoPrivateKey
	}

	var block *pem.Block
	var err error

	if len(passphrase) > 0 {
		block, err = ssh.MarshalPrivateKeyWithPassphrase(k.private, "", passphrase)
	} else {
		block, err = ssh.MarshalPrivateKey(k.private, "")
	}
	if err != nil {
		return nil, ErrWriting
	}

	return pem.EncodeToMemory(block), nil
}

// IntoOpenSSHPublic serializes the KeyPair's public key to the
// authorized_keys line form.
func (k KeyPair) IntoOpenSSHPublic() []byte {
	return ssh.MarshalAuthorizedKey(k.public)
}
