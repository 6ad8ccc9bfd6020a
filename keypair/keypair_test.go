package keypair

import "testing"

func TestGenerateSignVerify(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	data := []byte("Huitre")
	otherData := []byte("8tre")

	sig, err := kp.Sign(data)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}

	if err := kp.Verify(data, sig); err != nil {
		t.Fatalf("expected valid signature to verify, got %v", err)
	}

	if err := kp.Verify(otherData, sig); err == nil {
		t.Fatal("expected signature over different data to fail verification")
	}
}

func TestVerifyOnlyKeyPairCannotSign(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	verifyOnly := FromPublicKey(kp.PublicKey())
	if verifyOnly.HasPrivateKey() {
		t.Fatal("expected verify-only KeyPair to report no private key")
	}

	if _, err := verifyOnly.Sign([]byte("data")); err != ErrNoPrivateKey {
		t.Fatalf("expected ErrNoPrivateKey, got %v", err)
	}
}

func TestOpenSSHRoundTripUnencrypted(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	raw, err := kp.IntoOpenSSH(nil)
	if err != nil {
		t.Fatalf("IntoOpenSSH failed: %v", err)
	}

	loaded, err := FromOpenSSH(raw, nil)
	if err != nil {
		t.Fatalf("FromOpenSSH failed: %v", err)
	}

	data := []byte("round trip")
	sig, err := loaded.Sign(data)
	if err != nil {
		t.Fatalf("Sign with reloaded key failed: %v", err)
	}
	if err := kp.Verify(data, sig); err != nil {
		t.Fatalf("original public key failed to verify reloaded signature: %v", err)
	}
}

func TestOpenSSHRoundTripEncrypted(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	passphrase := []byte("lama")
	raw, err := kp.IntoOpenSSH(passphrase)
	if err != nil {
		t.Fatalf("IntoOpenSSH failed: %v", err)
	}

	if _, err := FromOpenSSH(raw, nil); err != ErrNoPassphraseProvided {
		t.Fatalf("expected ErrNoPassphraseProvided, got %v", err)
	}

	if _, err := FromOpenSSH(raw, []byte("wrong")); err != ErrWrongPassphraseProvided {
		t.Fatalf("expected ErrWrongPassphraseProvided, got %v", err)
	}

	loaded, err := FromOpenSSH(raw, passphrase)
	if err != nil {
		t.Fatalf("FromOpenSSH with correct passphrase failed: %v", err)
	}
	if !loaded.HasPrivateKey() {
		t.Fatal("expected decrypted key to carry a private key")
	}
}

func TestPublicKeyOpenSSHRoundTrip(t *testing.T) {
	kp, err := Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	line := kp.IntoOpenSSHPublic()
	loaded, err := FromOpenSSH(line, nil)
	if err != nil {
		t.Fatalf("FromOpenSSH on public key line failed: %v", err)
	}
	if loaded.HasPrivateKey() {
		t.Fatal("expected public-key-only load to be verify-only")
	}
}
