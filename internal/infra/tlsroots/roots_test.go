package tlsroots

import (
	"encoding/pem"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewPool(t *testing.T) {
	if NewPool().Pool() == nil {
		t.Fatal("Pool() returned nil")
	}
	if NewEmptyPool().Pool() == nil {
		t.Fatal("Pool() returned nil")
	}
}

func TestAddCertPEM(t *testing.T) {
	first, _ := newTestCert(t, "ca-1")
	second, _ := newTestCert(t, "ca-2")
	_, key := newTestCert(t, "ca-3")

	tests := []struct {
		name    string
		data    []byte
		added   int
		wantErr error
	}{
		{name: "single", data: first, added: 1},
		{name: "bundle", data: append(append([]byte{}, first...), second...), added: 2},
		{name: "key blocks skipped", data: append(append([]byte{}, key...), first...), added: 1},
		{name: "empty", data: nil, wantErr: ErrNoCertsFound},
		{name: "garbage", data: []byte("not a certificate"), wantErr: ErrNoCertsFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewEmptyPool()
			err := p.AddCertPEM(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("AddCertPEM() error = %v, want %v", err, tt.wantErr)
			}
			if p.Added() != tt.added {
				t.Errorf("Added() = %d, want %d", p.Added(), tt.added)
			}
		})
	}
}

func TestAddCertPEM_InvalidCert(t *testing.T) {
	data := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte("junk")})
	if err := NewEmptyPool().AddCertPEM(data); err == nil {
		t.Fatal("AddCertPEM() expected error for invalid certificate")
	}
}

func TestAddCertFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ca.pem")
	certPEM, _ := newTestCert(t, "ca")
	if err := os.WriteFile(path, certPEM, 0o600); err != nil {
		t.Fatal(err)
	}

	p := NewEmptyPool()
	if err := p.AddCertFile(path); err != nil {
		t.Fatalf("AddCertFile() error = %v", err)
	}

	if err := p.AddCertFile(filepath.Join(dir, "missing.pem")); err == nil {
		t.Error("AddCertFile() expected error for missing file")
	}

	empty := filepath.Join(dir, "empty.pem")
	if err := os.WriteFile(empty, []byte("nothing"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := p.AddCertFile(empty); !errors.Is(err, ErrNoCertsFound) {
		t.Errorf("AddCertFile() error = %v, want %v", err, ErrNoCertsFound)
	}
}
