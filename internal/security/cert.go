package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"time"
)

const (
	certKeyBits  = 2048
	certValidity = 365 * 24 * time.Hour
)

// GenerateSelfSigned выпускает одноразовый самоподписанный сертификат для
// локального HTTPS. Ключ не шифруется и нигде не сохраняется — пара живёт
// ровно столько, сколько работает сервер.
func GenerateSelfSigned() (certPEM, keyPEM []byte, err error) {
	priv, err := rsa.GenerateKey(rand.Reader, certKeyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Country:      []string{"US"},
			Province:     []string{"State"},
			Locality:     []string{"City"},
			Organization: []string{"Skyhook"},
			CommonName:   "localhost",
		},
		NotBefore:             now,
		NotAfter:              now.Add(certValidity),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
	}

	// subject == issuer: подписываем сами себя
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	certPEM = pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	keyPEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})
	return certPEM, keyPEM, nil
}

// WriteTempFiles кладёт PEM-пары во временные файлы для http.ListenAndServeTLS.
// cleanup обязанность вызывающего: defer в main плюс exit-handler, чтобы файлы
// не переживали процесс.
func WriteTempFiles(certPEM, keyPEM []byte) (certPath, keyPath string, cleanup func(), err error) {
	certFile, err := os.CreateTemp("", "skyhook_*.crt")
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to create temp cert file: %w", err)
	}
	certPath = certFile.Name()

	if _, err = certFile.Write(certPEM); err == nil {
		err = certFile.Close()
	} else {
		_ = certFile.Close()
	}
	if err != nil {
		_ = os.Remove(certPath)
		return "", "", nil, fmt.Errorf("failed to write temp cert file: %w", err)
	}

	keyFile, err := os.CreateTemp("", "skyhook_*.key")
	if err != nil {
		_ = os.Remove(certPath)
		return "", "", nil, fmt.Errorf("failed to create temp key file: %w", err)
	}
	keyPath = keyFile.Name()

	if _, err = keyFile.Write(keyPEM); err == nil {
		err = keyFile.Close()
	} else {
		_ = keyFile.Close()
	}
	if err != nil {
		_ = os.Remove(certPath)
		_ = os.Remove(keyPath)
		return "", "", nil, fmt.Errorf("failed to write temp key file: %w", err)
	}

	cleanup = func() {
		_ = os.Remove(certPath)
		_ = os.Remove(keyPath)
	}
	return certPath, keyPath, cleanup, nil
}
