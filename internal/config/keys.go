package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"log"
	"os"
)

// loadJWTKeys reads base64 PEM keys from JWT_PRIVATE_KEY / JWT_PUBLIC_KEY.
// Outside production a fresh keypair is generated when they are missing.
func (c *Config) loadJWTKeys() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privateKeyB64 := os.Getenv("JWT_PRIVATE_KEY")
	publicKeyB64 := os.Getenv("JWT_PUBLIC_KEY")

	if privateKeyB64 != "" && publicKeyB64 != "" {
		return parseKeyPair(privateKeyB64, publicKeyB64)
	}
	if c.IsProduction() {
		return nil, nil, errors.New("JWT_PRIVATE_KEY and JWT_PUBLIC_KEY must be set in production")
	}

	log.Println("Generating an ephemeral RSA keypair for JWT signing; tokens will not survive a restart")
	return GenerateRSAKeyPair()
}

// loadSealingKey reads the 32 byte MFA_SEALING_KEY (base64). Outside
// production a random key is generated when it is missing.
func (c *Config) loadSealingKey() (*[32]byte, error) {
	encoded := os.Getenv("MFA_SEALING_KEY")
	if encoded == "" {
		if c.IsProduction() {
			return nil, errors.New("MFA_SEALING_KEY must be set in production")
		}
		log.Println("Generating an ephemeral MFA sealing key; enrolled authenticators will not survive a restart")
		return GenerateSealingKey()
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MFA_SEALING_KEY: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("MFA_SEALING_KEY must decode to 32 bytes, got %d", len(raw))
	}

	key := new([32]byte)
	copy(key[:], raw)
	return key, nil
}

func GenerateSealingKey() (*[32]byte, error) {
	key := new([32]byte)
	if _, err := rand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("failed to generate sealing key: %w", err)
	}
	return key, nil
}

func parseKeyPair(privateKeyB64, publicKeyB64 string) (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privateKeyBytes, err := base64.StdEncoding.DecodeString(privateKeyB64)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode JWT_PRIVATE_KEY: %w", err)
	}
	publicKeyBytes, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode JWT_PUBLIC_KEY: %w", err)
	}

	privateKey, err := loadRSAPrivateKey(privateKeyBytes)
	if err != nil {
		return nil, nil, err
	}
	publicKey, err := loadRSAPublicKey(publicKeyBytes)
	if err != nil {
		return nil, nil, err
	}
	return privateKey, publicKey, nil
}

// GenerateRSAKeyPair generates a new RSA key pair
func GenerateRSAKeyPair() (*rsa.PrivateKey, *rsa.PublicKey, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate RSA key pair: %w", err)
	}
	return privateKey, &privateKey.PublicKey, nil
}

func loadRSAPrivateKey(pemData []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the private key")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("not an RSA private key")
	}
	return key, nil
}

func loadRSAPublicKey(pemData []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemData)
	if block == nil {
		return nil, errors.New("failed to parse PEM block containing the public key")
	}

	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return key, nil
}
