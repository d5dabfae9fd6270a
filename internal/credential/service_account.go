// Package credential holds the service-account record used to authenticate
// against Firebase.
package credential

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"
)

const serviceAccountType = "service_account"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid service account credential")

// ServiceAccount mirrors the JSON key file Google issues for a service account.
type ServiceAccount struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id"`
	PrivateKeyID            string `json:"private_key_id"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id"`
	AuthURI                 string `json:"auth_uri"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url"`
	ClientX509CertURL       string `json:"client_x509_cert_url"`
}

// Placeholder returns the static record for the habit tracker project.
// Its key material is a placeholder, so Validate rejects it until real values
// are supplied through configuration.
func Placeholder() ServiceAccount {
	return ServiceAccount{
		Type:                    serviceAccountType,
		ProjectID:               "habit-tracker-bc361",
		PrivateKeyID:            "your-private-key-id",
		PrivateKey:              "your-private-key",
		ClientEmail:             "firebase-adminsdk-xxxxx@habit-tracker-bc361.iam.gserviceaccount.com",
		ClientID:                "your-client-id",
		AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
		TokenURI:                "https://oauth2.googleapis.com/token",
		AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
		ClientX509CertURL:       "https://www.googleapis.com/robot/v1/metadata/x509/firebase-adminsdk-xxxxx%40habit-tracker-bc361.iam.gserviceaccount.com",
	}
}

// Parse decodes a key file. Escaped newlines in private_key are expanded so
// credentials passed through a single-line env var still parse.
func Parse(data []byte) (ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return ServiceAccount{}, fmt.Errorf("%w: decode key file: %v", ErrInvalid, err)
	}
	sa.PrivateKey = strings.ReplaceAll(sa.PrivateKey, `\n`, "\n")
	return sa, nil
}

// Load reads and parses the key file at path.
func Load(path string) (ServiceAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ServiceAccount{}, fmt.Errorf("%w: read %s: %v", ErrInvalid, path, err)
	}
	return Parse(data)
}

// Validate checks that every field the JWT token flow depends on is present
// and that the private key is a usable RSA key.
func (sa ServiceAccount) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"type", sa.Type},
		{"project_id", sa.ProjectID},
		{"private_key_id", sa.PrivateKeyID},
		{"private_key", sa.PrivateKey},
		{"client_email", sa.ClientEmail},
		{"token_uri", sa.TokenURI},
	}
	var missing []string
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalid, strings.Join(missing, ", "))
	}
	if sa.Type != serviceAccountType {
		return fmt.Errorf("%w: type %q, want %q", ErrInvalid, sa.Type, serviceAccountType)
	}
	if err := checkPrivateKey(sa.PrivateKey); err != nil {
		return fmt.Errorf("%w: private_key: %v", ErrInvalid, err)
	}
	return nil
}

// JSON renders the record in key-file form.
func (sa ServiceAccount) JSON() []byte {
	// a struct of strings cannot fail to marshal
	data, _ := json.Marshal(sa)
	return data
}

func checkPrivateKey(key string) error {
	block, _ := pem.Decode([]byte(key))
	if block == nil {
		return errors.New("not PEM encoded")
	}
	if _, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if _, ok := parsed.(*rsa.PrivateKey); !ok {
		return errors.New("not an RSA key")
	}
	return nil
}
