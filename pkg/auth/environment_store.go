package auth

import (
	"os"
	"time"
)

// serviceEnvVars maps services to the environment variables that can
// supply their tokens
var serviceEnvVars = map[string]string{
	ServiceApify: "ICPSCOUT_APIFY_TOKEN",
	ServiceAI:    "ICPSCOUT_AI_API_KEY",
}

// EnvironmentStore implements CredentialStore using environment variables.
// It is read-only and mainly serves CI and container deployments.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve gets a credential from environment variables
func (e *EnvironmentStore) Retrieve(service string) (*Credential, error) {
	envVar, ok := serviceEnvVars[service]
	if !ok {
		return nil, ErrCredentialsNotFound
	}

	token := os.Getenv(envVar)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Credential{
		Service:      service,
		Token:        token,
		Label:        "environment",
		LastModified: time.Now(),
	}, nil
}

// List returns the credentials present in the environment
func (e *EnvironmentStore) List() ([]*Credential, error) {
	var creds []*Credential
	for service := range serviceEnvVars {
		if cred, err := e.Retrieve(service); err == nil {
			creds = append(creds, cred)
		}
	}
	return creds, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(service string) error {
	return ErrStoreUnavailable
}

// Exists checks if an environment credential exists
func (e *EnvironmentStore) Exists(service string) bool {
	envVar, ok := serviceEnvVars[service]
	return ok && os.Getenv(envVar) != ""
}
