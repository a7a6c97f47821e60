package runtime

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultURL is the public endpoint of the hosted runtime service.
const DefaultURL = "https://runtime.quantum-computing.ibm.com/v1"

const accountFileName = "qiskit-ibm.json"

// Account holds the credentials and endpoint for one service instance.
type Account struct {
	Token    string `json:"token"`
	URL      string `json:"url,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// accountFile returns the on-disk account store, ~/.qiskit/qiskit-ibm.json.
func accountFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".qiskit", accountFileName), nil
}

// LoadAccount resolves credentials for the named account. Environment
// variables QISKIT_IBM_TOKEN, QISKIT_IBM_URL and QISKIT_IBM_INSTANCE take
// priority; otherwise the account file is consulted. name defaults to
// "default".
func LoadAccount(name string) (*Account, error) {
	if token := os.Getenv("QISKIT_IBM_TOKEN"); token != "" {
		acct := &Account{
			Token:    token,
			URL:      os.Getenv("QISKIT_IBM_URL"),
			Instance: os.Getenv("QISKIT_IBM_INSTANCE"),
		}
		if acct.URL == "" {
			acct.URL = DefaultURL
		}
		return acct, nil
	}

	if name == "" {
		name = "default"
	}
	path, err := accountFile()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read account file %q: %w", path, err)
	}
	var accounts map[string]Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse account file %q: %w", path, err)
	}
	acct, ok := accounts[name]
	if !ok {
		return nil, fmt.Errorf("account %q not found in %q", name, path)
	}
	if acct.URL == "" {
		acct.URL = DefaultURL
	}
	return &acct, nil
}

// SaveAccount writes or replaces the named account in the account file,
// creating ~/.qiskit with user-only permissions if needed.
func SaveAccount(name string, acct Account) error {
	if name == "" {
		name = "default"
	}
	if acct.Token == "" {
		return fmt.Errorf("account %q has no token", name)
	}

	path, err := accountFile()
	if err != nil {
		return err
	}
	accounts := map[string]Account{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &accounts); err != nil {
			return fmt.Errorf("failed to parse account file %q: %w", path, err)
		}
	}
	accounts[name] = acct

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create %q: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write account file %q: %w", path, err)
	}
	return nil
}
