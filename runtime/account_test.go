package runtime

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAccount_FromEnv(t *testing.T) {
	t.Setenv("QISKIT_IBM_TOKEN", "env-token")
	t.Setenv("QISKIT_IBM_URL", "http://localhost:9999")
	t.Setenv("QISKIT_IBM_INSTANCE", "hub/group/project")

	acct, err := LoadAccount("")
	require.NoError(t, err)
	assert.Equal(t, "env-token", acct.Token)
	assert.Equal(t, "http://localhost:9999", acct.URL)
	assert.Equal(t, "hub/group/project", acct.Instance)
}

func TestLoadAccount_EnvDefaultsURL(t *testing.T) {
	t.Setenv("QISKIT_IBM_TOKEN", "env-token")
	t.Setenv("QISKIT_IBM_URL", "")
	t.Setenv("QISKIT_IBM_INSTANCE", "")

	acct, err := LoadAccount("")
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, acct.URL)
}

func TestSaveAndLoadAccount(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("QISKIT_IBM_TOKEN", "")

	require.NoError(t, SaveAccount("", Account{Token: "file-token", URL: "http://localhost:8080"}))
	require.NoError(t, SaveAccount("staging", Account{Token: "staging-token"}))

	acct, err := LoadAccount("")
	require.NoError(t, err)
	assert.Equal(t, "file-token", acct.Token)
	assert.Equal(t, "http://localhost:8080", acct.URL)

	staging, err := LoadAccount("staging")
	require.NoError(t, err)
	assert.Equal(t, "staging-token", staging.Token)
	assert.Equal(t, DefaultURL, staging.URL)

	_, err = LoadAccount("missing")
	assert.Error(t, err)
}

func TestSaveAccount_FilePermissions(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, SaveAccount("default", Account{Token: "tok"}))

	info, err := os.Stat(filepath.Join(home, ".qiskit", "qiskit-ibm.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSaveAccount_RejectsEmptyToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	assert.Error(t, SaveAccount("default", Account{}))
}

func TestNew_NoCredentials(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("QISKIT_IBM_TOKEN", "")

	_, err := New()
	assert.Error(t, err)
}
