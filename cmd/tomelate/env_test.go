package main

import (
	"strings"
	"testing"
)

func withEnvStubs(t *testing.T, stored bool, envVal string) func() {
	t.Helper()
	prevStored := hasStoredKey
	prevGetEnv := getEnvKey

	hasStoredKey = func() bool { return stored }
	getEnvKey = func() (string, bool) {
		if envVal == "" {
			return "", false
		}
		return envVal, true
	}

	return func() {
		hasStoredKey = prevStored
		getEnvKey = prevGetEnv
	}
}

func TestEnvStatus_Keychain(t *testing.T) {
	restore := withEnvStubs(t, true, "")
	defer restore()

	out, err := executeCommand(t, "env", "status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "source=Keychain") {
		t.Fatalf("expected keychain status, got: %s", out)
	}
}

func TestEnvStatus_EnvironmentOnly(t *testing.T) {
	restore := withEnvStubs(t, false, "env-key")
	defer restore()

	out, err := executeCommand(t, "env")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Environment Variable") {
		t.Fatalf("expected environment status, got: %s", out)
	}
}

func TestEnvStatus_NotFound(t *testing.T) {
	restore := withEnvStubs(t, false, "")
	defer restore()

	out, err := executeCommand(t, "env", "status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Not Found") {
		t.Fatalf("expected not-found status, got: %s", out)
	}
}
