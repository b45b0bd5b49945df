package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDemoCommand(t *testing.T) {
	t.Run("charge proceeds through the chain", func(t *testing.T) {
		out, err := execute(t, "demo", "--amount", "100")

		require.NoError(t, err)
		assert.Contains(t, out, "chain:    LoggingInterceptor -> MetricsInterceptor -> counter -> Charge")
		assert.Contains(t, out, "charged:  100")
		assert.Contains(t, out, "counted:  1")
		assert.Contains(t, out, "invoked:  1")
		assert.Contains(t, out, "reports:  0")
	})

	t.Run("short circuit answers zero", func(t *testing.T) {
		out, err := execute(t, "demo", "--short-circuit")

		require.NoError(t, err)
		assert.Contains(t, out, "charged:  0")
	})

	t.Run("failed charge is reported", func(t *testing.T) {
		out, err := execute(t, "demo", "--amount", "5000")

		require.NoError(t, err)
		assert.Contains(t, out, "error:    insufficient funds")
		assert.Contains(t, out, "reports:  1")
	})
}

func TestInspectCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bindings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: PaymentService
bindings:
  - interceptor: logging
    when: method.startsWith("Charge")
  - interceptor: errorLogging
    kind: exception
    methods: [Refund]
`), 0o600))

	t.Run("prints the plan", func(t *testing.T) {
		out, err := execute(t, "inspect", path, "--methods", "Charge,ChargeRecurring,Refund")

		require.NoError(t, err)
		assert.Contains(t, out, "PaymentService")
		assert.Regexp(t, `method\s+Charge\s+logging`, out)
		assert.Regexp(t, `method\s+ChargeRecurring\s+logging`, out)
		assert.Regexp(t, `exception\s+Refund\s+errorLogging`, out)
	})

	t.Run("requires a file", func(t *testing.T) {
		_, err := execute(t, "inspect")
		assert.Error(t, err)
	})

	t.Run("reports invalid files", func(t *testing.T) {
		_, err := execute(t, "inspect", filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}
