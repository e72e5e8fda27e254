package signing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	require := require.New(t)
	svc := NewService("test-secret", "")

	sig := svc.Sign("NC-LOT01-000001")
	require.Len(sig, 64)
	require.True(svc.Verify("NC-LOT01-000001", sig))
	require.False(svc.Verify("NC-LOT01-000002", sig))
	require.False(svc.Verify("NC-LOT01-000001", sig[:10]))
}

func TestSignedCodeRoundTrip(t *testing.T) {
	require := require.New(t)
	svc := NewService("test-secret", "")

	token := svc.SignCode("NC-LOT01-000001-ABCD1234")
	valid, code := svc.VerifySignedCode(token)
	require.True(valid)
	require.Equal("NC-LOT01-000001-ABCD1234", code)
}

func TestVerifySignedCodeMalformed(t *testing.T) {
	require := require.New(t)
	svc := NewService("test-secret", "")

	cases := []string{
		"",
		"no-separator",
		".",
		".justsignature",
		"code.",
		"code.wrongsignature",
		strings.Repeat(".", 10),
	}
	for _, token := range cases {
		valid, _ := svc.VerifySignedCode(token)
		require.False(valid, "token %q must not verify", token)
	}
}

func TestVerifySignedCodeSplitsOnLastSeparator(t *testing.T) {
	require := require.New(t)
	svc := NewService("test-secret", "")

	// A code containing dots still verifies, as long as the signature is
	// over everything before the last dot.
	code := "NC.v2-LOT01-000001"
	token := code + Separator + svc.Sign(code)
	valid, got := svc.VerifySignedCode(token)
	require.True(valid)
	require.Equal(code, got)
}

func TestRotation(t *testing.T) {
	require := require.New(t)
	old := NewService("old-secret", "")
	token := old.SignCode("NC-LOT01-000001")

	rotated := NewService("new-secret", "old-secret")
	valid, _ := rotated.VerifySignedCode(token)
	require.True(valid)

	// One generation of grace only.
	twice := NewService("newest-secret", "new-secret")
	valid, _ = twice.VerifySignedCode(token)
	require.False(valid)

	// New tokens verify under the current secret.
	valid, _ = rotated.VerifySignedCode(rotated.SignCode("NC-LOT01-000002"))
	require.True(valid)
}

func TestNewSecret(t *testing.T) {
	require := require.New(t)
	a, err := NewSecret(32)
	require.NoError(err)
	require.Len(a, 64)
	b, err := NewSecret(32)
	require.NoError(err)
	require.NotEqual(a, b)
}
