package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMatchesWrappedCode(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ServerNotRunning, "starting rust", cause)

	require.True(t, Is(err, ServerNotRunning))
	require.False(t, Is(err, SpawnFailed))
}

func TestIsFollowsFmtErrorfChain(t *testing.T) {
	err := fmt.Errorf("context: %w", New(UnknownLanguage, "no such server"))
	require.True(t, Is(err, UnknownLanguage))
}

func TestErrorMessageIncludesCause(t *testing.T) {
	err := Wrap(BadFrame, "reading header", errors.New("eof"))
	require.Equal(t, "BadFrame: reading header: eof", err.Error())
}

func TestErrorMessageWithoutCause(t *testing.T) {
	err := New(CapabilityMissing, "completion not advertised")
	require.Equal(t, "CapabilityMissing: completion not advertised", err.Error())
}

func TestRemoteErrFormatsCodeAndMessage(t *testing.T) {
	r := &RemoteErr{RPCCode: -32600, RPCMsg: "invalid request"}
	require.Equal(t, "remote error -32600: invalid request", r.Error())
}

func TestCodeStringKnownAndUnknown(t *testing.T) {
	require.Equal(t, "ProtocolViolation", ProtocolViolation.String())
	require.Equal(t, "Unknown", Code(999).String())
}
