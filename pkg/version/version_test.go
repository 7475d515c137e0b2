package version

import (
	"encoding/json"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetVersionInfo(t *testing.T) {
	var info Info
	require.NoError(t, json.Unmarshal([]byte(GetVersionInfo()), &info))
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, "neubio-", info.GitVersion)
}
