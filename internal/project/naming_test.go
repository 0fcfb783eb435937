package project

import (
	"crypto"
	"errors"
	"regexp"
	"testing"

	"github.com/dyluth/coda/pkg/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseFileName(t *testing.T) {
	tests := []struct {
		project string
		want    string
	}{
		{project: "MyStudy", want: "MyStudy-ca7f43ae21.csv"},
		{project: "study 2", want: "study 2-ef2ebb4073.csv"},
		{project: "Étude", want: "Étude-1e08311506.csv"},
		{project: "", want: "-da39a3ee5e.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.project, func(t *testing.T) {
			got, err := DatabaseFileName(tt.project)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDatabaseFileName_Deterministic(t *testing.T) {
	pattern := regexp.MustCompile(`^MyStudy-[0-9a-f]{10}\.csv$`)

	first, err := DatabaseFileName("MyStudy")
	require.NoError(t, err)
	assert.Regexp(t, pattern, first)

	for i := 0; i < 5; i++ {
		again, err := DatabaseFileName("MyStudy")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	other, err := DatabaseFileName("MyStudy2")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestDatabaseFileNameWith_UnavailableDigest(t *testing.T) {
	// MD4 is not linked into the binary
	name, err := DatabaseFileNameWith(crypto.MD4, "MyStudy")
	require.Error(t, err)
	assert.Empty(t, name, "never fall back to an unhashed name")
	assert.True(t, errors.Is(err, datastore.ErrDigestUnavailable))
}
