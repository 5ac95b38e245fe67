package sessions

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileJar_SetGetDelete(t *testing.T) {
	fs := afero.NewMemMapFs()
	jar, err := NewFileJar(fs, "/home/user/.cloudshare")
	require.NoError(t, err)

	require.NoError(t, jar.Set(TokenEntry, "abc", time.Now().Add(time.Hour)))

	value, ok, err := jar.Get(TokenEntry)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", value)

	info, err := fs.Stat(jar.Path())
	require.NoError(t, err)
	assert.Equal(t, "session.json", info.Name())

	require.NoError(t, jar.Delete(TokenEntry))
	_, ok, err = jar.Get(TokenEntry)
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := afero.Exists(fs, jar.Path())
	require.NoError(t, err)
	assert.False(t, exists, "empty jar should not leave a file behind")
}

func TestFileJar_ExpiredEntryReadsAbsent(t *testing.T) {
	jar, err := NewFileJar(afero.NewMemMapFs(), "/cfg")
	require.NoError(t, err)

	require.NoError(t, jar.Set(TokenEntry, "old", time.Now().Add(-time.Minute)))

	_, ok, err := jar.Get(TokenEntry)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileJar_ExpiryUsesClock(t *testing.T) {
	jar, err := NewFileJar(afero.NewMemMapFs(), "/cfg")
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	jar.now = func() time.Time { return now }
	require.NoError(t, jar.Set(TokenEntry, "tok", now.Add(DefaultRetention)))

	now = now.Add(DefaultRetention - time.Second)
	_, ok, err := jar.Get(TokenEntry)
	require.NoError(t, err)
	assert.True(t, ok, "token should survive until the retention window closes")

	now = now.Add(time.Second)
	_, ok, err = jar.Get(TokenEntry)
	require.NoError(t, err)
	assert.False(t, ok, "token should be gone once the retention window closes")
}

func TestFileJar_DeleteMissingIsNoop(t *testing.T) {
	jar, err := NewFileJar(afero.NewMemMapFs(), "/cfg")
	require.NoError(t, err)
	assert.NoError(t, jar.Delete(TokenEntry))
}

func TestFileJar_CorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	jar, err := NewFileJar(fs, "/cfg")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, jar.Path(), []byte("{not json"), 0o600))

	_, _, err = jar.Get(TokenEntry)
	assert.ErrorIs(t, err, errCorruptJar)

	require.NoError(t, jar.Set(TokenEntry, "fresh", time.Now().Add(time.Hour)))
	value, ok, err := jar.Get(TokenEntry)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fresh", value)
}

func TestFileJar_DeleteRemovesCorruptFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	jar, err := NewFileJar(fs, "/cfg")
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, jar.Path(), []byte("{not json"), 0o600))

	require.NoError(t, jar.Delete(TokenEntry))

	exists, err := afero.Exists(fs, jar.Path())
	require.NoError(t, err)
	assert.False(t, exists)
	_, ok, err := jar.Get(TokenEntry)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileJar_RequiresDir(t *testing.T) {
	_, err := NewFileJar(afero.NewMemMapFs(), "")
	assert.ErrorIs(t, err, ErrStorageDirRequired)
}

func TestFileJar_SharedAcrossInstances(t *testing.T) {
	fs := afero.NewMemMapFs()
	first, err := NewFileJar(fs, "/cfg")
	require.NoError(t, err)
	second, err := NewFileJar(fs, "/cfg")
	require.NoError(t, err)

	require.NoError(t, first.Set(TokenEntry, "shared", time.Now().Add(time.Hour)))

	value, ok, err := second.Get(TokenEntry)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "shared", value)
}

func TestMemoryJar(t *testing.T) {
	jar := NewMemoryJar()

	_, ok, err := jar.Get(TokenEntry)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, jar.Set(TokenEntry, "abc", time.Now().Add(time.Hour)))
	value, ok, err := jar.Get(TokenEntry)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", value)

	require.NoError(t, jar.Set(TokenEntry, "gone", time.Now().Add(-time.Hour)))
	_, ok, err = jar.Get(TokenEntry)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, jar.Delete(TokenEntry))
}
