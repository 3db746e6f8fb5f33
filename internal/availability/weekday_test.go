package availability

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDayNames(t *testing.T) {
	names := DefaultDayNames()

	tests := []struct {
		key  string
		want time.Weekday
	}{
		{"monday", time.Monday},
		{"Monday", time.Monday},
		{"segunda-feira", time.Monday},
		{"Terça-Feira", time.Tuesday},
		{"terca", time.Tuesday},
		{"quarta", time.Wednesday},
		{" QUINTA ", time.Thursday},
		{"sexta-feira", time.Friday},
		{"SÁBADO", time.Saturday},
		{"sabado", time.Saturday},
		{"domingo", time.Sunday},
		{"sun", time.Sunday},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := names.Weekday(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := names.Weekday("feriado")
	assert.False(t, ok)

	day, ok := names.Weekday("Sábado")
	require.True(t, ok)
	assert.Equal(t, time.Saturday, day)
}

func TestDayNames_WithIsACopy(t *testing.T) {
	base := DefaultDayNames()
	before := base.Len()

	extended, err := base.With(map[time.Weekday][]string{time.Monday: {"lunes"}})
	require.NoError(t, err)

	_, ok := extended.Weekday("Lunes")
	assert.True(t, ok)
	_, ok = base.Weekday("lunes")
	assert.False(t, ok, "base table must not change")
	assert.Equal(t, before, base.Len())
}

func TestDayNames_WithRejectsAmbiguousAlias(t *testing.T) {
	_, err := DefaultDayNames().With(map[time.Weekday][]string{time.Friday: {"segunda"}})
	assert.Error(t, err)
}

func TestLoadDayNames(t *testing.T) {
	dir := t.TempDir()

	t.Run("merges aliases over the default table", func(t *testing.T) {
		path := filepath.Join(dir, "weekdays.toml")
		content := "[aliases]\nmonday = [\"lunes\", \"2a\"]\nsunday = [\"dimanche\"]\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		names, err := LoadDayNames(path)
		require.NoError(t, err)

		d, ok := names.Weekday("LUNES")
		require.True(t, ok)
		assert.Equal(t, time.Monday, d)

		d, ok = names.Weekday("dimanche")
		require.True(t, ok)
		assert.Equal(t, time.Sunday, d)

		d, ok = names.Weekday("segunda")
		require.True(t, ok)
		assert.Equal(t, time.Monday, d)
	})

	t.Run("rejects non English section keys", func(t *testing.T) {
		path := filepath.Join(dir, "bad_key.toml")
		require.NoError(t, os.WriteFile(path, []byte("[aliases]\nsegunda = [\"seg\"]\n"), 0o600))

		_, err := LoadDayNames(path)
		assert.Error(t, err)
	})

	t.Run("rejects malformed toml", func(t *testing.T) {
		path := filepath.Join(dir, "broken.toml")
		require.NoError(t, os.WriteFile(path, []byte("[aliases\nmonday = "), 0o600))

		_, err := LoadDayNames(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadDayNames(filepath.Join(dir, "absent.toml"))
		assert.Error(t, err)
	})
}
