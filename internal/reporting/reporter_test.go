package reporting_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/Azure/aimbiztalk-sub006/internal/reporting"
)

func TestNew_Stdout(t *testing.T) {
	for _, format := range []string{reporting.FormatSARIF, reporting.FormatJSON, reporting.FormatHTML} {
		t.Run(format, func(t *testing.T) {
			r, err := reporting.New(format, "stdout", testToolVersion, zaptest.NewLogger(t))
			require.NoError(t, err)
			assert.NotNil(t, r)

			r, err = reporting.New(format, "", testToolVersion, nil)
			require.NoError(t, err)
			assert.NotNil(t, r)
		})
	}
}

func TestNew_File(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "output.sarif")

	r, err := reporting.New(reporting.FormatSARIF, tmpFile, testToolVersion, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = os.Stat(tmpFile)
	assert.NoError(t, err, "Output file should have been created")

	require.NoError(t, r.Write(sampleReport()))
	require.NoError(t, r.Close())

	info, err := os.Stat(tmpFile)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestNew_UnsupportedFormat(t *testing.T) {
	r, err := reporting.New("invalid-format", "stdout", testToolVersion, nil)
	assert.Error(t, err)
	assert.Nil(t, r)
	assert.Contains(t, err.Error(), "unsupported output format: invalid-format")

	tmpFile := filepath.Join(t.TempDir(), "output.txt")
	r, err = reporting.New("invalid-format", tmpFile, testToolVersion, nil)
	assert.Error(t, err)
	assert.Nil(t, r)

	info, err := os.Stat(tmpFile)
	require.NoError(t, err, "File should still exist after failure")
	assert.Equal(t, int64(0), info.Size())
}

func TestNew_FileCreationFailure(t *testing.T) {
	// A directory cannot be opened as an output file.
	r, err := reporting.New(reporting.FormatSARIF, t.TempDir(), testToolVersion, nil)
	assert.Error(t, err)
	assert.Nil(t, r)
	assert.Contains(t, err.Error(), "failed to create output file")
}

func TestWriteAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	t.Run("writes every format", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "reports")
		formats := []string{reporting.FormatSARIF, reporting.FormatJSON, reporting.FormatHTML}

		paths, err := reporting.WriteAll(context.Background(), sampleReport(), dir, formats, testToolVersion, zaptest.NewLogger(t))

		require.NoError(t, err)
		require.Len(t, paths, 3)
		assert.Equal(t, filepath.Join(dir, "aim-report.sarif"), paths[0])
		assert.Equal(t, filepath.Join(dir, "aim-report.json"), paths[1])
		assert.Equal(t, filepath.Join(dir, "aim-report.html"), paths[2])
		for _, p := range paths {
			info, err := os.Stat(p)
			require.NoError(t, err)
			assert.Positive(t, info.Size(), p)
		}
	})

	t.Run("rejects unknown formats before writing", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")

		_, err := reporting.WriteAll(context.Background(), sampleReport(), dir, []string{"json", "pdf"}, testToolVersion, nil)

		require.Error(t, err)
		_, statErr := os.Stat(dir)
		assert.True(t, os.IsNotExist(statErr), "no directory should be created")
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := reporting.WriteAll(ctx, sampleReport(), t.TempDir(), []string{"json"}, testToolVersion, nil)

		assert.ErrorIs(t, err, context.Canceled)
	})
}
