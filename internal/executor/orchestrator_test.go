package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/screencheck/internal/fileutil"
	"github.com/harrison/screencheck/internal/models"
)

// writeScreenshot writes content to dir/name, creating dir as needed
func writeScreenshot(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestOrchestrator_SingleFile(t *testing.T) {
	dir := t.TempDir()
	img := pngImage(t, 1)
	path := writeScreenshot(t, dir, "Pidgey - Lvl 20 - Cp 500 - Hp 80.png", img)

	recognizer := NewFakeRecognizer()
	recognizer.SetResult(img, &models.RecognitionResult{
		Name: models.Ptr("Pidgey"), Level: models.Ptr(20.0), CombatPower: models.Ptr(500), HitPoints: models.Ptr(80),
	})
	logger := &FakeLogger{}

	orch := NewOrchestrator(NewTestRunner(recognizer, false), logger)
	result, err := orch.Run(context.Background(), models.RunConfiguration{TargetPath: path})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, models.StatusPassed, result.Status)
	assert.Equal(t, 1, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, []string{path}, logger.started)
	assert.Len(t, logger.results, 1)
	require.NotNil(t, logger.summary)
	assert.Equal(t, result.Total, logger.summary.Total)
}

func TestOrchestrator_DirectoryLevelFallback(t *testing.T) {
	tests := []struct {
		name       string
		recognized float64
		wantPass   bool
	}{
		{name: "matching directory level", recognized: 15, wantPass: true},
		{name: "differing directory level", recognized: 16, wantPass: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			img := pngImage(t, 4)
			writeScreenshot(t, filepath.Join(root, "Foo - Lvl 15"), "Pidgey - Cp 500 - Hp 80.png", img)

			recognizer := NewFakeRecognizer()
			recognizer.SetResult(img, &models.RecognitionResult{
				Name: models.Ptr("Pidgey"), Level: models.Ptr(tt.recognized), CombatPower: models.Ptr(500), HitPoints: models.Ptr(80),
			})

			orch := NewOrchestrator(NewTestRunner(recognizer, false), nil)
			result, err := orch.Run(context.Background(), models.RunConfiguration{TargetPath: root, DefaultPlayerLevel: models.Ptr(30)})

			require.NoError(t, err)
			require.Len(t, result.Outcomes, 1)
			assert.Equal(t, tt.wantPass, result.Success)
			assert.Equal(t, models.LevelFromDirectory, result.Outcomes[0].Truth.LevelSource)
		})
	}
}

func TestOrchestrator_UnknownLevelNeverFails(t *testing.T) {
	root := t.TempDir()
	img := pngImage(t, 2)
	writeScreenshot(t, filepath.Join(root, "Foo - Lvl 15"), "Pidgey - Lvl X - Cp 500 - Hp 80.png", img)

	recognizer := NewFakeRecognizer()
	recognizer.SetResult(img, &models.RecognitionResult{
		Name: models.Ptr("Pidgey"), Level: models.Ptr(99.0), CombatPower: models.Ptr(500), HitPoints: models.Ptr(80),
	})

	orch := NewOrchestrator(NewTestRunner(recognizer, false), nil)
	result, err := orch.Run(context.Background(), models.RunConfiguration{TargetPath: root})

	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestOrchestrator_EmptyDirectory(t *testing.T) {
	root := t.TempDir()
	writeScreenshot(t, root, "notes.txt", []byte("not a screenshot"))

	recognizer := NewFakeRecognizer()
	orch := NewOrchestrator(NewTestRunner(recognizer, false), nil)
	result, err := orch.Run(context.Background(), models.RunConfiguration{TargetPath: root})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.Empty())
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, recognizer.Calls())
}

func TestOrchestrator_MissingTarget(t *testing.T) {
	for _, target := range []string{"", filepath.Join(t.TempDir(), "missing")} {
		recognizer := NewFakeRecognizer()
		logger := &FakeLogger{}
		orch := NewOrchestrator(NewTestRunner(recognizer, false), logger)

		result, err := orch.Run(context.Background(), models.RunConfiguration{TargetPath: target})

		require.Error(t, err)
		assert.True(t, IsConfigError(err))
		assert.ErrorIs(t, err, ErrTargetNotFound)
		assert.Equal(t, models.StatusAborted, result.Status)
		assert.False(t, result.Success)
		assert.Equal(t, 0, recognizer.Calls())
		assert.Nil(t, logger.summary)
	}
}

// batch writes ten screenshots, the fourth of which makes the recognizer fail
func batch(t *testing.T) (string, *FakeRecognizer) {
	t.Helper()

	root := t.TempDir()
	recognizer := NewFakeRecognizer()
	for i := 0; i < 10; i++ {
		img := pngImage(t, i+1)
		cp := 100 + i
		writeScreenshot(t, root, fmt.Sprintf("Rattata - Lvl 10 - Cp %d - Hp 30.png", cp), img)
		if i == 3 {
			recognizer.SetError(img, errors.New("no pokemon found"))
			continue
		}
		recognizer.SetResult(img, &models.RecognitionResult{
			Name: models.Ptr("Rattata"), Level: models.Ptr(10.0), CombatPower: models.Ptr(cp), HitPoints: models.Ptr(30),
		})
	}
	return root, recognizer
}

func TestOrchestrator_FailureDoesNotStopBatch(t *testing.T) {
	for _, parallelism := range []int{1, 4} {
		t.Run(fmt.Sprintf("parallelism %d", parallelism), func(t *testing.T) {
			root, recognizer := batch(t)
			logger := &FakeLogger{}
			orch := NewOrchestrator(NewTestRunner(recognizer, false), logger)

			result, err := orch.Run(context.Background(), models.RunConfiguration{TargetPath: root, Parallelism: parallelism})

			require.NoError(t, err)
			assert.Equal(t, 10, recognizer.Calls())
			assert.Equal(t, 10, result.Total)
			assert.Equal(t, 9, result.Passed)
			assert.Equal(t, 1, result.Failed)
			assert.False(t, result.Success)
			assert.Equal(t, models.StatusFailed, result.Status)
			assert.Len(t, logger.results, 10)

			failed := result.FailedOutcomes()
			require.Len(t, failed, 1)
			assert.Equal(t, "Rattata - Lvl 10 - Cp 103 - Hp 30.png", filepath.Base(failed[0].File))
			assert.Equal(t, "no pokemon found", failed[0].FailureReason)
		})
	}
}

func TestOrchestrator_ParallelKeepsEnumerationOrder(t *testing.T) {
	root, recognizer := batch(t)
	orch := NewOrchestrator(NewTestRunner(recognizer, false), nil)

	sequential, err := orch.Run(context.Background(), models.RunConfiguration{TargetPath: root})
	require.NoError(t, err)
	parallel, err := orch.Run(context.Background(), models.RunConfiguration{TargetPath: root, Parallelism: 3})
	require.NoError(t, err)

	opts := cmpopts.IgnoreFields(models.TestOutcome{}, "Duration")
	if diff := cmp.Diff(sequential.Outcomes, parallel.Outcomes, opts); diff != "" {
		t.Errorf("parallel outcomes differ (-sequential +parallel):\n%s", diff)
	}
}

func TestOrchestrator_Idempotent(t *testing.T) {
	root, recognizer := batch(t)
	orch := NewOrchestrator(NewTestRunner(recognizer, false), nil)
	cfg := models.RunConfiguration{TargetPath: root}

	first, err := orch.Run(context.Background(), cfg)
	require.NoError(t, err)
	second, err := orch.Run(context.Background(), cfg)
	require.NoError(t, err)

	opts := cmpopts.IgnoreFields(models.TestOutcome{}, "Duration")
	if diff := cmp.Diff(first.Outcomes, second.Outcomes, opts); diff != "" {
		t.Errorf("outcomes differ between runs (-first +second):\n%s", diff)
	}
	assert.Equal(t, first.Success, second.Success)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestOrchestrator_InvalidScreenshots(t *testing.T) {
	root := t.TempDir()
	writeScreenshot(t, root, "holiday photo.png", pngImage(t, 1))
	writeScreenshot(t, root, "Pidgey - Lvl 20 - Cp 500 - Hp 80.png", []byte("truncated"))

	recognizer := NewFakeRecognizer()
	orch := NewOrchestrator(NewTestRunner(recognizer, false), nil)
	result, err := orch.Run(context.Background(), models.RunConfiguration{TargetPath: root})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed)
	assert.Equal(t, 0, recognizer.Calls())

	reasons := map[string]string{}
	for _, outcome := range result.Outcomes {
		reasons[filepath.Base(outcome.File)] = outcome.FailureReason
	}
	assert.Contains(t, reasons["holiday photo.png"], "unparsable screenshot name")
	assert.Contains(t, reasons["Pidgey - Lvl 20 - Cp 500 - Hp 80.png"], "unable to decode image")
}

func TestOrchestrator_UnreadableDirectoryFailsRun(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	root := t.TempDir()
	img := pngImage(t, 1)
	writeScreenshot(t, root, "Pidgey - Lvl 20 - Cp 500 - Hp 80.png", img)
	locked := filepath.Join(root, "Box - Lvl 12")
	writeScreenshot(t, locked, "Eevee - Cp 300 - Hp 50.png", pngImage(t, 2))
	require.NoError(t, os.Chmod(locked, 0))
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	recognizer := NewFakeRecognizer()
	recognizer.SetResult(img, &models.RecognitionResult{
		Name: models.Ptr("Pidgey"), Level: models.Ptr(20.0), CombatPower: models.Ptr(500), HitPoints: models.Ptr(80),
	})
	logger := &FakeLogger{}

	orch := NewOrchestrator(NewTestRunner(recognizer, false), logger)
	result, err := orch.Run(context.Background(), models.RunConfiguration{TargetPath: root})

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Passed)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, locked, result.Outcomes[1].File)
	assert.Contains(t, result.Outcomes[1].FailureReason, "cannot scan")
	assert.Len(t, logger.results, 2)
}

func TestOrchestrator_UnreadableOutcomes(t *testing.T) {
	logger := &FakeLogger{}
	orch := NewOrchestrator(NewTestRunner(NewFakeRecognizer(), false), logger)

	outcomes := orch.unreadableOutcomes([]*fileutil.ScanError{
		{Path: "/shots/Box - Lvl 12", Err: os.ErrPermission},
	})

	require.Len(t, outcomes, 1)
	assert.Equal(t, "/shots/Box - Lvl 12", outcomes[0].File)
	assert.False(t, outcomes[0].Passed)
	assert.Equal(t, "cannot scan /shots/Box - Lvl 12: permission denied", outcomes[0].FailureReason)
	assert.Len(t, logger.results, 1)

	passed := models.TestOutcome{File: "/shots/Pidgey - Lvl 20 - Cp 500 - Hp 80.png", Passed: true}
	result := aggregateOutcomes(append([]models.TestOutcome{passed}, outcomes...))
	assert.False(t, result.Success)
	assert.Equal(t, models.StatusFailed, result.Status)
}

func TestOrchestrator_SingleFileWithOtherExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeScreenshot(t, dir, "Pidgey - Lvl 20 - Cp 500 - Hp 80.txt", []byte("not an image"))

	recognizer := NewFakeRecognizer()
	orch := NewOrchestrator(NewTestRunner(recognizer, false), nil)
	result, err := orch.Run(context.Background(), models.RunConfiguration{TargetPath: path})

	require.NoError(t, err)
	require.Len(t, result.Outcomes, 1)
	assert.False(t, result.Success)
	assert.Contains(t, result.Outcomes[0].FailureReason, "unable to decode image")
	assert.Equal(t, 0, recognizer.Calls())
}

func TestOrchestrator_Filter(t *testing.T) {
	root := t.TempDir()
	pidgey := pngImage(t, 1)
	writeScreenshot(t, root, "Pidgey - Lvl 20 - Cp 500 - Hp 80.png", pidgey)
	writeScreenshot(t, root, "Rattata - Lvl 20 - Cp 300 - Hp 40.png", pngImage(t, 2))

	recognizer := NewFakeRecognizer()
	recognizer.SetResult(pidgey, &models.RecognitionResult{
		Name: models.Ptr("Pidgey"), Level: models.Ptr(20.0), CombatPower: models.Ptr(500), HitPoints: models.Ptr(80),
	})

	orch := NewOrchestrator(NewTestRunner(recognizer, false), nil)
	result, err := orch.Run(context.Background(), models.RunConfiguration{TargetPath: root, Filter: "^pidgey"})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	assert.True(t, result.Success)
}

func TestNewOrchestrator_NilRunner(t *testing.T) {
	assert.Panics(t, func() { NewOrchestrator(nil, nil) })
}
