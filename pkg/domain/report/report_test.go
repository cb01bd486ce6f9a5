package report_test

import (
	"testing"
	"time"

	"github.com/amirasaad/payconsole/pkg/domain"
	"github.com/amirasaad/payconsole/pkg/domain/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequencyNext(t *testing.T) {
	base := time.Date(2025, 1, 31, 6, 0, 0, 0, time.UTC)

	next, err := report.Daily.Next(base)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 6, 0, 0, 0, time.UTC), next)

	next, err = report.Weekly.Next(base)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 7, 6, 0, 0, 0, time.UTC), next)

	next, err = report.Monthly.Next(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), next)

	_, err = report.Frequency("HOURLY").Next(base)
	assert.ErrorIs(t, err, report.ErrInvalidFrequency)
}

func TestFrequencyNext_MonthEnd(t *testing.T) {
	jan31 := time.Date(2025, 1, 31, 6, 0, 0, 0, time.UTC)

	feb, err := report.Monthly.Next(jan31)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 28, 6, 0, 0, 0, time.UTC), feb)

	mar, err := report.Monthly.NextOn(feb, 31)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 31, 6, 0, 0, 0, time.UTC), mar)

	apr, err := report.Monthly.NextOn(mar, 31)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 30, 6, 0, 0, 0, time.UTC), apr)

	leap, err := report.Monthly.NextOn(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 31)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), leap)

	dec, err := report.Monthly.NextOn(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), dec)
}

func TestFrequencyWindow_MonthEnd(t *testing.T) {
	mar31 := time.Date(2025, 3, 31, 6, 0, 0, 0, time.UTC)
	from, to := report.Monthly.Window(mar31)
	assert.Equal(t, time.Date(2025, 2, 28, 6, 0, 0, 0, time.UTC), from)
	assert.Equal(t, mar31, to)

	from, _ = report.Weekly.Window(mar31)
	assert.Equal(t, time.Date(2025, 3, 24, 6, 0, 0, 0, time.UTC), from)
}

func TestScheduleDue(t *testing.T) {
	now := time.Now()
	s := report.Schedule{Enabled: true, NextRunAt: now.Add(-time.Minute)}
	assert.True(t, s.Due(now))
	s.NextRunAt = now
	assert.True(t, s.Due(now))
	s.NextRunAt = now.Add(time.Minute)
	assert.False(t, s.Due(now))
	s = report.Schedule{Enabled: false, NextRunAt: now.Add(-time.Hour)}
	assert.False(t, s.Due(now))
}

func TestGenerateInputValidate(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ok := report.GenerateInput{Type: report.TypeFees, Format: report.FormatCSV, From: from, To: from.Add(time.Hour)}
	assert.NoError(t, ok.Validate())

	bad := ok
	bad.To = from
	assert.ErrorIs(t, bad.Validate(), report.ErrInvalidRange)

	bad = ok
	bad.Format = "DOCX"
	assert.ErrorIs(t, bad.Validate(), domain.ErrValidation)
}

func TestScheduleInputValidate(t *testing.T) {
	in := report.ScheduleInput{Name: "Daily fees", Type: report.TypeFees, Format: report.FormatCSV, Frequency: report.Daily}
	require.NoError(t, in.Validate())

	noName := in
	noName.Name = " "
	assert.ErrorIs(t, noName.Validate(), domain.ErrValidation)

	hourly := in
	hourly.Frequency = "HOURLY"
	assert.ErrorIs(t, hourly.Validate(), report.ErrInvalidFrequency)
}
