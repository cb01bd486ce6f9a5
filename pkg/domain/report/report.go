// Package report covers generated reports and the console's local report
// schedules.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/amirasaad/payconsole/pkg/domain"
)

// Type of report the backend can generate.
type Type string

const (
	TypeTransactions Type = "TRANSACTIONS"
	TypeSettlements  Type = "SETTLEMENTS"
	TypeFees         Type = "FEES"
	TypeMerchants    Type = "MERCHANTS"
)

func (t Type) Valid() bool {
	switch t {
	case TypeTransactions, TypeSettlements, TypeFees, TypeMerchants:
		return true
	}
	return false
}

// Format of the generated file.
type Format string

const (
	FormatCSV  Format = "CSV"
	FormatXLSX Format = "XLSX"
	FormatPDF  Format = "PDF"
)

func (f Format) Valid() bool {
	switch f {
	case FormatCSV, FormatXLSX, FormatPDF:
		return true
	}
	return false
}

// Status of a generation job.
type Status string

const (
	StatusQueued     Status = "QUEUED"
	StatusGenerating Status = "GENERATING"
	StatusReady      Status = "READY"
	StatusFailed     Status = "FAILED"
)

var (
	ErrInvalidRange     = fmt.Errorf("%w: report range end must be after start", domain.ErrValidation)
	ErrInvalidFrequency = fmt.Errorf("%w: unknown schedule frequency", domain.ErrValidation)
	ErrNotReady         = fmt.Errorf("%w: report is not ready for download", domain.ErrConflict)
)

// Report is a generated (or generating) report.
type Report struct {
	ID          string     `json:"id"`
	Type        Type       `json:"type"`
	Format      Format     `json:"format"`
	Status      Status     `json:"status"`
	From        time.Time  `json:"from"`
	To          time.Time  `json:"to"`
	MerchantID  string     `json:"merchantId,omitempty"`
	FileName    string     `json:"fileName,omitempty"`
	SizeBytes   int64      `json:"sizeBytes,omitempty"`
	RequestedBy string     `json:"requestedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Ready reports whether the file can be downloaded.
func (r Report) Ready() bool { return r.Status == StatusReady }

// GenerateInput is the body of POST /admin/v1/reports.
type GenerateInput struct {
	Type       Type      `json:"type" validate:"required,oneof=TRANSACTIONS SETTLEMENTS FEES MERCHANTS"`
	Format     Format    `json:"format" validate:"required,oneof=CSV XLSX PDF"`
	From       time.Time `json:"from" validate:"required"`
	To         time.Time `json:"to" validate:"required"`
	MerchantID string    `json:"merchantId,omitempty"`
}

func (in GenerateInput) Validate() error {
	if !in.To.After(in.From) {
		return ErrInvalidRange
	}
	return checkKind(in.Type, in.Format)
}

func checkKind(t Type, f Format) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown report type %q", domain.ErrValidation, t)
	}
	if !f.Valid() {
		return fmt.Errorf("%w: unknown report format %q", domain.ErrValidation, f)
	}
	return nil
}

// File is a downloaded report body.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Frequency of a schedule.
type Frequency string

const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
)

// Next returns the run after t. Monthly runs keep t's day of month,
// clamped to the length of the next month.
func (f Frequency) Next(t time.Time) (time.Time, error) {
	return f.NextOn(t, t.Day())
}

// NextOn is Next for a schedule anchored on anchorDay of the month, so that
// a schedule starting on the 31st runs on the last day of shorter months and
// returns to the 31st afterwards. anchorDay only affects monthly runs; zero
// means t's own day.
func (f Frequency) NextOn(t time.Time, anchorDay int) (time.Time, error) {
	switch f {
	case Daily:
		return t.AddDate(0, 0, 1), nil
	case Weekly:
		return t.AddDate(0, 0, 7), nil
	case Monthly:
		if anchorDay <= 0 {
			anchorDay = t.Day()
		}
		return addMonths(t, 1, anchorDay), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidFrequency, f)
}

// Window is the reporting period covered by a run at t.
func (f Frequency) Window(t time.Time) (from, to time.Time) {
	switch f {
	case Weekly:
		return t.AddDate(0, 0, -7), t
	case Monthly:
		return addMonths(t, -1, t.Day()), t
	default:
		return t.AddDate(0, 0, -1), t
	}
}

// addMonths moves t by n months onto day, or onto the last day of the
// target month when it is shorter. The clock time is kept.
func addMonths(t time.Time, n, day int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	first = first.AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	return first.AddDate(0, 0, min(day, last)-1)
}

// Schedule generates a report periodically. AnchorDay is the day of month
// monthly runs aim for.
type Schedule struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Type       Type       `json:"type"`
	Format     Format     `json:"format"`
	Frequency  Frequency  `json:"frequency"`
	MerchantID string     `json:"merchantId,omitempty"`
	Enabled    bool       `json:"enabled"`
	AnchorDay  int        `json:"anchorDay,omitempty"`
	NextRunAt  time.Time  `json:"nextRunAt"`
	LastRunAt  *time.Time `json:"lastRunAt,omitempty"`
	LastError  string     `json:"lastError,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Due reports whether s should run at now.
func (s Schedule) Due(now time.Time) bool {
	return s.Enabled && !s.NextRunAt.After(now)
}

// ScheduleInput creates a schedule.
type ScheduleInput struct {
	Name       string    `json:"name" validate:"required"`
	Type       Type      `json:"type" validate:"required,oneof=TRANSACTIONS SETTLEMENTS FEES MERCHANTS"`
	Format     Format    `json:"format" validate:"required,oneof=CSV XLSX PDF"`
	Frequency  Frequency `json:"frequency" validate:"required,oneof=DAILY WEEKLY MONTHLY"`
	MerchantID string    `json:"merchantId,omitempty"`
	StartAt    time.Time `json:"startAt"`
}

func (in ScheduleInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: schedule name is required", domain.ErrValidation)
	}
	if _, err := in.Frequency.Next(time.Time{}); err != nil {
		return err
	}
	return checkKind(in.Type, in.Format)
}
