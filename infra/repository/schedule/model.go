package schedule

import (
	"time"

	"github.com/amirasaad/payconsole/pkg/domain/report"
)

// Schedule is a row of report_schedules.
type Schedule struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	Name       string `gorm:"not null"`
	Type       string `gorm:"type:varchar(32);not null"`
	Format     string `gorm:"type:varchar(8);not null"`
	Frequency  string `gorm:"type:varchar(16);not null"`
	MerchantID string
	Enabled    bool
	AnchorDay  int
	NextRunAt  time.Time `gorm:"index"`
	LastRunAt  *time.Time
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Schedule) TableName() string {
	return "report_schedules"
}

func fromDomain(s report.Schedule) Schedule {
	return Schedule{
		ID:         s.ID,
		Name:       s.Name,
		Type:       string(s.Type),
		Format:     string(s.Format),
		Frequency:  string(s.Frequency),
		MerchantID: s.MerchantID,
		Enabled:    s.Enabled,
		AnchorDay:  s.AnchorDay,
		NextRunAt:  s.NextRunAt,
		LastRunAt:  s.LastRunAt,
		LastError:  s.LastError,
		CreatedAt:  s.CreatedAt,
	}
}

func (m Schedule) toDomain() report.Schedule {
	return report.Schedule{
		ID:         m.ID,
		Name:       m.Name,
		Type:       report.Type(m.Type),
		Format:     report.Format(m.Format),
		Frequency:  report.Frequency(m.Frequency),
		MerchantID: m.MerchantID,
		Enabled:    m.Enabled,
		AnchorDay:  m.AnchorDay,
		NextRunAt:  m.NextRunAt,
		LastRunAt:  m.LastRunAt,
		LastError:  m.LastError,
		CreatedAt:  m.CreatedAt,
	}
}
