package postgres

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/workplace-hygiene/noiseexposure/pkg/exposure"
)

// Investigation is a stored snapshot. The full snapshot is kept as a JSONB
// document next to the columns used for listing.
type Investigation struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;not null;default:''"`
	Snapshot  string    `gorm:"column:snapshot;type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

// TableName specifies the table name for Investigation
func (Investigation) TableName() string {
	return "investigations"
}

// StatisticsRun is one computation of an investigation
type StatisticsRun struct {
	ID              string           `gorm:"primaryKey;column:id;type:uuid"`
	InvestigationID string           `gorm:"column:investigation_id;not null;index:idx_statistics_runs_investigation"`
	ComputedAt      time.Time        `gorm:"column:computed_at;not null;index:idx_statistics_runs_investigation"`
	Groups          []GroupStatistic `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for StatisticsRun
func (StatisticsRun) TableName() string {
	return "statistics_runs"
}

// GroupStatistic is the result of one group within a run
type GroupStatistic struct {
	RunID      string  `gorm:"primaryKey;column:run_id;type:uuid"`
	GroupID    string  `gorm:"primaryKey;column:group_id"`
	Position   int     `gorm:"column:position;not null"`
	LEX8h      float64 `gorm:"column:lex_8h;not null"`
	LEX8hUpper float64 `gorm:"column:lex_8h_upper;not null"`
	Verdict    string  `gorm:"column:verdict;not null"`
	Document   string  `gorm:"column:document;type:jsonb;not null"`
}

// TableName specifies the table name for GroupStatistic
func (GroupStatistic) TableName() string {
	return "group_statistics"
}

func toInvestigationModel(inv *exposure.Investigation, now time.Time) (Investigation, error) {
	snapshot, err := json.Marshal(inv)
	if err != nil {
		return Investigation{}, fmt.Errorf("encoding investigation %s: %w", inv.ID, err)
	}
	return Investigation{
		ID:        inv.ID,
		Name:      inv.Name,
		Snapshot:  string(snapshot),
		UpdatedAt: now.UTC(),
	}, nil
}

func fromInvestigationModel(m Investigation) (*exposure.Investigation, error) {
	var inv exposure.Investigation
	if err := json.Unmarshal([]byte(m.Snapshot), &inv); err != nil {
		return nil, fmt.Errorf("decoding investigation %s: %w", m.ID, err)
	}
	inv.ID = m.ID
	return &inv, nil
}

func toRunModel(runID, investigationID string, stats []exposure.Statistics, now time.Time) (StatisticsRun, error) {
	run := StatisticsRun{
		ID:              runID,
		InvestigationID: investigationID,
		ComputedAt:      now.UTC(),
		Groups:          make([]GroupStatistic, 0, len(stats)),
	}
	for i, st := range stats {
		doc, err := json.Marshal(st)
		if err != nil {
			return StatisticsRun{}, fmt.Errorf("encoding statistics of group %s: %w", st.GroupID, err)
		}
		run.Groups = append(run.Groups, GroupStatistic{
			RunID:      runID,
			GroupID:    st.GroupID,
			Position:   i,
			LEX8h:      st.LEX8h,
			LEX8hUpper: st.LEX8hUpper,
			Verdict:    string(st.Verdict),
			Document:   string(doc),
		})
	}
	return run, nil
}

func fromGroupStatistics(rows []GroupStatistic) ([]exposure.Statistics, error) {
	stats := make([]exposure.Statistics, 0, len(rows))
	for _, row := range rows {
		var st exposure.Statistics
		if err := json.Unmarshal([]byte(row.Document), &st); err != nil {
			return nil, fmt.Errorf("decoding statistics of group %s: %w", row.GroupID, err)
		}
		stats = append(stats, st)
	}
	return stats, nil
}
