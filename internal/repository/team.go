package repository

import (
	"context"
	"time"

	"github.com/example/artifact-scout/internal/domain"
)

// ArchaeologyTeam is a row of the team reference table. The table is owned
// outside this service and only read here.
type ArchaeologyTeam struct {
	ID          uint      `gorm:"primaryKey"`
	TeamName    string    `gorm:"column:team_name;size:255;not null"`
	Location    string    `gorm:"column:location;size:32;not null;index:idx_team_lookup"`
	ObjectType  string    `gorm:"column:object_type;size:32;not null;index:idx_team_lookup"`
	ProjectName *string   `gorm:"column:project_name;size:255"`
	Description *string   `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

// TableName overrides the default table name.
func (ArchaeologyTeam) TableName() string {
	return "archaeology_teams"
}

func (t ArchaeologyTeam) toDomain() *domain.Team {
	return &domain.Team{
		ID:          t.ID,
		TeamName:    t.TeamName,
		Location:    t.Location,
		ObjectType:  t.ObjectType,
		ProjectName: t.ProjectName,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
}

// FindTeam returns the first team, in storage order, whose location and
// object type equal the arguments exactly. It returns nil when none match.
func (r *ArtifactRepository) FindTeam(ctx context.Context, location, objectType string) (*domain.Team, error) {
	var teams []ArchaeologyTeam
	err := r.executeWithRetry(ctx, "repository.find_team", "", func() error {
		teams = teams[:0]
		return r.db.WithContext(ctx).
			Where("location = ? AND object_type = ?", location, objectType).
			Limit(1).
			Find(&teams).Error
	})
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return nil, nil
	}
	return teams[0].toDomain(), nil
}
