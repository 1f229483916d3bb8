package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/teamtask/teamtask-api/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrCreateTeam is returned when creating a team fails inside the creation transaction.
	ErrCreateTeam = errors.New("team repository: create team failed")
	// ErrCreateTeamMember is returned when adding the manager as member fails inside the creation transaction.
	ErrCreateTeamMember = errors.New("team repository: create team member failed")
)

// GormTeamRepository is a GORM implementation of TeamRepository
type GormTeamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &GormTeamRepository{db: db}
}

// CreateWithManager creates a team and the manager's membership atomically.
// A manager who already belongs to a team keeps that membership.
func (r *GormTeamRepository) CreateWithManager(ctx context.Context, team *models.Team) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateTeam, err)
		}

		var count int64
		if err := tx.Model(&models.TeamMember{}).Where("user_id = ?", team.ManagerID).Count(&count).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateTeamMember, err)
		}
		if count > 0 {
			return nil
		}

		member := models.TeamMember{TeamID: team.ID, UserID: team.ManagerID}
		if err := tx.Create(&member).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateTeamMember, err)
		}
		return nil
	})
}

// FindByID finds a team by ID
func (r *GormTeamRepository) FindByID(ctx context.Context, id uint64) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).First(&team, id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// FindByName finds a team by name
func (r *GormTeamRepository) FindByName(ctx context.Context, name string) (*models.Team, error) {
	var team models.Team
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&team).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// AddMember adds a member to a team
func (r *GormTeamRepository) AddMember(ctx context.Context, member *models.TeamMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

// FindMembershipByUser finds the team membership of a user
func (r *GormTeamRepository) FindMembershipByUser(ctx context.Context, userID uint64) (*models.TeamMember, error) {
	var member models.TeamMember
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListManagedWithMembers lists the teams managed by a user with their members
func (r *GormTeamRepository) ListManagedWithMembers(ctx context.Context, managerID uint64) ([]models.Team, error) {
	var teams []models.Team
	err := r.db.WithContext(ctx).
		Preload("Members", func(db *gorm.DB) *gorm.DB {
			return db.Order("team_members.joined_at ASC, team_members.user_id ASC")
		}).
		Preload("Members.User").
		Where("manager_id = ?", managerID).
		Order("teams.name ASC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}
