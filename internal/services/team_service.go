package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/teamtask/teamtask-api/internal/models"
	"github.com/teamtask/teamtask-api/internal/policy"
	"github.com/teamtask/teamtask-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrTeamNotFound    = errors.New("team not found")
	ErrTeamNameTaken   = errors.New("a team with this name already exists")
	ErrInvalidTeamName = errors.New("team name cannot be empty")
	ErrAlreadyInTeam   = errors.New("user is already in a team")
	ErrNotTeamManager  = errors.New("you can only add members to your own team")
	ErrNoTeamsManaged  = errors.New("no teams found for this manager")
)

// TeamService provides business logic for team operations.
type TeamService struct {
	teamRepo repository.TeamRepository
	userRepo repository.UserRepository
}

// NewTeamService creates a new TeamService.
func NewTeamService(teamRepo repository.TeamRepository, userRepo repository.UserRepository) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		userRepo: userRepo,
	}
}

// CreateTeam creates a team managed by the actor.
func (s *TeamService) CreateTeam(ctx context.Context, name string, managerID uint64) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidTeamName
	}

	if _, err := s.teamRepo.FindByName(ctx, name); err == nil {
		return nil, ErrTeamNameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check team name: %w", err)
	}

	team := &models.Team{Name: name, ManagerID: managerID}
	if err := s.teamRepo.CreateWithManager(ctx, team); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	return team, nil
}

// AddMember puts a user into a team. Only the team's manager or an admin may do so.
func (s *TeamService) AddMember(ctx context.Context, teamID, userID uint64, actor policy.Actor) error {
	team, err := s.teamRepo.FindByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to find team: %w", err)
	}

	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	if team.ManagerID != actor.ID && !policy.HasAnyRole(actor.Roles, models.RoleAdmin) {
		return ErrNotTeamManager
	}

	if _, err := s.teamRepo.FindMembershipByUser(ctx, userID); err == nil {
		return ErrAlreadyInTeam
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check membership: %w", err)
	}

	if err := s.teamRepo.AddMember(ctx, &models.TeamMember{TeamID: teamID, UserID: userID}); err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}

	return nil
}

// ListManagedTeams returns the teams the manager runs with their members.
func (s *TeamService) ListManagedTeams(ctx context.Context, managerID uint64) ([]models.Team, error) {
	teams, err := s.teamRepo.ListManagedWithMembers(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	if len(teams) == 0 {
		return nil, ErrNoTeamsManaged
	}
	return teams, nil
}
