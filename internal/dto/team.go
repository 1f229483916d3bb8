package dto

import (
	"time"

	"github.com/teamtask/teamtask-api/internal/models"
)

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	ManagerID uint64    `json:"manager_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TeamMembersDTO groups the members of one team
type TeamMembersDTO struct {
	TeamID   uint64    `json:"team_id"`
	TeamName string    `json:"team_name"`
	Members  []UserDTO `json:"members"`
}

func ToTeamDTO(team models.Team) TeamDTO {
	return TeamDTO{
		ID:        team.ID,
		Name:      team.Name,
		ManagerID: team.ManagerID,
		CreatedAt: team.CreatedAt,
	}
}

// ToTeamMembersDTOs groups members by team for the manager view
func ToTeamMembersDTOs(teams []models.Team) []TeamMembersDTO {
	out := make([]TeamMembersDTO, len(teams))
	for i, team := range teams {
		members := make([]UserDTO, len(team.Members))
		for j, m := range team.Members {
			members[j] = ToUserDTO(m.User)
		}
		out[i] = TeamMembersDTO{
			TeamID:   team.ID,
			TeamName: team.Name,
			Members:  members,
		}
	}
	return out
}
