package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/teamtask/teamtask-api/internal/dto"
	apierrors "github.com/teamtask/teamtask-api/internal/errors"
	"github.com/teamtask/teamtask-api/internal/models"
)

type TeamHandlerTestSuite struct {
	suite.Suite
	env *handlerTestEnv

	manager *models.User
	other   *models.User
	admin   *models.User
	member  *models.User
}

func (s *TeamHandlerTestSuite) SetupTest() {
	s.env = setupHandlerTestEnv(s.T())
	s.manager = s.env.createUser(s.T(), "manager@example.com", "+15550000001", models.RoleUser, models.RoleManager)
	s.other = s.env.createUser(s.T(), "other@example.com", "+15550000002", models.RoleManager)
	s.admin = s.env.createUser(s.T(), "admin@example.com", "+15550000003", models.RoleAdmin)
	s.member = s.env.createUser(s.T(), "member@example.com", "+15550000004")
}

func (s *TeamHandlerTestSuite) createTeam(name string, manager *models.User) dto.TeamDTO {
	w := s.env.do(s.T(), http.MethodPost, "/api/users/teams", map[string]string{"name": name}, s.env.tokenFor(s.T(), manager))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return decode[dto.TeamDTO](s.T(), w)
}

func (s *TeamHandlerTestSuite) addMember(teamID, userID uint64, actor *models.User) int {
	w := s.env.do(s.T(), http.MethodPost, "/api/users/teams/members",
		map[string]uint64{"team_id": teamID, "user_id": userID}, s.env.tokenFor(s.T(), actor))
	return w.Code
}

func (s *TeamHandlerTestSuite) TestCreateTeam_Success() {
	team := s.createTeam("Platform", s.manager)

	s.Equal("Platform", team.Name)
	s.Equal(s.manager.ID, team.ManagerID)
}

func (s *TeamHandlerTestSuite) TestCreateTeam_RequiresManager() {
	w := s.env.do(s.T(), http.MethodPost, "/api/users/teams", map[string]string{"name": "Nope"}, s.env.tokenFor(s.T(), s.member))

	s.Equal(http.StatusForbidden, w.Code)
	s.Equal(apierrors.ErrCodeForbidden, errorCode(s.T(), w))
}

func (s *TeamHandlerTestSuite) TestCreateTeam_DuplicateName() {
	s.createTeam("Platform", s.manager)

	w := s.env.do(s.T(), http.MethodPost, "/api/users/teams", map[string]string{"name": "Platform"}, s.env.tokenFor(s.T(), s.other))
	s.Equal(http.StatusConflict, w.Code)
}

func (s *TeamHandlerTestSuite) TestAddMember() {
	team := s.createTeam("Platform", s.manager)

	s.Equal(http.StatusCreated, s.addMember(team.ID, s.member.ID, s.manager))
	// Already in a team
	s.Equal(http.StatusConflict, s.addMember(team.ID, s.member.ID, s.manager))
}

func (s *TeamHandlerTestSuite) TestAddMember_NotTeamManager() {
	team := s.createTeam("Platform", s.manager)

	s.Equal(http.StatusForbidden, s.addMember(team.ID, s.member.ID, s.other))
	s.Equal(http.StatusCreated, s.addMember(team.ID, s.member.ID, s.admin))
}

func (s *TeamHandlerTestSuite) TestAddMember_NotFound() {
	team := s.createTeam("Platform", s.manager)

	s.Equal(http.StatusNotFound, s.addMember(9999, s.member.ID, s.manager))
	s.Equal(http.StatusNotFound, s.addMember(team.ID, 9999, s.manager))
}

func (s *TeamHandlerTestSuite) TestListMembers() {
	team := s.createTeam("Platform", s.manager)
	s.Require().Equal(http.StatusCreated, s.addMember(team.ID, s.member.ID, s.manager))

	w := s.env.do(s.T(), http.MethodGet, "/api/users/teams/members", nil, s.env.tokenFor(s.T(), s.manager))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	response := decode[struct {
		Teams []dto.TeamMembersDTO `json:"teams"`
	}](s.T(), w)
	s.Require().Len(response.Teams, 1)
	s.Equal("Platform", response.Teams[0].TeamName)

	var ids []uint64
	for _, m := range response.Teams[0].Members {
		ids = append(ids, m.ID)
	}
	s.Equal([]uint64{s.manager.ID, s.member.ID}, ids)
}

func (s *TeamHandlerTestSuite) TestListMembers_NoTeams() {
	w := s.env.do(s.T(), http.MethodGet, "/api/users/teams/members", nil, s.env.tokenFor(s.T(), s.other))

	s.Equal(http.StatusNotFound, w.Code)
}

func TestTeamHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(TeamHandlerTestSuite))
}
