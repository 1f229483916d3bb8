package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teamtask/teamtask-api/internal/models"
)

func TestTeamService(t *testing.T) {
	env := setupServiceTestEnv(t)
	service := NewTeamService(env.teamRepo, env.userRepo)
	ctx := context.Background()

	manager := env.createUser(t, "lead@example.com", "+15550000100", models.ChannelEmail, models.RoleManager)
	otherManager := env.createUser(t, "lead2@example.com", "+15550000101", models.ChannelEmail, models.RoleManager)
	admin := env.createUser(t, "root@example.com", "+15550000102", models.ChannelEmail, models.RoleAdmin)
	dev := env.createUser(t, "dev@example.com", "+15550000103", models.ChannelEmail)
	qa := env.createUser(t, "qa@example.com", "+15550000104", models.ChannelEmail)

	_, err := service.ListManagedTeams(ctx, manager.ID)
	assert.ErrorIs(t, err, ErrNoTeamsManaged)

	team, err := service.CreateTeam(ctx, "  Core  ", manager.ID)
	require.NoError(t, err)
	assert.Equal(t, "Core", team.Name)

	_, err = service.CreateTeam(ctx, "Core", otherManager.ID)
	assert.ErrorIs(t, err, ErrTeamNameTaken)
	_, err = service.CreateTeam(ctx, " ", otherManager.ID)
	assert.ErrorIs(t, err, ErrInvalidTeamName)

	require.NoError(t, service.AddMember(ctx, team.ID, dev.ID, actorOf(manager)))
	assert.ErrorIs(t, service.AddMember(ctx, team.ID, dev.ID, actorOf(manager)), ErrAlreadyInTeam)
	assert.ErrorIs(t, service.AddMember(ctx, team.ID, qa.ID, actorOf(otherManager)), ErrNotTeamManager)
	require.NoError(t, service.AddMember(ctx, team.ID, qa.ID, actorOf(admin)))

	assert.ErrorIs(t, service.AddMember(ctx, 999, qa.ID, actorOf(admin)), ErrTeamNotFound)
	assert.ErrorIs(t, service.AddMember(ctx, team.ID, 999, actorOf(admin)), ErrUserNotFound)

	teams, err := service.ListManagedTeams(ctx, manager.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Len(t, teams[0].Members, 3)
}
