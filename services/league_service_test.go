package services

import (
	"context"
	"strings"
	"testing"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLeagueService(env *scoringEnv, tournaments map[int]*models.Tournament) LeagueService {
	svc, _, _ := newLeagueServiceWithFakes(env, tournaments)
	return svc
}

func newLeagueServiceWithFakes(env *scoringEnv, tournaments map[int]*models.Tournament) (LeagueService, *fakeEmailService, *fakeUploader) {
	emails := &fakeEmailService{}
	uploader := newFakeUploader()
	svc := NewLeagueService(
		fakeTransactor{},
		env.leagueRepo,
		&memTournamentRepo{tournaments: tournaments, store: env.store},
		env.predRepo,
		env.bonusPredRepo,
		env.standingRepo,
		env.svc,
		emails,
		uploader,
		NewLeagueLocker(),
		testLogger(),
	)
	return svc, emails, uploader
}

func seedTournament(env *scoringEnv, id int) map[int]*models.Tournament {
	return map[int]*models.Tournament{
		id: {ID: id, Name: "Test Cup", Status: models.TournamentStatusActive},
	}
}

func TestCreateLeague(t *testing.T) {
	ctx := context.Background()

	t.Run("creates league with defaults and the creator seeded", func(t *testing.T) {
		env := newScoringEnv()
		svc := newLeagueService(env, seedTournament(env, 1))

		league, err := svc.CreateLeague(ctx, 10, CreateLeagueInput{TournamentID: 1, Name: "Office League"})
		require.NoError(t, err)
		assert.NotEmpty(t, league.InviteCode)
		require.NotNil(t, league.Settings)
		assert.Equal(t, defaultPointsCorrectScore, league.Settings.PointsCorrectScore)

		isMember, err := env.leagueRepo.IsMember(ctx, nil, league.ID, 10)
		require.NoError(t, err)
		assert.True(t, isMember)

		byUser := env.standingsByUser(t, league.ID)
		require.Len(t, byUser, 1)
		assert.Equal(t, 0, byUser[10].TotalPoints)
		assert.Equal(t, 1, byUser[10].Rank)
	})

	t.Run("requires a name", func(t *testing.T) {
		env := newScoringEnv()
		svc := newLeagueService(env, seedTournament(env, 1))
		_, err := svc.CreateLeague(ctx, 10, CreateLeagueInput{TournamentID: 1, Name: "   "})
		assert.ErrorIs(t, err, ErrLeagueNameRequired)
	})

	t.Run("unknown tournament", func(t *testing.T) {
		env := newScoringEnv()
		svc := newLeagueService(env, seedTournament(env, 1))
		_, err := svc.CreateLeague(ctx, 10, CreateLeagueInput{TournamentID: 99, Name: "League"})
		assert.ErrorIs(t, err, ErrTournamentNotFound)
	})
}

func TestJoinAndLeaveLeague(t *testing.T) {
	ctx := context.Background()

	env := newScoringEnv()
	svc := newLeagueService(env, seedTournament(env, 1))

	league, err := svc.CreateLeague(ctx, 10, CreateLeagueInput{TournamentID: 1, Name: "Office League"})
	require.NoError(t, err)

	joined, err := svc.JoinByInviteCode(ctx, 11, league.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, league.ID, joined.ID)

	byUser := env.standingsByUser(t, league.ID)
	require.Len(t, byUser, 2)
	assert.Equal(t, 0, byUser[11].TotalPoints)

	// Повторное вступление отклоняется.
	_, err = svc.JoinByInviteCode(ctx, 11, league.InviteCode)
	assert.ErrorIs(t, err, ErrLeagueMemberConflict)

	_, err = svc.JoinByInviteCode(ctx, 12, "no-such-code")
	assert.ErrorIs(t, err, ErrLeagueNotFound)

	// Выход удаляет прогнозы и строку таблицы.
	match := env.addMatch(1)
	env.addPrediction(11, league.ID, match.ID, 1, 0)

	require.NoError(t, svc.LeaveLeague(ctx, 11, league.ID))
	byUser = env.standingsByUser(t, league.ID)
	require.Len(t, byUser, 1)
	for _, p := range env.store.predictions {
		assert.NotEqual(t, 11, p.UserID)
	}

	// Создатель не может покинуть свою лигу.
	err = svc.LeaveLeague(ctx, 10, league.ID)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestUpdateLeagueSettingsRescoresLeague(t *testing.T) {
	ctx := context.Background()

	env := newScoringEnv()
	svc := newLeagueService(env, seedTournament(env, 1))

	league, err := svc.CreateLeague(ctx, 10, CreateLeagueInput{TournamentID: 1, Name: "Office League"})
	require.NoError(t, err)

	match := env.addMatch(1)
	p := env.addPrediction(10, league.ID, match.ID, 2, 1)
	version := env.finalize(t, match.ID, 2, 1)
	_, err = env.svc.ScorePredictionsForMatch(ctx, match.ID, version)
	require.NoError(t, err)
	require.Equal(t, defaultPointsCorrectScore, env.store.predictions[p.ID].PointsEarned)

	settings, err := svc.UpdateSettings(ctx, 10, league.ID, UpdateLeagueSettingsInput{
		PointsCorrectScore:   10,
		PointsCorrectOutcome: 3,
		PointsCorrectGoals:   2,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, settings.PointsCorrectScore)

	// Уже оценённые прогнозы пересчитаны по новым правилам.
	assert.Equal(t, 10, env.store.predictions[p.ID].PointsEarned)
	byUser := env.standingsByUser(t, league.ID)
	assert.Equal(t, 10, byUser[10].TotalPoints)

	// Только создатель меняет настройки.
	_, err = svc.UpdateSettings(ctx, 11, league.ID, UpdateLeagueSettingsInput{PointsCorrectScore: 1})
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	_, err = svc.UpdateSettings(ctx, 10, league.ID, UpdateLeagueSettingsInput{PointsCorrectScore: -1})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestListLeagueMembers(t *testing.T) {
	ctx := context.Background()

	env := newScoringEnv()
	svc := newLeagueService(env, seedTournament(env, 1))
	leagueID := env.addLeague(1, defaultSettings, 10, 11, 12)

	members, err := svc.ListMembers(ctx, 10, leagueID)
	require.NoError(t, err)
	require.Len(t, members, 3)

	// Только участники видят состав лиги.
	_, err = svc.ListMembers(ctx, 99, leagueID)
	assert.ErrorIs(t, err, ErrNotLeagueMember)

	_, err = svc.ListMembers(ctx, 10, 404)
	assert.ErrorIs(t, err, ErrLeagueNotFound)
}

func TestInviteLeagueMemberByEmail(t *testing.T) {
	ctx := context.Background()

	env := newScoringEnv()
	svc, emails, _ := newLeagueServiceWithFakes(env, seedTournament(env, 1))

	league, err := svc.CreateLeague(ctx, 10, CreateLeagueInput{TournamentID: 1, Name: "Office League"})
	require.NoError(t, err)

	require.NoError(t, svc.InviteByEmail(ctx, 10, league.ID, " Friend@Example.COM "))
	require.Len(t, emails.invites, 1)
	assert.Equal(t, "friend@example.com", emails.invites[0].email)
	assert.Equal(t, league.Name, emails.invites[0].leagueName)
	assert.Equal(t, league.InviteCode, emails.invites[0].inviteCode)

	// Инвайты рассылают только участники лиги.
	err = svc.InviteByEmail(ctx, 99, league.ID, "friend@example.com")
	assert.ErrorIs(t, err, ErrNotLeagueMember)

	err = svc.InviteByEmail(ctx, 10, league.ID, "not-an-email")
	assert.ErrorIs(t, err, ErrValidationFailed)

	err = svc.InviteByEmail(ctx, 10, 404, "friend@example.com")
	assert.ErrorIs(t, err, ErrLeagueNotFound)
}

func TestUploadLeagueLogo(t *testing.T) {
	ctx := context.Background()

	env := newScoringEnv()
	svc, _, uploader := newLeagueServiceWithFakes(env, seedTournament(env, 1))

	league, err := svc.CreateLeague(ctx, 10, CreateLeagueInput{TournamentID: 1, Name: "Office League"})
	require.NoError(t, err)

	updated, err := svc.UploadLogo(ctx, 10, league.ID, "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.NotNil(t, updated.LogoKey)
	assert.Equal(t, storage.LeagueLogoKey(league.ID, ".png"), *updated.LogoKey)
	require.NotNil(t, updated.LogoURL)
	_, uploadedOK := uploader.uploaded[*updated.LogoKey]
	assert.True(t, uploadedOK)

	// Замена логотипа с другим расширением удаляет старый объект.
	_, err = svc.UploadLogo(ctx, 10, league.ID, "image/jpeg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Contains(t, uploader.deleted, storage.LeagueLogoKey(league.ID, ".png"))

	// Логотип меняет только создатель лиги.
	_, err = svc.UploadLogo(ctx, 11, league.ID, "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrForbiddenOperation)

	_, err = svc.UploadLogo(ctx, 10, league.ID, "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrValidationFailed)
}
