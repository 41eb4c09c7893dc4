package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/prediction-league/models"
	"github.com/lib/pq"
)

var (
	ErrLeagueNotFound           = errors.New("league not found")
	ErrLeagueNameConflict       = errors.New("league name is already in use for this tournament")
	ErrLeagueInviteCodeConflict = errors.New("league invite code conflict")
	ErrLeagueTournamentInvalid  = errors.New("league tournament conflict or invalid")
	ErrLeagueMemberConflict     = errors.New("user is already a member of this league")
	ErrLeagueMemberNotFound     = errors.New("league member not found")
	ErrLeagueSettingsNotFound   = errors.New("league settings not found")
)

type LeagueRepository interface {
	Create(ctx context.Context, exec SQLExecutor, league *models.League) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.League, error)
	GetByInviteCode(ctx context.Context, exec SQLExecutor, inviteCode string) (*models.League, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.League, error)
	ListIDsByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]int, error)
	ListByMember(ctx context.Context, exec SQLExecutor, userID int) ([]*models.League, error)
	UpdateLogoKey(ctx context.Context, exec SQLExecutor, leagueID int, logoKey *string) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error

	AddMember(ctx context.Context, exec SQLExecutor, leagueID, userID int) error
	RemoveMember(ctx context.Context, exec SQLExecutor, leagueID, userID int) error
	ListMembers(ctx context.Context, exec SQLExecutor, leagueID int) ([]*models.LeagueMember, error)
	IsMember(ctx context.Context, exec SQLExecutor, leagueID, userID int) (bool, error)

	GetSettings(ctx context.Context, exec SQLExecutor, leagueID int) (*models.LeagueSettings, error)
	UpsertSettings(ctx context.Context, exec SQLExecutor, settings *models.LeagueSettings) error
}

type postgresLeagueRepository struct {
	db *sql.DB
}

func NewPostgresLeagueRepository(db *sql.DB) LeagueRepository {
	return &postgresLeagueRepository{db: db}
}

func (r *postgresLeagueRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const leagueColumns = `id, tournament_id, name, creator_id, invite_code, logo_key, created_at`

func (r *postgresLeagueRepository) scanLeague(rowScanner interface{ Scan(...interface{}) error }) (*models.League, error) {
	var l models.League
	err := rowScanner.Scan(&l.ID, &l.TournamentID, &l.Name, &l.CreatorID, &l.InviteCode, &l.LogoKey, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeagueNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *postgresLeagueRepository) Create(ctx context.Context, exec SQLExecutor, league *models.League) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO leagues (tournament_id, name, creator_id, invite_code)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		league.TournamentID, league.Name, league.CreatorID, league.InviteCode,
	).Scan(&league.ID, &league.CreatedAt)

	return r.handleLeagueError(err)
}

func (r *postgresLeagueRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.League, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE id = $1`
	return r.scanLeague(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresLeagueRepository) GetByInviteCode(ctx context.Context, exec SQLExecutor, inviteCode string) (*models.League, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE invite_code = $1`
	return r.scanLeague(executor.QueryRowContext(ctx, query, inviteCode))
}

func (r *postgresLeagueRepository) listLeagues(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.League, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leagues: %w", err)
	}
	defer rows.Close()

	leagues := make([]*models.League, 0)
	for rows.Next() {
		l, scanErr := r.scanLeague(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan league row: %w", scanErr)
		}
		leagues = append(leagues, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during league rows iteration: %w", err)
	}
	return leagues, nil
}

func (r *postgresLeagueRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.League, error) {
	query := `SELECT ` + leagueColumns + ` FROM leagues WHERE tournament_id = $1 ORDER BY id ASC`
	return r.listLeagues(ctx, r.getExecutor(exec), query, tournamentID)
}

func (r *postgresLeagueRepository) ListIDsByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]int, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `SELECT id FROM leagues WHERE tournament_id = $1 ORDER BY id ASC`, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query league ids for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if scanErr := rows.Scan(&id); scanErr != nil {
			return nil, fmt.Errorf("failed to scan league id: %w", scanErr)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during league id iteration: %w", err)
	}
	return ids, nil
}

func (r *postgresLeagueRepository) ListByMember(ctx context.Context, exec SQLExecutor, userID int) ([]*models.League, error) {
	query := `
		SELECT l.id, l.tournament_id, l.name, l.creator_id, l.invite_code, l.logo_key, l.created_at
		FROM leagues l
		JOIN league_members lm ON lm.league_id = l.id
		WHERE lm.user_id = $1
		ORDER BY l.id ASC`
	return r.listLeagues(ctx, r.getExecutor(exec), query, userID)
}

func (r *postgresLeagueRepository) UpdateLogoKey(ctx context.Context, exec SQLExecutor, leagueID int, logoKey *string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `UPDATE leagues SET logo_key = $1 WHERE id = $2`, logoKey, leagueID)
	if err != nil {
		return fmt.Errorf("failed to update logo key for league %d: %w", leagueID, err)
	}
	return checkAffectedRows(result, ErrLeagueNotFound)
}

func (r *postgresLeagueRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM leagues WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrLeagueNotFound)
}

func (r *postgresLeagueRepository) AddMember(ctx context.Context, exec SQLExecutor, leagueID, userID int) error {
	executor := r.getExecutor(exec)
	query := `INSERT INTO league_members (league_id, user_id, joined_at) VALUES ($1, $2, $3)`

	_, err := executor.ExecContext(ctx, query, leagueID, userID, time.Now())
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch {
			case pqErr.Code == "23505":
				return ErrLeagueMemberConflict
			case pqErr.Constraint == "league_members_league_id_fkey":
				return ErrLeagueNotFound
			}
		}
		return fmt.Errorf("failed to add member %d to league %d: %w", userID, leagueID, err)
	}
	return nil
}

func (r *postgresLeagueRepository) RemoveMember(ctx context.Context, exec SQLExecutor, leagueID, userID int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `DELETE FROM league_members WHERE league_id = $1 AND user_id = $2`, leagueID, userID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrLeagueMemberNotFound)
}

func (r *postgresLeagueRepository) ListMembers(ctx context.Context, exec SQLExecutor, leagueID int) ([]*models.LeagueMember, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT lm.league_id, lm.user_id, lm.joined_at,
		       u.id, u.first_name, u.last_name, u.nickname, u.email, u.role, u.avatar_key, u.created_at
		FROM league_members lm
		JOIN users u ON u.id = lm.user_id
		WHERE lm.league_id = $1
		ORDER BY lm.joined_at ASC, lm.user_id ASC`

	rows, err := executor.QueryContext(ctx, query, leagueID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members for league %d: %w", leagueID, err)
	}
	defer rows.Close()

	members := make([]*models.LeagueMember, 0)
	for rows.Next() {
		var m models.LeagueMember
		var u models.User
		if scanErr := rows.Scan(
			&m.LeagueID, &m.UserID, &m.JoinedAt,
			&u.ID, &u.FirstName, &u.LastName, &u.Nickname, &u.Email, &u.Role, &u.AvatarKey, &u.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan league member row: %w", scanErr)
		}
		m.User = &u
		members = append(members, &m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during league member iteration: %w", err)
	}
	return members, nil
}

func (r *postgresLeagueRepository) IsMember(ctx context.Context, exec SQLExecutor, leagueID, userID int) (bool, error) {
	executor := r.getExecutor(exec)
	var exists bool
	err := executor.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM league_members WHERE league_id = $1 AND user_id = $2)`,
		leagueID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check membership for league %d user %d: %w", leagueID, userID, err)
	}
	return exists, nil
}

func (r *postgresLeagueRepository) GetSettings(ctx context.Context, exec SQLExecutor, leagueID int) (*models.LeagueSettings, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT league_id, points_correct_score, points_correct_outcome, points_correct_goals
		FROM league_settings
		WHERE league_id = $1`

	var s models.LeagueSettings
	err := executor.QueryRowContext(ctx, query, leagueID).Scan(
		&s.LeagueID, &s.PointsCorrectScore, &s.PointsCorrectOutcome, &s.PointsCorrectGoals,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLeagueSettingsNotFound
		}
		return nil, fmt.Errorf("failed to get settings for league %d: %w", leagueID, err)
	}
	return &s, nil
}

func (r *postgresLeagueRepository) UpsertSettings(ctx context.Context, exec SQLExecutor, settings *models.LeagueSettings) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO league_settings (league_id, points_correct_score, points_correct_outcome, points_correct_goals)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (league_id) DO UPDATE
		SET points_correct_score = EXCLUDED.points_correct_score,
		    points_correct_outcome = EXCLUDED.points_correct_outcome,
		    points_correct_goals = EXCLUDED.points_correct_goals`

	_, err := executor.ExecContext(ctx, query,
		settings.LeagueID, settings.PointsCorrectScore, settings.PointsCorrectOutcome, settings.PointsCorrectGoals,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert settings for league %d: %w", settings.LeagueID, err)
	}
	return nil
}

func (r *postgresLeagueRepository) handleLeagueError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "leagues_tournament_id_name_key":
			return ErrLeagueNameConflict
		case "leagues_invite_code_key":
			return ErrLeagueInviteCodeConflict
		case "leagues_tournament_id_fkey":
			return ErrLeagueTournamentInvalid
		}
	}
	return err
}
