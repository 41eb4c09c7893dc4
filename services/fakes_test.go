package services

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/prediction-league/models"
	"github.com/Dosada05/prediction-league/repositories"
	"github.com/Dosada05/prediction-league/storage"
)

// In-memory хранилище для тестов сервисного слоя. Репозитории-фейки
// делят один store и ведут себя детерминированно (обходы в порядке id).
// Мьютекс обязателен: пересчёт турнира гоняет лиги в несколько горутин.

type memStore struct {
	mu               sync.Mutex
	matches          map[int]*models.Match
	predictions      map[int]*models.Prediction
	leagues          map[int]*models.League
	settings         map[int]*models.LeagueSettings
	members          map[int][]*models.LeagueMember
	questions        map[int]*models.BonusQuestion
	bonusPredictions map[int]*models.BonusPrediction
	standings        map[int]*models.LeagueStanding
	nextID           int
}

func newMemStore() *memStore {
	return &memStore{
		matches:          make(map[int]*models.Match),
		predictions:      make(map[int]*models.Prediction),
		leagues:          make(map[int]*models.League),
		settings:         make(map[int]*models.LeagueSettings),
		members:          make(map[int][]*models.LeagueMember),
		questions:        make(map[int]*models.BonusQuestion),
		bonusPredictions: make(map[int]*models.BonusPrediction),
		standings:        make(map[int]*models.LeagueStanding),
		nextID:           1,
	}
}

// id выдаёт следующий идентификатор. Вызывающий уже держит s.mu.
func (s *memStore) id() int {
	id := s.nextID
	s.nextID++
	return id
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// --- Transactor ---

type fakeTransactor struct{}

func (fakeTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	return fn(nil)
}

// --- MatchRepository ---

type fakeMatchRepo struct{ store *memStore }

func (r *fakeMatchRepo) Create(_ context.Context, _ repositories.SQLExecutor, match *models.Match) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	match.ID = r.store.id()
	match.CreatedAt = time.Now()
	r.store.matches[match.ID] = match
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Match, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	match, ok := r.store.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	copied := *match
	return &copied, nil
}

func (r *fakeMatchRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int, status *models.MatchStatus) ([]*models.Match, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	matches := make([]*models.Match, 0)
	for _, id := range sortedKeys(r.store.matches) {
		m := r.store.matches[id]
		if m.TournamentID != tournamentID {
			continue
		}
		if status != nil && m.Status != *status {
			continue
		}
		copied := *m
		matches = append(matches, &copied)
	}
	return matches, nil
}

func (r *fakeMatchRepo) FinalizeResult(_ context.Context, _ repositories.SQLExecutor, id int, homeScore, awayScore int) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	match, ok := r.store.matches[id]
	if !ok {
		return 0, repositories.ErrMatchNotFound
	}
	// Как и в SQL-версии, версия растёт только при изменении счёта.
	changed := match.HomeScore == nil || match.AwayScore == nil ||
		*match.HomeScore != homeScore || *match.AwayScore != awayScore
	match.HomeScore = &homeScore
	match.AwayScore = &awayScore
	match.Status = models.MatchStatusFullTime
	if changed {
		match.ResultVersion++
	}
	return match.ResultVersion, nil
}

func (r *fakeMatchRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.MatchStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	match, ok := r.store.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	match.Status = status
	return nil
}

func (r *fakeMatchRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.matches[id]; !ok {
		return repositories.ErrMatchNotFound
	}
	delete(r.store.matches, id)
	return nil
}

// --- PredictionRepository ---

type fakePredictionRepo struct{ store *memStore }

func (r *fakePredictionRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, prediction *models.Prediction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.predictions {
		if p.UserID == prediction.UserID && p.LeagueID == prediction.LeagueID && p.MatchID == prediction.MatchID {
			p.PredictedHomeScore = prediction.PredictedHomeScore
			p.PredictedAwayScore = prediction.PredictedAwayScore
			p.UpdatedAt = time.Now()
			*prediction = *p
			return nil
		}
	}
	prediction.ID = r.store.id()
	prediction.CreatedAt = time.Now()
	prediction.UpdatedAt = prediction.CreatedAt
	copied := *prediction
	r.store.predictions[prediction.ID] = &copied
	return nil
}

func (r *fakePredictionRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Prediction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.predictions[id]
	if !ok {
		return nil, repositories.ErrPredictionNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakePredictionRepo) listWhere(keep func(*models.Prediction) bool) []*models.Prediction {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	predictions := make([]*models.Prediction, 0)
	for _, id := range sortedKeys(r.store.predictions) {
		p := r.store.predictions[id]
		if keep(p) {
			copied := *p
			predictions = append(predictions, &copied)
		}
	}
	return predictions
}

func (r *fakePredictionRepo) ListByMatch(_ context.Context, _ repositories.SQLExecutor, matchID int) ([]*models.Prediction, error) {
	return r.listWhere(func(p *models.Prediction) bool { return p.MatchID == matchID }), nil
}

func (r *fakePredictionRepo) ListByLeague(_ context.Context, _ repositories.SQLExecutor, leagueID int) ([]*models.Prediction, error) {
	return r.listWhere(func(p *models.Prediction) bool { return p.LeagueID == leagueID }), nil
}

func (r *fakePredictionRepo) ListByLeagueAndUser(_ context.Context, _ repositories.SQLExecutor, leagueID, userID int) ([]*models.Prediction, error) {
	return r.listWhere(func(p *models.Prediction) bool { return p.LeagueID == leagueID && p.UserID == userID }), nil
}

func (r *fakePredictionRepo) UpdateScore(_ context.Context, _ repositories.SQLExecutor, id int, pointsEarned, scoredResultVersion int, scoredAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.predictions[id]
	if !ok {
		return repositories.ErrPredictionNotFound
	}
	p.PointsEarned = pointsEarned
	p.IsScored = true
	p.ScoredResultVersion = &scoredResultVersion
	p.ScoredAt = &scoredAt
	return nil
}

func (r *fakePredictionRepo) SumPointsByLeague(_ context.Context, _ repositories.SQLExecutor, leagueID int) (map[int]int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	totals := make(map[int]int)
	for _, p := range r.store.predictions {
		if p.LeagueID == leagueID && p.IsScored {
			totals[p.UserID] += p.PointsEarned
		}
	}
	return totals, nil
}

func (r *fakePredictionRepo) DeleteByLeagueAndUser(_ context.Context, _ repositories.SQLExecutor, leagueID, userID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, p := range r.store.predictions {
		if p.LeagueID == leagueID && p.UserID == userID {
			delete(r.store.predictions, id)
		}
	}
	return nil
}

// --- BonusQuestionRepository ---

type fakeBonusQuestionRepo struct{ store *memStore }

func (r *fakeBonusQuestionRepo) Create(_ context.Context, _ repositories.SQLExecutor, question *models.BonusQuestion) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	question.ID = r.store.id()
	question.CreatedAt = time.Now()
	r.store.questions[question.ID] = question
	return nil
}

func (r *fakeBonusQuestionRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.BonusQuestion, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	q, ok := r.store.questions[id]
	if !ok {
		return nil, repositories.ErrBonusQuestionNotFound
	}
	copied := *q
	return &copied, nil
}

func (r *fakeBonusQuestionRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.BonusQuestion, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	questions := make([]*models.BonusQuestion, 0)
	for _, id := range sortedKeys(r.store.questions) {
		q := r.store.questions[id]
		if q.TournamentID == tournamentID {
			copied := *q
			questions = append(questions, &copied)
		}
	}
	return questions, nil
}

func (r *fakeBonusQuestionRepo) Resolve(_ context.Context, _ repositories.SQLExecutor, id int, answerTeamID *int, answerText *string, resolvedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	q, ok := r.store.questions[id]
	if !ok {
		return repositories.ErrBonusQuestionNotFound
	}
	if q.IsResolved {
		return repositories.ErrBonusQuestionAlreadyResolved
	}
	q.IsResolved = true
	q.AnswerTeamID = answerTeamID
	q.AnswerText = answerText
	q.ResolvedAt = &resolvedAt
	return nil
}

// --- BonusPredictionRepository ---

type fakeBonusPredictionRepo struct{ store *memStore }

func (r *fakeBonusPredictionRepo) Upsert(_ context.Context, _ repositories.SQLExecutor, prediction *models.BonusPrediction) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.bonusPredictions {
		if p.UserID == prediction.UserID && p.LeagueID == prediction.LeagueID && p.BonusQuestionID == prediction.BonusQuestionID {
			p.AnswerTeamID = prediction.AnswerTeamID
			p.AnswerText = prediction.AnswerText
			p.UpdatedAt = time.Now()
			*prediction = *p
			return nil
		}
	}
	prediction.ID = r.store.id()
	prediction.CreatedAt = time.Now()
	prediction.UpdatedAt = prediction.CreatedAt
	copied := *prediction
	r.store.bonusPredictions[prediction.ID] = &copied
	return nil
}

func (r *fakeBonusPredictionRepo) listWhere(keep func(*models.BonusPrediction) bool) []*models.BonusPrediction {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	predictions := make([]*models.BonusPrediction, 0)
	for _, id := range sortedKeys(r.store.bonusPredictions) {
		p := r.store.bonusPredictions[id]
		if keep(p) {
			copied := *p
			predictions = append(predictions, &copied)
		}
	}
	return predictions
}

func (r *fakeBonusPredictionRepo) ListByQuestion(_ context.Context, _ repositories.SQLExecutor, bonusQuestionID int) ([]*models.BonusPrediction, error) {
	return r.listWhere(func(p *models.BonusPrediction) bool { return p.BonusQuestionID == bonusQuestionID }), nil
}

func (r *fakeBonusPredictionRepo) ListByLeague(_ context.Context, _ repositories.SQLExecutor, leagueID int) ([]*models.BonusPrediction, error) {
	return r.listWhere(func(p *models.BonusPrediction) bool { return p.LeagueID == leagueID }), nil
}

func (r *fakeBonusPredictionRepo) UpdateScore(_ context.Context, _ repositories.SQLExecutor, id int, pointsEarned int, scoredAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.bonusPredictions[id]
	if !ok {
		return repositories.ErrBonusPredictionNotFound
	}
	p.PointsEarned = &pointsEarned
	p.ScoredAt = &scoredAt
	return nil
}

func (r *fakeBonusPredictionRepo) SumPointsByLeague(_ context.Context, _ repositories.SQLExecutor, leagueID int) (map[int]int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	totals := make(map[int]int)
	for _, p := range r.store.bonusPredictions {
		if p.LeagueID == leagueID {
			if p.PointsEarned != nil {
				totals[p.UserID] += *p.PointsEarned
			} else if _, ok := totals[p.UserID]; !ok {
				totals[p.UserID] = 0
			}
		}
	}
	return totals, nil
}

func (r *fakeBonusPredictionRepo) DeleteByLeagueAndUser(_ context.Context, _ repositories.SQLExecutor, leagueID, userID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, p := range r.store.bonusPredictions {
		if p.LeagueID == leagueID && p.UserID == userID {
			delete(r.store.bonusPredictions, id)
		}
	}
	return nil
}

// --- LeagueRepository ---

type fakeLeagueRepo struct{ store *memStore }

func (r *fakeLeagueRepo) Create(_ context.Context, _ repositories.SQLExecutor, league *models.League) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range r.store.leagues {
		if l.TournamentID == league.TournamentID && l.Name == league.Name {
			return repositories.ErrLeagueNameConflict
		}
	}
	league.ID = r.store.id()
	league.CreatedAt = time.Now()
	r.store.leagues[league.ID] = league
	return nil
}

func (r *fakeLeagueRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.League, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	l, ok := r.store.leagues[id]
	if !ok {
		return nil, repositories.ErrLeagueNotFound
	}
	copied := *l
	return &copied, nil
}

func (r *fakeLeagueRepo) GetByInviteCode(_ context.Context, _ repositories.SQLExecutor, inviteCode string) (*models.League, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, l := range r.store.leagues {
		if l.InviteCode == inviteCode {
			copied := *l
			return &copied, nil
		}
	}
	return nil, repositories.ErrLeagueNotFound
}

func (r *fakeLeagueRepo) ListByTournament(_ context.Context, _ repositories.SQLExecutor, tournamentID int) ([]*models.League, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	leagues := make([]*models.League, 0)
	for _, id := range sortedKeys(r.store.leagues) {
		l := r.store.leagues[id]
		if l.TournamentID == tournamentID {
			copied := *l
			leagues = append(leagues, &copied)
		}
	}
	return leagues, nil
}

func (r *fakeLeagueRepo) ListIDsByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]int, error) {
	leagues, _ := r.ListByTournament(ctx, exec, tournamentID)
	ids := make([]int, 0, len(leagues))
	for _, l := range leagues {
		ids = append(ids, l.ID)
	}
	return ids, nil
}

func (r *fakeLeagueRepo) ListByMember(_ context.Context, _ repositories.SQLExecutor, userID int) ([]*models.League, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	leagues := make([]*models.League, 0)
	for _, leagueID := range sortedKeys(r.store.leagues) {
		for _, m := range r.store.members[leagueID] {
			if m.UserID == userID {
				copied := *r.store.leagues[leagueID]
				leagues = append(leagues, &copied)
			}
		}
	}
	return leagues, nil
}

func (r *fakeLeagueRepo) UpdateLogoKey(_ context.Context, _ repositories.SQLExecutor, leagueID int, logoKey *string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	l, ok := r.store.leagues[leagueID]
	if !ok {
		return repositories.ErrLeagueNotFound
	}
	l.LogoKey = logoKey
	return nil
}

func (r *fakeLeagueRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.leagues[id]; !ok {
		return repositories.ErrLeagueNotFound
	}
	delete(r.store.leagues, id)
	return nil
}

func (r *fakeLeagueRepo) AddMember(_ context.Context, _ repositories.SQLExecutor, leagueID, userID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, m := range r.store.members[leagueID] {
		if m.UserID == userID {
			return repositories.ErrLeagueMemberConflict
		}
	}
	r.store.members[leagueID] = append(r.store.members[leagueID], &models.LeagueMember{
		LeagueID: leagueID,
		UserID:   userID,
		JoinedAt: time.Now(),
	})
	return nil
}

func (r *fakeLeagueRepo) RemoveMember(_ context.Context, _ repositories.SQLExecutor, leagueID, userID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	members := r.store.members[leagueID]
	for i, m := range members {
		if m.UserID == userID {
			r.store.members[leagueID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return repositories.ErrLeagueMemberNotFound
}

func (r *fakeLeagueRepo) ListMembers(_ context.Context, _ repositories.SQLExecutor, leagueID int) ([]*models.LeagueMember, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	members := make([]*models.LeagueMember, 0, len(r.store.members[leagueID]))
	for _, m := range r.store.members[leagueID] {
		copied := *m
		members = append(members, &copied)
	}
	return members, nil
}

func (r *fakeLeagueRepo) IsMember(_ context.Context, _ repositories.SQLExecutor, leagueID, userID int) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, m := range r.store.members[leagueID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeLeagueRepo) GetSettings(_ context.Context, _ repositories.SQLExecutor, leagueID int) (*models.LeagueSettings, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	s, ok := r.store.settings[leagueID]
	if !ok {
		return nil, repositories.ErrLeagueSettingsNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeLeagueRepo) UpsertSettings(_ context.Context, _ repositories.SQLExecutor, settings *models.LeagueSettings) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	copied := *settings
	r.store.settings[settings.LeagueID] = &copied
	return nil
}

// --- TournamentRepository ---

type memTournamentRepo struct {
	tournaments map[int]*models.Tournament
	store       *memStore
}

func (r *memTournamentRepo) Create(_ context.Context, _ repositories.SQLExecutor, tournament *models.Tournament) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tournament.ID = r.store.id()
	tournament.CreatedAt = time.Now()
	r.tournaments[tournament.ID] = tournament
	return nil
}

func (r *memTournamentRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Tournament, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *memTournamentRepo) List(_ context.Context, _ repositories.SQLExecutor, status *models.TournamentStatus) ([]*models.Tournament, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tournaments := make([]*models.Tournament, 0)
	for _, id := range sortedKeys(r.tournaments) {
		t := r.tournaments[id]
		if status != nil && t.Status != *status {
			continue
		}
		copied := *t
		tournaments = append(tournaments, &copied)
	}
	return tournaments, nil
}

func (r *memTournamentRepo) Update(_ context.Context, _ repositories.SQLExecutor, tournament *models.Tournament) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.tournaments[tournament.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	copied := *tournament
	r.tournaments[tournament.ID] = &copied
	return nil
}

func (r *memTournamentRepo) UpdateStatus(_ context.Context, _ repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	t, ok := r.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *memTournamentRepo) Delete(_ context.Context, _ repositories.SQLExecutor, id int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.tournaments, id)
	return nil
}

// --- LeagueStandingRepository ---

type fakeStandingRepo struct{ store *memStore }

func (r *fakeStandingRepo) Create(_ context.Context, _ repositories.SQLExecutor, standing *models.LeagueStanding) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	standing.ID = r.store.id()
	if standing.UpdatedAt.IsZero() {
		standing.UpdatedAt = time.Now()
	}
	copied := *standing
	r.store.standings[standing.ID] = &copied
	return nil
}

func (r *fakeStandingRepo) Update(_ context.Context, _ repositories.SQLExecutor, standing *models.LeagueStanding) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.standings[standing.ID]; !ok {
		return repositories.ErrLeagueStandingNotFound
	}
	copied := *standing
	copied.UpdatedAt = time.Now()
	r.store.standings[standing.ID] = &copied
	return nil
}

func (r *fakeStandingRepo) ListByLeague(_ context.Context, _ repositories.SQLExecutor, leagueID int, sortByRank bool) ([]*models.LeagueStanding, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	joined := make(map[int]time.Time)
	for _, m := range r.store.members[leagueID] {
		joined[m.UserID] = m.JoinedAt
	}

	standings := make([]*models.LeagueStanding, 0)
	for _, id := range sortedKeys(r.store.standings) {
		st := r.store.standings[id]
		if st.LeagueID != leagueID {
			continue
		}
		joinedAt, ok := joined[st.UserID]
		if !ok {
			// Как и в SQL-версии, строки без членства не возвращаются.
			continue
		}
		copied := *st
		copied.MemberSince = joinedAt
		standings = append(standings, &copied)
	}

	if sortByRank {
		sort.SliceStable(standings, func(i, j int) bool {
			if standings[i].TotalPoints != standings[j].TotalPoints {
				return standings[i].TotalPoints > standings[j].TotalPoints
			}
			if !standings[i].MemberSince.Equal(standings[j].MemberSince) {
				return standings[i].MemberSince.Before(standings[j].MemberSince)
			}
			return standings[i].UserID < standings[j].UserID
		})
	} else {
		sort.Slice(standings, func(i, j int) bool { return standings[i].UserID < standings[j].UserID })
	}
	return standings, nil
}

func (r *fakeStandingRepo) DeleteByLeagueAndUser(_ context.Context, _ repositories.SQLExecutor, leagueID, userID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, st := range r.store.standings {
		if st.LeagueID == leagueID && st.UserID == userID {
			delete(r.store.standings, id)
		}
	}
	return nil
}

func (r *fakeStandingRepo) DeleteByLeague(_ context.Context, _ repositories.SQLExecutor, leagueID int) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, st := range r.store.standings {
		if st.LeagueID == leagueID {
			delete(r.store.standings, id)
		}
	}
	return nil
}

// --- FileUploader ---

type fakeUploader struct {
	mu       sync.Mutex
	uploaded map[string]string // key -> content type
	deleted  []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{uploaded: make(map[string]string)}
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, _ io.Reader) (*storage.UploadResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.uploaded[key] = contentType
	return &storage.UploadResult{Key: key, Location: "https://cdn.test/" + key}, nil
}

func (u *fakeUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.uploaded, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

// --- EmailService ---

type sentInvite struct {
	email      string
	leagueName string
	inviteCode string
}

type fakeEmailService struct {
	mu      sync.Mutex
	invites []sentInvite
}

func (s *fakeEmailService) SendWelcomeEmail(string, string) error { return nil }

func (s *fakeEmailService) SendLeagueInviteEmail(userEmail, leagueName, inviteCode string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites = append(s.invites, sentInvite{email: userEmail, leagueName: leagueName, inviteCode: inviteCode})
	return nil
}
