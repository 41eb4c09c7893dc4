package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed   = errors.New("validation failed")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrLeagueNameRequired = errors.New("league name is required")
	ErrTeamNameRequired   = errors.New("team name is required")
	ErrPredictionDeadline = errors.New("prediction deadline has passed")
	ErrBonusDeadline      = errors.New("bonus question deadline has passed")
	ErrNegativeScore      = errors.New("predicted scores must not be negative")
	ErrNotLeagueMember    = errors.New("user is not a member of this league")
	ErrAnswerRequired     = errors.New("an answer (team or text) is required")

	// Ошибки состояния скоринга
	ErrMatchNotFinished         = errors.New("match does not have a finalized score")
	ErrResultVersionMismatch    = errors.New("stale or mismatched result version")
	ErrBonusQuestionNotResolved = errors.New("bonus question is not resolved yet")
	ErrBonusQuestionResolved    = errors.New("bonus question is already resolved")

	// Ошибка конфигурации: у лиги нет настроек подсчёта очков
	ErrLeagueSettingsMissing = errors.New("league has no scoring settings configured")

	// Ошибки конфликтов
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrUserNicknameConflict   = errors.New("nickname is already in use")
	ErrTeamNameConflict       = errors.New("team name is already in use")
	ErrLeagueNameConflict     = errors.New("league name is already in use for this tournament")
	ErrLeagueMemberConflict   = errors.New("user is already a member of this league")
	ErrTournamentNameConflict = errors.New("tournament name already exists")

	// Ошибки аутентификации и авторизации
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound          = errors.New("user not found")
	ErrTeamNotFound          = errors.New("team not found")
	ErrTournamentNotFound    = errors.New("tournament not found")
	ErrLeagueNotFound        = errors.New("league not found")
	ErrMatchNotFound         = errors.New("match not found")
	ErrBonusQuestionNotFound = errors.New("bonus question not found")

	// Ошибки турниров
	ErrTournamentInvalidDateRange = errors.New("tournament end date must be after start date")
	ErrMatchInvalidScore          = errors.New("match score must not be negative")
)
