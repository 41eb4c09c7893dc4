package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Dosada05/prediction-league/middleware"
	"github.com/Dosada05/prediction-league/services"
)

type LeagueHandler struct {
	leagueService    services.LeagueService
	standingsService services.StandingsService
	scoringService   services.ScoringService
}

func NewLeagueHandler(
	leagueService services.LeagueService,
	standingsService services.StandingsService,
	scoringService services.ScoringService,
) *LeagueHandler {
	return &LeagueHandler{
		leagueService:    leagueService,
		standingsService: standingsService,
		scoringService:   scoringService,
	}
}

func (h *LeagueHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.CreateLeagueInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	league, err := h.leagueService.CreateLeague(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"league": league}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	league, err := h.leagueService.GetLeagueByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"league": league}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	leagues, err := h.leagueService.ListMyLeagues(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"leagues": leagues}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input struct {
		InviteCode string `json:"invite_code"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if strings.TrimSpace(input.InviteCode) == "" {
		badRequestResponse(w, r, errors.New("invite_code is required"))
		return
	}

	league, err := h.leagueService.JoinByInviteCode(r.Context(), userID, input.InviteCode)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"league": league}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	leagueID, err := readIDParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.leagueService.LeaveLeague(r.Context(), userID, leagueID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LeagueHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	leagueID, err := readIDParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	members, err := h.leagueService.ListMembers(r.Context(), userID, leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"members": members}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) Invite(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	leagueID, err := readIDParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Email string `json:"email"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.leagueService.InviteByEmail(r.Context(), userID, leagueID, input.Email); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "invite sent"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	leagueID, err := readIDParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		badRequestResponse(w, r, errors.New("failed to parse multipart form"))
		return
	}
	file, header, err := r.FormFile("logo")
	if err != nil {
		badRequestResponse(w, r, errors.New("logo file is required"))
		return
	}
	defer file.Close()

	league, err := h.leagueService.UploadLogo(r.Context(), userID, leagueID, header.Header.Get("Content-Type"), file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"league": league}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	leagueID, err := readIDParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	settings, err := h.leagueService.GetSettings(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"settings": settings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateSettings меняет стоимость очков лиги и пересчитывает всю её
// таблицу, чтобы история прогнозов соответствовала новым настройкам.
func (h *LeagueHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}
	leagueID, err := readIDParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateLeagueSettingsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	settings, err := h.leagueService.UpdateSettings(r.Context(), userID, leagueID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"settings": settings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) GetStandings(w http.ResponseWriter, r *http.Request) {
	leagueID, err := readIDParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.standingsService.GetLeagueTable(r.Context(), leagueID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) RecalculateStandings(w http.ResponseWriter, r *http.Request) {
	leagueID, err := readIDParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.scoringService.RecalculateStandingsForLeague(r.Context(), leagueID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "standings recalculated"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) RecalculateRanks(w http.ResponseWriter, r *http.Request) {
	leagueID, err := readIDParam(r, "leagueID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.scoringService.RecalculateRanksForLeague(r.Context(), leagueID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "ranks recalculated"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *LeagueHandler) RecalculateTournamentStandings(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.scoringService.RecalculateStandingsForTournament(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "tournament standings recalculated"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
