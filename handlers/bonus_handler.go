package handlers

import (
	"net/http"

	"github.com/Dosada05/prediction-league/middleware"
	"github.com/Dosada05/prediction-league/services"
)

type BonusHandler struct {
	bonusService services.BonusService
}

func NewBonusHandler(bonusService services.BonusService) *BonusHandler {
	return &BonusHandler{bonusService: bonusService}
}

func (h *BonusHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var input services.CreateBonusQuestionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	question, err := h.bonusService.CreateQuestion(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"question": question}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BonusHandler) GetQuestionByID(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "questionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	question, err := h.bonusService.GetQuestionByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"question": question}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BonusHandler) ListQuestionsByTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	questions, err := h.bonusService.ListQuestionsByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"questions": questions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResolveQuestion фиксирует правильный ответ и сразу начисляет очки за
// все поданные ответы. Повторное решение вопроса запрещено.
func (h *BonusHandler) ResolveQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := readIDParam(r, "questionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.ResolveBonusQuestionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	question, err := h.bonusService.ResolveQuestion(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"question": question}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BonusHandler) SubmitPrediction(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, err.Error())
		return
	}

	var input services.SubmitBonusPredictionInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	prediction, err := h.bonusService.SubmitPrediction(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"prediction": prediction}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
