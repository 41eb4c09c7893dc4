package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/prediction-league/live"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin,
		// чтобы разрешать подключения только с доверенных доменов.
		return true
	},
}

type WebSocketHandler struct {
	hub    *live.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
	}
}

// ServeWs подключает клиента к ленте событий конкретного турнира.
// Клиент подключается к /ws/tournaments/{tournamentID} и только
// слушает: создание матчей, финальные счета, решённые бонусные вопросы.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := readIDParam(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту.
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.Int("tournament_id", tournamentID),
			slog.Any("error", err),
		)
		return
	}

	client := live.NewClient(h.hub, conn, live.TournamentRoom(tournamentID))
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
