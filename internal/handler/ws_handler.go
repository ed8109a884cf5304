package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/yourusername/tugofwar-api/internal/service"
	"github.com/yourusername/tugofwar-api/internal/service/gamemanager"
	"github.com/yourusername/tugofwar-api/internal/websocket"
)

const wsRequestTimeout = 10 * time.Second

// WSHandler обрабатывает WebSocket-соединения и игровые сообщения
type WSHandler struct {
	wsManager   *websocket.Manager
	gameManager *gamemanager.Manager
	authService *service.AuthService
}

// NewWSHandler создает новый обработчик WebSocket
func NewWSHandler(wsManager *websocket.Manager, gameManager *gamemanager.Manager, authService *service.AuthService) *WSHandler {
	h := &WSHandler{
		wsManager:   wsManager,
		gameManager: gameManager,
		authService: authService,
	}
	h.registerMessageHandlers()
	return h
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Пустой Origin - небраузерный клиент, разрешаем
		return true
	},
	EnableCompression: true,
}

// HandleConnection обрабатывает входящее WebSocket-соединение.
// Аутентификация на этом этапе не требуется: ученики входят по PIN,
// учитель подтверждает владение игрой при join-quiz.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] Ошибка апгрейда соединения: %v", err)
		return
	}

	client := websocket.NewClient(h.wsManager.Hub(), conn)
	h.wsManager.Hub().RegisterClient(client)
	client.StartPumps(h.wsManager.HandleMessage)
}

// wsContext возвращает контекст с тайм-аутом для обращений к хранилищу
func wsContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), wsRequestTimeout)
}

// registerMessageHandlers регистрирует обработчики игровых сообщений.
// Ошибки игровой логики отправляются только вызвавшему соединению
// событием error и не закрывают соединение.
func (h *WSHandler) registerMessageHandlers() {
	h.wsManager.RegisterHandler(websocket.MsgJoinQuiz, h.handleJoinQuiz)
	h.wsManager.RegisterHandler(websocket.MsgStartQuiz, h.handleStartQuiz)
	h.wsManager.RegisterHandler(websocket.MsgStartQuestion, h.handleStartQuestion)
	h.wsManager.RegisterHandler(websocket.MsgSubmitAnswer, h.handleSubmitAnswer)
	h.wsManager.RegisterHandler(websocket.MsgFinishQuestion, h.handleFinishQuestion)
	h.wsManager.RegisterHandler(websocket.MsgFinishQuiz, h.handleFinishQuiz)
	h.wsManager.RegisterHandler(websocket.MsgGetTugPosition, h.handleGetTugPosition)
	h.wsManager.RegisterHandler(websocket.MsgGetResults, h.handleGetResults)
	h.wsManager.RegisterHandler(websocket.MsgGetParticipants, h.handleGetParticipants)
}

// sendGameError отправляет ошибку игровой логики вызвавшему соединению
func (h *WSHandler) sendGameError(client *websocket.Client, err error) {
	h.wsManager.SendErrorToClient(client, errorText(err))
}

func (h *WSHandler) handleJoinQuiz(data json.RawMessage, client *websocket.Client) error {
	var payload struct {
		PIN           string `json:"pin"`
		Role          string `json:"role"`
		UserID        uint   `json:"userId"`
		ParticipantID uint   `json:"participantId"`
		Name          string `json:"name"`
		Team          int    `json:"team"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	ctx, cancel := wsContext()
	defer cancel()

	quiz, err := h.gameManager.QuizByPIN(ctx, payload.PIN)
	if err != nil {
		h.sendGameError(client, err)
		return nil
	}

	participantID := payload.ParticipantID
	switch payload.Role {
	case websocket.RoleTeacher:
		// Вход учителя подтверждается существованием учетной записи
		// и владением игрой; чужой userId не получает учительских прав
		exists, err := h.authService.UserExists(payload.UserID)
		if err != nil {
			h.sendGameError(client, err)
			return nil
		}
		if !exists || !quiz.IsOwnedBy(payload.UserID) {
			h.wsManager.SendErrorToClient(client, "Вы не являетесь создателем этой викторины")
			return nil
		}
	case websocket.RoleStudent:
		// Участник либо уже создан через REST, либо создается здесь.
		// Готовый participantId принимается только если он принадлежит
		// викторине этого PIN
		if participantID == 0 {
			participant, err := h.gameManager.JoinQuiz(ctx, payload.PIN, payload.Name, payload.Team)
			if err != nil {
				h.sendGameError(client, err)
				return nil
			}
			participantID = participant.ID
		} else if _, err := h.gameManager.ParticipantInQuiz(ctx, quiz.ID, participantID); err != nil {
			h.sendGameError(client, err)
			return nil
		}
	default:
		h.wsManager.SendErrorToClient(client, "Недопустимая роль: "+payload.Role)
		return nil
	}

	client.Join(payload.PIN, payload.Role, payload.UserID, participantID)
	h.wsManager.Hub().JoinRoom(client, payload.PIN)

	// Снимок состояния игры уходит только вошедшему соединению
	snapshot, err := h.gameManager.StateSnapshot(ctx, payload.PIN)
	if err != nil {
		log.Printf("[WSHandler] Не удалось собрать снимок игры %s: %v", payload.PIN, err)
		return nil
	}
	if err := h.wsManager.SendEventToClient(client, gamemanager.EventQuizState, snapshot); err != nil {
		log.Printf("[WSHandler] Не удалось отправить снимок игры клиенту %s: %v", client.ConnectionID, err)
	}
	return nil
}

func (h *WSHandler) handleStartQuiz(data json.RawMessage, client *websocket.Client) error {
	var payload struct {
		PIN    string `json:"pin"`
		QuizID uint   `json:"quizId"`
		UserID uint   `json:"userId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	if !client.IsTeacher() {
		h.wsManager.SendErrorToClient(client, "Только учитель может запустить игру")
		return nil
	}

	ctx, cancel := wsContext()
	defer cancel()
	if _, err := h.gameManager.StartQuiz(ctx, payload.QuizID, payload.UserID); err != nil {
		h.sendGameError(client, err)
	}
	return nil
}

func (h *WSHandler) handleStartQuestion(data json.RawMessage, client *websocket.Client) error {
	var payload struct {
		PIN                  string `json:"pin"`
		CurrentQuestionIndex int    `json:"currentQuestionIndex"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	if !client.IsTeacher() {
		h.wsManager.SendErrorToClient(client, "Только учитель может запускать вопросы")
		return nil
	}

	ctx, cancel := wsContext()
	defer cancel()

	quiz, err := h.gameManager.QuizByPIN(ctx, payload.PIN)
	if err != nil {
		h.sendGameError(client, err)
		return nil
	}
	if err := h.gameManager.StartQuestion(ctx, quiz.ID, payload.CurrentQuestionIndex, client.UserID()); err != nil {
		h.sendGameError(client, err)
	}
	return nil
}

func (h *WSHandler) handleSubmitAnswer(data json.RawMessage, client *websocket.Client) error {
	var payload struct {
		PIN              string `json:"pin"`
		QuestionID       uint   `json:"questionId"`
		ParticipantID    uint   `json:"participantId"`
		SelectedOptionID uint   `json:"selectedOptionId"`
		ResponseTimeMs   int64  `json:"responseTimeMs"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	// Ответ зачитывается участнику, привязанному к соединению
	participantID := client.ParticipantID()
	if participantID == 0 {
		participantID = payload.ParticipantID
	}

	ctx, cancel := wsContext()
	defer cancel()
	if _, err := h.gameManager.SubmitAnswer(ctx, payload.PIN, payload.QuestionID, participantID, payload.SelectedOptionID, payload.ResponseTimeMs); err != nil {
		h.sendGameError(client, err)
	}
	return nil
}

func (h *WSHandler) handleFinishQuestion(data json.RawMessage, client *websocket.Client) error {
	var payload struct {
		PIN        string `json:"pin"`
		QuestionID uint   `json:"questionId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	if !client.IsTeacher() {
		h.wsManager.SendErrorToClient(client, "Только учитель может завершить вопрос")
		return nil
	}

	ctx, cancel := wsContext()
	defer cancel()

	quiz, err := h.gameManager.QuizByPIN(ctx, payload.PIN)
	if err != nil {
		h.sendGameError(client, err)
		return nil
	}
	if !quiz.IsOwnedBy(client.UserID()) {
		h.wsManager.SendErrorToClient(client, "Вы не являетесь создателем этой викторины")
		return nil
	}
	if err := h.gameManager.FinishQuestion(ctx, quiz.ID, payload.QuestionID); err != nil {
		h.sendGameError(client, err)
	}
	return nil
}

func (h *WSHandler) handleFinishQuiz(data json.RawMessage, client *websocket.Client) error {
	var payload struct {
		PIN    string `json:"pin"`
		QuizID uint   `json:"quizId"`
		UserID uint   `json:"userId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	if !client.IsTeacher() {
		h.wsManager.SendErrorToClient(client, "Только учитель может завершить игру")
		return nil
	}

	ctx, cancel := wsContext()
	defer cancel()
	if err := h.gameManager.FinishQuiz(ctx, payload.QuizID, payload.UserID); err != nil {
		h.sendGameError(client, err)
	}
	return nil
}

func (h *WSHandler) handleGetTugPosition(data json.RawMessage, client *websocket.Client) error {
	var payload struct {
		PIN string `json:"pin"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	ctx, cancel := wsContext()
	defer cancel()
	status, err := h.gameManager.GetTugPosition(ctx, payload.PIN)
	if err != nil {
		h.sendGameError(client, err)
		return nil
	}
	return h.wsManager.SendEventToClient(client, gamemanager.EventTugPositionUpdate, gamemanager.TugPositionEvent{
		PIN:       payload.PIN,
		TugStatus: status,
	})
}

func (h *WSHandler) handleGetResults(data json.RawMessage, client *websocket.Client) error {
	var payload struct {
		PIN    string `json:"pin"`
		QuizID uint   `json:"quizId"`
		UserID uint   `json:"userId"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	ctx, cancel := wsContext()
	defer cancel()

	// Итоги адресованы только запросившему соединению
	results, err := h.gameManager.GetResults(ctx, payload.QuizID, payload.UserID)
	if err != nil {
		h.sendGameError(client, err)
		return nil
	}
	return h.wsManager.SendEventToClient(client, gamemanager.EventQuizResults, results)
}

func (h *WSHandler) handleGetParticipants(data json.RawMessage, client *websocket.Client) error {
	var payload struct {
		PIN string `json:"pin"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}

	ctx, cancel := wsContext()
	defer cancel()
	participants, err := h.gameManager.GetParticipants(ctx, payload.PIN)
	if err != nil {
		h.sendGameError(client, err)
		return nil
	}
	return h.wsManager.SendEventToClient(client, gamemanager.EventParticipantsUpdate, participants)
}

// errorText возвращает текст ошибки для отправки клиенту
func errorText(err error) string {
	var msg string
	if err != nil {
		msg = err.Error()
	}
	if msg == "" || errors.Is(err, context.DeadlineExceeded) {
		msg = "Внутренняя ошибка сервера"
	}
	return msg
}
