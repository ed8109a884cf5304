package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"github.com/yourusername/tugofwar-api/internal/handler/dto"
	"github.com/yourusername/tugofwar-api/internal/service"
	"github.com/yourusername/tugofwar-api/internal/service/gamemanager"
)

// QuizHandler обрабатывает REST-запросы викторин
type QuizHandler struct {
	quizService *service.QuizService
	gameManager *gamemanager.Manager
}

// NewQuizHandler создает новый обработчик викторин
func NewQuizHandler(quizService *service.QuizService, gameManager *gamemanager.Manager) *QuizHandler {
	return &QuizHandler{
		quizService: quizService,
		gameManager: gameManager,
	}
}

// CreateQuiz создает викторину с вопросами
// POST /api/quizzes
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req dto.CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.MustGet("userID").(uint)
	quiz, err := h.quizService.CreateQuiz(req.Title, userID, req.ToQuestionInputs())
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuizResponse(quiz))
}

// GetQuiz возвращает викторину с вопросами
// GET /api/quizzes/:id
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	quiz, err := h.quizService.GetQuizWithQuestions(quizID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewQuizResponse(quiz))
}

// ListQuizzes возвращает викторины текущего пользователя
// GET /api/quizzes?page=1&page_size=20
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	userID := c.MustGet("userID").(uint)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	quizzes, err := h.quizService.ListQuizzes(userID, page, pageSize)
	if err != nil {
		handleError(c, err)
		return
	}

	responses := make([]dto.QuizResponse, len(quizzes))
	for i := range quizzes {
		responses[i] = dto.NewQuizResponse(&quizzes[i])
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": responses, "page": page, "page_size": pageSize})
}

// DeleteQuiz удаляет викторину
// DELETE /api/quizzes/:id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID := c.MustGet("userID").(uint)

	if err := h.quizService.DeleteQuiz(quizID, userID); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Викторина удалена"})
}

// JoinQuiz регистрирует участника по PIN
// POST /api/games/join
func (h *QuizHandler) JoinQuiz(c *gin.Context) {
	var req dto.JoinQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participant, err := h.gameManager.JoinQuiz(c.Request.Context(), req.PIN, req.Name, req.Team)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewParticipantResponse(participant))
}

// GetParticipants возвращает участников игры по PIN
// GET /api/games/:pin/participants
func (h *QuizHandler) GetParticipants(c *gin.Context) {
	pin := c.Param("pin")
	participants, err := h.gameManager.GetParticipants(c.Request.Context(), pin)
	if err != nil {
		handleError(c, err)
		return
	}

	responses := make([]dto.ParticipantResponse, len(participants))
	for i := range participants {
		responses[i] = dto.NewParticipantResponse(&participants[i])
	}
	c.JSON(http.StatusOK, gin.H{"participants": responses})
}

// GetTugPosition возвращает текущую позицию каната по PIN
// GET /api/games/:pin/tug
func (h *QuizHandler) GetTugPosition(c *gin.Context) {
	pin := c.Param("pin")
	status, err := h.gameManager.GetTugPosition(c.Request.Context(), pin)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// GetResults возвращает итоги викторины создателю
// GET /api/quizzes/:id/results
func (h *QuizHandler) GetResults(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID := c.MustGet("userID").(uint)

	results, err := h.gameManager.GetResults(c.Request.Context(), quizID, userID)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// ExportResults выгружает итоги викторины в CSV или XLSX
// GET /api/quizzes/:id/results/export?format=csv|xlsx
func (h *QuizHandler) ExportResults(c *gin.Context) {
	quizID := c.MustGet("quizID").(uint)
	userID := c.MustGet("userID").(uint)
	format := c.DefaultQuery("format", "csv")

	results, err := h.gameManager.GetResults(c.Request.Context(), quizID, userID)
	if err != nil {
		handleError(c, err)
		return
	}

	filename := fmt.Sprintf("quiz_%d_results_%s", quizID, time.Now().Format("2006-01-02"))
	switch format {
	case "xlsx":
		h.exportXLSX(c, results, filename)
	default:
		h.exportCSV(c, results, filename)
	}
}

// exportCSV выгружает итоги в CSV с корректным экранированием
func (h *QuizHandler) exportCSV(c *gin.Context, results *gamemanager.QuizResults, filename string) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.csv\"", filename))

	// BOM для корректного отображения UTF-8 в Excel
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"Участник", "Команда", "Правильных", "Всего ответов", "Среднее время (мс)"})
	for _, p := range results.Participants {
		writer.Write([]string{
			sanitizeForExcel(p.Name),
			strconv.Itoa(p.Team),
			strconv.Itoa(p.CorrectAnswers),
			strconv.Itoa(p.TotalAnswers),
			fmt.Sprintf("%.2f", p.AvgResponseTimeMs),
		})
	}

	writer.Write(nil)
	writer.Write([]string{"Позиция каната", fmt.Sprintf("%.2f", results.Tug.Position)})
	writer.Write([]string{"Очки команды 1", strconv.Itoa(results.Tug.Team1Score)})
	writer.Write([]string{"Очки команды 2", strconv.Itoa(results.Tug.Team2Score)})
	writer.Write([]string{"Команда-победитель", strconv.Itoa(results.WinningTeam)})
}

// exportXLSX выгружает итоги в Excel через StreamWriter
func (h *QuizHandler) exportXLSX(c *gin.Context, results *gamemanager.QuizResults, filename string) {
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Итоги"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[QuizHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать Excel-файл"})
		return
	}

	headers := []interface{}{"Участник", "Команда", "Правильных", "Всего ответов", "Среднее время (мс)"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[QuizHandler] Ошибка записи заголовков: %v", err)
	}

	for i, p := range results.Participants {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{sanitizeForExcel(p.Name), p.Team, p.CorrectAnswers, p.TotalAnswers, p.AvgResponseTimeMs}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[QuizHandler] Ошибка записи строки %d: %v", i+2, err)
		}
	}

	summaryRow := len(results.Participants) + 3
	sw.SetRow(fmt.Sprintf("A%d", summaryRow), []interface{}{"Позиция каната", results.Tug.Position})
	sw.SetRow(fmt.Sprintf("A%d", summaryRow+1), []interface{}{"Очки команды 1", results.Tug.Team1Score})
	sw.SetRow(fmt.Sprintf("A%d", summaryRow+2), []interface{}{"Очки команды 2", results.Tug.Team2Score})
	sw.SetRow(fmt.Sprintf("A%d", summaryRow+3), []interface{}{"Команда-победитель", results.WinningTeam})

	if err := sw.Flush(); err != nil {
		log.Printf("[QuizHandler] Ошибка при Flush: %v", err)
	}
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[QuizHandler] Ошибка записи Excel в ответ: %v", err)
	}
}

// sanitizeForExcel экранирует данные от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
