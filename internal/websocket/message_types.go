package websocket

// Типы сообщений клиент -> сервер
const (
	MsgJoinQuiz        = "join-quiz"
	MsgStartQuiz       = "start-quiz"
	MsgStartQuestion   = "start-question"
	MsgSubmitAnswer    = "submit-answer"
	MsgFinishQuestion  = "finish-question"
	MsgFinishQuiz      = "finish-quiz"
	MsgGetTugPosition  = "get-tug-position"
	MsgGetResults      = "get-results"
	MsgGetParticipants = "get-participants"
)

// Роли подключений
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)
