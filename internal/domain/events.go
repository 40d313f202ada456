package domain

// EventType names an outbound message.
type EventType string

const (
	EventConnected         EventType = "connected"
	EventGameCreated       EventType = "gameCreated"
	EventPlayerJoined      EventType = "playerJoined"
	EventPlayerLeft        EventType = "playerLeft"
	EventGameStarted       EventType = "gameStarted"
	EventNextQuestion      EventType = "nextQuestion"
	EventQuestionEnded     EventType = "questionEnded"
	EventLeaderboardUpdate EventType = "leaderboardUpdate"
	EventAnswerResult      EventType = "answerResult"
	EventGameState         EventType = "gameState"
	EventGameFinished      EventType = "gameFinished"
	EventGameClosed        EventType = "gameClosed"
	EventError             EventType = "error"
	EventPong              EventType = "pong"
)

// Event is a typed outbound message. Payload is always one of the payload types below.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type ConnectedPayload struct {
	ConnectionID string `json:"connectionId"`
}

type GameCreatedPayload struct {
	GameCode string    `json:"gameCode"`
	Game     GameState `json:"game"`
}

type PlayerJoinedPayload struct {
	Players   []Participant `json:"players"`
	NewPlayer Participant   `json:"newPlayer"`
}

type PlayerLeftPayload struct {
	Players      []Participant `json:"players"`
	LeftPlayerID string        `json:"leftPlayerId"`
}

// QuestionPayload is shared by gameStarted and nextQuestion.
type QuestionPayload struct {
	QuestionIndex  int            `json:"questionIndex"`
	Question       PublicQuestion `json:"question"`
	TotalQuestions int            `json:"totalQuestions"`
	TimeLimit      int            `json:"timeLimit"`
}

type QuestionEndedPayload struct {
	QuestionIndex int                `json:"questionIndex"`
	CorrectAnswer int                `json:"correctAnswer"`
	Explanation   string             `json:"explanation,omitempty"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
	ResultsFor    int                `json:"resultsForSeconds"`
	LastQuestion  bool               `json:"lastQuestion"`
}

type LeaderboardPayload struct {
	Leaderboard     []LeaderboardEntry `json:"leaderboard"`
	CurrentQuestion int                `json:"currentQuestion"`
}

type GameStatePayload struct {
	Game GameState `json:"game"`
}

type GameFinishedPayload struct {
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

type GameClosedPayload struct {
	GameCode string `json:"gameCode"`
	Reason   string `json:"reason"`
}

type ErrorPayload struct {
	Code    ErrorKind `json:"code"`
	Message string    `json:"message"`
}

// MessageType names an inbound client message.
type MessageType string

const (
	MessageCreateGame   MessageType = "createGame"
	MessageJoinGame     MessageType = "joinGame"
	MessageWatchGame    MessageType = "watchGame"
	MessageStartGame    MessageType = "startGame"
	MessageSubmitAnswer MessageType = "submitAnswer"
	MessageGetGameState MessageType = "getGameState"
	MessageLeaveGame    MessageType = "leaveGame"
	MessagePing         MessageType = "ping"
)
