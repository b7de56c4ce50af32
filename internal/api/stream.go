package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"caelus/backend/internal/profile"
)

// streamReadLimit caps a single client message in bytes.
const streamReadLimit = 4096

// Stream message types sent by the client.
const (
	MessageAnswer = "answer"
	MessageClear  = "clear"
	MessageReset  = "reset"
	MessageSubmit = "submit"
)

// Stream event types sent by the server.
const (
	EventAssessment = "assessment"
	EventSaved      = "saved"
	EventError      = "error"
)

// StreamMessage is an update from the questionnaire UI.
type StreamMessage struct {
	Type          string `json:"type"`
	QuestionIndex int    `json:"question_index"`
	Answer        string `json:"answer,omitempty"`
}

// StreamEvent is pushed to the client after every message.
type StreamEvent struct {
	Type       string              `json:"type"`
	Assessment *profile.Assessment `json:"assessment,omitempty"`
	Profile    *ProfileDTO         `json:"profile,omitempty"`
	Message    string              `json:"message,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}

func (c *wsClient) send(event StreamEvent) error {
	event.Timestamp = time.Now().UTC()
	return c.writeJSON(event)
}

// assessmentSession owns the answer set of one websocket connection.
type assessmentSession struct {
	total    int
	answers  profile.AnswerSet
	reported map[int]string
}

func newAssessmentSession(total int) *assessmentSession {
	return &assessmentSession{
		total:    total,
		answers:  profile.AnswerSet{},
		reported: map[int]string{},
	}
}

// apply folds msg into the session answers. It reports false for submit,
// which does not modify the answers. Indexes outside the bank are rejected.
func (a *assessmentSession) apply(msg StreamMessage) (bool, error) {
	switch msg.Type {
	case MessageAnswer, "", MessageClear:
		if msg.QuestionIndex < 0 || msg.QuestionIndex >= a.total {
			return false, fmt.Errorf("question index %d out of range [0, %d)", msg.QuestionIndex, a.total)
		}
		if msg.Type == MessageClear {
			delete(a.answers, msg.QuestionIndex)
		} else {
			a.answers[msg.QuestionIndex] = msg.Answer
		}
	case MessageReset:
		a.answers = profile.AnswerSet{}
	case MessageSubmit:
		return false, nil
	default:
		return false, errors.New("unknown message type " + msg.Type)
	}
	return true, nil
}

// unreported returns the warnings not yet seen in this session for the same
// index and answer.
func (a *assessmentSession) unreported(warnings []profile.IntegrityWarning) []profile.IntegrityWarning {
	var out []profile.IntegrityWarning
	for _, w := range warnings {
		if prev, ok := a.reported[w.QuestionIndex]; ok && prev == w.Answer {
			continue
		}
		a.reported[w.QuestionIndex] = w.Answer
		out = append(out, w)
	}
	return out
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}
}

func (s *Server) handleProfileStream(c *gin.Context) {
	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}
	client := &wsClient{conn: conn}
	remote := conn.RemoteAddr().String()
	logrus.WithField("remote", remote).Info("profile websocket connected")
	defer conn.Close()
	conn.SetReadLimit(streamReadLimit)

	ctx := c.Request.Context()
	session := newAssessmentSession(s.bank.Len())
	initial := s.assess(session.answers)
	if err := client.send(StreamEvent{Type: EventAssessment, Assessment: &initial}); err != nil {
		return
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", remote).Info("profile websocket closed")
			} else {
				logrus.WithError(err).Warn("profile websocket unexpected close")
			}
			return
		}

		var msg StreamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := client.send(StreamEvent{Type: EventError, Message: "invalid message: " + err.Error()}); err != nil {
				return
			}
			continue
		}

		changed, err := session.apply(msg)
		if err != nil {
			if err := client.send(StreamEvent{Type: EventError, Message: err.Error()}); err != nil {
				return
			}
			continue
		}

		var event StreamEvent
		if changed {
			assessment := s.assess(session.answers)
			s.recordWarnings(ctx, session.unreported(assessment.Warnings))
			event = StreamEvent{Type: EventAssessment, Assessment: &assessment}
		} else {
			row, assessment, err := s.saveProfile(ctx, session.answers)
			s.recordWarnings(ctx, session.unreported(assessment.Warnings))
			if err != nil {
				event = StreamEvent{Type: EventError, Message: err.Error(), Assessment: &assessment}
			} else {
				dto := ProfileFromModel(*row)
				dto.Warnings = assessment.Warnings
				event = StreamEvent{Type: EventSaved, Profile: &dto, Assessment: &assessment}
			}
		}
		if err := client.send(event); err != nil {
			logrus.WithError(err).WithField("remote", remote).Warn("profile websocket write failed")
			return
		}
	}
}
