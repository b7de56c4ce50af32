package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"caelus/backend/internal/logging"
	"caelus/backend/internal/metrics"
	"caelus/backend/internal/profile"
	"caelus/backend/internal/store"
)

// errIncomplete is returned when a profile is submitted before every question
// has a valid answer.
var errIncomplete = errors.New("questionnaire incomplete")

func (s *Server) handleQuestions(c *gin.Context) {
	questions := make([]QuestionDTO, 0, s.bank.Len())
	for i, q := range s.bank.Questions {
		questions = append(questions, QuestionDTO{Index: i, Question: q.Prompt, Options: q.Options})
	}
	c.JSON(http.StatusOK, QuestionsResponse{Version: s.bank.Version, Questions: questions})
}

func (s *Server) handleAssess(c *gin.Context) {
	var req AnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	assessment := s.assess(req.Answers)
	s.recordWarnings(c.Request.Context(), assessment.Warnings)
	c.JSON(http.StatusOK, assessment)
}

func (s *Server) handleSaveProfile(c *gin.Context) {
	var req AnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	row, assessment, err := s.saveProfile(c.Request.Context(), req.Answers)
	s.recordWarnings(c.Request.Context(), assessment.Warnings)
	if errors.Is(err, errIncomplete) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "assessment": assessment})
		return
	}
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	logging.FromContext(c).WithFields(logrus.Fields{
		"profile_id": row.ID,
		"type":       row.Type,
		"warnings":   len(assessment.Warnings),
	}).Info("profile saved")
	dto := ProfileFromModel(*row)
	dto.Warnings = assessment.Warnings
	c.JSON(http.StatusCreated, dto)
}

func (s *Server) handleGetProfile(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	row, err := s.db.GetProfile(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.renderError(c, http.StatusNotFound, fmt.Errorf("profile %s not found", id))
		} else {
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, ProfileFromModel(*row))
}

func (s *Server) handleProfileStats(c *gin.Context) {
	counts, err := s.db.CountProfilesByType()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	resp := ProfileStatsResponse{
		Designer: counts[string(profile.LabelDesigner)],
		Consumer: counts[string(profile.LabelConsumer)],
	}
	for _, n := range counts {
		resp.Total += n
	}
	c.JSON(http.StatusOK, resp)
}

// assess runs the advisory classification.
func (s *Server) assess(answers profile.AnswerSet) profile.Assessment {
	return profile.Assess(s.bank, answers)
}

// recordWarnings counts integrity warnings. Callers pass each warning once per
// request or stream session.
func (s *Server) recordWarnings(ctx context.Context, warnings []profile.IntegrityWarning) {
	for _, w := range warnings {
		s.metrics.Inc(ctx, metrics.IntegrityWarnings, map[string]string{"reason": w.Reason}, 1)
	}
}

// saveProfile gates on completion, then persists the final classification.
// Only answers that resolve to an option are stored.
func (s *Server) saveProfile(ctx context.Context, answers profile.AnswerSet) (*store.Profile, profile.Assessment, error) {
	assessment := s.assess(answers)
	if !assessment.Complete {
		return nil, assessment, fmt.Errorf("%w: answered %d of %d", errIncomplete, assessment.Answered, assessment.Total)
	}

	row := &store.Profile{
		Type:          string(assessment.Result.Type),
		DesignerScore: assessment.Result.Scores.Designer,
		ConsumerScore: assessment.Result.Scores.Consumer,
		BankVersion:   s.bank.Version,
	}
	row.SetAnswers(profile.Resolved(s.bank, answers))
	if err := s.db.SaveProfile(row); err != nil {
		return nil, assessment, fmt.Errorf("save profile: %w", err)
	}
	s.metrics.Inc(ctx, metrics.ProfilesClassified, map[string]string{"type": row.Type}, 1)
	return row, assessment, nil
}
