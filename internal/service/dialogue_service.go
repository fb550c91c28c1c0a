package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/internal/repository"
	"github.com/EthanMiao/manaboo/internal/util"
	"github.com/EthanMiao/manaboo/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// contextTurns 传给生成服务的历史轮数上限
const contextTurns = 5

const defaultScenarioName = "日常会话"

type Scenario struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var scenarios = []Scenario{
	{ID: "greeting", Name: "打招呼"},
	{ID: "interview", Name: "面试"},
	{ID: "shopping", Name: "购物"},
	{ID: "restaurant", Name: "餐厅"},
	{ID: "hospital", Name: "看病"},
	{ID: "hotel", Name: "酒店"},
	{ID: "direction", Name: "问路"},
	{ID: "phone", Name: "电话"},
}

// ScenarioName 未登记的场景按日常会话处理
func ScenarioName(id string) string {
	for _, s := range scenarios {
		if s.ID == id {
			return s.Name
		}
	}
	return defaultScenarioName
}

type SendInput struct {
	SessionID  string
	UserID     string
	ScenarioID string
	Message    string
}

type SendResult struct {
	Reply      string              `json:"reply"`
	SessionID  string              `json:"sessionId"`
	Correction *SentenceCorrection `json:"correction,omitempty"`
}

type DialogueService struct {
	DB           *gorm.DB
	DialogueRepo *repository.DialogueRepository
	StatRepo     *repository.StudyStatRepository
	Generator    Generator
	now          func() time.Time
}

func NewDialogueService(
	db *gorm.DB,
	dialogueRepo *repository.DialogueRepository,
	statRepo *repository.StudyStatRepository,
	generator Generator,
) *DialogueService {
	return &DialogueService{
		DB:           db,
		DialogueRepo: dialogueRepo,
		StatRepo:     statRepo,
		Generator:    generator,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *DialogueService) Scenarios() []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

// Send 生成回复和纠错在事务外并发执行，写入时重新加锁读取会话再追加两轮
func (s *DialogueService) Send(ctx context.Context, in SendInput) (*SendResult, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, util.ValidationError("消息不能为空")
	}

	var history []model.Turn
	scenarioID := in.ScenarioID
	if in.SessionID != "" {
		session, err := s.DialogueRepo.FindByID(ctx, in.SessionID)
		if err != nil {
			return nil, err
		}
		if err := checkOwner(session, in.UserID); err != nil {
			return nil, err
		}
		history = session.LastTurns(contextTurns)
		if scenarioID == "" {
			scenarioID = session.Scenario
		}
	}

	var (
		reply      string
		correction SentenceCorrection
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		reply = s.Generator.DialogueTurn(gctx, DialogueTurnRequest{
			ScenarioName: ScenarioName(scenarioID),
			History:      history,
			Message:      in.Message,
		})
		return nil
	})
	g.Go(func() error {
		correction = s.Generator.CorrectSentence(gctx, in.Message)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	turns := []model.Turn{
		{Role: model.RoleUser, Text: in.Message},
		{Role: model.RoleAssistant, Text: reply},
	}
	sessionID, err := s.persist(ctx, in, scenarioID, turns)
	if err != nil {
		return nil, err
	}

	result := &SendResult{Reply: reply, SessionID: sessionID}
	if correction.Corrected != in.Message {
		result.Correction = &correction
	}
	return result, nil
}

func (s *DialogueService) persist(ctx context.Context, in SendInput, scenarioID string, turns []model.Turn) (string, error) {
	sessionID := in.SessionID
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.DialogueRepo.WithTx(tx)
		now := s.now()

		if sessionID == "" {
			session := &model.DialogueSession{
				ID:        model.GenerateUUID(),
				UserID:    in.UserID,
				Scenario:  scenarioID,
				History:   turns,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := repo.Create(ctx, session); err != nil {
				return fmt.Errorf("create session: %w", err)
			}
			sessionID = session.ID
		} else {
			// 会话可能在生成期间被删除
			session, err := repo.FindForUpdate(ctx, sessionID)
			if err != nil {
				return err
			}
			if err := checkOwner(session, in.UserID); err != nil {
				return err
			}
			session.History = append(session.History, turns...)
			session.UpdatedAt = now
			if err := repo.UpdateHistory(ctx, session); err != nil {
				return fmt.Errorf("update session: %w", err)
			}
		}

		if err := s.StatRepo.WithTx(tx).Increment(ctx, in.UserID, now, repository.StatDialogue); err != nil {
			return fmt.Errorf("update study stats: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	logger.Log.Debug("对话已保存", zap.String("user_id", in.UserID), zap.String("session_id", sessionID))
	return sessionID, nil
}

// checkOwner 别人的会话按不存在处理，不暴露会话 id 是否有效
func checkOwner(session *model.DialogueSession, userID string) error {
	if session.UserID != userID {
		return util.ErrSessionNotFound
	}
	return nil
}

// Correct 单独纠错，不写库
func (s *DialogueService) Correct(ctx context.Context, message string) (SentenceCorrection, error) {
	if strings.TrimSpace(message) == "" {
		return SentenceCorrection{}, util.ValidationError("消息不能为空")
	}
	return s.Generator.CorrectSentence(ctx, message), nil
}

func (s *DialogueService) GetHistory(ctx context.Context, sessionID string) (*model.DialogueSession, error) {
	return s.DialogueRepo.FindByID(ctx, sessionID)
}

func (s *DialogueService) Delete(ctx context.Context, sessionID string) error {
	return s.DialogueRepo.Delete(ctx, sessionID)
}
