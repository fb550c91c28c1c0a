package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/internal/repository"
	"github.com/EthanMiao/manaboo/internal/util"
	"github.com/EthanMiao/manaboo/pkg/logger"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	sheetProficiency = "Proficiency"
	sheetMistakes    = "Mistakes"
	sheetDialogues   = "Dialogues"

	weekDays = 7
)

type DailyStat struct {
	Date     string `json:"date"`
	Grammar  int    `json:"grammar"`
	Dialogue int    `json:"dialogue"`
}

type WeeklyStats struct {
	DailyStats    []DailyStat `json:"dailyStats"`
	TotalGrammar  int         `json:"totalGrammar"`
	TotalDialogue int         `json:"totalDialogue"`
}

type StudySummary struct {
	TotalGrammarPracticed int64   `json:"total_grammar_practiced"`
	MasteredGrammar       int64   `json:"mastered_grammar"`
	TotalMistakes         int64   `json:"total_mistakes"`
	TotalDialogueSessions int64   `json:"total_dialogue_sessions"`
	MasteryRate           float64 `json:"mastery_rate"`
}

// ExportFile 导出的工作簿，ArchiveURL 仅在开启归档时有值
type ExportFile struct {
	Name       string
	Data       []byte
	ArchiveURL string
}

type StatsService struct {
	StatRepo        *repository.StudyStatRepository
	ProficiencyRepo *repository.ProficiencyRepository
	MistakeRepo     *repository.MistakeRepository
	DialogueRepo    *repository.DialogueRepository
	Storage         *StorageService
	Archive         bool
	now             func() time.Time
}

func NewStatsService(
	statRepo *repository.StudyStatRepository,
	proficiencyRepo *repository.ProficiencyRepository,
	mistakeRepo *repository.MistakeRepository,
	dialogueRepo *repository.DialogueRepository,
	storage *StorageService,
	archive bool,
) *StatsService {
	return &StatsService{
		StatRepo:        statRepo,
		ProficiencyRepo: proficiencyRepo,
		MistakeRepo:     mistakeRepo,
		DialogueRepo:    dialogueRepo,
		Storage:         storage,
		Archive:         archive,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Weekly 截至今天的 7 天，没有记录的日期补零
func (s *StatsService) Weekly(ctx context.Context, userID string) (*WeeklyStats, error) {
	today := model.StatDay(s.now())
	from := today.AddDate(0, 0, -(weekDays - 1))

	stats, err := s.StatRepo.Range(ctx, userID, from, today)
	if err != nil {
		return nil, fmt.Errorf("load study stats: %w", err)
	}

	byDay := make(map[string]model.StudyStat, len(stats))
	for _, st := range stats {
		byDay[st.Date.UTC().Format(util.DateFormat)] = st
	}

	out := &WeeklyStats{DailyStats: make([]DailyStat, 0, weekDays)}
	for i := 0; i < weekDays; i++ {
		day := from.AddDate(0, 0, i).Format(util.DateFormat)
		st := byDay[day]
		out.DailyStats = append(out.DailyStats, DailyStat{
			Date:     day,
			Grammar:  st.GrammarCount,
			Dialogue: st.DialogueCount,
		})
		out.TotalGrammar += st.GrammarCount
		out.TotalDialogue += st.DialogueCount
	}
	return out, nil
}

func (s *StatsService) Summary(ctx context.Context, userID string) (*StudySummary, error) {
	var (
		sum StudySummary
		err error
	)
	if sum.TotalGrammarPracticed, err = s.ProficiencyRepo.CountByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("count proficiency: %w", err)
	}
	if sum.MasteredGrammar, err = s.ProficiencyRepo.CountMastered(ctx, userID); err != nil {
		return nil, fmt.Errorf("count mastered: %w", err)
	}
	if sum.TotalMistakes, err = s.MistakeRepo.CountByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("count mistakes: %w", err)
	}
	if sum.TotalDialogueSessions, err = s.DialogueRepo.CountByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("count dialogues: %w", err)
	}
	if sum.TotalGrammarPracticed > 0 {
		sum.MasteryRate = float64(sum.MasteredGrammar) / float64(sum.TotalGrammarPracticed) * 100
	}
	return &sum, nil
}

// Export 生成学习数据工作簿。Proficiency 始终作为默认工作表，其余为空时省略
func (s *StatsService) Export(ctx context.Context, userID string) (*ExportFile, error) {
	profs, err := s.ProficiencyRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load proficiency: %w", err)
	}
	mistakes, err := s.MistakeRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load mistakes: %w", err)
	}
	sessions, err := s.DialogueRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load dialogues: %w", err)
	}

	data, err := buildWorkbook(profs, mistakes, sessions)
	if err != nil {
		return nil, err
	}

	now := s.now()
	file := &ExportFile{
		Name: fmt.Sprintf("manaboo_study_data_%s.xlsx", now.Format("20060102")),
		Data: data,
	}

	if s.Archive && s.Storage != nil {
		key := fmt.Sprintf("exports/%s/%s.xlsx", userID, now.Format("20060102T150405Z"))
		url, err := s.Storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), util.MimeXLSX)
		if err != nil {
			// 归档失败不影响下载
			logger.Log.Warn("导出归档失败", zap.String("user_id", userID), zap.Error(err))
		} else {
			file.ArchiveURL = url
		}
	}

	logger.Log.Info("学习数据已导出",
		zap.String("user_id", userID),
		zap.Int("proficiency", len(profs)),
		zap.Int("mistakes", len(mistakes)),
		zap.Int("dialogues", len(sessions)))
	return file, nil
}

func buildWorkbook(profs []model.UserProficiency, mistakes []model.Mistake, sessions []model.DialogueSession) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetProficiency)

	rows := [][]interface{}{{"Grammar ID", "Practice Count", "Correct Count", "Proficiency Score", "Last Practiced", "Mastered"}}
	for _, p := range profs {
		mastered := "no"
		if p.Mastered() {
			mastered = "yes"
		}
		rows = append(rows, []interface{}{
			p.GrammarID, p.PracticeCount, p.CorrectCount, p.ProficiencyScore, formatTime(p.LastPracticed), mastered,
		})
	}
	if err := writeRows(f, sheetProficiency, rows); err != nil {
		return nil, err
	}

	if len(mistakes) > 0 {
		rows = [][]interface{}{{"Grammar ID", "User Answer", "Correct Answer", "Timestamp"}}
		for _, m := range mistakes {
			rows = append(rows, []interface{}{m.GrammarID, m.UserAnswer, m.CorrectAnswer, formatTime(m.Timestamp)})
		}
		f.NewSheet(sheetMistakes)
		if err := writeRows(f, sheetMistakes, rows); err != nil {
			return nil, err
		}
	}

	if len(sessions) > 0 {
		rows = [][]interface{}{{"Session ID", "Scenario", "Message Count", "Created At", "Updated At"}}
		for _, d := range sessions {
			rows = append(rows, []interface{}{
				d.ID, d.Scenario, len(d.History), formatTime(d.CreatedAt), formatTime(d.UpdatedAt),
			})
		}
		f.NewSheet(sheetDialogues)
		if err := writeRows(f, sheetDialogues, rows); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write sheet %s: %w", sheet, err)
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(util.TimeFormat)
}

// Rollup 根据会话的活跃区间重算某天的学习时长（分钟），返回更新的用户数
func (s *StatsService) Rollup(ctx context.Context, day time.Time) (int, error) {
	from := model.StatDay(day)
	to := from.AddDate(0, 0, 1)

	sessions, err := s.DialogueRepo.ListActiveBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("load sessions: %w", err)
	}

	minutes := make(map[string]float64)
	for _, sess := range sessions {
		start := sess.CreatedAt
		if start.Before(from) {
			start = from
		}
		end := sess.UpdatedAt
		if end.After(to) {
			end = to
		}
		span := end.Sub(start).Minutes()
		// 只有一轮的会话也算一分钟
		if span < 1 {
			span = 1
		}
		minutes[sess.UserID] += span
	}

	for userID, m := range minutes {
		if err := s.StatRepo.SetTotalTime(ctx, userID, from, int(math.Ceil(m))); err != nil {
			return 0, fmt.Errorf("save total time for %s: %w", userID, err)
		}
	}

	logger.Log.Info("学习时长汇总完成", zap.String("date", from.Format(util.DateFormat)), zap.Int("users", len(minutes)))
	return len(minutes), nil
}

// RollupYesterday 定时任务入口
func (s *StatsService) RollupYesterday(ctx context.Context) (int, error) {
	return s.Rollup(ctx, s.now().AddDate(0, 0, -1))
}
