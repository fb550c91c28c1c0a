package controller

import (
	"github.com/EthanMiao/manaboo/internal/model"
	"github.com/EthanMiao/manaboo/internal/service"
	"github.com/EthanMiao/manaboo/internal/util"
	"github.com/gin-gonic/gin"
)

type GrammarController struct {
	service *service.GrammarService
}

func NewGrammarController(s *service.GrammarService) *GrammarController {
	return &GrammarController{service: s}
}

type GenerateExerciseRequest struct {
	GrammarID string `json:"grammarId" binding:"required"`
	Type      string `json:"type" binding:"required"`
}

type SubmitAnswerRequest struct {
	GrammarID  string `json:"grammarId" binding:"required"`
	QuestionID uint   `json:"questionId" binding:"required"`
	UserAnswer string `json:"userAnswer"`
}

// ListGrammar godoc
// @Summary 获取语法点列表
// @Description 按级别、主题筛选，附带当前用户的熟练度
// @Tags 语法
// @Produce json
// @Param level query string false "级别，如 N5"
// @Param theme query string false "主题"
// @Success 200 {object} util.Response{data=[]service.GrammarItem}
// @Router /api/grammar/list [get]
func (c *GrammarController) ListGrammar(ctx *gin.Context) {
	items, err := c.service.ListGrammar(ctx.Request.Context(), util.GetUserID(ctx), ctx.Query("level"), ctx.Query("theme"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// GetGrammar godoc
// @Summary 获取语法点详情
// @Tags 语法
// @Produce json
// @Param id path string true "语法点ID"
// @Success 200 {object} util.Response{data=service.GrammarItem}
// @Router /api/grammar/{id} [get]
func (c *GrammarController) GetGrammar(ctx *gin.Context) {
	item, err := c.service.GetGrammar(ctx.Request.Context(), util.GetUserID(ctx), ctx.Param("id"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, item)
}

// GenerateExercises godoc
// @Summary 生成练习题
// @Description 题型: choice, fill_in_the_blank, sentence
// @Tags 练习
// @Accept json
// @Produce json
// @Param body body GenerateExerciseRequest true "语法点与题型"
// @Success 200 {object} util.Response{data=[]model.Exercise}
// @Router /api/exercise/generate [post]
func (c *GrammarController) GenerateExercises(ctx *gin.Context) {
	var req GenerateExerciseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	exercises, err := c.service.GenerateExercises(ctx.Request.Context(), req.GrammarID, model.ExerciseType(req.Type))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, exercises)
}

// SubmitAnswer godoc
// @Summary 提交答案
// @Description 判题并更新熟练度，答错时记入错题本
// @Tags 练习
// @Accept json
// @Produce json
// @Param body body SubmitAnswerRequest true "答案"
// @Success 200 {object} util.Response{data=service.SubmitResult}
// @Router /api/exercise/submit [post]
func (c *GrammarController) SubmitAnswer(ctx *gin.Context) {
	var req SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.service.SubmitAnswer(ctx.Request.Context(), util.GetUserID(ctx), req.GrammarID, req.QuestionID, req.UserAnswer)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// ListMistakes godoc
// @Summary 获取错题本
// @Tags 错题
// @Produce json
// @Success 200 {object} util.Response{data=[]service.MistakeItem}
// @Router /api/mistakes [get]
func (c *GrammarController) ListMistakes(ctx *gin.Context) {
	items, err := c.service.ListMistakes(ctx.Request.Context(), util.GetUserID(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// GetMistake godoc
// @Summary 获取错题详情
// @Tags 错题
// @Produce json
// @Param id query int true "错题ID"
// @Success 200 {object} util.Response{data=service.MistakeItem}
// @Router /api/mistakes/detail [get]
func (c *GrammarController) GetMistake(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Query("id"))
	if id == 0 {
		util.BadRequest(ctx, "无效的错题ID")
		return
	}

	item, err := c.service.GetMistake(ctx.Request.Context(), id)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, item)
}

// GetProficiency godoc
// @Summary 获取语法点熟练度
// @Tags 语法
// @Produce json
// @Param grammarId path string true "语法点ID"
// @Success 200 {object} util.Response{data=service.ProficiencyView}
// @Router /api/proficiency/{grammarId} [get]
func (c *GrammarController) GetProficiency(ctx *gin.Context) {
	view, err := c.service.GetProficiency(ctx.Request.Context(), util.GetUserID(ctx), ctx.Param("grammarId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, view)
}
