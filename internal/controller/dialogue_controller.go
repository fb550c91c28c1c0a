package controller

import (
	"net/http"

	"github.com/EthanMiao/manaboo/internal/service"
	"github.com/EthanMiao/manaboo/internal/util"
	"github.com/gin-gonic/gin"
)

type DialogueController struct {
	service *service.DialogueService
}

func NewDialogueController(s *service.DialogueService) *DialogueController {
	return &DialogueController{service: s}
}

type SendMessageRequest struct {
	ScenarioID string `json:"scenarioId"`
	Message    string `json:"message" binding:"required"`
	SessionID  string `json:"sessionId"`
}

type CorrectRequest struct {
	Message string `json:"message" binding:"required"`
}

// ListScenarios godoc
// @Summary 获取对话场景
// @Tags 对话
// @Produce json
// @Success 200 {object} util.Response{data=[]service.Scenario}
// @Router /api/scenarios [get]
func (c *DialogueController) ListScenarios(ctx *gin.Context) {
	util.Success(ctx, c.service.Scenarios())
}

// Send godoc
// @Summary 发送对话消息
// @Description 不带 sessionId 时创建新会话；原句有误时附带纠错
// @Tags 对话
// @Accept json
// @Produce json
// @Param body body SendMessageRequest true "消息"
// @Success 200 {object} util.Response{data=service.SendResult}
// @Router /api/dialogue/send [post]
func (c *DialogueController) Send(ctx *gin.Context) {
	var req SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.service.Send(ctx.Request.Context(), service.SendInput{
		SessionID:  req.SessionID,
		UserID:     util.GetUserID(ctx),
		ScenarioID: req.ScenarioID,
		Message:    req.Message,
	})
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// Correct godoc
// @Summary 日语句子纠错
// @Tags 对话
// @Accept json
// @Produce json
// @Param body body CorrectRequest true "句子"
// @Success 200 {object} util.Response{data=service.SentenceCorrection}
// @Router /api/dialogue/correct [post]
func (c *DialogueController) Correct(ctx *gin.Context) {
	var req CorrectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	correction, err := c.service.Correct(ctx.Request.Context(), req.Message)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, correction)
}

// GetHistory godoc
// @Summary 获取会话历史
// @Tags 对话
// @Produce json
// @Param sessionId path string true "会话ID"
// @Success 200 {object} util.Response{data=model.DialogueSession}
// @Router /api/dialogue/history/{sessionId} [get]
func (c *DialogueController) GetHistory(ctx *gin.Context) {
	session, err := c.service.GetHistory(ctx.Request.Context(), ctx.Param("sessionId"))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// DeleteSession godoc
// @Summary 删除会话
// @Tags 对话
// @Produce json
// @Param sessionId path string true "会话ID"
// @Success 200 {object} util.Response
// @Router /api/dialogue/session/{sessionId} [delete]
func (c *DialogueController) DeleteSession(ctx *gin.Context) {
	if err := c.service.Delete(ctx.Request.Context(), ctx.Param("sessionId")); err != nil {
		util.HandleError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, util.Response{Code: http.StatusOK, Message: "会话已删除"})
}
