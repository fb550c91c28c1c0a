package controller

import (
	"github.com/EthanMiao/manaboo/internal/service"
	"github.com/EthanMiao/manaboo/internal/util"
	"github.com/gin-gonic/gin"
)

type RecommendationController struct {
	service *service.RecommendationService
}

func NewRecommendationController(s *service.RecommendationService) *RecommendationController {
	return &RecommendationController{service: s}
}

// RecommendGrammar godoc
// @Summary 推荐需要加强的语法点
// @Description 低分语法优先，其次按错题数量
// @Tags 推荐
// @Produce json
// @Param limit query int false "数量，默认5，最大20"
// @Success 200 {object} util.Response{data=[]string}
// @Router /api/recommendations/grammar [get]
func (c *RecommendationController) RecommendGrammar(ctx *gin.Context) {
	limit := util.ParseIntDefault(ctx.Query("limit"), util.DefaultRecommendLimit)
	if limit <= 0 {
		limit = util.DefaultRecommendLimit
	}
	if limit > util.MaxRecommendLimit {
		limit = util.MaxRecommendLimit
	}

	ids, err := c.service.Recommend(ctx.Request.Context(), util.GetUserID(ctx), limit)
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	util.Success(ctx, ids)
}
