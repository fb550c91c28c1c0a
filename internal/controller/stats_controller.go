package controller

import (
	"fmt"
	"net/http"

	"github.com/EthanMiao/manaboo/internal/service"
	"github.com/EthanMiao/manaboo/internal/util"
	"github.com/gin-gonic/gin"
)

type StatsController struct {
	service *service.StatsService
}

func NewStatsController(s *service.StatsService) *StatsController {
	return &StatsController{service: s}
}

// Weekly godoc
// @Summary 最近七天学习统计
// @Tags 统计
// @Produce json
// @Success 200 {object} util.Response{data=service.WeeklyStats}
// @Router /api/stats/weekly [get]
func (c *StatsController) Weekly(ctx *gin.Context) {
	stats, err := c.service.Weekly(ctx.Request.Context(), util.GetUserID(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}

// Summary godoc
// @Summary 学习概况
// @Tags 统计
// @Produce json
// @Success 200 {object} util.Response{data=service.StudySummary}
// @Router /api/stats/summary [get]
func (c *StatsController) Summary(ctx *gin.Context) {
	summary, err := c.service.Summary(ctx.Request.Context(), util.GetUserID(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}
	util.Success(ctx, summary)
}

// Export godoc
// @Summary 导出学习记录
// @Description 返回 xlsx 文件
// @Tags 统计
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} file
// @Router /api/stats/export [get]
func (c *StatsController) Export(ctx *gin.Context) {
	file, err := c.service.Export(ctx.Request.Context(), util.GetUserID(ctx))
	if err != nil {
		util.HandleError(ctx, err)
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Name))
	if file.ArchiveURL != "" {
		ctx.Header("X-Archive-URL", file.ArchiveURL)
	}
	ctx.Data(http.StatusOK, util.MimeXLSX, file.Data)
}
