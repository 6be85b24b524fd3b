package web

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/to404hanga/online_judge_evaluator/constants"
	"github.com/to404hanga/online_judge_evaluator/model"
	"github.com/to404hanga/online_judge_evaluator/pkg/gintool"
	"github.com/to404hanga/online_judge_evaluator/pkg/logger"
	"github.com/to404hanga/online_judge_evaluator/service/exporter/factory"
)

type ExportHandler struct {
	exporterFactory *factory.ExporterFactory
	log             logger.Logger
}

var _ Handler = (*ExportHandler)(nil)

func NewExportHandler(exporterFactory *factory.ExporterFactory, log logger.Logger) *ExportHandler {
	return &ExportHandler{
		exporterFactory: exporterFactory,
		log:             log,
	}
}

func (h *ExportHandler) Register(r *gin.Engine) {
	r.GET(constants.ExportSubmissionDataPath, gintool.WrapHandler(h.ExportSubmissionData, h.log))
}

// ExportSubmissionData 导出题目的全部提交记录, 管理员专用
func (h *ExportHandler) ExportSubmissionData(c *gin.Context, param *model.ExportSubmissionDataParam) {
	ctx := logger.ContextWithFields(c.Request.Context(),
		logger.Uint64("problem_id", param.ProblemID),
		logger.String("format", param.Format))

	if param.Role != model.RoleAdmin {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusForbidden,
			Message: "admin required",
		})
		return
	}

	exporterType := factory.CSVSubmissionExporter
	if param.Format == "xlsx" {
		exporterType = factory.XLSXSubmissionExporter
	}
	exp := h.exporterFactory.GetExporter(exporterType)
	if exp == nil {
		gintool.GinResponse(c, &gintool.Response{
			Code:    http.StatusBadRequest,
			Message: fmt.Sprintf("Unknown exporter type: %s", exporterType),
		})
		return
	}

	filename := fmt.Sprintf("problem_%d_submissions%s", param.ProblemID, factory.ExporterSuffixMap[exporterType])
	c.Header("Content-Type", factory.ExporterContentTypeMap[exporterType])
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := exp.Export(ctx, param.ProblemID, c.Writer); err != nil {
		// 响应头已写出, 只能记录错误并断开
		h.log.ErrorContext(ctx, "ExportSubmissionData failed", logger.Error(err))
		c.Abort()
		return
	}
	h.log.InfoContext(ctx, "submission data exported", logger.String("filename", filename))
}
