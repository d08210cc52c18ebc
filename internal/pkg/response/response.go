package response

import (
	"Marquee/internal/api/dto"
	"Marquee/internal/service"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	Ok                  = 200
	BadRequest          = 400
	Unauthorized        = 401
	InternalServerError = 500
)

// Success 成功返回封装
func Success(ctx *gin.Context, data interface{}) {
	ctx.JSON(http.StatusOK, dto.Response{
		Code:    Ok,
		Message: "success",
		Data:    data,
	})
}

// Fail 失败返回封装
func Fail(c *gin.Context, businessCode int, message string) {
	c.JSON(http.StatusOK, dto.Response{
		Code:    businessCode,
		Message: message,
		Data:    nil,
	})
}

// Error 按错误分类返回业务码，只向客户端暴露分类信息；未归类的错误记为 500 并记录原始错误
func Error(c *gin.Context, err error) {
	code, public, ok := service.Classify(err)
	if !ok || code >= InternalServerError {
		log.ErrorContext(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "err", err)
	}
	Fail(c, code, public.Error())
}
