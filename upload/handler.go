package upload

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler 上传接口
//
//	GET  <prefix>/*filename  签发上传凭证，返回 200 {"token","key","url"}
//	POST <prefix>            记录上传完成，请求体 {"key"}，返回 201 {"key","pk"}
type Handler struct {
	issuer   *Issuer
	recorder *Recorder
	logger   logrus.FieldLogger
}

// NewHandler 创建上传接口，recorder 为 nil 时不提供上传完成接口
func NewHandler(issuer *Issuer, recorder *Recorder, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		issuer:   issuer,
		recorder: recorder,
		logger:   logger,
	}
}

// Register 在路由组上注册上传接口
func (h *Handler) Register(group *gin.RouterGroup) {
	group.GET("/*filename", h.IssueToken)
	if h.recorder != nil {
		group.POST("", h.Complete)
	}
}

// IssueToken 签发上传凭证
func (h *Handler) IssueToken(c *gin.Context) {
	filename := strings.TrimPrefix(c.Param("filename"), "/")

	ticket, err := h.issuer.Issue(filename)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"filename": filename,
		"key":      ticket.Key,
	}).Debug("已签发上传凭证")
	c.JSON(http.StatusOK, ticket)
}

// completeRequest 上传完成请求
type completeRequest struct {
	Key string `json:"key" form:"key" binding:"required"`
}

// Complete 记录上传完成
func (h *Handler) Complete(c *gin.Context) {
	var req completeRequest
	if err := c.ShouldBind(&req); err != nil {
		h.respondError(c, &HTTPError{
			Code:    http.StatusBadRequest,
			Message: "请求参数无效",
			Details: err.Error(),
		})
		return
	}

	if !h.issuer.Owns(req.Key) {
		h.respondError(c, ErrInvalidKey)
		return
	}

	completion, err := h.recorder.Complete(c.Request.Context(), req.Key)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, completion)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	he := toHTTPError(err)

	entry := h.logger.WithFields(logrus.Fields{
		"path":   c.Request.URL.Path,
		"status": he.Code,
	}).WithError(err)
	if he.Code >= http.StatusInternalServerError {
		entry.Error("上传接口请求失败")
	} else {
		entry.Warn("上传接口请求无效")
	}

	c.AbortWithStatusJSON(he.Code, he)
}
