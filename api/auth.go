package api

import (
	"fmt"
	"net/http"
	"time"

	"ledger/apperr"
	"ledger/middleware"
	"ledger/models"
	"ledger/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	auth   *service.AuthService
	expire time.Duration
}

// NewAuthHandler 创建认证处理器，expire 为 token 有效期
func NewAuthHandler(auth *service.AuthService, expire time.Duration) *AuthHandler {
	return &AuthHandler{auth: auth, expire: expire}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	FullName string `json:"full_name" form:"full_name" binding:"required,max=100" example:"张三"`
	Email    string `json:"email" form:"email" binding:"required,max=100" example:"test@example.com"`
	Password string `json:"password" form:"password" binding:"required,max=50" example:"password123"`
}

// EmailRequest 只包含邮箱的请求
type EmailRequest struct {
	Email string `json:"email" binding:"required,max=100" example:"test@example.com"`
}

// ResetPasswordRequest 使用邮件中的令牌重置密码
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,max=50" example:"newpassword123"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"test@example.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token    string      `json:"token"`
	UserInfo models.User `json:"user_info"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required" example:"oldpassword123"`
	NewPassword string `json:"new_password" binding:"required,max=50" example:"newpassword123"`
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, message string, user *models.User) {
	token, err := middleware.GenerateToken(user.ID, user.Email, h.expire)
	if err != nil {
		InternalError(c, "生成 token 失败")
		return
	}
	c.JSON(status, Response{
		Code:    status,
		Message: message,
		Data:    LoginResponse{Token: token, UserInfo: *user},
	})
}

// Register 用户注册
// @Summary 用户注册
// @Description 创建新用户并直接返回 token。JSON 或 multipart 均可，multipart 时可附带头像 image
// @Tags 认证
// @Accept json,mpfd
// @Produce json
// @Param request body RegisterRequest true "注册信息"
// @Success 201 {object} Response{data=LoginResponse} "注册成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 409 {object} Response "邮箱已注册"
// @Failure 502 {object} Response "头像上传失败"
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	picture, err := readImage(c)
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Picture:  picture,
	})
	if err != nil {
		RespondError(c, err, "创建用户失败")
		return
	}
	h.respondWithToken(c, http.StatusCreated, "注册成功", user)
}

// Login 用户登录
// @Summary 用户登录
// @Description 邮箱和密码登录获取 JWT token
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "登录信息"
// @Success 200 {object} Response{data=LoginResponse} "登录成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "邮箱或密码错误"
// @Failure 429 {object} Response "登录尝试过于频繁"
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}

	user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondError(c, err, "登录失败")
		return
	}
	h.respondWithToken(c, http.StatusOK, "登录成功", user)
}

// GetProfile 获取用户信息
// @Summary 获取当前用户信息
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response{data=models.User} "获取成功"
// @Failure 401 {object} Response "未授权"
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.auth.Profile(c.Request.Context(), middleware.GetCurrentUserID(c))
	if err != nil {
		RespondError(c, err, "获取用户信息失败")
		return
	}
	Success(c, user)
}

// ChangePassword 修改密码
// @Summary 修改密码
// @Tags 认证
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "密码信息"
// @Success 200 {object} Response "修改成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 401 {object} Response "原密码错误"
// @Router /api/v1/auth/password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if err := h.auth.ChangePassword(c.Request.Context(), middleware.GetCurrentUserID(c), req.OldPassword, req.NewPassword); err != nil {
		RespondError(c, err, "修改密码失败")
		return
	}
	SuccessWithMessage(c, "密码修改成功", nil)
}

// UploadProfilePicture 上传头像
// @Summary 上传头像
// @Tags 认证
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param image formData file true "头像图片"
// @Success 200 {object} Response{data=models.User} "上传成功"
// @Failure 400 {object} Response "请求参数错误"
// @Failure 502 {object} Response "图片上传失败"
// @Router /api/v1/auth/profile-picture [post]
func (h *AuthHandler) UploadProfilePicture(c *gin.Context) {
	file, err := readImage(c)
	if err != nil {
		RespondError(c, err, "参数错误")
		return
	}
	if file == nil {
		RespondError(c, fmt.Errorf("%w: 请上传图片", apperr.ErrInvalidInput), "参数错误")
		return
	}
	user, err := h.auth.UpdateProfilePicture(c.Request.Context(), middleware.GetCurrentUserID(c), *file)
	if err != nil {
		RespondError(c, err, "上传头像失败")
		return
	}
	SuccessWithMessage(c, "上传成功", user)
}

// DeleteAccount 注销账号
// @Summary 注销账号
// @Description 删除当前用户及其全部消费、预算和储蓄记录
// @Tags 认证
// @Produce json
// @Security BearerAuth
// @Success 200 {object} Response "注销成功"
// @Router /api/v1/auth/account [delete]
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	if err := h.auth.DeleteAccount(c.Request.Context(), middleware.GetCurrentUserID(c)); err != nil {
		RespondError(c, err, "注销账号失败")
		return
	}
	SuccessWithMessage(c, "注销成功", nil)
}

// CheckEmail 检查邮箱是否已注册
// @Summary 检查邮箱
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body EmailRequest true "邮箱"
// @Success 200 {object} Response "邮箱已注册"
// @Failure 404 {object} Response "邮箱未注册"
// @Router /api/v1/auth/check-email [post]
func (h *AuthHandler) CheckEmail(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if err := h.auth.CheckEmail(c.Request.Context(), req.Email); err != nil {
		RespondError(c, err, "查询邮箱失败")
		return
	}
	SuccessWithMessage(c, "邮箱已注册", gin.H{"exists": true})
}

// VerifyPassword 校验邮箱和密码，不签发 token
// @Summary 校验密码
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body LoginRequest true "邮箱和密码"
// @Success 200 {object} Response "密码正确"
// @Failure 401 {object} Response "密码错误"
// @Failure 404 {object} Response "邮箱未注册"
// @Router /api/v1/auth/verify-password [post]
func (h *AuthHandler) VerifyPassword(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if err := h.auth.VerifyPassword(c.Request.Context(), req.Email, req.Password); err != nil {
		RespondError(c, err, "校验密码失败")
		return
	}
	SuccessWithMessage(c, "密码正确", gin.H{"valid": true})
}

// ForgotPassword 发送密码重置邮件
// @Summary 找回密码
// @Description 向邮箱发送重置链接。为了安全，邮箱未注册时同样返回成功
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body EmailRequest true "邮箱"
// @Success 200 {object} Response "请求成功"
// @Failure 500 {object} Response "邮件发送失败"
// @Router /api/v1/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		RespondError(c, err, "发送重置邮件失败")
		return
	}
	SuccessWithMessage(c, "如果该邮箱已注册，您将收到密码重置邮件", nil)
}

// ResetPassword 使用重置令牌设置新密码
// @Summary 重置密码
// @Tags 认证
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "令牌和新密码"
// @Success 200 {object} Response "重置成功"
// @Failure 400 {object} Response "令牌无效或已过期"
// @Router /api/v1/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, SafeErrorMessage(err, "参数错误"))
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		RespondError(c, err, "重置密码失败")
		return
	}
	SuccessWithMessage(c, "密码重置成功，请使用新密码登录", nil)
}
