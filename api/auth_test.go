package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ledger/config"
	"ledger/database"
	"ledger/middleware"
	"ledger/models"
	"ledger/service"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupMockDB 基于 sqlmock 的 mysql 存储
func setupMockDB(t *testing.T) (sqlmock.Sqlmock, *database.Store) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return mock, database.NewStore(gormDB)
}

func initTestJWT(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "debug"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour},
	}
	config.GlobalConfig = cfg
	middleware.InitJWT(cfg)
	t.Cleanup(func() { config.GlobalConfig = nil })
}

func postJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func newAuthRouter(t *testing.T, opts ...service.AuthOption) (*gin.Engine, *database.Store, *stubUploader) {
	initTestJWT(t)
	store := newTestStore(t)
	uploader := &stubUploader{}
	h := NewAuthHandler(service.NewAuthService(store, uploader, opts...), time.Hour)

	router := gin.New()
	router.POST("/register", h.Register)
	router.POST("/login", h.Login)
	router.POST("/check-email", h.CheckEmail)
	router.POST("/verify-password", h.VerifyPassword)
	router.POST("/forgot-password", h.ForgotPassword)
	router.POST("/reset-password", h.ResetPassword)
	authed := router.Group("/", middleware.JWTAuth())
	authed.GET("/profile", h.GetProfile)
	authed.PUT("/password", h.ChangePassword)
	authed.POST("/profile-picture", h.UploadProfilePicture)
	authed.DELETE("/account", h.DeleteAccount)
	return router, store, uploader
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	w := postJSON(router, "POST", "/register", `{"full_name":"Alice","email":"Alice@Example.com","password":"password123"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "注册成功", resp["message"])
	data := resp["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
	user := data["user_info"].(map[string]interface{})
	assert.Equal(t, "alice@example.com", user["email"])
	assert.NotContains(t, user, "password")

	w = postJSON(router, "POST", "/register", `{"full_name":"Alice","email":"alice@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = postJSON(router, "POST", "/login", `{"email":"alice@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	token := decode(t, w)["data"].(map[string]interface{})["token"].(string)

	claims, err := middleware.ParseToken(token)
	require.NoError(t, err)
	assert.NotZero(t, claims.UserID)

	w = postJSON(router, "POST", "/login", `{"email":"alice@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Register_Invalid(t *testing.T) {
	router, _, _ := newAuthRouter(t)

	w := postJSON(router, "POST", "/register", `{"full_name":"Bob","email":"not-an-email","password":"password123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "POST", "/register", `{"full_name":"Bob","email":"bob@example.com","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "POST", "/register", `{"email":"bob@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login_UserNotFound(t *testing.T) {
	initTestJWT(t)
	mock, store := setupMockDB(t)

	mock.ExpectQuery("SELECT .* FROM `users`").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{}))

	router := gin.New()
	router.POST("/login", NewAuthHandler(service.NewAuthService(store, nil), time.Hour).Login)

	w := postJSON(router, "POST", "/login", `{"email":"nobody@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthHandler_ProfileFlow(t *testing.T) {
	router, _, uploader := newAuthRouter(t)

	w := postJSON(router, "POST", "/register", `{"full_name":"Carol","email":"carol@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	token := decode(t, w)["data"].(map[string]interface{})["token"].(string)

	authed := func(req *http.Request) *httptest.ResponseRecorder {
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	// 未携带 token
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = authed(httptest.NewRequest("GET", "/profile", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Carol", decode(t, w)["data"].(map[string]interface{})["full_name"])

	req := httptest.NewRequest("PUT", "/password", bytes.NewBufferString(`{"old_password":"bad","new_password":"newpassword"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusUnauthorized, authed(req).Code)

	req = httptest.NewRequest("PUT", "/password", bytes.NewBufferString(`{"old_password":"password123","new_password":"newpassword"}`))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusOK, authed(req).Code)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("image", "me.png")
	require.NoError(t, err)
	fw.Write(pngHeader)
	require.NoError(t, mw.Close())
	req = httptest.NewRequest("POST", "/profile-picture", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = authed(req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://cdn.test/profile-pictures/image.png", decode(t, w)["data"].(map[string]interface{})["profile_picture"])
	assert.Equal(t, 1, uploader.calls)

	// 缺少图片
	req = httptest.NewRequest("POST", "/profile-picture", nil)
	assert.Equal(t, http.StatusBadRequest, authed(req).Code)

	assert.Equal(t, http.StatusOK, authed(httptest.NewRequest("DELETE", "/account", nil)).Code)
	assert.Equal(t, http.StatusNotFound, authed(httptest.NewRequest("GET", "/profile", nil)).Code)
}

type captureMailer struct {
	to    string
	token string
}

func (m *captureMailer) PasswordReset(_ context.Context, user *models.User, token string, _ time.Time) error {
	m.to, m.token = user.Email, token
	return nil
}

func TestAuthHandler_RegisterWithPicture(t *testing.T) {
	router, _, uploader := newAuthRouter(t)

	body, ct := multipartBody(t, map[string]string{
		"full_name": "Dave",
		"email":     "dave@example.com",
		"password":  "password123",
	}, pngHeader)
	req := httptest.NewRequest("POST", "/register", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := decode(t, w)["data"].(map[string]interface{})["user_info"].(map[string]interface{})
	assert.Equal(t, "https://cdn.test/profile-pictures/image.png", user["profile_picture"])
	assert.Equal(t, 1, uploader.calls)

	// 非图片内容
	body, ct = multipartBody(t, map[string]string{
		"full_name": "Eve",
		"email":     "eve@example.com",
		"password":  "password123",
	}, []byte("<html><script>alert(1)</script></html>"))
	req = httptest.NewRequest("POST", "/register", body)
	req.Header.Set("Content-Type", ct)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, uploader.calls)
}

func TestAuthHandler_CheckEmailAndVerifyPassword(t *testing.T) {
	router, _, _ := newAuthRouter(t)
	w := postJSON(router, "POST", "/register", `{"full_name":"Fay","email":"fay@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(router, "POST", "/check-email", `{"email":"fay@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["data"].(map[string]interface{})["exists"])

	w = postJSON(router, "POST", "/check-email", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = postJSON(router, "POST", "/check-email", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "POST", "/verify-password", `{"email":"fay@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, true, data["valid"])
	assert.NotContains(t, data, "token")

	w = postJSON(router, "POST", "/verify-password", `{"email":"fay@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = postJSON(router, "POST", "/verify-password", `{"email":"ghost@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	mailer := &captureMailer{}
	router, _, _ := newAuthRouter(t, service.WithResetMailer(mailer))
	w := postJSON(router, "POST", "/register", `{"full_name":"Gus","email":"gus@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	// 未注册的邮箱同样返回成功
	w = postJSON(router, "POST", "/forgot-password", `{"email":"ghost@example.com"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, mailer.token)

	w = postJSON(router, "POST", "/forgot-password", `{"email":"gus@example.com"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gus@example.com", mailer.to)
	require.NotEmpty(t, mailer.token)

	w = postJSON(router, "POST", "/reset-password", `{"token":"wrong","new_password":"brandnew1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "POST", "/reset-password", `{"token":"`+mailer.token+`","new_password":"brandnew1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(router, "POST", "/login", `{"email":"gus@example.com","password":"brandnew1"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	// 令牌已使用
	w = postJSON(router, "POST", "/reset-password", `{"token":"`+mailer.token+`","new_password":"again123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
