package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/auth/login", `{"username":"head","password":"password"}`, 0)
	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, "登录成功", resp.Message)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, tokenCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEmpty(t, cookies[0].Value)

	// 返回的用户信息中不包含密码哈希
	assert.NotContains(t, rec.Body.String(), "passwordHash")
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.do(t, http.MethodPost, "/auth/login", `{"username":"head","password":"wrong"}`, 0)
	assert.False(t, resp.Success)
	assert.Equal(t, "用户名不存在或密码错误", resp.Message)

	_, resp = env.do(t, http.MethodPost, "/auth/login", `{"username":"nobody","password":"password"}`, 0)
	assert.False(t, resp.Success)
	assert.Equal(t, "用户名不存在或密码错误", resp.Message)
}

func TestLoginValidatesBody(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.do(t, http.MethodPost, "/auth/login", `{"username":"head"}`, 0)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "Password")

	_, resp = env.do(t, http.MethodPost, "/auth/login", `not json`, 0)
	assert.False(t, resp.Success)
	assert.Equal(t, "请求体格式错误", resp.Message)
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/auth/logout", "", 0)
	require.True(t, resp.Success)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.do(t, http.MethodGet, "/my-info", "", 0)
	assert.False(t, resp.Success)
	assert.Equal(t, "用户未登录", resp.Message)

	req := httptest.NewRequest(http.MethodGet, "/my-info", nil)
	req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: "garbage"})
	rec := httptest.NewRecorder()
	env.handler.Mux.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "无效的令牌")

	_, resp = env.do(t, http.MethodGet, "/my-info", "", 2)
	require.True(t, resp.Success)
	info := resp.Data.(map[string]any)
	assert.Equal(t, "nurse", info["username"])
}

func TestInactiveUserIsRejected(t *testing.T) {
	env := newTestEnv(t)
	env.repo.users[2].IsActive = false

	_, resp := env.do(t, http.MethodGet, "/my-info", "", 2)
	assert.False(t, resp.Success)
	assert.Equal(t, "账号已停用", resp.Message)
}
