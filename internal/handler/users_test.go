package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/notes-keeper/internal/config"
	"github.com/iliyamo/notes-keeper/internal/repository"
)

type stubDirectory struct {
	user        repository.User
	getErr      error
	usernameErr error
	passwordErr error
	usernames   []string
	passwords   []string
}

func (s *stubDirectory) GetByID(context.Context, uint64) (repository.User, error) {
	return s.user, s.getErr
}

func (s *stubDirectory) List(context.Context) ([]repository.User, error) {
	return []repository.User{s.user}, s.getErr
}

func (s *stubDirectory) UpdateUsername(_ context.Context, _ uint64, username string) error {
	if s.usernameErr != nil {
		return s.usernameErr
	}
	s.usernames = append(s.usernames, username)
	return nil
}

func (s *stubDirectory) UpdatePassword(_ context.Context, _ uint64, password string, _ int) error {
	if s.passwordErr != nil {
		return s.passwordErr
	}
	s.passwords = append(s.passwords, password)
	return nil
}

func (s *stubDirectory) Delete(context.Context, uint64) error { return s.getErr }

func userHandlerForTest(d *stubDirectory) *UserHandler {
	cfg := config.Config{BcryptCost: bcrypt.MinCost}
	return &UserHandler{Cfg: cfg, Users: d, Validate: validator.New()}
}

func ownProfileCtx(method, target, body string, uid uint64, param string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := noteCtx(method, target, body, uid)
	c.SetParamNames("id")
	c.SetParamValues(param)
	return c, rec
}

func TestUserUpdate_ReplacesBothFields(t *testing.T) {
	dir := &stubDirectory{user: repository.User{ID: 7, Username: "alice2", Role: repository.RoleOrdinary}}
	h := userHandlerForTest(dir)

	c, rec := ownProfileCtx(http.MethodPut, "/v1/users/7", `{"username":"alice2","password":"pw2"}`, 7, "7")
	require.NoError(t, h.Update(c))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"alice2"}, dir.usernames)
	require.Equal(t, []string{"pw2"}, dir.passwords)
	require.Contains(t, rec.Body.String(), `"username":"alice2"`)
}

func TestUserUpdate_RequiresBothFields(t *testing.T) {
	dir := &stubDirectory{}
	h := userHandlerForTest(dir)

	c, rec := ownProfileCtx(http.MethodPut, "/v1/users/7", `{"username":"alice2"}`, 7, "7")
	require.NoError(t, h.Update(c))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "This field is required.")
	require.Empty(t, dir.usernames, "validation failure must not write")
}

func TestUserUpdate_ForeignProfileForbidden(t *testing.T) {
	dir := &stubDirectory{}
	h := userHandlerForTest(dir)

	c, rec := ownProfileCtx(http.MethodPut, "/v1/users/8", `{"username":"x","password":"y"}`, 7, "8")
	require.NoError(t, h.Update(c))

	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Empty(t, dir.usernames)
}

func TestUserUpdate_TakenUsername(t *testing.T) {
	dir := &stubDirectory{usernameErr: repository.ErrConflict}
	h := userHandlerForTest(dir)

	c, rec := ownProfileCtx(http.MethodPut, "/v1/users/7", `{"username":"taken","password":"pw"}`, 7, "7")
	require.NoError(t, h.Update(c))

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestUserPatch_SingleField(t *testing.T) {
	dir := &stubDirectory{user: repository.User{ID: 7, Username: "alice", Role: repository.RoleOrdinary}}
	h := userHandlerForTest(dir)

	c, rec := ownProfileCtx(http.MethodPatch, "/v1/users/7", `{"password":"pw2"}`, 7, "7")
	require.NoError(t, h.Patch(c))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, dir.usernames, "absent field must stay untouched")
	require.Equal(t, []string{"pw2"}, dir.passwords)
}

func TestUserPatch_EmptyBodyRejected(t *testing.T) {
	h := userHandlerForTest(&stubDirectory{})

	c, rec := ownProfileCtx(http.MethodPatch, "/v1/users/7", `{}`, 7, "7")
	require.NoError(t, h.Patch(c))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "nothing to update")
}

func TestUserDelete_ForeignProfileForbidden(t *testing.T) {
	h := userHandlerForTest(&stubDirectory{})

	c, rec := ownProfileCtx(http.MethodDelete, "/v1/users/9", "", 7, "9")
	require.NoError(t, h.Delete(c))

	require.Equal(t, http.StatusForbidden, rec.Code)
}
