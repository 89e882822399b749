// auth.go — обработчики /api/auth: логин, текущий пользователь, выход,
// демонстрационные endpoints с ролевым доступом.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	apierrors "github.com/Salama0/ITI-Examination-System/internal/api/errors"
	"github.com/Salama0/ITI-Examination-System/internal/api/middleware"
	"github.com/Salama0/ITI-Examination-System/internal/domain/model"
	"github.com/Salama0/ITI-Examination-System/internal/service"
)

// maxLoginBody — ограничение размера тела запроса логина.
const maxLoginBody = 1 << 14

// LoginService — аутентификация с выпуском токена.
// Реализуется service.AuthService.
type LoginService interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
}

// AuthHandler — обработчик /api/auth.
type AuthHandler struct {
	auth   LoginService
	logger *slog.Logger
}

// NewAuthHandler создаёт обработчик аутентификации.
func NewAuthHandler(auth LoginService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		logger: logger.With(slog.String("component", "auth_handler")),
	}
}

// loginRequest — тело POST /api/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse — профиль пользователя в ответах API. Хеша пароля здесь нет.
type userResponse struct {
	UserID         int64   `json:"user_id"`
	Email          string  `json:"email"`
	UserType       string  `json:"user_type"`
	FullName       string  `json:"full_name"`
	StudentID      *int64  `json:"student_id"`
	InstructorID   *int64  `json:"instructor_id"`
	IntakeID       *int64  `json:"intake_id"`
	TrackID        *int64  `json:"track_id"`
	BranchID       *int64  `json:"branch_id"`
	TrackName      *string `json:"track_name"`
	BranchName     *string `json:"branch_name"`
	DepartmentID   *int64  `json:"department_id"`
	DepartmentName *string `json:"department_name"`
}

// loginResponse — ответ успешного логина.
type loginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        userResponse `json:"user"`
}

// messageResponse — ответ с текстовым сообщением.
type messageResponse struct {
	Message string `json:"message"`
}

func newUserResponse(u *model.Identity) userResponse {
	fullName := u.FullName
	if fullName == "" {
		fullName = model.DefaultFullName
	}
	return userResponse{
		UserID:         u.UserID,
		Email:          u.Email,
		UserType:       u.Role,
		FullName:       fullName,
		StudentID:      u.StudentID,
		InstructorID:   u.InstructorID,
		IntakeID:       u.IntakeID,
		TrackID:        u.TrackID,
		BranchID:       u.BranchID,
		TrackName:      u.TrackName,
		BranchName:     u.BranchName,
		DepartmentID:   u.DepartmentID,
		DepartmentName: u.DepartmentName,
	}
}

// Login — POST /api/auth/login, JSON {email, password}.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Invalid JSON body")
		return
	}

	email, msg := validateEmail(req.Email)
	if msg != "" {
		apierrors.ValidationError(w, msg)
		return
	}
	if req.Password == "" {
		apierrors.ValidationError(w, "password is required")
		return
	}

	h.login(w, r, email, req.Password)
}

// LoginForm — POST /api/auth/login-form, OAuth2 password form
// (username содержит email).
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBody)
	if err := r.ParseForm(); err != nil {
		apierrors.ValidationError(w, "Invalid form body")
		return
	}

	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		apierrors.ValidationError(w, "username and password are required")
		return
	}

	h.login(w, r, username, password)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request, email, password string) {
	res, err := h.auth.Login(r.Context(), email, password)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		User:        newUserResponse(&res.User),
	})
}

// Me — GET /api/auth/me, профиль текущего пользователя.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		apierrors.Unauthorized(w, apierrors.MsgInvalidToken)
		return
	}
	writeJSON(w, http.StatusOK, newUserResponse(identity))
}

// Logout — POST /api/auth/logout. Токены не отзываются, клиент просто удаляет токен.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if identity := middleware.IdentityFromContext(r.Context()); identity != nil {
		h.logger.Info("Выход пользователя", slog.Int64("user_id", identity.UserID))
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Successfully logged out"})
}

// Greeting — демонстрационный endpoint за ролевым шлюзом.
// Приветствует пользователя по роли и имени.
func (h *AuthHandler) Greeting(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		apierrors.Unauthorized(w, apierrors.MsgInvalidToken)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{
		Message: "Hello " + identity.Role + " " + newUserResponse(identity).FullName + "!",
	})
}

// validateEmail проверяет формат email. Возвращает нормализованный адрес
// либо сообщение об ошибке.
func validateEmail(raw string) (string, string) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", "email is required"
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", "email is not a valid email address"
	}
	return email, ""
}
