package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/invin-app/invin-core/internal/server"
	"github.com/invin-app/invin-core/internal/server/dao"
)

const userContextKey = "user"

const devEmail = "dev@invin.app"

type AuthAPI struct {
	Users       dao.UserRepository
	Sessions    dao.SessionRepository
	UpstreamURL string
	SessionTTL  time.Duration

	httpClient *http.Client
}

func NewAuthAPI(users dao.UserRepository, sessions dao.SessionRepository, upstreamURL string, ttl time.Duration) *AuthAPI {
	return &AuthAPI{
		Users:       users,
		Sessions:    sessions,
		UpstreamURL: upstreamURL,
		SessionTTL:  ttl,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// RequireAuth resolves the Bearer token to a user or aborts with 401.
func (a *AuthAPI) RequireAuth(ctx *gin.Context) {
	token := bearerToken(ctx)
	if token == "" {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	session, err := a.Sessions.Find(token)
	if err != nil || session == nil || session.ExpiresAt.Before(time.Now()) {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	user, err := a.Users.FindByID(session.UserID)
	if err != nil || user == nil {
		ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	ctx.Set(userContextKey, user)
	ctx.Next()
}

func currentUser(ctx *gin.Context) *server.User {
	value, _ := ctx.Get(userContextKey)
	user, _ := value.(*server.User)
	return user
}

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// DevLogin bypasses the OAuth flow for local development and testing.
func (a *AuthAPI) DevLogin(ctx *gin.Context) {
	user, err := a.findOrCreateUser(devEmail, "Dev User", "")
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token := "dev_session_" + uuid.New().String()
	if err := a.storeSession(user.UserID, token); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"session_token": token,
		"user": gin.H{
			"user_id": user.UserID,
			"email":   user.Email,
			"name":    user.Name,
		},
	})
}

type upstreamSessionData struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	SessionToken string `json:"session_token"`
}

// ExchangeSession trades an upstream auth session id for a session token.
func (a *AuthAPI) ExchangeSession(ctx *gin.Context) {
	sessionID := ctx.GetHeader("X-Session-ID")
	if sessionID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "X-Session-ID header required"})
		return
	}

	data, err := a.fetchUpstreamSession(sessionID)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return
	}

	user, err := a.findOrCreateUser(data.Email, data.Name, data.Picture)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := a.storeSession(user.UserID, data.SessionToken); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"session_token": data.SessionToken,
		"user": gin.H{
			"user_id": user.UserID,
			"email":   user.Email,
			"name":    user.Name,
			"picture": user.Picture,
		},
	})
}

func (a *AuthAPI) Me(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, currentUser(ctx))
}

func (a *AuthAPI) Logout(ctx *gin.Context) {
	token := bearerToken(ctx)
	if token == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "no authorization header"})
		return
	}
	if err := a.Sessions.Delete(token); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (a *AuthAPI) fetchUpstreamSession(sessionID string) (*upstreamSessionData, error) {
	req, err := http.NewRequest(http.MethodGet, a.UpstreamURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Session-ID", sessionID)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream auth returned %d", resp.StatusCode)
	}
	var data upstreamSessionData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (a *AuthAPI) findOrCreateUser(email, name, picture string) (*server.User, error) {
	user, err := a.Users.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	user = &server.User{
		UserID:    "user_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12],
		Email:     email,
		Name:      name,
		Picture:   picture,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.Users.Insert(*user); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *AuthAPI) storeSession(userID, token string) error {
	return a.Sessions.Insert(server.Session{
		UserID:       userID,
		SessionToken: token,
		ExpiresAt:    time.Now().UTC().Add(a.SessionTTL),
		CreatedAt:    time.Now().UTC(),
	})
}
