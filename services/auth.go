// services/auth.go
package services

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/wiz-rewards/wiz_api/dto"
	"github.com/wiz-rewards/wiz_api/model"
	"github.com/wiz-rewards/wiz_api/shared"
)

type AuthService struct {
	context.DefaultService

	sqlSvc  *PostgresService
	jwtSvc  *JWTService
	userSvc *UserService

	httpClient *http.Client
}

const AUTH_SVC = "auth_svc"

// Google's tokeninfo endpoint validates an ID token and returns its claims.
// Only consulted when the Google auth flag is on.
const googleTokenInfoURL = "https://oauth2.googleapis.com/tokeninfo?id_token="

func (svc AuthService) Id() string {
	return AUTH_SVC
}

func (svc *AuthService) Configure(ctx *context.Context) error {
	svc.httpClient = &http.Client{Timeout: 10 * time.Second}
	return svc.DefaultService.Configure(ctx)
}

func (svc *AuthService) Start() error {
	svc.sqlSvc = svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.jwtSvc = svc.Service(JWT_SVC).(*JWTService)
	svc.userSvc = svc.Service(USER_SVC).(*UserService)
	return nil
}

func (svc *AuthService) Register(req dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if _, err := svc.sqlSvc.GetUserByEmail(req.Email); err == nil {
		return nil, shared.NewConflictError(fmt.Errorf("email taken"), "Email is already registered")
	}
	if _, err := svc.sqlSvc.GetUserByUsername(req.Username); err == nil {
		return nil, shared.NewConflictError(fmt.Errorf("username taken"), "Username is already taken")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to create account")
	}

	userID, _ := uuid.NewV7()
	user := &model.User{
		ID:       userID.String(),
		Email:    req.Email,
		Username: req.Username,
		Password: string(hashed),
		IsActive: true,
	}

	if _, err := svc.sqlSvc.CreateUser(user); err != nil {
		return nil, shared.NewInternalError(err, "Failed to create account")
	}

	if err := svc.userSvc.InitializeUserProgress(user.ID); err != nil {
		log.Printf("Failed to initialize progress for user %s: %v", user.ID, err)
	}

	return &dto.RegisterResponse{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
	}, nil
}

func (svc *AuthService) Login(req dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := svc.sqlSvc.GetUserByEmail(req.Email)
	if err != nil {
		return nil, shared.NewUnauthorizedError(err, "Invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, shared.NewUnauthorizedError(err, "Invalid credentials")
	}

	return svc.issueTokens(user)
}

// LoginWithGoogle exchanges a verified Google ID token for a local session.
// The account is created on first sign-in.
func (svc *AuthService) LoginWithGoogle(req dto.GoogleLoginRequest) (*dto.LoginResponse, error) {
	if !shared.UseGoogleAuth() {
		return nil, shared.NewForbiddenError(fmt.Errorf("google auth disabled"), "Google sign-in is not enabled")
	}

	info, err := svc.verifyGoogleToken(req.IDToken)
	if err != nil {
		return nil, shared.NewUnauthorizedError(err, "Invalid Google token")
	}

	user, err := svc.sqlSvc.GetUserByEmail(info.Email)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			return nil, shared.NewInternalError(err, "Failed to look up account")
		}
		user, err = svc.createGoogleUser(info)
		if err != nil {
			return nil, err
		}
	}

	return svc.issueTokens(user)
}

type googleTokenInfo struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified string `json:"email_verified"`
	Name          string `json:"name"`
}

func (svc *AuthService) verifyGoogleToken(idToken string) (*googleTokenInfo, error) {
	resp, err := svc.httpClient.Get(googleTokenInfoURL + idToken)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tokeninfo returned status %d", resp.StatusCode)
	}

	var info googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	if info.Email == "" || info.EmailVerified != "true" {
		return nil, fmt.Errorf("google account email not verified")
	}
	return &info, nil
}

func (svc *AuthService) createGoogleUser(info *googleTokenInfo) (*model.User, error) {
	userID, _ := uuid.NewV7()
	user := &model.User{
		ID:            userID.String(),
		Email:         info.Email,
		Username:      fmt.Sprintf("user_%s", userID.String()[:8]),
		GoogleSubject: info.Subject,
		IsActive:      true,
	}

	if _, err := svc.sqlSvc.CreateUser(user); err != nil {
		return nil, shared.NewInternalError(err, "Failed to create account")
	}
	if err := svc.userSvc.InitializeUserProgress(user.ID); err != nil {
		log.Printf("Failed to initialize progress for user %s: %v", user.ID, err)
	}
	return user, nil
}

func (svc *AuthService) issueTokens(user *model.User) (*dto.LoginResponse, error) {
	if !user.IsActive {
		return nil, shared.NewUnauthorizedError(fmt.Errorf("account inactive"), "Account is inactive")
	}

	pair, err := svc.jwtSvc.GenerateTokenPair(user.ID)
	if err != nil {
		return nil, shared.NewInternalError(err, "Failed to issue token")
	}

	now := time.Now()
	if err := svc.sqlSvc.UpdateUser(user.ID, map[string]interface{}{"last_login_at": &now}); err != nil {
		log.Printf("Failed to record login time for user %s: %v", user.ID, err)
	}

	return &dto.LoginResponse{
		UserID:      user.ID,
		Username:    user.Username,
		AccessToken: pair.AccessToken,
		ExpiresIn:   pair.ExpiresIn,
	}, nil
}
