package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"Twincord/internal/model"
	"Twincord/internal/pkg"
)

type UserService struct {
	users  UserStore
	tokens TokenStore
	issuer *pkg.TokenIssuer
	events EventPublisher
	now    func() time.Time
}

func NewUserService(users UserStore, tokens TokenStore, issuer *pkg.TokenIssuer, events EventPublisher) *UserService {
	return &UserService{
		users:  users,
		tokens: tokens,
		issuer: issuer,
		events: events,
		now:    time.Now,
	}
}

// Register 注册并直接签发 token
func (s *UserService) Register(ctx context.Context, name, email, password string) (*model.User, *pkg.Pair, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return nil, nil, pkg.InvalidArgument("Missing name, email or password")
	}

	_, err := s.users.FindUserByEmail(ctx, email)
	if err == nil {
		return nil, nil, pkg.InvalidArgument("User already exists with this email")
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, nil, pkg.Unavailable("Internal server error during registration", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, pkg.Unavailable("Internal server error during registration", err)
	}

	user := &model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Password:  string(hash),
		CreatedAt: s.now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, nil, pkg.Unavailable("Internal server error during registration", err)
	}

	token, err := s.issue(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	notify(ctx, s.events, model.ChangeEvent{Type: model.EventUserRegistered, UserID: user.ID, At: user.CreatedAt})
	return user, token, nil
}

// Login 校验密码，标记在线并签发 token
func (s *UserService) Login(ctx context.Context, email, password string) (*model.User, *pkg.Pair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil, pkg.InvalidArgument("Invalid email or password")
	}
	if err != nil {
		return nil, nil, pkg.Unavailable("Internal server error during login", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, nil, pkg.InvalidArgument("Invalid email or password")
	}

	if err := s.users.SetOnline(ctx, user.ID, true); err != nil {
		return nil, nil, pkg.Unavailable("Internal server error during login", err)
	}
	now := s.now()
	user.IsOnline = true
	user.LastSeen = &now

	token, err := s.issue(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	notify(ctx, s.events, model.ChangeEvent{Type: model.EventUserOnline, UserID: user.ID, At: now})
	return user, token, nil
}

// Logout 标记离线并删除登录态
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if err := s.users.SetOnline(ctx, userID, false); err != nil {
		return pkg.Unavailable("Internal server error during logout", err)
	}
	if err := s.tokens.DeleteUserToken(ctx, userID); err != nil {
		return pkg.Unavailable("Internal server error during logout", err)
	}
	notify(ctx, s.events, model.ChangeEvent{Type: model.EventUserOffline, UserID: userID, At: s.now()})
	return nil
}

func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*pkg.Pair, error) {
	pair, err := s.issuer.Refresh(refreshToken)
	if err != nil {
		return nil, pkg.Unauthenticated("Invalid or expired refresh token")
	}
	claims, err := s.issuer.ParseAccess(pair.AccessToken)
	if err != nil {
		return nil, pkg.Unavailable("Server error", err)
	}
	if err := s.tokens.AddUserToken(ctx, claims.UserID, pair.AccessToken); err != nil {
		return nil, pkg.Unavailable("Server error", err)
	}
	return pair, nil
}

// Authenticate 校验 access token 且必须是当前登录态的那一个，成功后续期
func (s *UserService) Authenticate(ctx context.Context, accessToken string) (string, error) {
	claims, err := s.issuer.ParseAccess(accessToken)
	if err != nil {
		return "", pkg.Unauthenticated("Invalid or expired token")
	}
	stored, err := s.tokens.GetUserToken(ctx, claims.UserID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return "", pkg.Unavailable("Server error", err)
	}
	if err != nil || stored != accessToken {
		return "", pkg.Unauthenticated("Account has been logged in elsewhere")
	}
	// 读到之后刚好过期
	if err := s.tokens.ExtendUserToken(ctx, claims.UserID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return "", pkg.Unauthenticated("Account has been logged in elsewhere")
		}
		return "", pkg.Unavailable("Server error", err)
	}
	return claims.UserID, nil
}

func (s *UserService) issue(ctx context.Context, userID string) (*pkg.Pair, error) {
	pair, err := s.issuer.GeneratePair(userID)
	if err != nil {
		return nil, pkg.Unavailable("Server error", err)
	}
	if err := s.tokens.AddUserToken(ctx, userID, pair.AccessToken); err != nil {
		return nil, pkg.Unavailable("Server error", err)
	}
	return pair, nil
}
