package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/agoraforum/agora/internal/cache"
	"github.com/agoraforum/agora/internal/model"
	appErr "github.com/agoraforum/agora/internal/pkg/errors"
	"github.com/agoraforum/agora/internal/pkg/password"
	"github.com/agoraforum/agora/internal/session"
)

// Activation outcomes.
const (
	ActivationSuccess = iota
	ActivationRepeat
	ActivationFailure
)

// Session lifetimes in seconds.
const (
	DefaultExpiredSeconds  = 3600 * 12
	RememberExpiredSeconds = 3600 * 24 * 100
)

// UserStore is the credential store contract the service composes.
// *repo.UserRepo implements it; tests substitute counting fakes.
type UserStore interface {
	SelectByID(ctx context.Context, id int64) (*model.User, error)
	SelectByName(ctx context.Context, name string) (*model.User, error)
	SelectByEmail(ctx context.Context, email string) (*model.User, error)
	Insert(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateStatus(ctx context.Context, id int64, status int) error
	UpdateHeader(ctx context.Context, id int64, headerURL string) error
}

// UserService orchestrates registration, activation, login and the
// password flows over the credential store, the user cache and the
// ticket manager. Validation failures come back as FieldErrors; store
// and cache transport errors are propagated untouched.
type UserService struct {
	users       UserStore
	cache       *cache.UserCache
	tickets     *session.TicketManager
	sender      EmailSender
	renderer    TemplateRenderer
	domain      string
	contextPath string
}

func NewUserService(users UserStore, userCache *cache.UserCache, tickets *session.TicketManager,
	sender EmailSender, renderer TemplateRenderer, domain, contextPath string) *UserService {
	return &UserService{
		users:       users,
		cache:       userCache,
		tickets:     tickets,
		sender:      sender,
		renderer:    renderer,
		domain:      domain,
		contextPath: contextPath,
	}
}

// Register validates the candidate, persists it as a pending account
// and mails the activation link. The candidate's ID, salt, password
// hash, status and activation code are filled in on success.
func (s *UserService) Register(ctx context.Context, user *model.User) error {
	if user == nil {
		return fmt.Errorf("register: user is nil")
	}
	if strings.TrimSpace(user.Username) == "" {
		return fieldError(FieldUsername, "账号不能为空")
	}
	if strings.TrimSpace(user.Password) == "" {
		return fieldError(FieldPassword, "密码不能为空")
	}
	if strings.TrimSpace(user.Email) == "" {
		return fieldError(FieldEmail, "邮箱不能为空")
	}

	if _, err := s.users.SelectByName(ctx, user.Username); err == nil {
		return fieldError(FieldUsername, "该账号已存在")
	} else if !appErr.IsNotFound(err) {
		return err
	}
	if _, err := s.users.SelectByEmail(ctx, user.Email); err == nil {
		return fieldError(FieldEmail, "该邮箱已被注册")
	} else if !appErr.IsNotFound(err) {
		return err
	}

	user.Salt = newSalt()
	user.Password = password.Hash(user.Password, user.Salt)
	user.Type = model.UserTypeOrdinary
	user.Status = model.UserStatusPending
	user.ActivationCode = newActivationCode()
	user.HeaderURL = fmt.Sprintf("http://images.nowcoder.com/head/%dt.png", rand.Intn(1000))
	user.Ctime = time.Now().Unix()
	if err := s.users.Insert(ctx, user); err != nil {
		return err
	}

	url := fmt.Sprintf("%s%s/auth/activation/%d/%s", s.domain, s.contextPath, user.ID, user.ActivationCode)
	s.sendMail(ctx, user.Email, "激活账号", "activation", map[string]interface{}{
		"email": user.Email,
		"url":   url,
	})
	return nil
}

// Activate flips a pending account to activated when the code
// matches. Repeat and mismatch outcomes mutate nothing and leave the
// cache alone.
func (s *UserService) Activate(ctx context.Context, userID int64, code string) (int, error) {
	user, err := s.users.SelectByID(ctx, userID)
	if err != nil {
		return ActivationFailure, err
	}
	if user.Activated() {
		return ActivationRepeat, nil
	}
	if user.ActivationCode != code {
		return ActivationFailure, nil
	}
	if err := s.users.UpdateStatus(ctx, userID, model.UserStatusActivated); err != nil {
		return ActivationFailure, err
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		return ActivationFailure, err
	}
	return ActivationSuccess, nil
}

// Login checks the credentials and issues a ticket living
// expiredSeconds from now. Pending accounts cannot log in regardless
// of password correctness.
func (s *UserService) Login(ctx context.Context, username, plainPassword string, expiredSeconds int) (*model.LoginTicket, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fieldError(FieldUsername, "账号不能为空")
	}
	if strings.TrimSpace(plainPassword) == "" {
		return nil, fieldError(FieldPassword, "密码不能为空")
	}
	user, err := s.users.SelectByName(ctx, username)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, fieldError(FieldUsername, "该账号不存在")
		}
		return nil, err
	}
	if !user.Activated() {
		return nil, fieldError(FieldUsername, "该账号未激活")
	}
	if !password.Compare(user.Password, plainPassword, user.Salt) {
		return nil, fieldError(FieldPassword, "密码不正确")
	}
	return s.tickets.Issue(ctx, user.ID, time.Duration(expiredSeconds)*time.Second)
}

// Logout revokes the ticket. Unknown tickets are a silent no-op.
func (s *UserService) Logout(ctx context.Context, ticket string) error {
	return s.tickets.Revoke(ctx, ticket)
}

// ResetPassword sets a new password for the account registered under
// email. The caller is responsible for having verified ownership of
// the address beforehand.
func (s *UserService) ResetPassword(ctx context.Context, email, plainPassword string) (*model.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fieldError(FieldEmail, "邮箱不能为空")
	}
	if strings.TrimSpace(plainPassword) == "" {
		return nil, fieldError(FieldPassword, "密码不能为空")
	}
	user, err := s.users.SelectByEmail(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, fieldError(FieldEmail, "该邮箱尚未注册")
		}
		return nil, err
	}
	user.Password = password.Hash(plainPassword, user.Salt)
	if err := s.users.UpdatePassword(ctx, user.ID, user.Password); err != nil {
		return nil, err
	}
	if err := s.cache.Invalidate(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword verifies the old password before persisting the new
// one.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword, confirmPassword string) error {
	if strings.TrimSpace(oldPassword) == "" {
		return fieldError(FieldOldPassword, "原密码不能为空")
	}
	if strings.TrimSpace(newPassword) == "" {
		return fieldError(FieldNewPassword, "新密码不能为空")
	}
	if strings.TrimSpace(confirmPassword) == "" {
		return fieldError(FieldConfirmPassword, "确认密码不能为空")
	}
	if newPassword != confirmPassword {
		return fieldError(FieldConfirmPassword, "两次输入密码不一致")
	}
	user, err := s.users.SelectByID(ctx, userID)
	if err != nil {
		return err
	}
	if !password.Compare(user.Password, oldPassword, user.Salt) {
		return fieldError(FieldOldPassword, "原密码输入有误")
	}
	if err := s.users.UpdatePassword(ctx, userID, password.Hash(newPassword, user.Salt)); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, userID)
}

// VerifyEmailCode generates a short verification code for the forgot
// password flow and mails it to the account's address. The code is
// returned, never persisted here; the caller stashes it for the later
// comparison.
func (s *UserService) VerifyEmailCode(ctx context.Context, email string) (string, *model.User, error) {
	if strings.TrimSpace(email) == "" {
		return "", nil, appErr.ErrInvalid
	}
	user, err := s.users.SelectByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	code := newVerifyCode()
	s.sendMail(ctx, user.Email, "忘记密码", "forget", map[string]interface{}{
		"email":      email,
		"verifyCode": code,
	})
	return code, user, nil
}

// FindUserByID reads through the user cache.
func (s *UserService) FindUserByID(ctx context.Context, userID int64) (*model.User, error) {
	return s.cache.Get(ctx, userID)
}

func (s *UserService) FindUserByName(ctx context.Context, username string) (*model.User, error) {
	return s.users.SelectByName(ctx, username)
}

// UpdateHeader persists a new header image reference and invalidates
// the cached snapshot.
func (s *UserService) UpdateHeader(ctx context.Context, userID int64, headerURL string) error {
	if err := s.users.UpdateHeader(ctx, userID, headerURL); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx, userID)
}

// AuthorityFor resolves the role tag for a user.
func (s *UserService) AuthorityFor(ctx context.Context, userID int64) (model.Role, error) {
	user, err := s.FindUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	return model.AuthorityFor(user.Type), nil
}

func (s *UserService) sendMail(ctx context.Context, to, subject, tpl string, vars map[string]interface{}) {
	body, err := s.renderer.Render(tpl, vars)
	if err != nil {
		logutil.GetLogger(ctx).Error("render mail template failed", zap.String("template", tpl), zap.Error(err))
		return
	}
	if err := s.sender.Send(to, subject, body); err != nil {
		logutil.GetLogger(ctx).Error("send mail failed", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
	}
}
