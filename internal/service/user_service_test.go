package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agoraforum/agora/internal/cache"
	"github.com/agoraforum/agora/internal/model"
	appErr "github.com/agoraforum/agora/internal/pkg/errors"
	"github.com/agoraforum/agora/internal/pkg/password"
	"github.com/agoraforum/agora/internal/session"
)

type fakeUserStore struct {
	byID        map[int64]*model.User
	nextID      int64
	insertCalls int
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	store := &fakeUserStore{byID: map[int64]*model.User{}, nextID: 1}
	for _, u := range users {
		store.byID[u.ID] = u
		if u.ID >= store.nextID {
			store.nextID = u.ID + 1
		}
	}
	return store
}

func (s *fakeUserStore) SelectByID(ctx context.Context, id int64) (*model.User, error) {
	if user, ok := s.byID[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, appErr.ErrNotFound
}

func (s *fakeUserStore) SelectByName(ctx context.Context, name string) (*model.User, error) {
	for _, user := range s.byID {
		if user.Username == name {
			clone := *user
			return &clone, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (s *fakeUserStore) SelectByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, user := range s.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (s *fakeUserStore) Insert(ctx context.Context, user *model.User) error {
	s.insertCalls++
	for _, existing := range s.byID {
		if existing.Username == user.Username || existing.Email == user.Email {
			return appErr.ErrConflict
		}
	}
	user.ID = s.nextID
	s.nextID++
	clone := *user
	s.byID[user.ID] = &clone
	return nil
}

func (s *fakeUserStore) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	user, ok := s.byID[id]
	if !ok {
		return appErr.ErrNotFound
	}
	user.Password = passwordHash
	return nil
}

func (s *fakeUserStore) UpdateStatus(ctx context.Context, id int64, status int) error {
	user, ok := s.byID[id]
	if !ok {
		return appErr.ErrNotFound
	}
	user.Status = status
	return nil
}

func (s *fakeUserStore) UpdateHeader(ctx context.Context, id int64, headerURL string) error {
	user, ok := s.byID[id]
	if !ok {
		return appErr.ErrNotFound
	}
	user.HeaderURL = headerURL
	return nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeSender struct {
	sent []sentMail
}

func (s *fakeSender) Send(to, subject, body string) error {
	s.sent = append(s.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fakeRenderer struct{}

func (r *fakeRenderer) Render(name string, vars map[string]interface{}) (string, error) {
	return fmt.Sprintf("%s %v", name, vars), nil
}

type serviceFixture struct {
	svc     *UserService
	users   *fakeUserStore
	tickets *session.TicketManager
	cache   *cache.UserCache
	sender  *fakeSender
}

func newFixture(users ...*model.User) *serviceFixture {
	store := cache.NewMemoryStore(64)
	userStore := newFakeUserStore(users...)
	userCache := cache.NewUserCache(store, userStore)
	tickets := session.NewTicketManager(store)
	sender := &fakeSender{}
	svc := NewUserService(userStore, userCache, tickets, sender, &fakeRenderer{}, "http://localhost:8080", "")
	return &serviceFixture{svc: svc, users: userStore, tickets: tickets, cache: userCache, sender: sender}
}

func activatedUser(id int64, name, email, plain string) *model.User {
	salt := "s" + name
	return &model.User{
		ID: id, Username: name, Email: email,
		Password: password.Hash(plain, salt), Salt: salt,
		Status: model.UserStatusActivated, Ctime: time.Now().Unix(),
	}
}

func TestRegister_Success(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	user := &model.User{Username: "alice", Password: "pw1", Email: "a@x.com"}
	require.NoError(t, fx.svc.Register(ctx, user))
	require.NotZero(t, user.ID)
	require.Equal(t, model.UserStatusPending, user.Status)
	require.Equal(t, model.UserTypeOrdinary, user.Type)
	require.NotEmpty(t, user.Salt)
	require.NotEmpty(t, user.ActivationCode)
	require.NotEmpty(t, user.HeaderURL)

	stored, err := fx.users.SelectByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotEqual(t, "pw1", stored.Password)
	require.Equal(t, password.Hash("pw1", stored.Salt), stored.Password)

	require.Len(t, fx.sender.sent, 1)
	require.Equal(t, "a@x.com", fx.sender.sent[0].to)
	require.Contains(t, fx.sender.sent[0].body, user.ActivationCode)
	require.Contains(t, fx.sender.sent[0].body, fmt.Sprintf("/auth/activation/%d/", user.ID))
}

func TestRegister_BlankFields(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	cases := []struct {
		name  string
		user  *model.User
		field string
	}{
		{"blank username", &model.User{Password: "pw", Email: "a@x.com"}, FieldUsername},
		{"blank password", &model.User{Username: "alice", Email: "a@x.com"}, FieldPassword},
		{"blank email", &model.User{Username: "alice", Password: "pw"}, FieldEmail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := fx.svc.Register(ctx, tc.user)
			var fields FieldErrors
			require.ErrorAs(t, err, &fields)
			require.NotEmpty(t, fields.Get(tc.field))
			require.Zero(t, fx.users.insertCalls)
		})
	}
}

func TestRegister_NilUserFailsFast(t *testing.T) {
	fx := newFixture()
	err := fx.svc.Register(context.Background(), nil)
	require.Error(t, err)
	var fields FieldErrors
	require.NotErrorAs(t, err, &fields)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(activatedUser(1, "alice", "a@x.com", "pw1"))

	err := fx.svc.Register(ctx, &model.User{Username: "alice", Password: "pw2", Email: "other@x.com"})
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "该账号已存在", fields.Get(FieldUsername))
	require.Zero(t, fx.users.insertCalls, "no insert on duplicate username")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(activatedUser(1, "alice", "a@x.com", "pw1"))

	err := fx.svc.Register(ctx, &model.User{Username: "bob", Password: "pw2", Email: "a@x.com"})
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "该邮箱已被注册", fields.Get(FieldEmail))
	require.Zero(t, fx.users.insertCalls, "no insert on duplicate email")
}

func TestActivate_Lifecycle(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	user := &model.User{Username: "alice", Password: "pw1", Email: "a@x.com"}
	require.NoError(t, fx.svc.Register(ctx, user))

	result, err := fx.svc.Activate(ctx, user.ID, "wrong-code")
	require.NoError(t, err)
	require.Equal(t, ActivationFailure, result)
	stored, _ := fx.users.SelectByID(ctx, user.ID)
	require.Equal(t, model.UserStatusPending, stored.Status)

	result, err = fx.svc.Activate(ctx, user.ID, user.ActivationCode)
	require.NoError(t, err)
	require.Equal(t, ActivationSuccess, result)
	stored, _ = fx.users.SelectByID(ctx, user.ID)
	require.Equal(t, model.UserStatusActivated, stored.Status)

	// Any code on an already activated account reports the repeat.
	result, err = fx.svc.Activate(ctx, user.ID, "whatever")
	require.NoError(t, err)
	require.Equal(t, ActivationRepeat, result)
}

func TestActivate_InvalidatesCachedSnapshot(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	user := &model.User{Username: "alice", Password: "pw1", Email: "a@x.com"}
	require.NoError(t, fx.svc.Register(ctx, user))

	cached, err := fx.svc.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, model.UserStatusPending, cached.Status)

	_, err = fx.svc.Activate(ctx, user.ID, user.ActivationCode)
	require.NoError(t, err)

	fresh, err := fx.svc.FindUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, model.UserStatusActivated, fresh.Status)
}

func TestLogin_Validation(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(activatedUser(1, "alice", "a@x.com", "pw1"))

	cases := []struct {
		name     string
		username string
		password string
		field    string
		message  string
	}{
		{"blank username", "", "pw1", FieldUsername, "账号不能为空"},
		{"blank password", "alice", "", FieldPassword, "密码不能为空"},
		{"unknown username", "nobody", "pw1", FieldUsername, "该账号不存在"},
		{"wrong password", "alice", "bad", FieldPassword, "密码不正确"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ticket, err := fx.svc.Login(ctx, tc.username, tc.password, DefaultExpiredSeconds)
			require.Nil(t, ticket, "no ticket on failure")
			var fields FieldErrors
			require.ErrorAs(t, err, &fields)
			require.Equal(t, tc.message, fields.Get(tc.field))
		})
	}
}

func TestLogin_PendingAccountRejected(t *testing.T) {
	ctx := context.Background()
	pending := activatedUser(1, "alice", "a@x.com", "pw1")
	pending.Status = model.UserStatusPending
	fx := newFixture(pending)

	// Correct password does not help a non-activated account.
	ticket, err := fx.svc.Login(ctx, "alice", "pw1", DefaultExpiredSeconds)
	require.Nil(t, ticket)
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "该账号未激活", fields.Get(FieldUsername))
}

func TestLogin_IssuesTicket(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(activatedUser(1, "alice", "a@x.com", "pw1"))

	before := time.Now().Unix()
	ticket, err := fx.svc.Login(ctx, "alice", "pw1", 3600)
	require.NoError(t, err)
	require.EqualValues(t, 1, ticket.UserID)
	require.Equal(t, model.TicketStatusValid, ticket.Status)
	require.GreaterOrEqual(t, ticket.Expired, before+3600)

	found, err := fx.tickets.Find(ctx, ticket.Ticket)
	require.NoError(t, err)
	require.Equal(t, ticket, found)
}

func TestLogout_RevokesTicket(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(activatedUser(1, "alice", "a@x.com", "pw1"))

	ticket, err := fx.svc.Login(ctx, "alice", "pw1", 3600)
	require.NoError(t, err)
	require.NoError(t, fx.svc.Logout(ctx, ticket.Ticket))

	found, err := fx.tickets.Find(ctx, ticket.Ticket)
	require.NoError(t, err)
	require.Equal(t, model.TicketStatusRevoked, found.Status)

	// Logging out an unknown ticket stays silent.
	require.NoError(t, fx.svc.Logout(ctx, "no-such-ticket"))
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(activatedUser(1, "alice", "a@x.com", "pw1"))

	_, err := fx.svc.ResetPassword(ctx, "", "new")
	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "邮箱不能为空", fields.Get(FieldEmail))

	_, err = fx.svc.ResetPassword(ctx, "a@x.com", "")
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "密码不能为空", fields.Get(FieldPassword))

	_, err = fx.svc.ResetPassword(ctx, "nobody@x.com", "new")
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "该邮箱尚未注册", fields.Get(FieldEmail))

	user, err := fx.svc.ResetPassword(ctx, "a@x.com", "newpw")
	require.NoError(t, err)
	stored, _ := fx.users.SelectByID(ctx, user.ID)
	require.Equal(t, password.Hash("newpw", stored.Salt), stored.Password)
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(activatedUser(1, "alice", "a@x.com", "pw1"))

	var fields FieldErrors
	err := fx.svc.ChangePassword(ctx, 1, "", "new", "new")
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "原密码不能为空", fields.Get(FieldOldPassword))

	err = fx.svc.ChangePassword(ctx, 1, "pw1", "", "new")
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "新密码不能为空", fields.Get(FieldNewPassword))

	err = fx.svc.ChangePassword(ctx, 1, "pw1", "new", "")
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "确认密码不能为空", fields.Get(FieldConfirmPassword))

	err = fx.svc.ChangePassword(ctx, 1, "pw1", "new", "other")
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "两次输入密码不一致", fields.Get(FieldConfirmPassword))

	err = fx.svc.ChangePassword(ctx, 1, "wrong", "new", "new")
	require.ErrorAs(t, err, &fields)
	require.Equal(t, "原密码输入有误", fields.Get(FieldOldPassword))

	require.NoError(t, fx.svc.ChangePassword(ctx, 1, "pw1", "newpw", "newpw"))
	stored, _ := fx.users.SelectByID(ctx, 1)
	require.Equal(t, password.Hash("newpw", stored.Salt), stored.Password)
}

func TestVerifyEmailCode(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(activatedUser(1, "alice", "a@x.com", "pw1"))

	_, _, err := fx.svc.VerifyEmailCode(ctx, "  ")
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, _, err = fx.svc.VerifyEmailCode(ctx, "nobody@x.com")
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.Empty(t, fx.sender.sent)

	code, user, err := fx.svc.VerifyEmailCode(ctx, "a@x.com")
	require.NoError(t, err)
	require.Len(t, code, 4)
	require.EqualValues(t, 1, user.ID)
	require.Len(t, fx.sender.sent, 1)
	require.Contains(t, fx.sender.sent[0].body, code)
}

func TestUpdateHeader_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(activatedUser(1, "alice", "a@x.com", "pw1"))

	cached, err := fx.svc.FindUserByID(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, cached.HeaderURL)

	require.NoError(t, fx.svc.UpdateHeader(ctx, 1, "http://img/new.png"))

	fresh, err := fx.svc.FindUserByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "http://img/new.png", fresh.HeaderURL)
}

func TestAuthorityFor(t *testing.T) {
	ctx := context.Background()
	admin := activatedUser(1, "root", "r@x.com", "pw")
	admin.Type = model.UserTypeAdmin
	moderator := activatedUser(2, "mod", "m@x.com", "pw")
	moderator.Type = model.UserTypeModerator
	plain := activatedUser(3, "joe", "j@x.com", "pw")
	fx := newFixture(admin, moderator, plain)

	role, err := fx.svc.AuthorityFor(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, role)

	role, err = fx.svc.AuthorityFor(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, model.RoleModerator, role)

	role, err = fx.svc.AuthorityFor(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, role)
}
