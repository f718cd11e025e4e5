package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/auth"
	"github.com/sakif/lingoread/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory implementation of repository.UserRepository.
type fakeUserRepo struct {
	byID   map[int64]*model.User
	byName map[string]*model.User
	nextID int64
	// set to a non-nil error to simulate a database failure
	createErr    error
	getByNameErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byID:   make(map[int64]*model.User),
		byName: make(map[string]*model.User),
		nextID: 1,
	}
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byName[user.Name]; ok {
		return apperror.Conflict("user", user.Name)
	}
	user.ID = f.nextID
	f.nextID++
	user.CreatedAt = time.Now().UTC()
	copied := *user
	f.byID[user.ID] = &copied
	f.byName[user.Name] = &copied
	return nil
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, apperror.NotFound("user", "x")
	}
	return u, nil
}

func (f *fakeUserRepo) GetUserByName(_ context.Context, name string) (*model.User, error) {
	if f.getByNameErr != nil {
		return nil, f.getByNameErr
	}
	u, ok := f.byName[name]
	if !ok {
		return nil, apperror.NotFound("user", name)
	}
	return u, nil
}

func (f *fakeUserRepo) IncrementQuizzesDone(_ context.Context, id int64) error {
	u, ok := f.byID[id]
	if !ok {
		return apperror.NotFound("user", "x")
	}
	u.QuizzesDone++
	return nil
}

func (f *fakeUserRepo) SetGoalLengthMinutes(_ context.Context, id int64, minutes *int) error {
	u, ok := f.byID[id]
	if !ok {
		return apperror.NotFound("user", "x")
	}
	u.GoalLengthMinutes = minutes
	return nil
}

const testTokenSecret = "test-secret-at-least-16-chars!!"

// newTestAuthService returns an AuthService wired with fake dependencies.
func newTestAuthService(t *testing.T, repo *fakeUserRepo) (*AuthService, *auth.TokenService) {
	t.Helper()

	ts, err := auth.NewTokenService(testTokenSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}

	// Cost 4 is the bcrypt minimum
	ps := auth.NewPasswordServiceForTest(4)

	return NewAuthService(repo, ts, ps, testLogger()), ts
}

// =========================================================================
// REGISTER
// =========================================================================

func TestRegister_NewUser(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)

	user, err := svc.Register(context.Background(), "  alice ", "secret123", "secret123")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == 0 {
		t.Error("Register() did not assign an ID")
	}
	if user.Name != "alice" {
		t.Errorf("Name = %q, want %q", user.Name, "alice")
	}
	if user.PasswordHash == "" || user.PasswordHash == "secret123" {
		t.Errorf("PasswordHash = %q, want a bcrypt hash", user.PasswordHash)
	}
	if _, ok := repo.byName["alice"]; !ok {
		t.Error("user was not stored")
	}
}

func TestRegister_ConfirmIsOptional(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())

	if _, err := svc.Register(context.Background(), "bob", "secret123", ""); err != nil {
		t.Fatalf("Register() without confirm error = %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name      string
		user      string
		password  string
		confirm   string
		wantField string
	}{
		{"blank name", "   ", "secret123", "", "name"},
		{"name too long", strings.Repeat("a", MaxUserNameLength+1), "secret123", "", "name"},
		{"short password", "alice", "12345", "", "password"},
		{"password over bcrypt limit", "alice", strings.Repeat("p", auth.MaxPasswordBytes+1), "", "password"},
		{"confirm mismatch", "alice", "secret123", "secret124", "confirm_password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeUserRepo()
			svc, _ := newTestAuthService(t, repo)

			_, err := svc.Register(context.Background(), tt.user, tt.password, tt.confirm)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Register() error = %v, want ErrValidation", err)
			}
			var appErr *apperror.AppError
			if !errors.As(err, &appErr) {
				t.Fatalf("Register() error %T is not an *AppError", err)
			}
			if appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
			if len(repo.byID) != 0 {
				t.Error("a rejected registration must not store a user")
			}
		})
	}
}

func TestRegister_DuplicateName(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "secret123", ""); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	_, err := svc.Register(ctx, "alice", "other-pass", "")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second Register() error = %v, want ErrConflict", err)
	}
}

func TestRegister_RepoError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.createErr = errors.New("database is locked")
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Register(context.Background(), "alice", "secret123", "")
	if err == nil {
		t.Fatal("Register() should fail when the repository fails")
	}
	if errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrValidation) {
		t.Errorf("storage failure classified as a client error: %v", err)
	}
}

// =========================================================================
// LOGIN
// =========================================================================

func TestLogin_Success(t *testing.T) {
	svc, tokens := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()

	registered, err := svc.Register(ctx, "alice", "secret123", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	result, err := svc.Login(ctx, "alice", "secret123")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if result.User.ID != registered.ID {
		t.Errorf("User.ID = %d, want %d", result.User.ID, registered.ID)
	}
	if result.Token == "" {
		t.Fatal("Login() returned empty Token")
	}

	userID, err := tokens.Validate(result.Token)
	if err != nil {
		t.Fatalf("Validate() on issued token error = %v", err)
	}
	if userID != registered.ID {
		t.Errorf("token subject = %d, want %d", userID, registered.ID)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())
	ctx := context.Background()
	if _, err := svc.Register(ctx, "alice", "secret123", ""); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		user     string
		password string
	}{
		{"wrong password", "alice", "secret124"},
		{"unknown user", "mallory", "secret123"},
	}

	var messages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.user, tt.password)
			if !errors.Is(err, apperror.ErrUnauthorized) {
				t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
			}
			messages = append(messages, err.Error())
		})
	}

	if len(messages) == 2 && messages[0] != messages[1] {
		t.Errorf("failure messages differ (%q vs %q); they must not reveal which names exist", messages[0], messages[1])
	}
}

func TestLogin_MissingFields(t *testing.T) {
	svc, _ := newTestAuthService(t, newFakeUserRepo())

	for _, creds := range [][2]string{{"", "secret123"}, {"alice", ""}, {"  ", "x"}} {
		_, err := svc.Login(context.Background(), creds[0], creds[1])
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Login(%q, %q) error = %v, want ErrValidation", creds[0], creds[1], err)
		}
	}
}

func TestLogin_RepoError(t *testing.T) {
	repo := newFakeUserRepo()
	repo.getByNameErr = errors.New("connection reset")
	svc, _ := newTestAuthService(t, repo)

	_, err := svc.Login(context.Background(), "alice", "secret123")
	if err == nil || errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Login() error = %v, want a non-auth storage error", err)
	}
}

// =========================================================================
// GetUserByID
// =========================================================================

func TestGetUserByID(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "secret123", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := svc.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Name != "alice" {
		t.Errorf("Name = %q, want %q", got.Name, "alice")
	}

	if _, err := svc.GetUserByID(ctx, 999); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID(999) error = %v, want ErrNotFound", err)
	}
}

func TestSetReadingGoal(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newTestAuthService(t, repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "secret123", "")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.GoalLengthMinutes != nil {
		t.Errorf("new user goal = %v, want nil", *user.GoalLengthMinutes)
	}

	thirty := 30
	got, err := svc.SetReadingGoal(ctx, user.ID, &thirty)
	if err != nil {
		t.Fatalf("SetReadingGoal(30) error = %v", err)
	}
	if got.GoalLengthMinutes == nil || *got.GoalLengthMinutes != 30 {
		t.Errorf("goal = %v, want 30", got.GoalLengthMinutes)
	}

	got, err = svc.SetReadingGoal(ctx, user.ID, nil)
	if err != nil {
		t.Fatalf("SetReadingGoal(nil) error = %v", err)
	}
	if got.GoalLengthMinutes != nil {
		t.Errorf("goal after clear = %v, want nil", *got.GoalLengthMinutes)
	}

	for _, bad := range []int{0, -5, MaxGoalLengthMinutes + 1} {
		_, err := svc.SetReadingGoal(ctx, user.ID, &bad)
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("SetReadingGoal(%d) error = %v, want ErrValidation", bad, err)
		}
	}

	_, err = svc.SetReadingGoal(ctx, 999, &thirty)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("unknown user error = %v, want ErrNotFound", err)
	}
}
