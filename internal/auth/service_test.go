package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/classmate/internal/credential"
	"github.com/hitoshi/classmate/internal/model"
)

// --- モック定義 ---

type mockSignInAPI struct {
	signInFn func(ctx context.Context, email, password string) (model.SignInData, error)
	calls    int
}

func (m *mockSignInAPI) SignIn(ctx context.Context, email, password string) (model.SignInData, error) {
	m.calls++
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return model.SignInData{}, nil
}

func newService(api SignInAPI) (*Service, *credential.Manager) {
	m := credential.NewManager(nil, "", nil)
	return NewService(api, m, nil), m
}

// --- テスト ---

func TestLogin_SavesSession(t *testing.T) {
	var gotEmail, gotPassword string
	api := &mockSignInAPI{
		signInFn: func(_ context.Context, email, password string) (model.SignInData, error) {
			gotEmail, gotPassword = email, password
			return model.SignInData{
				Profile: model.Profile{ID: "u1", Firstname: "A", Lastname: "B", Email: "a@b.com"},
				Token:   "tok",
			}, nil
		},
	}
	svc, mgr := newService(api)
	ctx := context.Background()

	profile, err := svc.Login(ctx, "  a@b.com ", " secret ")
	if err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}

	if gotEmail != "a@b.com" || gotPassword != "secret" {
		t.Errorf("SignIn の引数 = %q/%q, want 前後の空白を除去した値", gotEmail, gotPassword)
	}
	if profile.Email != "a@b.com" {
		t.Errorf("profile.Email = %q, want a@b.com", profile.Email)
	}
	if mgr.Token(ctx) != "tok" {
		t.Errorf("Token = %q, want tok", mgr.Token(ctx))
	}
	stored, ok := mgr.Profile(ctx)
	if !ok || stored.Email != "a@b.com" || stored.FullName() != "A B" {
		t.Errorf("保存されたプロフィール = %+v (ok=%v)", stored, ok)
	}
	if mgr.State() != credential.StateActive {
		t.Errorf("State = %v, want active", mgr.State())
	}
}

func TestLogin_EmptyInputDoesNotCallAPI(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "secret"},
		{"blank email", "   ", "secret"},
		{"empty password", "a@b.com", ""},
		{"blank password", "a@b.com", "\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockSignInAPI{}
			svc, _ := newService(api)

			_, err := svc.Login(context.Background(), tt.email, tt.password)
			if !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("err = %v, want ErrMissingCredentials", err)
			}
			if api.calls != 0 {
				t.Errorf("SignIn が %d 回呼ばれた, want 0", api.calls)
			}
		})
	}
}

func TestLogin_APIErrorIsWrapped(t *testing.T) {
	apiErr := errors.New("invalid credentials")
	api := &mockSignInAPI{
		signInFn: func(context.Context, string, string) (model.SignInData, error) {
			return model.SignInData{}, apiErr
		},
	}
	svc, mgr := newService(api)
	ctx := context.Background()

	_, err := svc.Login(ctx, "a@b.com", "bad")
	if !errors.Is(err, apiErr) {
		t.Fatalf("err = %v, want %v をラップしたエラー", err, apiErr)
	}
	if mgr.Token(ctx) != "" {
		t.Error("失敗時にセッションが保存された")
	}
}

func TestLogin_MissingToken(t *testing.T) {
	api := &mockSignInAPI{
		signInFn: func(context.Context, string, string) (model.SignInData, error) {
			return model.SignInData{Profile: model.Profile{ID: "u1"}}, nil
		},
	}
	svc, mgr := newService(api)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "a@b.com", "pw"); !errors.Is(err, ErrMissingToken) {
		t.Errorf("err = %v, want ErrMissingToken", err)
	}
	if _, ok := mgr.Profile(ctx); ok {
		t.Error("トークンが無い場合にプロフィールが保存された")
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	api := &mockSignInAPI{
		signInFn: func(context.Context, string, string) (model.SignInData, error) {
			return model.SignInData{Profile: model.Profile{ID: "u1", Email: "a@b.com"}, Token: "tok"}, nil
		},
	}
	svc, mgr := newService(api)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "a@b.com", "pw"); err != nil {
		t.Fatalf("Login がエラーを返した: %v", err)
	}
	svc.Logout(ctx)

	if mgr.Token(ctx) != "" {
		t.Error("Logout 後もトークンが残っている")
	}
	if _, err := svc.CurrentUser(ctx); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("err = %v, want ErrNotSignedIn", err)
	}

	// セッションが無い状態でのLogoutもパニックしない
	svc.Logout(ctx)
}

func TestCurrentUser(t *testing.T) {
	svc, mgr := newService(&mockSignInAPI{})
	ctx := context.Background()

	if _, err := svc.CurrentUser(ctx); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("err = %v, want ErrNotSignedIn", err)
	}

	mgr.SaveSession(ctx, "tok", model.Profile{ID: "u1", Email: "a@b.com"})
	got, err := svc.CurrentUser(ctx)
	if err != nil {
		t.Fatalf("CurrentUser がエラーを返した: %v", err)
	}
	if got.ID != "u1" {
		t.Errorf("ID = %q, want u1", got.ID)
	}
}
