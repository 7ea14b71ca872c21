package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/gotrue-go/types"
)

// GoTrueIdentity wraps the GoTrue client. Admin operations (user creation
// and deletion) authenticate with the service-role key; everything else
// runs with the least-privilege anon key plus the caller's bearer token
// where one applies.
type GoTrueIdentity struct {
	admin    gotrue.Client
	user     gotrue.Client
	baseURL  string
	anonKey  string
	wireHTTP *http.Client
}

func NewGoTrueIdentity(baseURL, anonKey, serviceRoleKey string, timeout time.Duration) *GoTrueIdentity {
	base := strings.TrimRight(baseURL, "/") + "/auth/v1"
	httpClient := http.Client{Timeout: timeout}
	return &GoTrueIdentity{
		admin:    gotrue.New("project", serviceRoleKey).WithCustomGoTrueURL(base).WithClient(httpClient).WithToken(serviceRoleKey),
		user:     gotrue.New("project", anonKey).WithCustomGoTrueURL(base).WithClient(httpClient),
		baseURL:  base,
		anonKey:  anonKey,
		wireHTTP: &http.Client{Timeout: timeout},
	}
}

func (g *GoTrueIdentity) CreateUser(_ context.Context, email, password, fullName, role string) (*User, error) {
	resp, err := g.admin.AdminCreateUser(types.AdminCreateUserRequest{
		Email:        email,
		Password:     &password,
		EmailConfirm: true,
		UserMetadata: map[string]interface{}{"full_name": fullName, "role": role},
	})
	if err != nil {
		return nil, translateIdentityError(err)
	}
	return convertUser(resp.User), nil
}

func (g *GoTrueIdentity) DeleteUser(_ context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return err
	}
	return translateIdentityError(g.admin.AdminDeleteUser(types.AdminDeleteUserRequest{UserID: uid}))
}

func (g *GoTrueIdentity) SignInWithPassword(_ context.Context, email, password string) (*Session, error) {
	resp, err := g.user.SignInWithEmailPassword(email, password)
	if err != nil {
		return nil, translateIdentityError(err)
	}
	return &Session{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		ExpiresIn:    int64(resp.ExpiresIn),
		RefreshToken: resp.RefreshToken,
		User:         *convertUser(resp.User),
	}, nil
}

func (g *GoTrueIdentity) SignOut(_ context.Context, token string) error {
	return translateIdentityError(g.user.WithToken(token).Logout())
}

func (g *GoTrueIdentity) GetUser(_ context.Context, token string) (*User, error) {
	resp, err := g.user.WithToken(token).GetUser()
	if err != nil {
		return nil, translateIdentityError(err)
	}
	return convertUser(resp.User), nil
}

func (g *GoTrueIdentity) UpdatePassword(_ context.Context, token, newPassword string) error {
	_, err := g.user.WithToken(token).UpdateUser(types.UpdateUserRequest{Password: &newPassword})
	return translateIdentityError(err)
}

// The gotrue-go client does not expose /resend, and its recover request
// cannot carry a redirect target, so these two endpoints are called
// directly.

func (g *GoTrueIdentity) SendPasswordReset(ctx context.Context, email, redirectTo string) error {
	path := "/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	return g.post(ctx, path, map[string]string{"email": email})
}

func (g *GoTrueIdentity) ResendVerification(ctx context.Context, email string) error {
	return g.post(ctx, "/resend", map[string]string{"type": "signup", "email": email})
}

func (g *GoTrueIdentity) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("apikey", g.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.wireHTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return identityError(resp.StatusCode, raw)
	}
	return nil
}

func convertUser(u types.User) *User {
	metadata := map[string]string{}
	for key, value := range u.UserMetadata {
		if text, ok := value.(string); ok {
			metadata[key] = text
		}
	}
	return &User{ID: u.ID.String(), Email: u.Email, UserMetadata: metadata}
}

// The client reports a failed request as
// "response status code <status>: <body>".
var identityErrPattern = regexp.MustCompile(`(?s)^response status code (\d+): (.*)$`)

func translateIdentityError(err error) error {
	if err == nil {
		return nil
	}
	m := identityErrPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return err
	}
	status, _ := strconv.Atoi(m[1])
	return identityError(status, []byte(m[2]))
}

// identityError tolerates the identity API's several error shapes.
func identityError(status int, raw []byte) error {
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorCode        string `json:"error_code"`
		ErrorStr         string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(raw, &body)
	message := body.Msg
	for _, candidate := range []string{body.Message, body.ErrorDescription, body.ErrorStr} {
		if message == "" {
			message = candidate
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Status: status, Code: body.ErrorCode, Message: message}
}

var _ Identity = (*GoTrueIdentity)(nil)
