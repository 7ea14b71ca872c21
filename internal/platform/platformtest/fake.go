// Package platformtest provides in-memory implementations of the platform
// interfaces for tests.
package platformtest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/subodhkmahto/student-teacher-management-system/internal/platform"
)

type account struct {
	user     platform.User
	password string
}

// FakeIdentity is an in-memory identity provider. Tokens are opaque strings
// it mints itself; anything it has not minted is rejected.
type FakeIdentity struct {
	mu       sync.Mutex
	accounts map[string]*account
	tokens   map[string]string

	CreateUserErr error
	Deleted       []string
	ResetEmails   []string
	ResendEmails  []string
	PasswordSets  int
}

func NewFakeIdentity() *FakeIdentity {
	return &FakeIdentity{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
	}
}

func (f *FakeIdentity) CreateUser(_ context.Context, email, password, fullName, role string) (*platform.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateUserErr != nil {
		return nil, f.CreateUserErr
	}
	for _, acct := range f.accounts {
		if acct.user.Email == email {
			return nil, &platform.Error{Status: 422, Message: "User already registered"}
		}
	}
	user := platform.User{
		ID:           uuid.NewString(),
		Email:        email,
		UserMetadata: map[string]string{"full_name": fullName, "role": role},
	}
	f.accounts[user.ID] = &account{user: user, password: password}
	return &user, nil
}

func (f *FakeIdentity) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[id]; !ok {
		return &platform.Error{Status: 404, Message: "User not found"}
	}
	delete(f.accounts, id)
	for token, userID := range f.tokens {
		if userID == id {
			delete(f.tokens, token)
		}
	}
	f.Deleted = append(f.Deleted, id)
	return nil
}

func (f *FakeIdentity) SignInWithPassword(_ context.Context, email, password string) (*platform.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, acct := range f.accounts {
		if acct.user.Email == email && acct.password == password {
			token := "tok-" + uuid.NewString()
			f.tokens[token] = acct.user.ID
			return &platform.Session{
				AccessToken:  token,
				TokenType:    "bearer",
				ExpiresIn:    3600,
				RefreshToken: "refresh-" + uuid.NewString(),
				User:         acct.user,
			}, nil
		}
	}
	return nil, &platform.Error{Status: 400, Message: "Invalid login credentials"}
}

func (f *FakeIdentity) SignOut(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	return nil
}

func (f *FakeIdentity) GetUser(_ context.Context, token string) (*platform.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.tokens[token]
	if !ok {
		return nil, &platform.Error{Status: 401, Message: "invalid JWT"}
	}
	user := f.accounts[id].user
	return &user, nil
}

func (f *FakeIdentity) SendPasswordReset(_ context.Context, email, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ResetEmails = append(f.ResetEmails, email)
	return nil
}

func (f *FakeIdentity) UpdatePassword(_ context.Context, token, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[token]; !ok {
		return &platform.Error{Status: 401, Message: "invalid JWT"}
	}
	f.PasswordSets++
	return nil
}

func (f *FakeIdentity) ResendVerification(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ResendEmails = append(f.ResendEmails, email)
	return nil
}

// MintToken registers a bearer token for an existing user id, bypassing the
// password flow. Unknown ids still get a token so tests can cover the
// identity-without-profile state.
func (f *FakeIdentity) MintToken(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[id]; !ok {
		f.accounts[id] = &account{user: platform.User{ID: id, Email: id + "@fake.local"}}
	}
	token := "tok-" + uuid.NewString()
	f.tokens[token] = id
	return token
}

// Row is a loosely typed table row.
type Row = map[string]interface{}

// FakeStore is an in-memory table store with optional uniqueness
// constraints, mirroring how the platform surfaces them (SQLSTATE 23505).
type FakeStore struct {
	mu     sync.Mutex
	tables map[string][]Row

	// Unique lists constrained column sets per table.
	Unique map[string][][]string
	// FailNext, when set for a table, fails the next operation against it.
	FailNext map[string]error
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		tables:   make(map[string][]Row),
		Unique:   make(map[string][][]string),
		FailNext: make(map[string]error),
	}
}

func (f *FakeStore) takeFailure(table string) error {
	if err, ok := f.FailNext[table]; ok {
		delete(f.FailNext, table)
		return err
	}
	return nil
}

func matches(row Row, filters []platform.Filter) bool {
	for _, filter := range filters {
		if fmt.Sprint(row[filter.Column]) != filter.Value {
			return false
		}
	}
	return true
}

func copyInto(src interface{}, dest interface{}) error {
	if dest == nil {
		return nil
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (f *FakeStore) Select(_ context.Context, table string, q platform.Query, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(table); err != nil {
		return err
	}
	result := []Row{}
	for _, row := range f.tables[table] {
		if matches(row, q.Filters) {
			result = append(result, row)
		}
	}
	return copyInto(result, dest)
}

func (f *FakeStore) SelectOne(_ context.Context, table string, q platform.Query, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(table); err != nil {
		return err
	}
	for _, row := range f.tables[table] {
		if matches(row, q.Filters) {
			return copyInto(row, dest)
		}
	}
	return &platform.Error{Status: 406, Code: "PGRST116", Message: "JSON object requested, multiple (or no) rows returned"}
}

func (f *FakeStore) Insert(_ context.Context, table string, row, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(table); err != nil {
		return err
	}
	inserted := Row{}
	if err := copyInto(row, &inserted); err != nil {
		return err
	}
	if _, ok := inserted["id"]; !ok {
		inserted["id"] = uuid.NewString()
	}
	for _, columns := range f.Unique[table] {
		for _, existing := range f.tables[table] {
			same := true
			for _, column := range columns {
				value, ok := inserted[column]
				if !ok || fmt.Sprint(existing[column]) != fmt.Sprint(value) {
					same = false
					break
				}
			}
			if same {
				return &platform.Error{
					Status:  409,
					Code:    platform.CodeUniqueViolation,
					Message: fmt.Sprintf("duplicate key value violates unique constraint on %s", table),
				}
			}
		}
	}
	f.tables[table] = append(f.tables[table], inserted)
	return copyInto(inserted, dest)
}

func (f *FakeStore) Update(_ context.Context, table string, q platform.Query, patch, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(table); err != nil {
		return err
	}
	changes := Row{}
	if err := copyInto(patch, &changes); err != nil {
		return err
	}
	var first Row
	for _, row := range f.tables[table] {
		if matches(row, q.Filters) {
			for column, value := range changes {
				row[column] = value
			}
			if first == nil {
				first = row
			}
		}
	}
	if first == nil {
		return &platform.Error{Status: 406, Code: "PGRST116", Message: "JSON object requested, multiple (or no) rows returned"}
	}
	return copyInto(first, dest)
}

func (f *FakeStore) Delete(_ context.Context, table string, q platform.Query) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(table); err != nil {
		return err
	}
	kept := f.tables[table][:0]
	for _, row := range f.tables[table] {
		if !matches(row, q.Filters) {
			kept = append(kept, row)
		}
	}
	f.tables[table] = kept
	return nil
}

// Rows returns a copy of a table's contents.
func (f *FakeStore) Rows(table string) []Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make([]Row, 0, len(f.tables[table]))
	for _, row := range f.tables[table] {
		duplicate := Row{}
		for column, value := range row {
			duplicate[column] = value
		}
		result = append(result, duplicate)
	}
	return result
}

// Seed appends a row without constraint checks.
func (f *FakeStore) Seed(table string, row Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = append(f.tables[table], row)
}

var (
	_ platform.Identity = (*FakeIdentity)(nil)
	_ platform.Store    = (*FakeStore)(nil)
)
