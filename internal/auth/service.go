package auth

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/subodhkmahto/student-teacher-management-system/internal/platform"
)

// Service implements the account flows. Registration is a saga over three
// non-transactional writes (identity, profile row, role row); later-step
// failures compensate by deleting what the earlier steps created.
type Service struct {
	identity    platform.Identity
	store       platform.Store
	frontendURL string
}

func NewService(identity platform.Identity, store platform.Store, frontendURL string) *Service {
	return &Service{identity: identity, store: store, frontendURL: frontendURL}
}

func (s *Service) Register(ctx context.Context, email, password, fullName, role string) (*platform.User, error) {
	if email == "" || password == "" || fullName == "" {
		return nil, errors.New("Email, password, and full name are required")
	}
	if len(password) < 6 {
		return nil, errors.New("Password must be at least 6 characters")
	}
	if role != string(RoleStudent) && role != string(RoleTeacher) {
		return nil, errors.New(`Invalid role. Must be "student" or "teacher"`)
	}

	user, err := s.identity.CreateUser(ctx, email, password, fullName, role)
	if err != nil {
		return nil, err
	}

	profile := map[string]string{
		"id":        user.ID,
		"email":     email,
		"full_name": fullName,
		"role":      role,
	}
	if err := s.store.Insert(ctx, "profiles", profile, nil); err != nil {
		s.compensate(ctx, user.ID, false)
		return nil, err
	}

	var roleRowErr error
	switch Role(role) {
	case RoleStudent:
		row := map[string]string{
			"user_id":     user.ID,
			"roll_number": nextRollNumber(time.Now()),
		}
		roleRowErr = s.store.Insert(ctx, "students", row, nil)
	case RoleTeacher:
		roleRowErr = s.store.Insert(ctx, "teachers", map[string]string{"user_id": user.ID}, nil)
	}
	if roleRowErr != nil {
		s.compensate(ctx, user.ID, true)
		return nil, roleRowErr
	}

	return user, nil
}

// compensate unwinds the earlier registration steps. Best effort: the rows
// it cannot remove are the orphaned-identity state the gate chain already
// tolerates via ErrProfileNotFound.
func (s *Service) compensate(ctx context.Context, userID string, profileCreated bool) {
	if profileCreated {
		q := platform.Query{Filters: []platform.Filter{{Column: "id", Value: userID}}}
		if err := s.store.Delete(ctx, "profiles", q); err != nil {
			log.Printf("register rollback: delete profile %s: %v", userID, err)
		}
	}
	if err := s.identity.DeleteUser(ctx, userID); err != nil {
		log.Printf("register rollback: delete identity %s: %v", userID, err)
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (*platform.Session, error) {
	if email == "" || password == "" {
		return nil, errors.New("Email and password are required")
	}
	return s.identity.SignInWithPassword(ctx, email, password)
}

func (s *Service) Logout(ctx context.Context, token string) error {
	return s.identity.SignOut(ctx, token)
}

func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return errors.New("Email is required")
	}
	return s.identity.SendPasswordReset(ctx, email, s.frontendURL+"/reset-password")
}

func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 6 {
		return errors.New("Password must be at least 6 characters")
	}
	if token == "" {
		return ErrMissingToken
	}
	return s.identity.UpdatePassword(ctx, token, newPassword)
}

func (s *Service) ResendVerification(ctx context.Context, email string) error {
	if email == "" {
		return errors.New("Email is required")
	}
	return s.identity.ResendVerification(ctx, email)
}
