package service

import (
	"context"
	"strings"

	"wagerly/models"

	log "github.com/sirupsen/logrus"
)

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory) UserService {
	return &userService{uowFactory: uowFactory}
}

// EnsureUser retrieves an existing user or creates one together with an empty
// wallet. A user never exists without a wallet.
func (s *userService) EnsureUser(ctx context.Context, username string, role models.Role) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validation("Username is required.")
	}
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, validation("Unknown role.")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByUsername(ctx, username)
	if err != nil {
		return nil, internal(err, "failed to check existing user")
	}
	if user != nil {
		return user, nil
	}

	user, err = uow.UserRepository().Create(ctx, username, role)
	if err != nil {
		return nil, asDuplicate(err, "Username is already taken.", "failed to create user")
	}

	if _, err := uow.WalletRepository().Create(ctx, user.ID); err != nil {
		return nil, internal(err, "failed to create wallet for user %d", user.ID)
	}

	if err := uow.Commit(); err != nil {
		return nil, internal(err, "failed to commit user creation")
	}

	log.WithFields(log.Fields{
		"userID":   user.ID,
		"username": user.Username,
		"role":     user.Role,
	}).Info("User created")

	return user, nil
}

func (s *userService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, internal(err, "failed to begin transaction")
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, internal(err, "failed to get user %d", userID)
	}
	if user == nil {
		return nil, notFound("User not found.")
	}
	return user, nil
}
