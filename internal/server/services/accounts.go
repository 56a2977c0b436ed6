// Package services contains server-side business logic: accounts, the
// task lifecycle, due date extensions and exports.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/dbx"
	"github.com/dmitrijs2005/todokeeper/internal/logging"
	"github.com/dmitrijs2005/todokeeper/internal/server/auth"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/dmitrijs2005/todokeeper/internal/server/repositories/repomanager"
)

// CredentialVerifier hashes secrets and checks candidates against a
// stored hash.
type CredentialVerifier interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// AccountService provides account operations:
// - Register: create an account with a hashed password
// - Login: verify credentials and mint an access token
// - DeleteAccount: remove an account together with its tasks
type AccountService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	verifier                    CredentialVerifier
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	logger                      logging.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, verifier CredentialVerifier,
	secretKey string, accessTokenValidity time.Duration, logger logging.Logger) *AccountService {
	return &AccountService{
		db:                          db,
		repomanager:                 m,
		verifier:                    verifier,
		jwtSecret:                   []byte(secretKey),
		accessTokenValidityDuration: accessTokenValidity,
		logger:                      logger.With("module", "accounts"),
	}
}

// Register validates and stores a new account. A taken username yields
// common.ErrorAlreadyExists.
func (s *AccountService) Register(ctx context.Context, username, password string) (*models.Account, error) {
	username = models.NormalizeUsername(username)
	if err := models.ValidateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := s.verifier.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	account, err := s.repomanager.Accounts(s.db).Create(ctx, &models.Account{Username: username, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, fmt.Errorf("%w: username %q is taken", common.ErrorAlreadyExists, username)
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	s.logger.Info(ctx, "account registered", "username", username)
	return account, nil
}

// Login checks the password and returns a signed access token. Unknown
// usernames and wrong passwords both yield common.ErrorInvalidCredentials.
func (s *AccountService) Login(ctx context.Context, username, password string) (string, error) {
	username = models.NormalizeUsername(username)

	account, err := s.repomanager.Accounts(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// spend the same hashing time as for an existing account
			s.verifier.Verify(password, s.getDummyHash())
			return "", common.ErrorInvalidCredentials
		}
		return "", fmt.Errorf("error loading account: %w", err)
	}

	if !s.verifier.Verify(password, account.PasswordHash) {
		s.logger.Warn(ctx, "failed login", "username", username)
		return "", common.ErrorInvalidCredentials
	}

	token, err := auth.GenerateToken(account.Username, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// Resolve returns the account for username or common.ErrorAccountNotFound.
func (s *AccountService) Resolve(ctx context.Context, username string) (*models.Account, error) {
	return resolveAccount(ctx, s.repomanager.Accounts(s.db), username)
}

// DeleteAccount removes the account and every task it owns in a single
// transaction and returns the number of deleted tasks.
func (s *AccountService) DeleteAccount(ctx context.Context, username string) (int64, error) {
	var removed int64

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		account, err := resolveAccount(ctx, s.repomanager.Accounts(tx), username)
		if err != nil {
			return err
		}

		removed, err = s.repomanager.Tasks(tx).DeleteByOwner(ctx, account.ID)
		if err != nil {
			return fmt.Errorf("error deleting tasks: %w", err)
		}

		if err := s.repomanager.Accounts(tx).Delete(ctx, account.ID); err != nil {
			return fmt.Errorf("error deleting account: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "account deleted", "username", username, "tasks_removed", removed)
	return removed, nil
}

func (s *AccountService) getDummyHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.verifier.Hash("todokeeper-dummy-password")
	})
	return s.dummyHash
}
