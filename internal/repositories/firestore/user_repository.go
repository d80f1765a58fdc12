package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/muebleria/api/internal/domain"
	pfirestore "github.com/muebleria/api/internal/platform/firestore"
)

const userCollection = "users"

// UserRepository persists account records in Firestore. Usernames and emails
// are stored lowercased so lookups are case-insensitive.
type UserRepository struct {
	base *pfirestore.BaseRepository[userDocument]
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	return &UserRepository{
		base: pfirestore.NewBaseRepository[userDocument](provider, userCollection, nil),
	}, nil
}

// Insert writes a new account document.
func (r *UserRepository) Insert(ctx context.Context, account domain.UserAccount) error {
	if r == nil || r.base == nil {
		return errors.New("user repository not initialised")
	}
	if strings.TrimSpace(account.ID) == "" {
		return errors.New("user id is required")
	}
	return r.base.Set(ctx, account.ID, fromDomainAccount(account))
}

// FindByID loads the account by UID.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.UserAccount, error) {
	if r == nil || r.base == nil {
		return domain.UserAccount{}, errors.New("user repository not initialised")
	}
	doc, err := r.base.Get(ctx, userID)
	if err != nil {
		return domain.UserAccount{}, err
	}
	return toDomainAccount(doc.ID, doc.Data), nil
}

// FindByUsername loads the account matching the username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (domain.UserAccount, error) {
	return r.findByField(ctx, "username", strings.ToLower(strings.TrimSpace(username)))
}

// FindByEmail loads the account matching the email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.UserAccount, error) {
	return r.findByField(ctx, "email", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepository) findByField(ctx context.Context, field, value string) (domain.UserAccount, error) {
	if r == nil || r.base == nil {
		return domain.UserAccount{}, errors.New("user repository not initialised")
	}
	if value == "" {
		return domain.UserAccount{}, errors.New(field + " is required")
	}

	docs, err := r.base.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where(field, "==", value).Limit(1)
	})
	if err != nil {
		return domain.UserAccount{}, err
	}
	if len(docs) == 0 {
		op := fmt.Sprintf("%s.%s", userCollection, field)
		return domain.UserAccount{}, pfirestore.NotFoundError(op, errors.New("user not found"))
	}
	return toDomainAccount(docs[0].ID, docs[0].Data), nil
}

type userDocument struct {
	Username     string    `firestore:"username"`
	Email        string    `firestore:"email"`
	PasswordHash string    `firestore:"passwordHash"`
	Role         string    `firestore:"role"`
	CreatedAt    time.Time `firestore:"createdAt"`
}

func fromDomainAccount(account domain.UserAccount) userDocument {
	return userDocument{
		Username:     strings.ToLower(strings.TrimSpace(account.Username)),
		Email:        strings.ToLower(strings.TrimSpace(account.Email)),
		PasswordHash: account.PasswordHash,
		Role:         string(account.Role),
		CreatedAt:    account.CreatedAt,
	}
}

func toDomainAccount(id string, doc userDocument) domain.UserAccount {
	return domain.UserAccount{
		ID:           id,
		Username:     doc.Username,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Role:         domain.Role(doc.Role),
		CreatedAt:    doc.CreatedAt,
	}
}
