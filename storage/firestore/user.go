package firestoredb

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"github.com/ready4exam/platform/core/user"
)

type userRepository struct {
	client *firestore.Client
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(client *firestore.Client) *userRepository {
	return &userRepository{client: client}
}

func (repo *userRepository) col() *firestore.CollectionRef {
	return repo.client.Collection(usersCollection)
}

func decodeUser(snap *firestore.DocumentSnapshot) (user.User, error) {
	var usr user.User
	if err := snap.DataTo(&usr); err != nil {
		return user.User{}, errors.Wrapf(err, "decoding user %s", snap.Ref.ID)
	}
	if usr.UID == "" {
		usr.UID = snap.Ref.ID
	}
	return usr, nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	if _, err := repo.col().Doc(usr.UID).Create(ctx, usr); err != nil {
		if isAlreadyExists(err) {
			return user.User{}, user.ErrExists
		}
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, uid string) (user.User, error) {
	if uid == "" {
		return user.User{}, user.ErrNotFound
	}
	snap, err := repo.col().Doc(uid).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return decodeUser(snap)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	usrs, err := repo.query(ctx, repo.col().Where("username", "==", username).Limit(1))
	if err != nil {
		return user.User{}, err
	}
	if len(usrs) == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usrs[0], nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	q := repo.col().Query
	if filter.Email != "" {
		q = q.Where("email", "==", filter.Email)
	}
	if filter.TenantType != "" {
		q = q.Where("tenantType", "==", filter.TenantType)
	}
	if filter.SchoolID != "" {
		q = q.Where("school_id", "==", filter.SchoolID)
	}
	return repo.query(ctx, q)
}

func (repo *userRepository) query(ctx context.Context, q firestore.Query) ([]user.User, error) {
	usrs := make([]user.User, 0)
	err := collect(q.Documents(ctx), func(snap *firestore.DocumentSnapshot) error {
		usr, err := decodeUser(snap)
		if err != nil {
			return err
		}
		usrs = append(usrs, usr)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return usrs, nil
}

func (repo *userRepository) update(ctx context.Context, uid string, updates ...firestore.Update) error {
	if _, err := repo.col().Doc(uid).Update(ctx, updates); err != nil {
		if isNotFound(err) {
			return user.ErrNotFound
		}
		return errors.Wrap(err, "updating user")
	}
	return nil
}

func (repo *userRepository) SetLastLogin(ctx context.Context, uid string, at time.Time) error {
	return repo.update(ctx, uid, firestore.Update{Path: "lastLogin", Value: at})
}

func (repo *userRepository) SetPasswordHash(ctx context.Context, uid string, hash []byte) error {
	return repo.update(ctx, uid, firestore.Update{Path: "passwordHash", Value: hash})
}

func (repo *userRepository) SuspendUsersByEmail(ctx context.Context, email, schoolID string) (int, error) {
	q := repo.col().Where("email", "==", email)
	if schoolID != "" {
		q = q.Where("school_id", "==", schoolID)
	}
	refs := make([]*firestore.DocumentRef, 0)
	err := collect(q.Documents(ctx), func(snap *firestore.DocumentSnapshot) error {
		var usr user.User
		if err := snap.DataTo(&usr); err != nil {
			return err
		}
		if !usr.IsOwner() {
			refs = append(refs, snap.Ref)
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "querying users by email")
	}

	err = commitInBatches(ctx, repo.client, refs, func(b *firestore.WriteBatch, _ int, ref *firestore.DocumentRef) {
		b.Update(ref, []firestore.Update{
			{Path: "role", Value: user.RoleSuspended},
			{Path: "paidClasses", Value: map[string]bool{}},
		})
	})
	if err != nil {
		return 0, errors.Wrap(err, "suspending users")
	}
	return len(refs), nil
}
