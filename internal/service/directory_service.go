package service

import (
	"context"
	"fmt"

	"anonchat/internal/domain"

	"github.com/samber/lo"
)

type DirectoryService struct {
	userRepo domain.UserRepository
}

func NewDirectoryService(userRepo domain.UserRepository) *DirectoryService {
	return &DirectoryService{userRepo: userRepo}
}

// ListOthers returns every registered user except userID.
func (s *DirectoryService) ListOthers(ctx context.Context, userID string) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if !lo.ContainsBy(users, func(u domain.StoredUser) bool { return u.ID == userID }) {
		return []domain.User{}, nil
	}

	return lo.FilterMap(users, func(u domain.StoredUser, _ int) (domain.User, bool) {
		return u.Public(), u.ID != userID
	}), nil
}

// Friends returns the registered users in userID's friend set.
func (s *DirectoryService) Friends(ctx context.Context, userID string) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	current, ok := lo.Find(users, func(u domain.StoredUser) bool { return u.ID == userID })
	if !ok || len(current.Friends) == 0 {
		return []domain.User{}, nil
	}

	return lo.FilterMap(users, func(u domain.StoredUser, _ int) (domain.User, bool) {
		return u.Public(), current.IsFriend(u.ID)
	}), nil
}

// ToggleFriend adds the friendship in both directions, or removes it from both if present.
// It returns the caller's updated record.
func (s *DirectoryService) ToggleFriend(ctx context.Context, userID, friendID string) (domain.User, error) {
	if userID == friendID {
		return domain.User{}, fmt.Errorf("%w: cannot befriend yourself", domain.ErrInvalidInput)
	}

	current, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	friend, err := s.userRepo.Get(ctx, friendID)
	if err != nil {
		return domain.User{}, err
	}

	if current.IsFriend(friendID) {
		current.Friends = lo.Without(current.Friends, friendID)
		friend.Friends = lo.Without(friend.Friends, userID)
	} else {
		current.Friends = append(current.Friends, friendID)
		if !friend.IsFriend(userID) {
			friend.Friends = append(friend.Friends, userID)
		}
	}

	// Two separate read-modify-write cycles; a failure between them leaves the relation
	// one-sided until the next toggle.
	if err := s.userRepo.Update(ctx, current); err != nil {
		return domain.User{}, err
	}
	if err := s.userRepo.Update(ctx, friend); err != nil {
		return domain.User{}, fmt.Errorf("update friend %s: %w", friendID, err)
	}

	return current.Public(), nil
}
