package service

import (
	"context"
	"errors"

	"crosspost/internal/repository"
	"crosspost/internal/transfer"
)

var ErrAccountNotFound = errors.New("social account not found")

type AccountService interface {
	List(ctx context.Context, userID int64) ([]*transfer.AccountInfo, error)
	Disconnect(ctx context.Context, userID, accountID int64) error
}

type accountService struct {
	accounts repository.SocialAccountRepository
}

func NewAccountService(accounts repository.SocialAccountRepository) AccountService {
	return &accountService{accounts: accounts}
}

func (s *accountService) List(ctx context.Context, userID int64) ([]*transfer.AccountInfo, error) {
	accounts, err := s.accounts.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	infos := make([]*transfer.AccountInfo, 0, len(accounts))
	for _, acc := range accounts {
		infos = append(infos, &transfer.AccountInfo{
			ID:              acc.ID,
			Platform:        acc.Platform,
			AccountUsername: acc.AccountUsername,
			TokenExpiresAt:  acc.TokenExpiresAt,
			CreatedAt:       acc.CreatedAt,
		})
	}
	return infos, nil
}

func (s *accountService) Disconnect(ctx context.Context, userID, accountID int64) error {
	owned, err := s.accounts.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !owned {
		return ErrAccountNotFound
	}

	return s.accounts.Remove(ctx, accountID)
}
