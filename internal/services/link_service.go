package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "astrawise/internal/errors"
	"astrawise/internal/models"
)

// linkService handles institution linking: link-token issuance and
// public-token exchange with the aggregation provider.
type linkService struct {
	db     *gorm.DB
	client AggregationClient
}

// NewLinkService creates a new LinkServicer.
func NewLinkService(db *gorm.DB, client AggregationClient) LinkServicer {
	return &linkService{db: db, client: client}
}

// CreateLinkToken issues a short-lived link token to begin linking.
func (s *linkService) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	token, err := s.client.CreateLinkToken(ctx, clientUserID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrSyncFailed, err)
	}
	return token, nil
}

// ExchangePublicToken exchanges a one-time public token for a durable
// access credential. Each user holds at most one linked item, so a relink
// replaces the existing item's credential and external id in place; every
// sync afterwards runs against the fresh credential.
func (s *linkService) ExchangePublicToken(ctx context.Context, userID, publicToken string) error {
	result, err := s.client.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrSyncFailed, err)
	}

	var existing models.PlaidItem
	dbErr := s.db.Where("user_id = ?", userID).First(&existing).Error

	if dbErr != nil {
		if errors.Is(dbErr, gorm.ErrRecordNotFound) {
			item := &models.PlaidItem{
				ItemID:      result.ItemID,
				AccessToken: result.AccessToken,
				UserID:      userID,
			}
			if err := s.db.Create(item).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, dbErr)
	}

	existing.ItemID = result.ItemID
	existing.AccessToken = result.AccessToken
	if err := s.db.Save(&existing).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetItemByUserID retrieves the linked item for a user.
func (s *linkService) GetItemByUserID(userID string) (*models.PlaidItem, error) {
	var item models.PlaidItem
	if err := s.db.Where("user_id = ?", userID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &item, nil
}
