package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/thegera4/cool-morning-tables-sub000/internal/database"
	"github.com/thegera4/cool-morning-tables-sub000/internal/domain"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/rs/zerolog"
)

type CustomerService struct {
	repo     domain.CustomerRepository
	payments domain.PaymentGateway
	logger   *zerolog.Logger
}

func NewCustomerService(repo domain.CustomerRepository, payments domain.PaymentGateway, logger *zerolog.Logger) *CustomerService {
	return &CustomerService{repo: repo, payments: payments, logger: logger}
}

// EnsureCustomer finds the customer for the identity by auth id, then by
// email (linking the auth id), and creates one otherwise. Profile fields the
// identity provides overwrite stored ones.
func (s *CustomerService) EnsureCustomer(ctx context.Context, id *models.Identity) (*models.Customer, error) {
	c, err := s.repo.GetCustomerByAuthID(ctx, id.AuthID)
	if errors.Is(err, database.ErrNotFound) && id.Email != "" {
		c, err = s.repo.GetCustomerByEmail(ctx, id.Email)
		if err == nil && c.AuthID != "" && c.AuthID != id.AuthID {
			// the email belongs to another account
			return nil, ErrForbidden
		}
	}

	switch {
	case errors.Is(err, database.ErrNotFound):
		if id.Email == "" {
			return nil, ErrInvalidIdentity
		}
		c = &models.Customer{Email: id.Email, Name: id.Name, Phone: id.Phone, AuthID: id.AuthID}
		if err := s.repo.CreateCustomer(ctx, c); err != nil {
			return nil, err
		}
		s.logger.Info().Int64("customer_id", c.ID).Str("auth_id", id.AuthID).Msg("customer created")
		return c, nil
	case err != nil:
		return nil, err
	}

	if mergeIdentity(c, id) {
		if err := s.repo.UpdateCustomer(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func mergeIdentity(c *models.Customer, id *models.Identity) bool {
	changed := false
	if c.AuthID != id.AuthID {
		c.AuthID = id.AuthID
		changed = true
	}
	if id.Name != "" && c.Name != id.Name {
		c.Name = id.Name
		changed = true
	}
	if id.Phone != "" && c.Phone != id.Phone {
		c.Phone = id.Phone
		changed = true
	}
	return changed
}

// FindCustomer returns the customer linked to the identity.
func (s *CustomerService) FindCustomer(ctx context.Context, id *models.Identity) (*models.Customer, error) {
	return s.repo.GetCustomerByAuthID(ctx, id.AuthID)
}

// EnsurePaymentCustomer creates the processor-side customer on first use.
func (s *CustomerService) EnsurePaymentCustomer(ctx context.Context, c *models.Customer) (string, error) {
	if c.PaymentCustomerID != "" {
		return c.PaymentCustomerID, nil
	}

	pcID, err := s.payments.CreateCustomer(ctx, c)
	if err != nil {
		return "", err
	}
	c.PaymentCustomerID = pcID
	if err := s.repo.UpdateCustomer(ctx, c); err != nil {
		return "", fmt.Errorf("failed to store payment customer id: %w", err)
	}
	return pcID, nil
}
