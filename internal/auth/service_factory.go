package auth

import (
	"context"

	"github.com/dl-alexandre/mail/internal/types"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// ServiceFactory builds authenticated Gmail API service clients from credentials.
type ServiceFactory struct {
	manager *Manager
}

func NewServiceFactory(manager *Manager) *ServiceFactory {
	return &ServiceFactory{manager: manager}
}

// CreateGmailService builds a Gmail API client authenticated with creds.
func (f *ServiceFactory) CreateGmailService(ctx context.Context, creds *types.Credentials) (*gmail.Service, error) {
	client := f.manager.GetHTTPClient(ctx, creds)
	return gmail.NewService(ctx, option.WithHTTPClient(client))
}
