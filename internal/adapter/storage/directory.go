package storage

import (
	"context"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

// ProfileDirectory reads profiles straight from the store on every call.
type ProfileDirectory struct {
	profiles *port.Table[domain.Profile]
}

func NewProfileDirectory(tables *port.Tables) *ProfileDirectory {
	return &ProfileDirectory{profiles: tables.Profiles}
}

func (d *ProfileDirectory) GetProfile(ctx context.Context, subjectID string) (*domain.Profile, error) {
	p, err := d.profiles.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile registers a profile and returns its subject id.
func (d *ProfileDirectory) CreateProfile(ctx context.Context, p domain.Profile) (string, error) {
	return d.profiles.Insert(ctx, p)
}

// Catalog exposes the bookable services collection.
type Catalog struct {
	services *port.Table[domain.Service]
}

func NewCatalog(tables *port.Tables) *Catalog {
	return &Catalog{services: tables.Services}
}

func (c *Catalog) GetService(ctx context.Context, serviceID string) (*domain.Service, error) {
	s, err := c.services.Get(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Catalog) CreateService(ctx context.Context, s domain.Service) (string, error) {
	if err := s.Validate(); err != nil {
		return "", err
	}
	return c.services.Insert(ctx, s)
}
