// Package seed loads demo users and campaigns from a YAML fixture.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fundflow-dev/fundflow/internal/models"
	"github.com/fundflow-dev/fundflow/internal/services"
	"github.com/fundflow-dev/fundflow/internal/store"
	"github.com/fundflow-dev/fundflow/internal/types"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Fixture struct {
	Users     []User     `yaml:"users"`
	Campaigns []Campaign `yaml:"campaigns"`
}

type User struct {
	Name     string      `yaml:"name"`
	Email    string      `yaml:"email"`
	Password string      `yaml:"password"`
	Role     models.Role `yaml:"role"`
}

type Campaign struct {
	Title            string                `yaml:"title"`
	Description      string                `yaml:"description"`
	ShortDescription string                `yaml:"short_description"`
	Goal             string                `yaml:"goal"`
	DeadlineDays     int                   `yaml:"deadline_days"`
	Category         models.Category       `yaml:"category"`
	Images           []string              `yaml:"images"`
	Creator          string                `yaml:"creator"`
	Status           models.CampaignStatus `yaml:"status"`
}

type Result struct {
	UsersCreated     int
	UsersExisting    int
	CampaignsCreated int
}

func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, fmt.Errorf("failed to read fixture %s: %w", path, err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Fixture, error) {
	var fixture Fixture

	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	return &fixture, nil
}

type Seeder struct {
	Store     store.Store
	Identity  *services.IdentityService
	Campaigns *services.CampaignService
	now       func() time.Time
}

func NewSeeder(s store.Store, identity *services.IdentityService, campaigns *services.CampaignService) *Seeder {
	return &Seeder{Store: s, Identity: identity, Campaigns: campaigns, now: time.Now}
}

// Apply creates the fixture's users, skipping emails that already exist, and
// then its campaigns. Campaigns are always added, so running it twice
// duplicates them.
func (s *Seeder) Apply(ctx context.Context, fixture *Fixture) (*Result, error) {
	result := &Result{}
	users := make(map[string]*models.User, len(fixture.Users))

	for _, u := range fixture.Users {
		user, created, err := s.ensureUser(ctx, u)

		if err != nil {
			return result, fmt.Errorf("user %s: %w", u.Email, err)
		}

		if created {
			result.UsersCreated++
		} else {
			result.UsersExisting++
		}

		users[user.Email] = user
	}

	for _, c := range fixture.Campaigns {
		if err := s.createCampaign(ctx, c, users); err != nil {
			return result, fmt.Errorf("campaign %q: %w", c.Title, err)
		}

		result.CampaignsCreated++
	}

	log.Printf("Seeded %d users (%d already present) and %d campaigns", result.UsersCreated, result.UsersExisting, result.CampaignsCreated)

	return result, nil
}

func (s *Seeder) ensureUser(ctx context.Context, u User) (*models.User, bool, error) {
	var (
		user *models.User
		err  error
	)

	if u.Role == models.RoleAdmin {
		user, err = s.Identity.CreateAdmin(ctx, u.Name, u.Email, u.Password)
	} else {
		var resp *types.AuthResponse
		resp, err = s.Identity.Register(ctx, services.RegisterInput{
			Name:     u.Name,
			Email:    u.Email,
			Password: u.Password,
			Role:     u.Role,
		})
		if err == nil {
			user, err = s.Store.GetUser(ctx, resp.User.ID)
		}
	}

	if err == nil {
		return user, true, nil
	}

	if !errors.Is(err, types.ErrConflict) {
		return nil, false, err
	}

	existing, err := s.Store.GetUserByEmail(ctx, services.NormalizeEmail(u.Email))

	if err != nil {
		return nil, false, err
	}

	return existing, false, nil
}

func (s *Seeder) createCampaign(ctx context.Context, c Campaign, users map[string]*models.User) error {
	creator, ok := users[services.NormalizeEmail(c.Creator)]

	if !ok {
		return fmt.Errorf("creator %s is not in the fixture", c.Creator)
	}

	goal, err := decimal.NewFromString(c.Goal)

	if err != nil {
		return fmt.Errorf("invalid goal %q: %w", c.Goal, err)
	}

	days := c.DeadlineDays
	if days <= 0 {
		days = 30
	}

	campaign, err := s.Campaigns.Create(ctx, creator, services.CreateCampaignInput{
		Title:            c.Title,
		Description:      c.Description,
		ShortDescription: c.ShortDescription,
		Goal:             goal,
		Deadline:         s.now().Add(time.Duration(days) * 24 * time.Hour),
		Category:         c.Category,
		ImageURLs:        c.Images,
	})

	if err != nil {
		return err
	}

	switch c.Status {
	case "", models.CampaignPending:
		return nil
	case models.CampaignActive:
		_, err = s.Store.TransitionCampaignStatus(ctx, campaign.ID, models.CampaignPending, models.CampaignActive)
		return err
	default:
		return fmt.Errorf("fixtures may only seed pending or active campaigns, got %q", c.Status)
	}
}
