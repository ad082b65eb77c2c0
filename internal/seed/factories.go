// Package seed creates demo data for development databases. It is not used by
// the server.
package seed

import (
	"fmt"
	"strings"
	"time"

	"postboard/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// Factory builds users, posts and votes with fake content.
type Factory struct {
	faker        *gofakeit.Faker
	opts         Options
	passwordHash string
	nextUser     int
}

// NewFactory returns a factory whose users all share passwordHash. A zero
// opts.RandomSeed seeds from the clock.
func NewFactory(opts Options, passwordHash string) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		faker:        gofakeit.New(seed),
		opts:         opts,
		passwordHash: passwordHash,
	}
}

// BuildUser returns an unsaved user with a unique example.com address.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	f.nextUser++
	local := strings.ToLower(f.faker.Username())
	local = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, local)
	if local == "" {
		local = "user"
	}

	user := &models.User{
		Email:    fmt.Sprintf("%s.%d@example.com", local, f.nextUser),
		Password: f.passwordHash,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// BuildPost returns an unsaved post owned by owner, created at a random
// moment within the last opts.MaxDays days.
func (f *Factory) BuildPost(owner *models.User, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	age := time.Duration(f.faker.Number(0, maxDays*24*60)) * time.Minute

	title := strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), ".")
	post := &models.Post{
		Title:     title,
		Content:   f.faker.Paragraph(f.faker.Number(1, 3), f.faker.Number(2, 5), 12, "\n\n"),
		Published: f.faker.Number(1, 100) <= 70,
		OwnerID:   owner.ID,
		CreatedAt: time.Now().UTC().Add(-age),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// PickVoters returns up to max distinct users from users, never the post owner.
func (f *Factory) PickVoters(post *models.Post, users []*models.User, max int) []*models.User {
	if max <= 0 || len(users) == 0 {
		return nil
	}
	candidates := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.ID != post.OwnerID {
			candidates = append(candidates, u)
		}
	}
	for i := len(candidates) - 1; i > 0; i-- {
		j := f.faker.Number(0, i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	n := f.faker.Number(0, max)
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n]
}
