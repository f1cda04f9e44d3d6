package admin

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/example/babyshop/internal/catalog"
	"github.com/example/babyshop/internal/events"
	"github.com/example/babyshop/internal/store"
)

const heroesPrefix = "heroes"

var (
	ErrNoDesktopImages = errors.New("at least one desktop image is required")
	ErrHeroNotFound    = errors.New("hero slide not found")
)

// HeroInput collects the hero-slide form fields: separate desktop and
// mobile image sets and an optional link.
type HeroInput struct {
	Desktop []ImageUpload
	Mobile  []ImageUpload
	Link    string
	Order   int
}

// CreateHero uploads the slide's images and writes its document. Same
// upload rules and best-effort tail as the product form.
func (s *Service) CreateHero(ctx context.Context, in HeroInput) (catalog.Hero, error) {
	if len(in.Desktop) == 0 {
		return catalog.Hero{}, ErrNoDesktopImages
	}

	id := uuid.NewString()
	desktop, err := s.uploadImages(ctx, "heroes/"+id+"/desktop", in.Desktop)
	if err != nil {
		return catalog.Hero{}, err
	}
	mobile, err := s.uploadImages(ctx, "heroes/"+id+"/mobile", in.Mobile)
	if err != nil {
		return catalog.Hero{}, err
	}

	doc := catalog.HeroDoc{
		DesktopImages: desktop,
		MobileImages:  mobile,
		Link:          in.Link,
		Order:         in.Order,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.store.Write(ctx, heroesPrefix+"/"+id, doc); err != nil {
		return catalog.Hero{}, fmt.Errorf("failed to write hero: %w", err)
	}

	s.afterWrite(ctx, events.KindHero, id, events.ActionCreated)

	return catalog.Hero{
		ID:            id,
		DesktopImages: desktop,
		MobileImages:  mobile,
		Link:          in.Link,
		Order:         in.Order,
		CreatedAt:     doc.CreatedAt,
	}, nil
}

// DeleteHero removes the slide and cleans up its images best-effort.
func (s *Service) DeleteHero(ctx context.Context, id string) error {
	raw, err := s.store.Once(ctx, heroesPrefix+"/"+id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrHeroNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read hero: %w", err)
	}
	hero, err := catalog.HeroFromDoc(id, raw)
	if err != nil {
		return fmt.Errorf("failed to read hero: %w", err)
	}

	if err := s.store.Delete(ctx, heroesPrefix+"/"+id); err != nil {
		return fmt.Errorf("failed to delete hero: %w", err)
	}

	for _, url := range append(hero.DesktopImages, hero.MobileImages...) {
		s.deleteBlob(ctx, url)
	}

	s.afterWrite(ctx, events.KindHero, id, events.ActionDeleted)
	return nil
}

// ListHeroes returns the slides in display order.
func (s *Service) ListHeroes(ctx context.Context) ([]catalog.Hero, error) {
	docs, err := s.store.List(ctx, heroesPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list heroes: %w", err)
	}

	heroes := make([]catalog.Hero, 0, len(docs))
	for id, raw := range docs {
		h, err := catalog.HeroFromDoc(id, raw)
		if err != nil {
			log.Printf("[Admin] Skipping hero %s: %v", id, err)
			continue
		}
		heroes = append(heroes, h)
	}

	sort.SliceStable(heroes, func(i, j int) bool {
		if heroes[i].Order != heroes[j].Order {
			return heroes[i].Order < heroes[j].Order
		}
		return heroes[i].CreatedAt.Before(heroes[j].CreatedAt)
	})
	return heroes, nil
}
