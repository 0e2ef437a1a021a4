package app

import (
	"context"
	"fmt"
	"time"

	"github.com/amandagilmer/Rental-Directory-sub002/internal/domain"
)

type QueryService struct {
	repo     domain.DirectoryRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(r domain.DirectoryRepository, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{repo: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) GetBusiness(ctx context.Context, id string) (domain.Business, error) {
	key := "business:" + id
	var b domain.Business
	if ok, _ := s.cache.Get(ctx, key, &b); ok {
		return b, nil
	}
	b, err := s.repo.GetBusiness(ctx, id)
	if err != nil {
		return domain.Business{}, err
	}
	_ = s.cache.Set(ctx, key, b, int(s.cacheTTL.Seconds()))
	return b, nil
}

func (s *QueryService) ListBusinesses(ctx context.Context, q domain.BusinessQuery) ([]domain.Business, error) {
	key := fmt.Sprintf("businesses:%s:%s:%s:%s:%d",
		strDeref(q.Q), strDeref(q.Category), strDeref(q.City), strDeref(q.State), q.Limit)
	var out []domain.Business
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	bs, err := s.repo.ListBusinesses(ctx, q)
	if err != nil {
		return nil, err
	}

	// copy before caching so callers can't mutate the cached value
	cp := make([]domain.Business, len(bs))
	copy(cp, bs)
	_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	return cp, nil
}

func strDeref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
