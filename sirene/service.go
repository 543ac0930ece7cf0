package sirene

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

const (
	defaultPageSize = 20
	maxPageSize     = 1000

	defaultRetryWait = 2 * time.Second
)

// Service is the single entry point combining query builder, transport
// client and normalizer. It is stateless per request; the optional cache
// is the only shared state and is safe for concurrent use.
type Service struct {
	client    *Client
	builder   QueryBuilder
	cache     *Cache
	retryWait time.Duration
}

type ServiceOption func(*Service)

// WithCache attaches a response cache to the service.
func WithCache(cache *Cache) ServiceOption {
	return func(s *Service) { s.cache = cache }
}

// WithPhraseStrategy overrides the multi-word free-text strategy.
func WithPhraseStrategy(strategy PhraseStrategy) ServiceOption {
	return func(s *Service) { s.builder.Phrase = strategy }
}

// WithRetryWait overrides the fixed backoff before the single retry.
func WithRetryWait(wait time.Duration) ServiceOption {
	return func(s *Service) { s.retryWait = wait }
}

func NewService(client *Client, opts ...ServiceOption) *Service {
	s := &Service{
		client:    client,
		retryWait: defaultRetryWait,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// SearchByText runs a paginated free-text search combined with the given
// criteria and returns the normalized page.
func (s *Service) SearchByText(ctx context.Context, text string, criteria SearchCriteria, page, pageSize int) (*SearchPage, error) {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page < 1 {
		page = 1
	}

	query, err := s.builder.Build(text, criteria)
	if err != nil {
		return nil, fmt.Errorf("recherche %q: %w", text, err)
	}

	key := CacheKey(query, page, pageSize)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached, nil
		}
	}

	raw, err := s.fetchPageWithRetry(ctx, query, pageSize, page)
	if err != nil {
		return nil, fmt.Errorf("recherche %q: %w", query, err)
	}

	result := s.normalizePage(raw, page)

	if s.cache != nil {
		s.cache.Put(key, result)
	}

	return result, nil
}

// SearchBySiren builds a siren-only query. The upstream may return several
// establishments for one siren; all are normalized and returned.
func (s *Service) SearchBySiren(ctx context.Context, siren string) (*SearchPage, error) {
	if !IsValidSiren(siren) {
		return nil, &MalformedCriteriaError{Field: "siren", Reason: "doit être un numéro à 9 chiffres"}
	}

	return s.SearchByText(ctx, "", SearchCriteria{Siren: siren}, 1, defaultPageSize)
}

// LookupUnit performs a point lookup of a legal unit, optionally at a
// date (AAAA-MM-JJ). It never partial-matches: the outcome is one record
// or a *NotFoundError.
func (s *Service) LookupUnit(ctx context.Context, siren, date string) (*CompanyRecord, error) {
	if !IsValidSiren(siren) {
		return nil, &MalformedCriteriaError{Field: "siren", Reason: "doit être un numéro à 9 chiffres"}
	}

	if date != "" && !IsValidDate(date) {
		return nil, &MalformedCriteriaError{Field: "date", Reason: "doit être au format AAAA-MM-JJ"}
	}

	raw, err := s.withRetry(ctx, func(ctx context.Context) (*RawPage, error) {
		return s.client.FetchUniteLegale(ctx, siren, date)
	})
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, &NotFoundError{What: "siren " + siren}
		}
		return nil, fmt.Errorf("unité légale %s: %w", siren, err)
	}

	record, err := NormalizeUniteLegale(raw.UniteLegale, date)
	if err != nil {
		return nil, fmt.Errorf("unité légale %s: %w", siren, err)
	}

	return &record, nil
}

func (s *Service) fetchPageWithRetry(ctx context.Context, query string, pageSize, page int) (*RawPage, error) {
	return s.withRetry(ctx, func(ctx context.Context) (*RawPage, error) {
		return s.client.FetchPage(ctx, query, pageSize, page, DefaultFields)
	})
}

// withRetry runs fn at most twice: the single retry with fixed backoff
// applies to 429, timeouts and 5xx only.
func (s *Service) withRetry(ctx context.Context, fn func(context.Context) (*RawPage, error)) (*RawPage, error) {
	raw, err := fn(ctx)
	if err == nil || !IsRetryable(err) {
		return raw, err
	}

	log.Printf("sirene: réponse transitoire, nouvelle tentative dans %s: %v", s.retryWait, err)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(s.retryWait):
	}

	return fn(ctx)
}

func (s *Service) normalizePage(raw *RawPage, page int) *SearchPage {
	result := &SearchPage{
		Results: make([]CompanyRecord, 0, len(raw.Etablissements)),
		Total:   raw.Header.Total,
		Page:    page,
	}

	for _, etab := range raw.Etablissements {
		result.Results = append(result.Results, NormalizeEtablissement(etab))
	}

	// Un /siret filtré par siren peut renvoyer l'unité légale seule.
	if len(raw.Etablissements) == 0 && raw.UniteLegale != nil {
		if record, err := NormalizeUniteLegale(raw.UniteLegale, ""); err == nil {
			result.Results = append(result.Results, record)
			if result.Total == 0 {
				result.Total = 1
			}
		}
	}

	return result
}
