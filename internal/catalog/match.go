package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/upsync/internal/domain"
	"github.com/MrSnakeDoc/upsync/internal/logger"
	"github.com/MrSnakeDoc/upsync/internal/metrics"
)

// Matcher links existing target products to upstream codes chosen by an operator.
type Matcher struct {
	logger logger.Logger
}

// NewMatcher creates a new matcher
func NewMatcher(log logger.Logger) *Matcher {
	return &Matcher{logger: log.Named("match")}
}

// Match links every pair, even after a failure. Matching an already linked pair
// returns its metafield id without writing. Any failed pair makes the returned error
// wrap ErrLinkageWriteFailed.
func (m *Matcher) Match(ctx context.Context, api MetafieldAPI, pairs []domain.MatchPair) ([]domain.MatchResult, error) {
	resolver := NewIdentityResolver(api)
	results := make([]domain.MatchResult, 0, len(pairs))

	var errs []error
	for _, pair := range pairs {
		res := domain.MatchResult{ShopifyID: pair.ShopifyID, ExternalCode: pair.ExternalCode}

		if err := validatePair(pair); err != nil {
			res.Error = err.Error()
			errs = append(errs, err)
			results = append(results, res)
			metrics.MatchPairs.WithLabelValues("failed").Inc()
			continue
		}

		id, created, err := resolver.Link(ctx, pair.ShopifyID, pair.ExternalCode)
		if err != nil {
			res.Error = err.Error()
			errs = append(errs, err)
			metrics.MatchPairs.WithLabelValues("failed").Inc()
			m.logger.Warn("failed to match product",
				logger.Int64("product_id", pair.ShopifyID),
				logger.String("code", pair.ExternalCode),
				logger.Error(err))
		} else {
			res.MetafieldID = id
			res.Created = created
			if created {
				metrics.MatchPairs.WithLabelValues("linked").Inc()
			} else {
				metrics.MatchPairs.WithLabelValues("existing").Inc()
			}
		}
		results = append(results, res)
	}

	if len(errs) > 0 {
		return results, domain.NewOpError(domain.ErrLinkageWriteFailed, "match",
			fmt.Sprintf("%d of %d pairs", len(errs), len(pairs)), errors.Join(errs...))
	}
	return results, nil
}

func validatePair(p domain.MatchPair) error {
	if p.ShopifyID <= 0 || p.ExternalCode == "" {
		return domain.NewOpError(domain.ErrInvalidProduct, "match",
			fmt.Sprintf("%d=%q", p.ShopifyID, p.ExternalCode), errors.New("shopify_id and external_code are required"))
	}
	return nil
}
