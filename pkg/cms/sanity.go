package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"

	"github.com/juneof/promo-engine/pkg/modal"
	"github.com/juneof/promo-engine/pkg/route"
)

// modalQuery matches the Studio-authored preOrderModal documents: enabled,
// plausibly targeted at the route, and inside any schedule window, ordered
// by priority with the most recently created document breaking ties. The
// schedule clause is an optimization only; eligibility is re-checked
// client-side because CMS time and session route state can race.
const modalQuery = `*[
  _type == "preOrderModal"
  && enabled == true
  && (
    count(slugs[@ in $variants]) > 0
    || ($handle != null && $handle in showOnProductHandles[])
    || ($isProductPage == true && allowOnPreOrderProductPages == true)
    || ($isProductPage == true && showOnAllProductPages == true)
  )
  && (
    !defined(enableSchedule) || enableSchedule == false
    || (
      enableSchedule == true
      && (!defined(startAt) || startAt <= now())
      && (!defined(endAt) || endAt >= now())
    )
  )
] | order(priority desc, _createdAt desc)[0]`

// SanityOptions configures the CMS client.
type SanityOptions struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	// BaseURL overrides the api.sanity.io endpoint, used in tests.
	BaseURL string

	HTTPClient *http.Client
	// MaxRetries bounds transport-level retry attempts per fetch.
	MaxRetries int
}

// SanityClient fetches modal rules from the Sanity content lake via GROQ.
type SanityClient struct {
	opts    SanityOptions
	baseURL string
	client  *http.Client
}

// NewSanityClient creates a Sanity-backed RuleSource.
func NewSanityClient(opts SanityOptions) *SanityClient {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.api.sanity.io", opts.ProjectID)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if opts.APIVersion == "" {
		opts.APIVersion = "v2024-01-01"
	} else if !strings.HasPrefix(opts.APIVersion, "v") {
		// The API accepts only "v<date>" path segments; configs routinely
		// carry the bare date.
		opts.APIVersion = "v" + opts.APIVersion
	}
	return &SanityClient{opts: opts, baseURL: baseURL, client: client}
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
}

// FetchRuleForRoute queries the CMS for the active rule on a route. All
// query variables referenced by the GROQ ($variants, $handle,
// $isProductPage) are always provided.
func (c *SanityClient) FetchRuleForRoute(ctx context.Context, rc route.Context) (*modal.Rule, error) {
	params := url.Values{}
	params.Set("query", modalQuery)

	variants, err := json.Marshal(modal.SlugVariants(rc.Slug))
	if err != nil {
		return nil, fmt.Errorf("failed to encode slug variants: %w", err)
	}
	params.Set("$variants", string(variants))

	if rc.Handle != "" {
		params.Set("$handle", fmt.Sprintf("%q", rc.Handle))
	} else {
		params.Set("$handle", "null")
	}
	params.Set("$isProductPage", fmt.Sprintf("%t", rc.IsProductPage))

	endpoint := fmt.Sprintf("%s/%s/data/query/%s?%s",
		c.baseURL, c.opts.APIVersion, c.opts.Dataset, params.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var resp queryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil, nil
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(resp.Result, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode modal document: %w", err)
	}

	rule, err := modal.ParseRule(doc)
	if err != nil {
		return nil, fmt.Errorf("invalid modal document: %w", err)
	}
	return rule, nil
}

// get performs the query request with bounded retries on transport and
// server errors. Client errors (4xx) are terminal.
func (c *SanityClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	maxRetries := c.opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}

	var body []byte
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if c.opts.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.opts.Token)
		}

		res, err := c.client.Do(req)
		if err != nil {
			logrus.Warnf("sanity query failed: %v, retrying...", err)
			return err
		}
		defer res.Body.Close()

		if res.StatusCode >= 500 {
			logrus.Warnf("sanity query returned %d, retrying...", res.StatusCode)
			return fmt.Errorf("sanity query returned status %d", res.StatusCode)
		}
		if res.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("sanity query returned status %d", res.StatusCode))
		}

		body, err = io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newQueryBackOff(), uint64(maxRetries)), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		return nil, fmt.Errorf("sanity query failed: %w", err)
	}
	return body, nil
}

func newQueryBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	return b
}
