// Package heroclient talks to the heroes REST backend. Every operation
// resolves successfully: a failed backend call is logged and replaced by the
// operation's fallback value, so callers never branch on errors.
package heroclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/heroes/internal/domain/model"
	"github.com/okian/heroes/pkg/logger"
	"github.com/okian/heroes/pkg/metrics"
)

const (
	defaultHeroesPath = "api/heroes"
	messagePrefix     = "HeroService: "
	maxErrorBody      = 512
	contentTypeJSON   = "application/json"
)

// MessageLogger receives human-readable diagnostics. Add must not block.
type MessageLogger interface {
	Add(message string)
}

type discardMessages struct{}

func (discardMessages) Add(string) {}

// Client is stateless per call; the message logger is its only side-channel.
type Client struct {
	http       *http.Client
	base       *url.URL
	heroesPath string
	timeout    time.Duration
	messages   MessageLogger
	logger     logger.Logger
	onError    func(op string, err error)
}

// New creates a client for the backend at baseURL, e.g. "http://localhost:9080".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("heroclient: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("heroclient: base url %q must be absolute", baseURL)
	}

	c := &Client{
		http:       &http.Client{},
		base:       u,
		heroesPath: defaultHeroesPath,
		messages:   discardMessages{},
		logger:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ListHeroes returns every hero, or an empty list on failure.
func (c *Client) ListHeroes(ctx context.Context) []model.Hero {
	const op = "getHeroes"
	var heroes []model.Hero
	if err := c.call(ctx, op, http.MethodGet, c.collectionURL(nil), nil, &heroes); err != nil {
		return c.fallbackList(ctx, op, err)
	}
	c.log("fetched heroes")
	return nonNil(heroes)
}

// GetHeroLenient asks the collection for id and returns the first match.
// A missing hero is nil, not an error.
func (c *Client) GetHeroLenient(ctx context.Context, id int) *model.Hero {
	op := "getHero id=" + strconv.Itoa(id)
	var heroes []model.Hero
	q := url.Values{"id": {strconv.Itoa(id)}}
	if err := c.call(ctx, op, http.MethodGet, c.collectionURL(q), nil, &heroes); err != nil {
		c.fail(ctx, op, err)
		return nil
	}
	if len(heroes) == 0 {
		c.log("did not find hero id=" + strconv.Itoa(id))
		return nil
	}
	c.log("fetched hero id=" + strconv.Itoa(id))
	h := heroes[0]
	return &h
}

// GetHero fetches a hero by id; a 404 or any other failure yields nil.
func (c *Client) GetHero(ctx context.Context, id int) *model.Hero {
	op := "getHero id=" + strconv.Itoa(id)
	var h *model.Hero
	if err := c.call(ctx, op, http.MethodGet, c.itemURL(id), nil, &h); err != nil {
		c.fail(ctx, op, err)
		return nil
	}
	if h == nil {
		c.log("did not find hero id=" + strconv.Itoa(id))
		return nil
	}
	c.log("fetched hero id=" + strconv.Itoa(id))
	return h
}

// SearchHeroes returns heroes whose name contains term. A blank term
// answers an empty list without calling the backend.
func (c *Client) SearchHeroes(ctx context.Context, term string) []model.Hero {
	const op = "searchHeroes"
	if strings.TrimSpace(term) == "" {
		metrics.RecordClientCall(op, metrics.OutcomeShortCircuit)
		return []model.Hero{}
	}
	var heroes []model.Hero
	q := url.Values{"name": {term}}
	if err := c.call(ctx, op, http.MethodGet, c.collectionURL(q), nil, &heroes); err != nil {
		return c.fallbackList(ctx, op, err)
	}
	c.log(fmt.Sprintf("found heroes matching %q", term))
	return nonNil(heroes)
}

// AddHero creates h and returns it with its server-assigned id.
func (c *Client) AddHero(ctx context.Context, h model.Hero) *model.Hero {
	const op = "addHero"
	var created *model.Hero
	if err := c.call(ctx, op, http.MethodPost, c.collectionURL(nil), h, &created); err != nil {
		c.fail(ctx, op, err)
		return nil
	}
	if created == nil {
		c.log("added hero but the backend returned no body")
		return nil
	}
	c.log("added hero w/ id=" + strconv.Itoa(created.ID))
	return created
}

// DeleteHero removes the hero referenced by a Hero value or a bare ID.
func (c *Client) DeleteHero(ctx context.Context, ref model.Ref) *model.Hero {
	const op = "deleteHero"
	id := ref.HeroID()
	var deleted *model.Hero
	if err := c.call(ctx, op, http.MethodDelete, c.itemURL(id), nil, &deleted); err != nil {
		c.fail(ctx, op, err)
		return nil
	}
	c.log("deleted hero id=" + strconv.Itoa(id))
	return deleted
}

// UpdateHero replaces the stored name of h. The backend's answer is passed
// through; an empty success body yields nil.
func (c *Client) UpdateHero(ctx context.Context, h model.Hero) *model.Hero {
	const op = "updateHero"
	var updated *model.Hero
	if err := c.call(ctx, op, http.MethodPut, c.collectionURL(nil), h, &updated); err != nil {
		c.fail(ctx, op, err)
		return nil
	}
	c.log("updated hero id=" + strconv.Itoa(h.ID))
	return updated
}

func (c *Client) collectionURL(q url.Values) string {
	u := *c.base
	u.Path = u.Path + "/" + c.heroesPath
	if len(q) > 0 {
		// filter queries address the collection with a trailing slash: api/heroes/?name=x
		u.Path += "/"
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) itemURL(id int) string {
	u := *c.base
	u.Path = u.Path + "/" + c.heroesPath + "/" + strconv.Itoa(id)
	return u.String()
}

// call performs one round trip and decodes the JSON answer into out.
func (c *Client) call(ctx context.Context, op, method, target string, body, out any) error {
	start := time.Now()
	defer func() {
		metrics.RecordClientLatency(metricOp(op), float64(time.Since(start).Milliseconds()))
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrEncode, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("Accept", contentTypeJSON)
	if method != http.MethodGet {
		req.Header.Set("Content-Type", contentTypeJSON)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Code: resp.StatusCode, Body: snippet(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		metrics.RecordClientCall(metricOp(op), metrics.OutcomeOK)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	metrics.RecordClientCall(metricOp(op), metrics.OutcomeOK)
	return nil
}

func (c *Client) fallbackList(ctx context.Context, op string, err error) []model.Hero {
	c.fail(ctx, op, err)
	return []model.Hero{}
}

// fail records exactly one diagnostic for a failed operation.
func (c *Client) fail(ctx context.Context, op string, err error) {
	metrics.RecordClientCall(metricOp(op), metrics.OutcomeFailed)
	c.logger.Error(ctx, "backend call failed", logger.String("operation", op), logger.Error(err))
	c.log(op + " failed: " + err.Error())
	if c.onError != nil {
		c.onError(op, err)
	}
}

func (c *Client) log(message string) {
	c.messages.Add(messagePrefix + message)
}

func nonNil(heroes []model.Hero) []model.Hero {
	if heroes == nil {
		return []model.Hero{}
	}
	return heroes
}

// snippet trims a response body for error messages, cutting on a rune boundary.
func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// metricOp drops per-call detail such as "id=N" so label cardinality stays fixed.
func metricOp(op string) string {
	if i := strings.IndexByte(op, ' '); i > 0 {
		return op[:i]
	}
	return op
}
