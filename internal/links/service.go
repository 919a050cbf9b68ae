// Package links implements link management for a user's page and the public
// click counter.
package links

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"git.home.luguber.info/inful/linkbio/internal/events"
	"git.home.luguber.info/inful/linkbio/internal/foundation"
	"git.home.luguber.info/inful/linkbio/internal/logfields"
	"git.home.luguber.info/inful/linkbio/internal/metrics"
	"git.home.luguber.info/inful/linkbio/internal/social"
	"git.home.luguber.info/inful/linkbio/internal/store"
)

// Store is the persistence the link service needs.
type Store interface {
	ListLinks(ctx context.Context, userID string) ([]store.Link, error)
	NextPosition(ctx context.Context, userID string) (int, error)
	CreateLink(ctx context.Context, nl store.NewLink) (*store.Link, error)
	GetLink(ctx context.Context, id, userID string) (*store.Link, error)
	GetLinkByID(ctx context.Context, id string) (*store.Link, error)
	UpdateLink(ctx context.Context, id, userID string, upd store.LinkUpdate) (*store.Link, error)
	DeleteLink(ctx context.Context, id, userID string) error
	ReorderLinks(ctx context.Context, userID string, items []store.ReorderItem) error
	IncrementClicks(ctx context.Context, id string) (int64, error)
}

// Service manages links.
type Service struct {
	store     Store
	publisher events.Publisher
	recorder  metrics.Recorder
}

// NewService creates a link service. Nil publisher and recorder are no-ops.
func NewService(st Store, publisher events.Publisher, recorder metrics.Recorder) *Service {
	return &Service{
		store:     st,
		publisher: events.OrNoop(publisher),
		recorder:  metrics.OrNoop(recorder),
	}
}

// CreateLinkRequest is the payload for a new link. Nil fields take defaults.
type CreateLinkRequest struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Order      *int    `json:"order"`
	Active     *bool   `json:"active"`
	IsSocial   *bool   `json:"isSocial"`
	SocialType *string `json:"socialType"`
}

// UpdateLinkRequest is a partial update. Absent keys are left untouched.
type UpdateLinkRequest struct {
	Title      foundation.Field[string] `json:"title"`
	URL        foundation.Field[string] `json:"url"`
	Order      foundation.Field[int]    `json:"order"`
	Active     foundation.Field[bool]   `json:"active"`
	IsSocial   foundation.Field[bool]   `json:"isSocial"`
	SocialType foundation.Field[string] `json:"socialType"`
}

var (
	validateTitle = foundation.MinLength("title", 1)
	validateURL   = foundation.URL("url")
	validateOrder = foundation.NonNegative("order")
)

func required(field string) foundation.ValidationResult {
	return foundation.Invalid(foundation.NewValidationError(field, "invalid_type", "Required"))
}

// Validate checks a create payload.
func (r CreateLinkRequest) Validate() foundation.ValidationResult {
	res := validateTitle(r.Title).Combine(validateURL(r.URL))
	if r.Order != nil {
		res = res.Combine(validateOrder(*r.Order))
	}
	return res
}

// Validate checks the fields present in an update payload.
func (r UpdateLinkRequest) Validate() foundation.ValidationResult {
	res := foundation.Valid()
	if r.Title.IsNull() {
		res = res.Combine(required("title"))
	} else if v, ok := r.Title.Value(); ok {
		res = res.Combine(validateTitle(v))
	}
	if r.URL.IsNull() {
		res = res.Combine(required("url"))
	} else if v, ok := r.URL.Value(); ok {
		res = res.Combine(validateURL(v))
	}
	if r.Order.IsNull() {
		res = res.Combine(required("order"))
	} else if v, ok := r.Order.Value(); ok {
		res = res.Combine(validateOrder(v))
	}
	if r.Active.IsNull() {
		res = res.Combine(required("active"))
	}
	if r.IsSocial.IsNull() {
		res = res.Combine(required("isSocial"))
	}
	return res
}

// List returns the user's links in display order.
func (s *Service) List(ctx context.Context, userID string) ([]store.Link, error) {
	return s.store.ListLinks(ctx, userID)
}

// Create validates and stores a new link. Without an explicit order the link is
// appended after the user's last link. Social links without a type get one
// detected from the URL.
func (s *Service) Create(ctx context.Context, userID string, req CreateLinkRequest) (*store.Link, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.URL = strings.TrimSpace(req.URL)
	if err := req.Validate().ToError(); err != nil {
		return nil, err
	}

	nl := store.NewLink{
		UserID:     userID,
		Title:      req.Title,
		URL:        req.URL,
		Active:     true,
		SocialType: normalizeSocialType(req.SocialType),
	}
	if req.Active != nil {
		nl.Active = *req.Active
	}
	if req.IsSocial != nil {
		nl.IsSocial = *req.IsSocial
	}
	if nl.IsSocial && nl.SocialType == nil {
		if st, ok := social.Detect(nl.URL); ok {
			nl.SocialType = &st
		}
	}
	if req.Order != nil {
		nl.Order = *req.Order
	} else {
		next, err := s.store.NextPosition(ctx, userID)
		if err != nil {
			return nil, err
		}
		nl.Order = next
	}

	link, err := s.store.CreateLink(ctx, nl)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Link created", logfields.UserID(userID), logfields.LinkID(link.ID))
	return link, nil
}

// Update applies a partial update to a link owned by userID.
func (s *Service) Update(ctx context.Context, userID, id string, req UpdateLinkRequest) (*store.Link, error) {
	if v, ok := req.Title.Value(); ok {
		req.Title = foundation.Set(strings.TrimSpace(v))
	}
	if v, ok := req.URL.Value(); ok {
		req.URL = foundation.Set(strings.TrimSpace(v))
	}
	if err := req.Validate().ToError(); err != nil {
		return nil, err
	}

	current, err := s.store.GetLink(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	upd := store.LinkUpdate{
		Title:    req.Title,
		URL:      req.URL,
		Order:    req.Order,
		Active:   req.Active,
		IsSocial: req.IsSocial,
	}
	if req.SocialType.IsSet() {
		if st := normalizeSocialType(req.SocialType.Ptr()); st != nil {
			upd.SocialType = foundation.Set(*st)
		} else {
			upd.SocialType = foundation.Null[string]()
		}
	}

	// Fill in a detected type when the result is a social link without one.
	isSocial := current.IsSocial
	if v, ok := req.IsSocial.Value(); ok {
		isSocial = v
	}
	hasType := current.SocialType != nil
	if upd.SocialType.IsSet() {
		hasType = !upd.SocialType.IsNull()
	}
	if isSocial && !hasType {
		target := current.URL
		if v, ok := req.URL.Value(); ok {
			target = v
		}
		if st, ok := social.Detect(target); ok {
			upd.SocialType = foundation.Set(st)
		}
	}

	return s.store.UpdateLink(ctx, id, userID, upd)
}

// Delete removes a link owned by userID.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteLink(ctx, id, userID); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Link deleted", logfields.UserID(userID), logfields.LinkID(id))
	return nil
}

// ValidateReorder checks that orders are non-negative and ids are unique.
func ValidateReorder(items []store.ReorderItem) foundation.ValidationResult {
	res := foundation.Valid()
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		if item.ID == "" {
			res = res.Combine(required(fmt.Sprintf("items.%d.id", i)))
			continue
		}
		if _, dup := seen[item.ID]; dup {
			res = res.Combine(foundation.Invalid(foundation.NewValidationError(
				fmt.Sprintf("items.%d.id", i), "duplicate", "Duplicate link id")))
		}
		seen[item.ID] = struct{}{}
		res = res.Combine(foundation.NonNegative(fmt.Sprintf("items.%d.order", i))(item.Order))
	}
	return res
}

// Reorder assigns the given orders in one transaction. Either every link is
// moved or none is.
func (s *Service) Reorder(ctx context.Context, userID string, items []store.ReorderItem) error {
	if err := ValidateReorder(items).ToError(); err != nil {
		return err
	}
	if err := s.store.ReorderLinks(ctx, userID, items); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Links reordered", logfields.UserID(userID), logfields.Count(len(items)))
	return nil
}

// MoveTo moves one link to position to within the user's list and renumbers
// the whole list.
func (s *Service) MoveTo(ctx context.Context, userID, id string, to int) error {
	all, err := s.store.ListLinks(ctx, userID)
	if err != nil {
		return err
	}
	from := -1
	for i, l := range all {
		if l.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return store.ErrLinkNotFound
	}
	return s.Reorder(ctx, userID, Move(all, from, to))
}

// Click counts a visit to a link and returns the new click count.
func (s *Service) Click(ctx context.Context, id string, visit events.Visit) (int64, error) {
	link, err := s.store.GetLinkByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return s.click(ctx, link, visit)
}

// Follow resolves an active link for redirecting and counts the click.
// Inactive links are reported as not found.
func (s *Service) Follow(ctx context.Context, id string, visit events.Visit) (*store.Link, error) {
	link, err := s.store.GetLinkByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !link.Active {
		return nil, store.ErrLinkNotFound
	}
	clicks, err := s.click(ctx, link, visit)
	if err != nil {
		return nil, err
	}
	link.Clicks = clicks
	return link, nil
}

func (s *Service) click(ctx context.Context, link *store.Link, visit events.Visit) (int64, error) {
	clicks, err := s.store.IncrementClicks(ctx, link.ID)
	if err != nil {
		return 0, err
	}
	s.recorder.IncLinkClick()

	e := events.Event{Type: events.TypeLinkClicked, UserID: link.UserID, LinkID: link.ID, URL: link.URL}
	visit.Annotate(&e)
	if err := s.publisher.Publish(ctx, e); err != nil {
		slog.WarnContext(ctx, "Failed to publish click event", logfields.LinkID(link.ID), logfields.Error(err))
	}
	return clicks, nil
}

func normalizeSocialType(st *string) *string {
	if st == nil {
		return nil
	}
	v := strings.TrimSpace(*st)
	if v == "" {
		return nil
	}
	if p, ok := social.Lookup(v); ok {
		v = p.Name
	}
	return &v
}
