// Package profile implements profile settings, avatar uploads, the public
// page and per-user analytics.
package profile

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"git.home.luguber.info/inful/linkbio/internal/events"
	"git.home.luguber.info/inful/linkbio/internal/foundation"
	"git.home.luguber.info/inful/linkbio/internal/logfields"
	"git.home.luguber.info/inful/linkbio/internal/metrics"
	"git.home.luguber.info/inful/linkbio/internal/quota"
	"git.home.luguber.info/inful/linkbio/internal/social"
	"git.home.luguber.info/inful/linkbio/internal/store"
	"git.home.luguber.info/inful/linkbio/internal/upload"
)

// Store is the persistence the profile service needs.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*store.User, error)
	GetUserByUsername(ctx context.Context, username string) (*store.User, error)
	UpdateProfile(ctx context.Context, id string, upd store.ProfileUpdate) (*store.User, error)
	SetUserImage(ctx context.Context, id, imageURL string) error
	IncrementPageViews(ctx context.Context, id string) (int64, error)
	ListLinks(ctx context.Context, userID string) ([]store.Link, error)
	ListActiveLinks(ctx context.Context, userID string) ([]store.Link, error)
	UserStats(ctx context.Context, userID string) (*store.UserStats, error)
}

// Options configure the profile service.
type Options struct {
	// Folder is the upload folder for avatars and backgrounds.
	Folder string
	// Quota limits uploads per user; nil means unlimited.
	Quota *quota.Manager
}

// Service implements profile operations.
type Service struct {
	store     Store
	uploader  upload.Uploader
	publisher events.Publisher
	recorder  metrics.Recorder
	folder    string
	quota     *quota.Manager
	md        goldmark.Markdown
}

// NewService creates a profile service. Nil publisher and recorder are no-ops.
func NewService(st Store, uploader upload.Uploader, publisher events.Publisher, recorder metrics.Recorder, opts Options) *Service {
	folder := opts.Folder
	if folder == "" {
		folder = "link-app/avatars"
	}
	return &Service{
		store:     st,
		uploader:  uploader,
		publisher: events.OrNoop(publisher),
		recorder:  metrics.OrNoop(recorder),
		folder:    folder,
		quota:     opts.Quota,
		// Raw HTML is dropped by the default renderer.
		md: goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough)),
	}
}

// GetSettings returns the user's profile settings.
func (s *Service) GetSettings(ctx context.Context, userID string) (*Settings, error) {
	u, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return SettingsOf(u), nil
}

// UpdateSettings applies a raw JSON patch. Validation failures are reported
// together under the "Validation error" message.
func (s *Service) UpdateSettings(ctx context.Context, userID string, raw map[string]any) (*Settings, error) {
	upd, res := ParseSettingsPatch(raw)
	if err := res.ToErrorWithMessage("Validation error"); err != nil {
		return nil, err
	}
	u, err := s.store.UpdateProfile(ctx, userID, upd)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Profile settings updated", logfields.UserID(userID))
	return SettingsOf(u), nil
}

// UploadAvatar stores img as the user's avatar and saves its URL.
func (s *Service) UploadAvatar(ctx context.Context, userID string, img upload.Image) (*upload.Result, error) {
	return s.upload(ctx, userID, img, "user-"+userID, func(url string) error {
		return s.store.SetUserImage(ctx, userID, url)
	})
}

// UploadBackground stores img as the user's background image.
func (s *Service) UploadBackground(ctx context.Context, userID string, img upload.Image) (*upload.Result, error) {
	return s.upload(ctx, userID, img, "user-"+userID+"-background", func(url string) error {
		_, err := s.store.UpdateProfile(ctx, userID, store.ProfileUpdate{BackgroundImage: foundation.Set(url)})
		return err
	})
}

// upload reserves quota, uploads img and hands the URL to save. The
// reservation is returned when any step fails.
func (s *Service) upload(ctx context.Context, userID string, img upload.Image, publicID string, save func(url string) error) (*upload.Result, error) {
	size := int64(len(img.Data))
	if s.quota != nil {
		if err := s.quota.Reserve(userID, size); err != nil {
			slog.WarnContext(ctx, "Upload quota exceeded", logfields.UserID(userID), logfields.Error(err))
			return nil, err
		}
	}
	release := func() {
		if s.quota != nil {
			s.quota.Release(userID, size)
		}
	}

	res, err := s.uploader.Upload(ctx, img, upload.Options{Folder: s.folder, PublicID: publicID, Overwrite: true})
	if err != nil {
		release()
		s.recorder.IncUpload(metrics.ResultFailure)
		slog.ErrorContext(ctx, "Image upload failed", logfields.Provider(s.uploader.Name()), logfields.Error(err))
		return nil, err
	}
	if err := save(res.URL); err != nil {
		release()
		s.recorder.IncUpload(metrics.ResultFailure)
		slog.ErrorContext(ctx, "Failed to save uploaded image", logfields.UserID(userID), logfields.URL(res.URL), logfields.Error(err))
		return nil, err
	}
	s.recorder.IncUpload(metrics.ResultSuccess)
	slog.InfoContext(ctx, "Image uploaded", logfields.Provider(s.uploader.Name()), logfields.URL(res.URL))
	return res, nil
}

// SocialLink is a social link with its resolved platform.
type SocialLink struct {
	store.Link
	Platform social.Platform
}

// Page is everything the public profile template renders.
type Page struct {
	User        *store.User
	DisplayName string
	BioHTML     template.HTML
	Social      []SocialLink
	Links       []store.Link
	Theme       Theme
	// Background is a sanitized inline style for the page body.
	Background template.CSS
}

// PublicPage loads the public page of username and counts the view. Bots are
// served the page without being counted.
func (s *Service) PublicPage(ctx context.Context, username string, visit events.Visit) (*Page, error) {
	u, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	active, err := s.store.ListActiveLinks(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	page := &Page{
		User:        u,
		DisplayName: u.Name,
		Links:       []store.Link{},
		Theme:       ThemeFor(deref(u.Theme)),
	}
	if page.DisplayName == "" {
		page.DisplayName = u.Username
	}
	page.Background = template.CSS(BackgroundStyle(u, page.Theme))
	if bio := strings.TrimSpace(deref(u.Bio)); bio != "" {
		page.BioHTML = s.renderMarkdown(ctx, bio)
	}
	for _, l := range active {
		if !l.IsSocial {
			page.Links = append(page.Links, l)
			continue
		}
		if l.SocialType == nil {
			continue
		}
		if p, ok := social.Lookup(*l.SocialType); ok {
			page.Social = append(page.Social, SocialLink{Link: l, Platform: p})
		}
	}

	if !visit.IsBot() {
		views, err := s.store.IncrementPageViews(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		u.PageViews = views
		s.recorder.IncProfileView()

		e := events.Event{Type: events.TypeProfileViewed, UserID: u.ID, Username: u.Username}
		visit.Annotate(&e)
		if err := s.publisher.Publish(ctx, e); err != nil {
			slog.WarnContext(ctx, "Failed to publish view event", logfields.UserID(u.ID), logfields.Error(err))
		}
	}
	return page, nil
}

func (s *Service) renderMarkdown(ctx context.Context, src string) template.HTML {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(src), &buf); err != nil {
		slog.WarnContext(ctx, "Bio markdown conversion failed", logfields.Error(err))
		return template.HTML(template.HTMLEscapeString(src)) // #nosec G203 - escaped above
	}
	return template.HTML(buf.String()) // #nosec G203 - goldmark drops raw HTML and unsafe links
}

// BackgroundStyle builds the inline CSS for a profile background. An image is
// tinted with the background color (or DefaultOverlay); a bare color is used
// as is; otherwise the theme gradient applies. Stored values were validated on
// write and are escaped again here.
func BackgroundStyle(u *store.User, theme Theme) string {
	color := deref(u.BackgroundColor)
	if !BackgroundColorPattern.MatchString(color) {
		color = ""
	}
	if img := cssURL(deref(u.BackgroundImage)); img != "" {
		tint := color
		if tint == "" {
			tint = DefaultOverlay
		}
		return "background-image: linear-gradient(to bottom, " + tint + ", " + tint + "), url(\"" + img + "\"); " +
			"background-size: cover; background-position: center;"
	}
	if color != "" {
		return "background-color: " + color + ";"
	}
	return "background-image: " + theme.Gradient() + ";"
}

func cssURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return strings.NewReplacer(`"`, "%22", `\`, "%5C", "\n", "", "\r", "", "(", "%28", ")", "%29").Replace(u.String())
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
