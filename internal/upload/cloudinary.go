package upload

import (
	"context"
	"crypto/sha1" // #nosec G505 - Cloudinary request signatures are defined as SHA-1
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/linkbio/internal/config"
	"git.home.luguber.info/inful/linkbio/internal/foundation/errors"
	"git.home.luguber.info/inful/linkbio/internal/logfields"
	"git.home.luguber.info/inful/linkbio/internal/retry"
)

const defaultCloudinaryBaseURL = "https://api.cloudinary.com/v1_1"

// ErrCloudinaryNotConfigured is returned when credentials are missing.
var ErrCloudinaryNotConfigured = errors.ConfigError("Cloudinary configuration is missing").Build()

// CloudinaryUploader performs signed uploads to the Cloudinary image API.
type CloudinaryUploader struct {
	cfg    config.CloudinaryConfig
	client *http.Client
	policy retry.Policy
	now    func() time.Time
}

// NewCloudinaryUploader creates an uploader. A nil client gets a 30s timeout.
func NewCloudinaryUploader(cfg config.CloudinaryConfig, policy retry.Policy, client *http.Client) *CloudinaryUploader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &CloudinaryUploader{cfg: cfg, client: client, policy: policy, now: time.Now}
}

// Name identifies the provider in logs and metrics.
func (c *CloudinaryUploader) Name() string { return string(config.UploadProviderCloudinary) }

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Bytes     int    `json:"bytes"`
	Format    string `json:"format"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends img as a base64 data URI. Network failures and 5xx responses
// are retried according to the policy.
func (c *CloudinaryUploader) Upload(ctx context.Context, img Image, opts Options) (*Result, error) {
	if !c.cfg.Configured() {
		return nil, ErrCloudinaryNotConfigured
	}

	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if opts.Folder != "" {
		params["folder"] = opts.Folder
	}
	if opts.PublicID != "" {
		params["public_id"] = opts.PublicID
	}
	if opts.Overwrite {
		params["overwrite"] = "true"
	}

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("signature", Sign(params, c.cfg.APISecret))
	form.Set("api_key", c.cfg.APIKey)
	form.Set("file", "data:"+img.ContentType+";base64,"+base64.StdEncoding.EncodeToString(img.Data))
	body := form.Encode()

	var result *Result
	err := retry.Do(ctx, c.policy, func(ctx context.Context, attempt int) error {
		if attempt > 0 {
			slog.WarnContext(ctx, "Retrying Cloudinary upload", slog.Int("attempt", attempt))
		}
		r, err := c.post(ctx, body)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *CloudinaryUploader) endpoint() string {
	base := c.cfg.BaseURL
	if base == "" {
		base = defaultCloudinaryBaseURL
	}
	return strings.TrimSuffix(base, "/") + "/" + url.PathEscape(c.cfg.CloudName) + "/image/upload"
}

func (c *CloudinaryUploader) post(ctx context.Context, body string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), strings.NewReader(body))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "build upload request").Build()
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryUpload, "Failed to upload image").
			WithContext("provider", c.Name()).
			Retryable().
			Build()
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryUpload, "Failed to upload image").Retryable().Build()
	}
	var parsed cloudinaryResponse
	_ = json.Unmarshal(raw, &parsed)

	if resp.StatusCode >= 300 {
		msg := "Failed to upload image"
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		b := errors.UploadError(msg).
			WithContext("provider", c.Name()).
			WithContext("status", resp.StatusCode)
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			b = b.RateLimit()
			if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				b = b.WithContext(errors.ContextKeyRetryAfter, secs)
			}
		case resp.StatusCode >= 500:
			b = b.Retryable()
		}
		slog.WarnContext(ctx, "Cloudinary rejected upload", logfields.Status(resp.StatusCode), slog.String("message", msg))
		return nil, b.Build()
	}
	if parsed.SecureURL == "" {
		return nil, errors.UploadError("Failed to upload image").
			WithContext("provider", c.Name()).
			Build()
	}
	return &Result{URL: parsed.SecureURL, PublicID: parsed.PublicID, Bytes: parsed.Bytes, Format: parsed.Format}, nil
}

// Sign computes the Cloudinary request signature: the SHA-1 hex digest of the
// sorted key=value pairs joined by '&' followed by the API secret.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret)) // #nosec G401
	return hex.EncodeToString(sum[:])
}
