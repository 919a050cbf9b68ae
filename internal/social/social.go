// Package social recognizes social-network links and describes how to render them.
package social

import (
	"net/url"
	"strings"

	"git.home.luguber.info/inful/linkbio/internal/foundation/normalization"
)

// Platform is a social network rendered as an icon on public pages.
type Platform struct {
	// Name is the display name and the value stored as a link's social type.
	Name string
	// Slug is the lower-case identifier used for icon lookup.
	Slug string
	// Hosts are registrable domains; subdomains match too.
	Hosts []string
	// Color is the brand color used for the icon.
	Color string
}

var catalog = []Platform{
	{Name: "Instagram", Slug: "instagram", Hosts: []string{"instagram.com", "instagr.am"}, Color: "#E1306C"},
	{Name: "LinkedIn", Slug: "linkedin", Hosts: []string{"linkedin.com", "lnkd.in"}, Color: "#0A66C2"},
	{Name: "Twitter/X", Slug: "twitter", Hosts: []string{"twitter.com", "x.com"}, Color: "#1DA1F2"},
	{Name: "YouTube", Slug: "youtube", Hosts: []string{"youtube.com", "youtu.be"}, Color: "#FF0000"},
	{Name: "TikTok", Slug: "tiktok", Hosts: []string{"tiktok.com"}, Color: "#111111"},
	{Name: "Facebook", Slug: "facebook", Hosts: []string{"facebook.com", "fb.com", "fb.me"}, Color: "#1877F2"},
	{Name: "GitHub", Slug: "github", Hosts: []string{"github.com"}, Color: "#24292F"},
	{Name: "WhatsApp", Slug: "whatsapp", Hosts: []string{"whatsapp.com", "wa.me"}, Color: "#25D366"},
	{Name: "Notion", Slug: "notion", Hosts: []string{"notion.so", "notion.site"}, Color: "#111111"},
	{Name: "Discord", Slug: "discord", Hosts: []string{"discord.com", "discord.gg"}, Color: "#5865F2"},
	{Name: "Spotify", Slug: "spotify", Hosts: []string{"spotify.com"}, Color: "#1DB954"},
}

// Platforms returns the catalog in display order.
func Platforms() []Platform {
	out := make([]Platform, len(catalog))
	copy(out, catalog)
	return out
}

// byName indexes the catalog by display name and slug; "x" is an alias.
var byName = func() *normalization.Normalizer[int] {
	n := normalization.NewNormalizer(map[string]int{}, -1)
	for i, p := range catalog {
		n.Add(p.Name, i)
		n.Add(p.Slug, i)
	}
	n.Add("x", n.Normalize("twitter"))
	return n
}()

// Lookup finds a platform by social type, ignoring case. The legacy value
// "Twitter" and the slug are accepted as aliases.
func Lookup(socialType string) (Platform, bool) {
	i, ok := byName.Lookup(socialType)
	if !ok {
		return Platform{}, false
	}
	return catalog[i], true
}

// Detect returns the social type for rawURL: the platform name when the host
// belongs to a known platform, otherwise the bare host without "www.".
// ok is false when rawURL has no host.
func Detect(rawURL string) (socialType string, ok bool) {
	host := hostOf(rawURL)
	if host == "" {
		return "", false
	}
	if p, found := platformForHost(host); found {
		return p.Name, true
	}
	return host, true
}

// Match returns the platform for rawURL, if any.
func Match(rawURL string) (Platform, bool) {
	host := hostOf(rawURL)
	if host == "" {
		return Platform{}, false
	}
	return platformForHost(host)
}

func platformForHost(host string) (Platform, bool) {
	for _, p := range catalog {
		for _, h := range p.Hosts {
			if host == h || strings.HasSuffix(host, "."+h) {
				return p, true
			}
		}
	}
	return Platform{}, false
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	return strings.TrimPrefix(host, "www.")
}
