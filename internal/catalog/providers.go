package catalog

import (
	"net/url"
	"regexp"
	"strings"
)

// Provider names referenced outside this package.
const (
	ProviderYouTube    = "youtube"
	ProviderVimeo      = "vimeo"
	ProviderTwitch     = "twitch"
	ProviderThreeSpeak = "3speak"
	ProviderTwitter    = "twitter"
	ProviderSpotify    = "spotify"
	ProviderSoundCloud = "soundcloud"
)

// Provider describes a video, audio or social platform whose links are
// replaced by placeholders and whose iframes are allowed through.
type Provider struct {
	Name string
	// Link matches anchor hrefs. nil when the provider is iframe-only.
	Link *regexp.Regexp
	// Frame matches iframe src attributes. nil when the provider has no
	// embeddable player.
	Frame *regexp.Regexp
	// Sandbox is the iframe sandbox value, empty for none.
	Sandbox string

	embed     func(groups []string, parentDomain string) string
	normalize func(src string, groups []string, parentDomain string) string
	thumbnail func(groups []string) string
}

// EmbedSrc builds the player URL for link captures produced by p.Link.
func (p *Provider) EmbedSrc(groups []string, parentDomain string) string {
	if p.embed == nil {
		return groups[0]
	}
	return p.embed(groups, parentDomain)
}

// Thumbnail returns a preview image URL for link captures, or "".
func (p *Provider) Thumbnail(groups []string) string {
	if p.thumbnail == nil {
		return ""
	}
	return p.thumbnail(groups)
}

// NormalizeFrame rewrites an iframe src accepted by p.Frame into its
// canonical form. It returns false if src does not belong to p.
func (p *Provider) NormalizeFrame(src, parentDomain string) (string, bool) {
	if p.Frame == nil {
		return "", false
	}
	groups := p.Frame.FindStringSubmatch(src)
	if groups == nil {
		return "", false
	}
	if p.normalize == nil {
		return src, true
	}
	out := p.normalize(src, groups, parentDomain)
	return out, out != ""
}

// FrameProvider finds the provider whose player accepts src.
func FrameProvider(src string) (*Provider, bool) {
	for _, p := range Providers {
		if p.Frame != nil && p.Frame.MatchString(src) {
			return p, true
		}
	}
	return nil, false
}

const (
	sandboxMedia  = "allow-scripts allow-same-origin allow-popups"
	sandboxStrict = "allow-scripts allow-same-origin"
)

// YouTubeLink extracts the 11 character video id from any youtube link form.
var YouTubeLink = regexp.MustCompile(`(?i)^https?://(?:www\.|m\.)?(?:youtube\.com/(?:watch\?(?:[^#\s]*&)?v=|embed/|v/|shorts/|live/)|youtu\.be/)([\w-]{11})`)

// Providers is the ordered embed table.
var Providers = []*Provider{
	{
		Name:  ProviderYouTube,
		Link:  YouTubeLink,
		Frame: regexp.MustCompile(`(?i)^(?:https?:)?//(?:www\.)?youtube(?:-nocookie)?\.com/(?:embed|shorts)/([\w-]{11})`),
		embed: func(groups []string, _ string) string {
			return "https://www.youtube.com/embed/" + groups[1] + "?autoplay=1"
		},
		normalize: func(src string, _ []string, _ string) string {
			src, _, _ = strings.Cut(src, "?")
			if strings.HasPrefix(src, "//") {
				src = "https:" + src
			}
			return src
		},
		thumbnail: func(groups []string) string {
			return "https://img.youtube.com/vi/" + groups[1] + "/hqdefault.jpg"
		},
	},
	{
		Name:  ProviderVimeo,
		Link:  regexp.MustCompile(`(?i)^https?://(?:www\.)?vimeo\.com/(?:channels/[\w-]+/|groups/[\w-]+/videos/)?(\d+)`),
		Frame: regexp.MustCompile(`(?i)^https://player\.vimeo\.com/video/(\d+)`),
		embed: func(groups []string, _ string) string {
			return "https://player.vimeo.com/video/" + groups[1]
		},
		normalize: func(_ string, groups []string, _ string) string {
			return "https://player.vimeo.com/video/" + groups[1]
		},
	},
	{
		Name:  ProviderTwitch,
		Link:  regexp.MustCompile(`(?i)^https?://(?:www\.)?twitch\.tv/(?:(videos)/)?([a-zA-Z0-9]\w{3,24})`),
		Frame: regexp.MustCompile(`(?i)^(?:https?:)?//player\.twitch\.tv/`),
		embed: func(groups []string, parentDomain string) string {
			key := "channel"
			if groups[1] != "" {
				key = "video"
			}
			return "https://player.twitch.tv/?" + key + "=" + groups[2] +
				"&parent=" + parentDomain + "&autoplay=false"
		},
		normalize: func(src string, _ []string, parentDomain string) string {
			src, _, _ = strings.Cut(src, "&parent=")
			if strings.HasPrefix(src, "//") {
				src = "https:" + src
			}
			return src + "&parent=" + parentDomain + "&autoplay=false"
		},
	},
	{
		Name:  ProviderThreeSpeak,
		Link:  regexp.MustCompile(`(?i)^https?://3speak\.(?:tv|online|co)/(?:watch|embed)\?v=([\w.-]+/[\w.-]+)`),
		Frame: regexp.MustCompile(`(?i)^https?://3speak\.(?:tv|online|co)/embed\?v=([\w.-]+/[\w.-]+)`),
		embed: func(groups []string, _ string) string {
			return "https://3speak.tv/embed?v=" + groups[1] + "&autoplay=true"
		},
		normalize: func(_ string, groups []string, _ string) string {
			return "https://3speak.tv/embed?v=" + groups[1] + "&autoplay=true"
		},
		thumbnail: func(groups []string) string {
			_, permlink, _ := strings.Cut(groups[1], "/")
			return "https://img.3speak.tv/" + permlink + "/poster.png"
		},
	},
	{
		Name: ProviderTwitter,
		Link: regexp.MustCompile(`(?i)^https?://(?:www\.|mobile\.)?(?:twitter|x)\.com/(\w+)/status/(\d+)`),
	},
	{
		Name:    ProviderSpotify,
		Link:    regexp.MustCompile(`(?i)^https://open\.spotify\.com/(playlist|show|episode|track|album)/(\w+)`),
		Frame:   regexp.MustCompile(`(?i)^https://open\.spotify\.com/(?:embed|embed-podcast)/(playlist|show|episode|track|album)/(\w+)`),
		Sandbox: sandboxMedia,
		embed: func(groups []string, _ string) string {
			return "https://open.spotify.com/embed/" + strings.ToLower(groups[1]) + "/" + groups[2]
		},
		normalize: func(_ string, groups []string, _ string) string {
			return "https://open.spotify.com/embed/" + strings.ToLower(groups[1]) + "/" + groups[2]
		},
	},
	{
		Name:  ProviderSoundCloud,
		Link:  regexp.MustCompile(`(?i)^https://soundcloud\.com/([\w-]+/[\w-]+)`),
		Frame: regexp.MustCompile(`(?i)^https://w\.soundcloud\.com/player/`),
		embed: func(groups []string, _ string) string {
			return soundCloudPlayer(groups[0])
		},
		normalize: func(src string, _ []string, _ string) string {
			u, err := url.Parse(src)
			if err != nil {
				return ""
			}
			target := u.Query().Get("url")
			if target == "" {
				return ""
			}
			return soundCloudPlayer(target)
		},
	},
	{
		Name:  "dtube",
		Link:  regexp.MustCompile(`(?i)^https?://(?:www\.)?d\.tube/(?:#!/)?v/([\w.-]+)/(\w+)`),
		Frame: regexp.MustCompile(`(?i)^https://emb\.d\.tube/#!/`),
		embed: func(groups []string, _ string) string {
			return "https://emb.d.tube/#!/" + groups[1] + "/" + groups[2]
		},
	},
	{
		Name:  "vimm",
		Link:  regexp.MustCompile(`(?i)^https://www\.vimm\.tv/(?:c/)?([\w-]+)/?$`),
		Frame: regexp.MustCompile(`(?i)^https://www\.vimm\.tv/[\w-]+/embed`),
		embed: func(groups []string, _ string) string {
			return "https://www.vimm.tv/" + groups[1] + "/embed?autoplay=0"
		},
	},
	{
		Name:    "dapplr",
		Frame:   regexp.MustCompile(`(?i)^https://[a-z]+\.dapplr\.in/file/dapplr-videos/[\w/.-]+`),
		Sandbox: sandboxStrict,
	},
	{
		Name:    "truvvl",
		Frame:   regexp.MustCompile(`(?i)^https?://embed\.truvvl\.com/@[\w.\d-]+/\S+`),
		Sandbox: sandboxMedia,
	},
	{
		Name:  "lbry",
		Link:  regexp.MustCompile(`(?i)^https://lbry\.tv/\$/embed/(\S+)`),
		Frame: regexp.MustCompile(`(?i)^https://lbry\.tv/\$/embed/\S+`),
	},
	{
		Name:  "odysee",
		Link:  regexp.MustCompile(`(?i)^https://odysee\.com/\$/embed/(\S+)`),
		Frame: regexp.MustCompile(`(?i)^https://odysee\.com/\$/embed/\S+`),
	},
	{
		Name:  "archive",
		Link:  regexp.MustCompile(`(?i)^https://(?:www\.)?archive\.org/(?:details|embed)/([\w.-]+)`),
		Frame: regexp.MustCompile(`(?i)^https://(?:www\.)?archive\.org/embed/[\w.-]+`),
		embed: func(groups []string, _ string) string {
			return "https://archive.org/embed/" + groups[1]
		},
	},
	{
		Name:  "rumble",
		Link:  regexp.MustCompile(`(?i)^https://rumble\.com/embed/([\w-]+)/?`),
		Frame: regexp.MustCompile(`(?i)^https://rumble\.com/embed/[\w-]+/?`),
	},
	{
		Name:  "brighteon",
		Link:  regexp.MustCompile(`(?i)^https?://(?:www\.)?brighteon\.com/(?:embed/)?([\w-]*\d[\w-]*)$`),
		Frame: regexp.MustCompile(`(?i)^https://(?:www\.)?brighteon\.com/embed/[\w-]+`),
		embed: func(groups []string, _ string) string {
			return "https://www.brighteon.com/embed/" + groups[1]
		},
	},
	{
		Name:  "brandnewtube",
		Link:  regexp.MustCompile(`(?i)^https://brandnewtube\.com/(?:embed|watch)/([a-z0-9]+)`),
		Frame: regexp.MustCompile(`(?i)^https://brandnewtube\.com/embed/[a-z0-9]+$`),
		embed: func(groups []string, _ string) string {
			return "https://brandnewtube.com/embed/" + groups[1]
		},
	},
	{
		Name:  "loom",
		Link:  regexp.MustCompile(`(?i)^https://(?:www\.)?loom\.com/(?:share|embed)/(\w+)`),
		Frame: regexp.MustCompile(`(?i)^https://(?:www\.)?loom\.com/embed/\w+`),
		embed: func(groups []string, _ string) string {
			return "https://www.loom.com/embed/" + groups[1]
		},
	},
	{
		Name:  "aureal",
		Link:  regexp.MustCompile(`(?i)^https://(?:www\.)?aureal-embed\.web\.app/(\d+)`),
		Frame: regexp.MustCompile(`(?i)^https://(?:www\.)?aureal-embed\.web\.app/\d+`),
		embed: func(groups []string, _ string) string {
			return "https://aureal-embed.web.app/" + groups[1]
		},
	},
	{
		Name:  "bitchute",
		Link:  regexp.MustCompile(`(?i)^https?://(?:www\.)?bitchute\.com/(?:video|embed)/([a-z0-9]+)`),
		Frame: regexp.MustCompile(`(?i)^https://(?:www\.)?bitchute\.com/embed/[a-z0-9]+`),
		embed: func(groups []string, _ string) string {
			return "https://www.bitchute.com/embed/" + groups[1] + "/"
		},
	},
}

func soundCloudPlayer(target string) string {
	return "https://w.soundcloud.com/player/?url=" + url.QueryEscape(target) +
		"&auto_play=true&hide_related=false&show_comments=true&show_user=true&show_reposts=false&visual=true"
}
