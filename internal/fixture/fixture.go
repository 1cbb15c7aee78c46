// Package fixture generates seeded corpora of post bodies: ordinary
// markdown mixed with the link, embed and markup forms that posts carry, and
// a share of hostile markup.
package fixture

import (
	"fmt"
	"math/rand/v2"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// SeedEnv names the environment variable that pins the corpus seed.
const SeedEnv = "CALLIOPE_FIXTURE_SEED"

// Corpus generation constants.
const (
	minParagraphs       = 2
	maxExtraParagraphs  = 6 // 2-7 paragraphs total
	minSentences        = 1
	maxExtraSentences   = 4 // 1-4 sentences total
	minWords            = 5
	maxExtraWords       = 10 // 5-14 words total
	decorProbability    = 0.6
	hostileProbability  = 0.2
	metadataProbability = 0.3
)

// Seed returns the seed from [SeedEnv], or a random value if not set.
func Seed() uint64 {
	if env := os.Getenv(SeedEnv); env != "" {
		if seed, err := strconv.ParseUint(env, 10, 64); err == nil {
			return seed
		}
	}
	return rand.Uint64() //nolint:gosec // intentionally weak random for test data
}

// Post is a generated post revision.
type Post struct {
	Author     string
	Permlink   string
	Title      string
	Body       string
	Image      string // declared lead image, may be empty
	LastUpdate string
	Updated    string
}

var (
	authors = []string{
		"alice", "bob.writes", "carol-art", "dave123", "erin.photos",
		"frank-dev", "grace", "heidi.travel", "ivan-music", "judy",
	}
	communities = []string{"hive-167922", "hive-125125", "hive-174578", "hive-196037"}
	domains     = []string{"ecency.com", "peakd.com", "hive.blog", "inleo.io"}
	youtubeIDs  = []string{"dQw4w9WgXcQ", "9bZkp7q19f0", "kJQP7kiw5Fk"}
	footers     = []string{
		"Posted using [Ecency](https://ecency.com)",
		"Posted Using [InLeo Alpha](https://inleo.io)",
		"Posted via [D.Buzz](https://d.buzz)",
	}

	// hostile are markup fragments that must never survive rendering.
	hostile = []string{
		"<script>alert(1)</script>",
		`<img src="x" onerror="alert(1)">`,
		`<a href="javascript:alert(1)">click</a>`,
		`<a href=" jav&#x09;ascript:alert(1)">tab</a>`,
		`<iframe src="https://evil.example/frame"></iframe>`,
		`<div style="position:fixed" onclick="steal()">overlay</div>`,
		"<svg><script>alert(1)</script></svg>",
		`<object data="evil.swf"></object>`,
		"<div><p><b>unclosed <i>tags",
		"<<>><a<b",
		`<a href="https://example.com" href="javascript:alert(1)">dup</a>`,
		`<img src="https://example.com/a.png" src="javascript:alert(1)">`,
		"[x](javascript:alert(1))",
		"<style>body{display:none}</style>",
	}

	nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

	epoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Corpus returns count posts generated from seed. The same seed always
// produces the same corpus.
func Corpus(seed uint64, count int) []Post {
	faker := gofakeit.New(seed)
	posts := make([]Post, count)
	for i := range posts {
		posts[i] = generatePost(faker, i)
	}
	return posts
}

// Bodies returns only the bodies of a generated corpus.
func Bodies(seed uint64, count int) []string {
	posts := Corpus(seed, count)
	bodies := make([]string, len(posts))
	for i, post := range posts {
		bodies[i] = post.Body
	}
	return bodies
}

// Hostile returns the hostile fragments mixed into generated bodies.
func Hostile() []string {
	return append([]string(nil), hostile...)
}

func generatePost(faker *gofakeit.Faker, index int) Post {
	title := generateTitle(faker)
	updated := faker.DateRange(epoch, epoch.AddDate(5, 0, 0))
	lastUpdate := updated
	if faker.Float64() < 0.5 {
		lastUpdate = updated.Add(time.Duration(faker.IntN(72)) * time.Hour)
	}

	post := Post{
		Author:     pick(faker, authors),
		Permlink:   fmt.Sprintf("%s-%d", slugify(title), index),
		Title:      title,
		Body:       generateBody(faker),
		LastUpdate: lastUpdate.Format(time.DateOnly + "T" + time.TimeOnly),
		Updated:    updated.Format(time.DateOnly + "T" + time.TimeOnly),
	}
	if faker.Float64() < metadataProbability {
		post.Image = fmt.Sprintf("https://files.example.com/%s/%s.jpg", post.Author, slugify(faker.Noun()))
	}
	return post
}

func generateBody(faker *gofakeit.Faker) string {
	numParagraphs := minParagraphs + faker.IntN(maxExtraParagraphs)
	blocks := make([]string, 0, numParagraphs+3)
	blocks = append(blocks, "# "+generateTitle(faker))

	for range numParagraphs {
		paragraph := generateParagraph(faker)
		if faker.Float64() < decorProbability {
			paragraph += " " + decoration(faker)
		}
		blocks = append(blocks, paragraph)
	}
	if faker.Float64() < hostileProbability {
		blocks = append(blocks, pick(faker, hostile))
	}
	if faker.Float64() < 0.3 {
		blocks = append(blocks, pick(faker, footers))
	}
	return strings.Join(blocks, "\n\n")
}

func generateParagraph(faker *gofakeit.Faker) string {
	numSentences := minSentences + faker.IntN(maxExtraSentences)
	sentences := make([]string, numSentences)
	for i := range numSentences {
		sentences[i] = faker.Sentence(minWords + faker.IntN(maxExtraWords))
	}
	return strings.Join(sentences, " ")
}

// decoration returns one of the reference forms the renderer rewrites.
func decoration(faker *gofakeit.Faker) string {
	author := pick(faker, authors)
	community := pick(faker, communities)
	domain := pick(faker, domains)
	slug := slugify(faker.Adjective() + " " + faker.Noun())

	forms := []func() string{
		func() string { return "@" + author },
		func() string { return "#" + slugify(faker.Noun()) },
		func() string { return "#" + community },
		func() string { return "@" + author + "/" + slug },
		func() string { return fmt.Sprintf("https://%s/%s/@%s/%s", domain, community, author, slug) },
		func() string { return fmt.Sprintf("[profile](https://%s/@%s/wallet)", domain, author) },
		func() string { return fmt.Sprintf("https://%s/c/%s/trending", domain, community) },
		func() string { return "\n\nhttps://www.youtube.com/watch?v=" + pick(faker, youtubeIDs) + "\n\n" },
		func() string { return fmt.Sprintf("\n\nhttps://3speak.tv/watch?v=%s/%s\n\n", author, slug) },
		func() string { return fmt.Sprintf("![%s](https://files.example.com/%s.png)", slug, slug) },
		func() string { return fmt.Sprintf("https://files.example.com/%s.gif", slug) },
		func() string { return fmt.Sprintf("[%s](https://example.com/%s)", faker.Noun(), slug) },
		func() string { return fmt.Sprintf("`@%s` in code", author) },
		func() string { return "| col | val |\n|---|---|\n| @" + author + " | #" + community + " |" },
	}
	return forms[faker.IntN(len(forms))]()
}

func generateTitle(faker *gofakeit.Faker) string {
	patterns := []func(*gofakeit.Faker) string{
		func(f *gofakeit.Faker) string { return fmt.Sprintf("The %s %s", f.Adjective(), f.Noun()) },
		func(f *gofakeit.Faker) string { return fmt.Sprintf("A %s of %s", f.Noun(), f.Noun()) },
		func(f *gofakeit.Faker) string {
			return fmt.Sprintf("%s and %s", titleCase(f.Noun()), titleCase(f.Noun()))
		},
		func(f *gofakeit.Faker) string {
			return fmt.Sprintf("%s of the %s", titleCase(f.Noun()), f.Adjective())
		},
	}
	return patterns[faker.IntN(len(patterns))](faker)
}

func pick(faker *gofakeit.Faker, values []string) string {
	return values[faker.IntN(len(values))]
}

func slugify(s string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return "post"
	}
	return slug
}

func titleCase(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
