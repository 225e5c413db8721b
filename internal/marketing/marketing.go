package marketing

import (
	"fmt"
	"html"
	"math/rand/v2"
	"strings"
	"sync"

	"rotchain-bot/internal/domain"
)

const (
	msgNoAirdropsYet = "There are no airdrops yet."
	msgNoMatch       = "No airdrops match the filter."
	msgNoAirdrops    = "No airdrops available."
	msgHotHeader     = "🔥 HOT airdrops:"
)

// Picker chooses an index in [0, n).
type Picker interface {
	IntN(n int) int
}

// lockedRand makes a *rand.Rand safe for the concurrent handlers.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// NewPicker returns a goroutine-safe picker seeded with seed.
func NewPicker(seed uint64) Picker {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Marketing renders promotions, calls to action and keyword replies.
type Marketing struct {
	landingURL string
	keywords   []domain.Keyword
	picker     Picker
}

// New builds a Marketing. A nil picker falls back to a randomly seeded one.
func New(landingURL string, keywords []domain.Keyword, picker Picker) *Marketing {
	if picker == nil {
		picker = NewPicker(rand.Uint64())
	}
	kw := make([]domain.Keyword, 0, len(keywords))
	for _, k := range keywords {
		if w := strings.ToLower(strings.TrimSpace(k.Word)); w != "" {
			kw = append(kw, domain.Keyword{Word: w, Reply: k.Reply})
		}
	}
	return &Marketing{landingURL: landingURL, keywords: kw, picker: picker}
}

func (m *Marketing) CTA() string {
	return "👉 Details: " + m.landingURL
}

// QuickReply returns the reply of the first keyword, in table order, found
// anywhere in text.
func (m *Marketing) QuickReply(text string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return "", false
	}
	for _, k := range m.keywords {
		if strings.Contains(t, k.Word) {
			return k.Reply + "\n" + m.CTA(), true
		}
	}
	return "", false
}

// FilterPromotions keeps entries whose status and network equal the given
// values, ignoring case. Empty filters match everything.
func FilterPromotions(items []domain.Promotion, status, network string) []domain.Promotion {
	out := make([]domain.Promotion, 0, len(items))
	for _, it := range items {
		if status != "" && !strings.EqualFold(it.Status, status) {
			continue
		}
		if network != "" && !strings.EqualFold(it.Network, network) {
			continue
		}
		out = append(out, it)
	}
	return out
}

// FormatPromotions renders a numbered list of the filtered entries.
func (m *Marketing) FormatPromotions(items []domain.Promotion, filter domain.PromotionFilter) string {
	if len(items) == 0 {
		return msgNoAirdropsYet
	}
	items = FilterPromotions(items, filter.Status, filter.Network)
	if len(items) == 0 {
		return msgNoMatch
	}
	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}

	lines := []string{msgHotHeader}
	for i, it := range items {
		f := escaped(it)
		lines = append(lines, fmt.Sprintf("%d. <b>%s</b> – %s\n🎁 Reward: %s\n🌐 Network: %s\n📌 Status: %s\n🏷 Tags: %s\n🔗 %s\n",
			i+1, f.name, f.desc, f.reward, f.network, f.status, f.tags, f.link))
	}
	lines = append(lines, m.CTA())
	return strings.Join(lines, "\n")
}

// RandomPromotion picks one entry from the filtered set, or from all entries
// when nothing matches the filter.
func (m *Marketing) RandomPromotion(items []domain.Promotion, status, network string) string {
	if len(items) == 0 {
		return msgNoAirdrops
	}
	pool := FilterPromotions(items, status, network)
	if len(pool) == 0 {
		pool = items
	}
	f := escaped(pool[m.picker.IntN(len(pool))])
	return fmt.Sprintf("🚀 <b>%s</b>\n%s\n🎁 %s | 🌐 %s | 📌 %s\n🏷 %s\n🔗 %s\n\n%s",
		f.name, f.desc, f.reward, f.network, f.status, f.tags, f.link, m.CTA())
}

// BuildCampaign renders an announcement with a bold title and bullet points.
func (m *Marketing) BuildCampaign(title string, bullets []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📢 <b>%s</b>\n", html.EscapeString(title))
	for _, p := range bullets {
		fmt.Fprintf(&b, "• %s\n", html.EscapeString(p))
	}
	b.WriteString("\n")
	b.WriteString(m.CTA())
	return b.String()
}

type fields struct {
	name, desc, link, reward, network, status, tags string
}

func escaped(p domain.Promotion) fields {
	return fields{
		name:    html.EscapeString(orDefault(p.Name, "?")),
		desc:    html.EscapeString(p.Description),
		link:    html.EscapeString(p.Link),
		reward:  html.EscapeString(orDefault(p.Reward, "N/A")),
		network: html.EscapeString(orDefault(p.Network, "N/A")),
		status:  html.EscapeString(orDefault(p.Status, "unknown")),
		tags:    html.EscapeString(strings.Join(p.Tags, ", ")),
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
