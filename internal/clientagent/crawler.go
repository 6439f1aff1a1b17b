package clientagent

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sherzodv/tim/clients/api"
	"github.com/sherzodv/tim/internal/storage"
)

const defaultCrawlAbility = "web.crawl"

// CrawlerConf configures a CrawlerAgent.
type CrawlerConf struct {
	AbilityName     string
	MaxSnippetChars int
	UserAgent       string
	Timeout         time.Duration
}

func (c CrawlerConf) withDefaults() CrawlerConf {
	if c.AbilityName == "" {
		c.AbilityName = defaultCrawlAbility
	}
	if c.MaxSnippetChars <= 0 {
		c.MaxSnippetChars = 480
	}
	if c.UserAgent == "" {
		c.UserAgent = "tim-crawler/0.1"
	}
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	return c
}

// CrawlerAgent declares a "fetch a web page" ability and answers ability
// calls addressed to it by fetching the URL and returning a readable text
// snippet, extracted from the page's body with goquery.
type CrawlerAgent struct {
	BaseAgent

	client *api.Client
	conf   CrawlerConf
	http   *http.Client
}

// NewCrawlerAgent builds a CrawlerAgent. client must already be connected as
// the timite the crawler will speak for.
func NewCrawlerAgent(client *api.Client, conf CrawlerConf) *CrawlerAgent {
	conf = conf.withDefaults()
	return &CrawlerAgent{
		client: client,
		conf:   conf,
		http:   &http.Client{Timeout: conf.Timeout},
	}
}

func (c *CrawlerAgent) OnStart(ctx context.Context) error {
	if err := c.client.DeclareAbilities(ctx, []storage.Ability{{
		Name:        c.conf.AbilityName,
		Description: "Fetches a web page and returns a short text snippet.",
	}}); err != nil {
		return fmt.Errorf("declare abilities: %w", err)
	}
	announce := fmt.Sprintf("crawler ready, call %q with a URL payload", c.conf.AbilityName)
	_, err := c.client.SendMessage(ctx, announce)
	return err
}

func (c *CrawlerAgent) OnSpaceMessage(context.Context, uint64, string) error { return nil }

func (c *CrawlerAgent) OnCallAbility(ctx context.Context, call *storage.CallAbility) error {
	if call.Name != c.conf.AbilityName {
		return nil
	}
	payload := strings.TrimSpace(call.Payload)
	if payload == "" {
		return c.respond(ctx, call.CallAbilityID, "", fmt.Errorf("payload must be a URL"))
	}
	snippet, err := c.crawl(ctx, payload)
	return c.respond(ctx, call.CallAbilityID, snippet, err)
}

func (c *CrawlerAgent) respond(ctx context.Context, callID uint64, payload string, crawlErr error) error {
	errMsg := ""
	if crawlErr != nil {
		errMsg = crawlErr.Error()
	}
	if err := c.client.SubmitOutcome(ctx, callID, payload, errMsg); err != nil {
		return fmt.Errorf("submit outcome: %w", err)
	}
	return nil
}

func (c *CrawlerAgent) crawl(ctx context.Context, rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme: %s", parsed.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.conf.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("http status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()

	return c.renderSnippet(doc.Find("body").Text()), nil
}

func (c *CrawlerAgent) renderSnippet(body string) string {
	var b strings.Builder
	for _, word := range strings.Fields(body) {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(word)
		if b.Len() >= c.conf.MaxSnippetChars {
			s := b.String()
			if len(s) > c.conf.MaxSnippetChars {
				s = s[:c.conf.MaxSnippetChars]
			}
			return s + "…"
		}
	}
	if b.Len() == 0 {
		return "page returned no readable content"
	}
	return b.String()
}
