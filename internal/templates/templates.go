// internal/templates/templates.go

// Package templates expands named workflow presets into concrete action
// lists. Expansion is pure: the same name and parameters always produce the
// same list, and nothing here touches a browser.
package templates

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/anuj123upadhyay/pagedriver/api/schemas"
)

// Template names. The set is closed; Expand rejects anything else.
const (
	AmazonProductSearch = "amazon_product_search"
	GoogleSearch        = "google_search"
	LinkedInProfile     = "linkedin_profile"
	TwitterScrape       = "twitter_scrape"
	GoogleMapsBusiness  = "google_maps_business"
)

// Info describes one preset for discovery surfaces (the templates command).
type Info struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
}

// Params carries the caller-supplied template parameters. Values are kept as
// strings on the wire; numeric parameters are parsed on demand.
type Params map[string]string

func (p Params) str(key string) string { return strings.TrimSpace(p[key]) }

// intOr parses the named parameter as an integer, falling back to def when
// absent. A present but malformed value is a configuration error, not a
// silent default.
func (p Params) intOr(key string, def int) (int, error) {
	raw := p.str(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, schemas.NewConfigurationError(fmt.Sprintf("template parameter %q must be an integer: %v", key, err))
	}
	return n, nil
}

type definition struct {
	description string
	parameters  []string
	expand      func(p Params) ([]schemas.Action, error)
}

var registry = map[string]definition{
	AmazonProductSearch: {
		description: "Search Amazon products and extract details",
		parameters:  []string{"search_query", "max_results", "extract_reviews"},
		expand:      amazonProductSearch,
	},
	GoogleSearch: {
		description: "Perform Google search and extract results",
		parameters:  []string{"search_query", "max_results"},
		expand:      googleSearch,
	},
	LinkedInProfile: {
		description: "Extract LinkedIn profile information",
		parameters:  []string{"profile_url"},
		expand:      linkedinProfile,
	},
	TwitterScrape: {
		description: "Scrape tweets from a Twitter/X profile",
		parameters:  []string{"username", "max_tweets"},
		expand:      twitterScrape,
	},
	GoogleMapsBusiness: {
		description: "Search and extract Google Maps business listings",
		parameters:  []string{"search_query", "location"},
		expand:      googleMapsBusiness,
	},
}

// Expand resolves a template name and parameters into its action list.
func Expand(name string, params Params) ([]schemas.Action, error) {
	def, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", schemas.ErrUnknownTemplate, name)
	}
	return def.expand(params)
}

// List returns every available preset in name order.
func List() []Info {
	infos := make([]Info, 0, len(registry))
	for name, def := range registry {
		infos = append(infos, Info{
			Name:        name,
			Description: def.description,
			Parameters:  def.parameters,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

func missingParam(template, param string) error {
	return fmt.Errorf("%w: %s is required for %s template", schemas.ErrMissingParameter, param, template)
}

func amazonProductSearch(p Params) ([]schemas.Action, error) {
	query := p.str("search_query")
	if query == "" {
		return nil, missingParam(AmazonProductSearch, "search_query")
	}
	maxResults, err := p.intOr("max_results", 20)
	if err != nil {
		return nil, err
	}

	extraction := fmt.Sprintf(`Array.from(document.querySelectorAll('.s-result-item[data-component-type="s-search-result"]'))
    .slice(0, %d)
    .map(item => ({
        title: item.querySelector('h2 a span')?.innerText || '',
        price: item.querySelector('.a-price-whole')?.innerText || 'N/A',
        rating: item.querySelector('.a-icon-alt')?.innerText || 'N/A',
        reviews: item.querySelector('.a-size-base.s-underline-text')?.innerText || '0',
        url: item.querySelector('h2 a')?.href || '',
        image: item.querySelector('img.s-image')?.src || '',
        asin: item.getAttribute('data-asin') || ''
    }))`, maxResults)

	return []schemas.Action{
		{Kind: schemas.ActionNavigate, Value: "https://www.amazon.com"},
		{Kind: schemas.ActionFill, Selector: "input[name='field-keywords']", Value: schemas.FlexibleString(query)},
		{Kind: schemas.ActionPressKey, Selector: "input[name='field-keywords']", Value: "Enter"},
		{Kind: schemas.ActionWaitForElement, Selector: ".s-result-item[data-component-type='s-search-result']", TimeoutMs: 10000},
		{Kind: schemas.ActionEvaluate, Value: schemas.FlexibleString(extraction)},
		{Kind: schemas.ActionScreenshot},
	}, nil
}

func googleSearch(p Params) ([]schemas.Action, error) {
	query := p.str("search_query")
	if query == "" {
		return nil, missingParam(GoogleSearch, "search_query")
	}
	maxResults, err := p.intOr("max_results", 10)
	if err != nil {
		return nil, err
	}

	extraction := fmt.Sprintf(`Array.from(document.querySelectorAll('.g'))
    .slice(0, %d)
    .map(item => ({
        title: item.querySelector('h3')?.innerText || '',
        url: item.querySelector('a')?.href || '',
        description: item.querySelector('.VwiC3b')?.innerText || ''
    }))`, maxResults)

	return []schemas.Action{
		{Kind: schemas.ActionNavigate, Value: schemas.FlexibleString("https://www.google.com/search?q=" + query)},
		{Kind: schemas.ActionWaitForElement, Selector: "#search", TimeoutMs: 10000},
		{Kind: schemas.ActionEvaluate, Value: schemas.FlexibleString(extraction)},
		{Kind: schemas.ActionScreenshot},
	}, nil
}

func linkedinProfile(p Params) ([]schemas.Action, error) {
	profileURL := p.str("profile_url")
	if profileURL == "" {
		return nil, missingParam(LinkedInProfile, "profile_url")
	}

	const extraction = `({
    name: document.querySelector('.pv-top-card--list li:first-child')?.innerText || '',
    headline: document.querySelector('.pv-top-card--list li:nth-child(2)')?.innerText || '',
    location: document.querySelector('.pv-top-card--list.pv-top-card--list-bullet li:first-child')?.innerText || '',
    connections: document.querySelector('.pv-top-card--list.pv-top-card--list-bullet li:nth-child(2)')?.innerText || '',
    about: document.querySelector('.pv-about__summary-text')?.innerText || ''
})`

	return []schemas.Action{
		{Kind: schemas.ActionNavigate, Value: schemas.FlexibleString(profileURL)},
		{Kind: schemas.ActionWaitForElement, Selector: ".pv-top-card", TimeoutMs: 15000},
		{Kind: schemas.ActionEvaluate, Value: extraction},
		{Kind: schemas.ActionScreenshot},
	}, nil
}

func twitterScrape(p Params) ([]schemas.Action, error) {
	username := p.str("username")
	if username == "" {
		return nil, missingParam(TwitterScrape, "username")
	}
	maxTweets, err := p.intOr("max_tweets", 10)
	if err != nil {
		return nil, err
	}

	extraction := fmt.Sprintf(`Array.from(document.querySelectorAll('article'))
    .slice(0, %d)
    .map(tweet => ({
        text: tweet.querySelector('[data-testid="tweetText"]')?.innerText || '',
        timestamp: tweet.querySelector('time')?.getAttribute('datetime') || '',
        likes: tweet.querySelector('[data-testid="like"]')?.innerText || '0',
        retweets: tweet.querySelector('[data-testid="retweet"]')?.innerText || '0',
        replies: tweet.querySelector('[data-testid="reply"]')?.innerText || '0'
    }))`, maxTweets)

	return []schemas.Action{
		{Kind: schemas.ActionNavigate, Value: schemas.FlexibleString("https://twitter.com/" + username)},
		{Kind: schemas.ActionWaitForElement, Selector: "article", TimeoutMs: 10000},
		{Kind: schemas.ActionScroll, Value: "1000"},
		{Kind: schemas.ActionWait, Value: "2000"},
		{Kind: schemas.ActionEvaluate, Value: schemas.FlexibleString(extraction)},
		{Kind: schemas.ActionScreenshot},
	}, nil
}

func googleMapsBusiness(p Params) ([]schemas.Action, error) {
	query := p.str("search_query")
	if query == "" {
		return nil, missingParam(GoogleMapsBusiness, "search_query")
	}

	searchURL := "https://www.google.com/maps/search/" + query
	if location := p.str("location"); location != "" {
		searchURL += "+" + location
	}

	const extraction = `Array.from(document.querySelectorAll('[role="article"]'))
    .slice(0, 20)
    .map(item => ({
        name: item.querySelector('.fontHeadlineSmall')?.innerText || '',
        rating: item.querySelector('.MW4etd')?.innerText || 'N/A',
        reviews: item.querySelector('.UY7F9')?.innerText || '0',
        address: item.querySelector('.W4Efsd:nth-of-type(2)')?.innerText || '',
        type: item.querySelector('.W4Efsd:first-of-type')?.innerText || '',
        phone: item.querySelector('[data-tooltip="Copy phone number"]')?.innerText || ''
    }))`

	return []schemas.Action{
		{Kind: schemas.ActionNavigate, Value: schemas.FlexibleString(searchURL)},
		{Kind: schemas.ActionWaitForElement, Selector: "[role='article']", TimeoutMs: 10000},
		{Kind: schemas.ActionWait, Value: "3000"},
		{Kind: schemas.ActionEvaluate, Value: extraction},
		{Kind: schemas.ActionScreenshot},
	}, nil
}
