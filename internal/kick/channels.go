package kick

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// DefaultAPIBaseURL is Kick's public REST API, used only to resolve a
// channel slug to its numeric chatroom id.
const DefaultAPIBaseURL = "https://kick.com"

// Kick's edge rejects Go's default User-Agent, so the resolver mimics a
// browser.
const resolverUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// ChannelResolver maps channel slugs to chatroom ids via the REST API.
// The zero value is not usable; call NewChannelResolver.
type ChannelResolver struct {
	baseURL string
	client  *http.Client
}

func NewChannelResolver(baseURL string) *ChannelResolver {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	return &ChannelResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type channelResponse struct {
	Chatroom struct {
		ID int64 `json:"id"`
	} `json:"chatroom"`
}

// Resolve returns the chatroom id for a channel slug.
func (r *ChannelResolver) Resolve(ctx context.Context, slug string) (int64, error) {
	url := fmt.Sprintf("%s/api/v2/channels/%s", r.baseURL, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", resolverUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("resolve channel %q: %w", slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, fmt.Errorf("resolve channel %q: channel not found", slug)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("resolve channel %q: unexpected status %d", slug, resp.StatusCode)
	}

	var body channelResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("resolve channel %q: decode response: %w", slug, err)
	}
	if body.Chatroom.ID == 0 {
		return 0, fmt.Errorf("resolve channel %q: response has no chatroom id", slug)
	}
	return body.Chatroom.ID, nil
}
