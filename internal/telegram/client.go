package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/felixgeelhaar/reserva/pkg/observability"
)

// DefaultBaseURL is the public Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

// ClientConfig configures a Client.
type ClientConfig struct {
	Token   string
	BaseURL string
	// Timeout bounds each call except long polls, which add their own wait.
	Timeout time.Duration
	// RateLimit caps outgoing messages per second. Zero disables the limit.
	RateLimit int
	// FailureThreshold consecutive failures open the breaker for OpenTimeout.
	FailureThreshold uint32
	OpenTimeout      time.Duration
	HTTP             *http.Client
}

// Client calls the Telegram Bot API through tgbotapi. Message calls share a
// rate limiter and every call runs through one circuit breaker per bot.
type Client struct {
	bot     *tgbotapi.BotAPI
	timeout time.Duration
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*tgbotapi.APIResponse]
	metrics observability.Metrics
	logger  *slog.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if cfg.HTTP == nil {
		cfg.HTTP = &http.Client{}
	}

	// Built by hand: NewBotAPI would call getMe before the first update.
	bot := &tgbotapi.BotAPI{Token: cfg.Token, Client: cfg.HTTP}
	bot.SetAPIEndpoint(strings.TrimRight(cfg.BaseURL, "/") + "/bot%s/%s")

	c := &Client{
		bot:     bot,
		timeout: cfg.Timeout,
		http:    cfg.HTTP,
		limiter: rate.NewLimiter(rate.Inf, 0),
		metrics: observability.NoopMetrics{},
		logger:  slog.Default(),
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimit)
	}

	threshold := cfg.FailureThreshold
	c.breaker = gobreaker.NewCircuitBreaker[*tgbotapi.APIResponse](gobreaker.Settings{
		Name:        "telegram",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isBreakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			c.metrics.Gauge(observability.MetricTelegramBreaker, float64(to))
		},
	})
	return c
}

func (c *Client) WithMetrics(metrics observability.Metrics) *Client {
	c.metrics = metrics
	return c
}

func (c *Client) WithLogger(logger *slog.Logger) *Client {
	c.logger = logger
	return c
}

// SendMessage sends a text message and returns it as delivered.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) (*Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	cfg := tgbotapi.NewMessage(req.ChatID, req.Text)
	cfg.ParseMode = req.ParseMode
	if markup := toAPIMarkup(req.ReplyMarkup); markup != nil {
		cfg.ReplyMarkup = markup
	}

	var sent tgbotapi.Message
	if err := c.request(ctx, "sendMessage", c.timeout, cfg, &sent); err != nil {
		return nil, err
	}
	return fromAPIMessage(&sent), nil
}

// EditMessageText replaces the text and keyboard of a sent message. A nil
// ReplyMarkup removes the keyboard.
func (c *Client) EditMessageText(ctx context.Context, req EditMessageTextRequest) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	cfg := tgbotapi.NewEditMessageText(req.ChatID, int(req.MessageID), req.Text)
	cfg.ParseMode = req.ParseMode
	cfg.ReplyMarkup = toAPIMarkup(req.ReplyMarkup)
	return c.request(ctx, "editMessageText", c.timeout, cfg, nil)
}

// AnswerCallbackQuery acknowledges a button press, optionally with a toast.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	return c.request(ctx, "answerCallbackQuery", c.timeout, tgbotapi.NewCallback(callbackID, text), nil)
}

// GetUpdates long-polls for updates after offset, waiting up to wait.
func (c *Client) GetUpdates(ctx context.Context, offset int64, wait time.Duration) ([]Update, error) {
	cfg := tgbotapi.NewUpdate(int(offset))
	cfg.Timeout = int(wait / time.Second)
	cfg.AllowedUpdates = allowedUpdates

	var raw []tgbotapi.Update
	if err := c.request(ctx, "getUpdates", c.timeout+wait, cfg, &raw); err != nil {
		return nil, err
	}
	updates := make([]Update, len(raw))
	for i, u := range raw {
		updates[i] = fromAPIUpdate(u)
	}
	return updates, nil
}

// SetWebhook registers webhookURL for update delivery. Telegram echoes secret in
// the X-Telegram-Bot-Api-Secret-Token header of every delivery.
func (c *Client) SetWebhook(ctx context.Context, webhookURL, secret string) error {
	params := tgbotapi.Params{"url": webhookURL}
	params.AddNonEmpty("secret_token", secret)
	if err := params.AddInterface("allowed_updates", allowedUpdates); err != nil {
		return err
	}
	return c.call(ctx, "setWebhook", c.timeout, nil, func(bot *tgbotapi.BotAPI) (*tgbotapi.APIResponse, error) {
		return bot.MakeRequest("setWebhook", params)
	})
}

// DeleteWebhook switches the bot back to getUpdates delivery.
func (c *Client) DeleteWebhook(ctx context.Context) error {
	return c.request(ctx, "deleteWebhook", c.timeout, tgbotapi.DeleteWebhookConfig{}, nil)
}

func (c *Client) request(ctx context.Context, method string, timeout time.Duration, cfg tgbotapi.Chattable, out any) error {
	return c.call(ctx, method, timeout, out, func(bot *tgbotapi.BotAPI) (*tgbotapi.APIResponse, error) {
		return bot.Request(cfg)
	})
}

func (c *Client) call(ctx context.Context, method string, timeout time.Duration, out any, fn func(*tgbotapi.BotAPI) (*tgbotapi.APIResponse, error)) error {
	if c.bot.Token == "" {
		return ErrMissingToken
	}

	resp, err := c.breaker.Execute(func() (*tgbotapi.APIResponse, error) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		resp, err := fn(c.bound(ctx))
		if err != nil {
			return nil, translate(method, err)
		}
		return resp, nil
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.Counter(observability.MetricTelegramRequests, 1, observability.T("method", method), observability.T("status", "open"))
		return ErrCircuitOpen
	case err != nil:
		c.metrics.Counter(observability.MetricTelegramRequests, 1, observability.T("method", method), observability.T("status", "error"))
		return err
	}
	c.metrics.Counter(observability.MetricTelegramRequests, 1, observability.T("method", method), observability.T("status", "ok"))

	if out == nil || resp == nil || len(resp.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// bound returns a copy of the bot whose requests carry ctx.
func (c *Client) bound(ctx context.Context) *tgbotapi.BotAPI {
	bot := *c.bot
	bot.Client = contextDoer{ctx: ctx, http: c.http}
	return &bot
}

type contextDoer struct {
	ctx  context.Context
	http *http.Client
}

func (d contextDoer) Do(req *http.Request) (*http.Response, error) {
	return d.http.Do(req.WithContext(d.ctx))
}

// translate maps tgbotapi failures onto APIError. Transport errors lose
// their URL, which embeds the token.
func translate(method string, err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return &APIError{Method: method, Code: apiErr.Code, Description: apiErr.Message}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("telegram %s: %w", method, urlErr.Err)
	}
	return fmt.Errorf("telegram %s: %w", method, err)
}

// isBreakerSuccess counts caller mistakes and cancellations as successes so
// that only transport failures and server errors open the breaker.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.Temporary()
	}
	return false
}
