package dauchez

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"dauchez-konnector/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/dauchez")

const DefaultBaseUrl = "https://extranet.dauchez.fr"

var ErrLoginFailed = errors.New("Failed to login to your account.")
var ErrVendorDown = errors.New("the extranet is unreachable or behaving unexpectedly")
var ErrNoListing = errors.New("no bill listing is visible to this account")

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
}

type ClientOptions struct {
	// defaults to DefaultBaseUrl when empty
	BaseUrl string
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/dauchez/http")

	c := &Client{
		BaseUrl: baseUrl,
		Http:    client,
	}
	return c, nil
}

// the extranet's login handler only answers with its JSON envelope
// when the request is marked as script-originated
func (c *Client) xhr(ctx context.Context) *resty.Request {
	return c.Http.R().
		SetContext(ctx).
		SetHeader("X-Requested-With", "XMLHttpRequest")
}

func (c *Client) Login(ctx context.Context, username, password string) error {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	res, err := c.xhr(ctx).
		SetFormData(map[string]string{
			"identifiant":          username,
			"pwd":                  password,
			"g-recaptcha-response": "",
			"hid_css":              "",
			"isIframe":             "0",
		}).
		Post("/Login")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make login request")
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if res.StatusCode() != http.StatusOK {
		slog.ErrorContext(ctx, "failed to login", "status", res.StatusCode())
		span.SetStatus(codes.Error, "login returned a non-200 status")
		return ErrLoginFailed
	}

	env, err := decodeEnvelope(res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode login envelope")
		return fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	if !env.Response || !env.FlagLogin {
		slog.ErrorContext(ctx, "failed to login", "message", env.Message)
		span.SetStatus(codes.Error, "login flags not set")
		return ErrLoginFailed
	}

	if env.Redirect != "" {
		// the post-login redirect only primes server side state, a
		// failure here is not an authentication failure
		_, err := c.Http.R().SetContext(ctx).Get(env.Redirect)
		if err != nil {
			slog.WarnContext(ctx, "failed to follow login redirect", "path", env.Redirect, "err", err)
		}
	}

	return nil
}

// PrimeSession walks through the account pages the server wants to see
// visited before it will answer the listing request. The responses
// themselves carry nothing of interest.
func (c *Client) PrimeSession(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "client:PrimeSession")
	defer span.End()

	steps := []struct {
		name string
		call func() (*resty.Response, error)
	}{
		{"account page", func() (*resty.Response, error) {
			return c.Http.R().SetContext(ctx).Get("/Extranet/Compte")
		}},
		{"situation page", func() (*resty.Response, error) {
			return c.Http.R().SetContext(ctx).Get("/Extranet/Compte/situation")
		}},
		{"encart load", func() (*resty.Response, error) {
			return c.xhr(ctx).Post("/Encart/load")
		}},
	}

	for _, step := range steps {
		res, err := step.call()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, fmt.Sprintf("failed to load %s", step.name))
			return fmt.Errorf("load %s: %w", step.name, ErrVendorDown)
		}
		if res.IsError() {
			slog.ErrorContext(ctx, "session priming step failed", "step", step.name, "status", res.StatusCode())
			span.SetStatus(codes.Error, fmt.Sprintf("%s returned an error status", step.name))
			return fmt.Errorf("load %s: %w", step.name, ErrVendorDown)
		}
	}

	return nil
}

// only debit operations of the rent bill category, with no date or
// amount bounds
var listingForm = map[string]string{
	"sortCompte":                "",
	"titleCompte":               "Situation",
	"limitCompte":               "0",
	"nom":                       "",
	"debit":                     "1",
	"id_libelle_code_collectif": "22",
	"montant_min":               "",
	"montant_max":               "",
	"date_debut":                "",
	"date_fin":                  "",
	"id_type_collectif[]":       "7",
}

// FetchListing requests the bill listing and extracts one Bill per data
// row of the returned table, in source order. Rows without a download
// link still appear with an empty FileUrl.
func (c *Client) FetchListing(ctx context.Context) ([]Bill, error) {
	ctx, span := tracer.Start(ctx, "client:FetchListing")
	defer span.End()

	res, err := c.xhr(ctx).
		SetFormData(listingForm).
		Post("/Extranet/Compte/listSituation")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make listing request")
		return nil, fmt.Errorf("fetch listing: %w", ErrVendorDown)
	}
	if res.IsError() {
		slog.ErrorContext(ctx, "failed to get documents", "status", res.StatusCode())
		span.SetStatus(codes.Error, "listing returned an error status")
		return nil, fmt.Errorf("fetch listing: %w", ErrVendorDown)
	}

	env, err := decodeEnvelope(res.Body())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode listing envelope")
		return nil, fmt.Errorf("decode listing: %w", ErrVendorDown)
	}
	if !env.Response {
		slog.ErrorContext(ctx, "failed to get documents", "message", env.Message)
		span.SetStatus(codes.Error, "listing flag not set")
		return nil, ErrNoListing
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(env.ReturnArray.Contenu))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse listing html")
		return nil, fmt.Errorf("parse listing: %w", ErrVendorDown)
	}

	return ExtractBills(doc)
}
