package konnector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dauchez-konnector/lib/billstore"
	"dauchez-konnector/lib/scrapers/dauchez"
	"dauchez-konnector/lib/telemetry"

	"github.com/stretchr/testify/require"
)

const listingFixture = `
<table><tbody>
<tr><th>Date</th><th></th><th>Libellé</th><th>Débit</th><th></th><th></th></tr>
<tr><td>05/03/2021</td><td></td><td>Loyer mars 2021</td><td>845,30</td><td></td>
  <td><span><a href="/doc/1">PDF</a></span></td></tr>
<tr><td>05/04/2021</td><td></td><td>Loyer avril 2021</td><td>845,30</td><td></td>
  <td><span><a href="/doc/2">PDF</a></span></td></tr>
<tr><td>10/04/2021</td><td></td><td>Régularisation</td><td>0,00</td><td></td><td></td></tr>
<tr><td colspan="6">Total</td></tr>
</tbody></table>`

// captureSink records the hand-off instead of persisting anything.
type captureSink struct {
	saves    int
	opts     billstore.SaveOptions
	docs     []dauchez.Document
	contents []string
}

func (s *captureSink) SaveBills(ctx context.Context, docs []dauchez.Document, opts billstore.SaveOptions) error {
	s.saves++
	s.opts = opts
	s.docs = docs
	for _, doc := range docs {
		contents, err := io.ReadAll(doc.Content)
		if err != nil {
			return err
		}
		doc.Content.Close()
		s.contents = append(s.contents, string(contents))
	}
	return nil
}

type extranetOptions struct {
	denyListing bool
}

func newExtranet(t *testing.T, opts extranetOptions) *httptest.Server {
	writeEnvelope := func(w http.ResponseWriter, env map[string]any) {
		w.Header().Set("content-type", "application/json")
		json.NewEncoder(w).Encode(env)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Login":
			r.ParseForm()
			if r.PostForm.Get("identifiant") != "tenant" || r.PostForm.Get("pwd") != "secret" {
				writeEnvelope(w, map[string]any{"response": false, "message": "Identifiants incorrects"})
				return
			}
			writeEnvelope(w, map[string]any{"response": true, "flag_login": true})
		case "/Extranet/Compte", "/Extranet/Compte/situation", "/Encart/load":
			fmt.Fprint(w, "ok")
		case "/Extranet/Compte/listSituation":
			if opts.denyListing {
				writeEnvelope(w, map[string]any{"response": false, "message": "Aucune situation"})
				return
			}
			writeEnvelope(w, map[string]any{
				"response":    true,
				"returnArray": map[string]any{"contenu": listingFixture},
			})
		default:
			if strings.HasPrefix(r.URL.Path, "/doc/") {
				fmt.Fprintf(w, "pdf %s", strings.TrimPrefix(r.URL.Path, "/doc/"))
				return
			}
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func setupService(t *testing.T, opts extranetOptions) (Service, *captureSink) {
	cleanup := telemetry.SetupForTesting(t, "test:services/konnector")
	t.Cleanup(cleanup)

	server := newExtranet(t, opts)
	client, err := dauchez.NewClient(context.Background(), dauchez.ClientOptions{
		BaseUrl: server.URL,
	})
	require.NoError(t, err)

	sink := &captureSink{}
	return NewService(client, sink), sink
}

func TestRun(t *testing.T) {
	service, sink := setupService(t, extranetOptions{})

	err := service.Run(context.Background(), Credentials{
		Username: "tenant",
		Password: "secret",
	})
	require.NoError(t, err)

	require.Equal(t, 1, sink.saves)
	require.Equal(t, []string{"dauchez"}, sink.opts.Identifiers)
	require.Equal(t, "application/pdf", sink.opts.ContentType)

	// the row without a file link never reaches the sink
	require.Len(t, sink.docs, 2)
	require.Equal(t, "2021-03-05_dauchez_845.30€.pdf", sink.docs[0].Filename)
	require.Equal(t, "2021-04-05_dauchez_845.30€.pdf", sink.docs[1].Filename)
	for _, doc := range sink.docs {
		require.Equal(t, dauchez.Vendor, doc.Vendor)
		require.Equal(t, dauchez.Currency, doc.Currency)
	}
	require.Equal(t, []string{"pdf 1", "pdf 2"}, sink.contents)
}

func TestRunBadCredentials(t *testing.T) {
	service, sink := setupService(t, extranetOptions{})

	err := service.Run(context.Background(), Credentials{
		Username: "tenant",
		Password: "nope",
	})
	require.ErrorIs(t, err, dauchez.ErrLoginFailed)
	require.Equal(t, 0, sink.saves)
}

func TestRunNoListing(t *testing.T) {
	service, sink := setupService(t, extranetOptions{denyListing: true})

	err := service.Run(context.Background(), Credentials{
		Username: "tenant",
		Password: "secret",
	})
	require.ErrorIs(t, err, dauchez.ErrNoListing)
	require.Equal(t, 0, sink.saves)
}
