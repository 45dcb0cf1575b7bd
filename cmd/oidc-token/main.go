package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-oidc-client/auth"
	"github.com/jrsteele09/go-oidc-client/internal/config"
	"github.com/jrsteele09/go-oidc-client/internal/transport"
	"github.com/jrsteele09/go-oidc-client/metadata"
	"github.com/jrsteele09/go-oidc-client/oauthmodel"
	"github.com/jrsteele09/go-oidc-client/token"
	"github.com/jrsteele09/go-oidc-client/token/keys"
	"github.com/jrsteele09/go-oidc-client/truststore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const operationTimeout = 2 * time.Minute

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	if err := run(); err != nil {
		log.Error().Err(err).Str("kind", string(oauthmodel.KindOf(err))).Msg("failed to acquire tokens")
		os.Exit(1)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c, err := config.New()
	if err != nil {
		return err
	}
	if level, err := zerolog.ParseLevel(c.GetLogLevel()); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	displayAppname(c.GetAppName())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()

	client, err := newClient(ctx, c)
	if err != nil {
		return err
	}

	spec, err := tokenSpec(c)
	if err != nil {
		return err
	}
	tokens, err := client.AcquireTokensByPassword(ctx, c.GetUsername(), c.GetPassword(), spec)
	if err != nil {
		return err
	}
	printTokens(tokens)
	return nil
}

func newClient(ctx context.Context, c config.Config) (*auth.Client, error) {
	store := truststore.System()
	if c.GetTrustBundle() != "" {
		store = truststore.FromPEMFile(c.GetTrustBundle())
	}
	tr, err := transport.New(store)
	if err != nil {
		return nil, err
	}

	md, err := metadata.Discover(ctx, c.GetIssuer(), tr.HTTPClient())
	if err != nil {
		return nil, err
	}
	providerKey, err := metadata.FetchProviderPublicKey(ctx, tr.HTTPClient(), md.JWKSURI)
	if err != nil {
		return nil, err
	}
	log.Info().Str("issuer", md.Issuer).Str("token_endpoint", md.TokenEndpoint.String()).Msg("discovered provider")

	conn, err := auth.NewConnectionConfigFromMetadata(md, providerKey, auth.WithTrustStore(store))
	if err != nil {
		return nil, err
	}

	opts := []auth.ClientOption{
		auth.WithClientID(c.GetClientID()),
		auth.WithClockTolerance(c.GetClockTolerance()),
	}
	if c.GetHolderOfKeyPKCS12() != "" {
		hok, err := keys.LoadHolderOfKeyPKCS12(c.GetHolderOfKeyPKCS12(), c.GetHolderOfKeyPassword())
		if err != nil {
			return nil, err
		}
		opts = append(opts, auth.WithHolderOfKey(hok))
	}
	cfg, err := auth.NewClientConfig(conn, opts...)
	if err != nil {
		return nil, err
	}
	return auth.New(cfg, auth.WithTransport(tr))
}

func tokenSpec(c config.Config) (oauthmodel.TokenSpec, error) {
	var opts []oauthmodel.TokenSpecOption
	if c.GetRefreshToken() {
		opts = append(opts, oauthmodel.WithRefreshToken())
	}
	if rs := c.GetResourceServers(); len(rs) > 0 {
		opts = append(opts, oauthmodel.WithResourceServers(rs...))
	}
	return oauthmodel.NewTokenSpec(opts...)
}

func printTokens(tokens *token.OIDCTokens) {
	id := tokens.IDToken
	fmt.Printf("subject:      %s\n", id.Subject())
	fmt.Printf("issuer:       %s\n", id.Issuer())
	fmt.Printf("tenant:       %s\n", id.Tenant())
	fmt.Printf("token type:   %s\n", id.TokenType())
	fmt.Printf("expires:      %s\n", id.ExpirationTime().Format(time.RFC3339))
	if groups := id.Groups(); len(groups) > 0 {
		fmt.Printf("groups:       %s\n", strings.Join(groups, ", "))
	}
	if at := tokens.AccessToken; at != nil {
		fmt.Printf("access scope: %s\n", at.Scope())
		fmt.Printf("audience:     %s\n", strings.Join(at.Audience(), ", "))
	}
	fmt.Printf("refresh token issued: %t\n", tokens.RefreshToken != nil)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
